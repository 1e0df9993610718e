package slidedeck_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/pkg/adapters/memory"
	"github.com/aretw0/slidedeck/pkg/domain"
)

// ExampleEditor shows a drag being committed and undone on a freshly loaded deck.
func ExampleEditor() {
	ctx := context.Background()
	ed, err := slidedeck.New("patient-42",
		slidedeck.WithStore(memory.NewStore()),
		slidedeck.WithSlideIDs(slidedeck.Counter(1)),
		slidedeck.WithNodeIDs(slidedeck.Counter(1)),
	)
	if err != nil {
		log.Fatal(err)
	}

	// Nothing stored yet: the session starts from the default title slide.
	if err := ed.Load(ctx); err != nil {
		log.Fatal(err)
	}
	title := ed.Nodes(ed.ActiveSlide())[0]
	fmt.Println(*title.Value)

	ed.MoveNode(ctx, title.ID, 50, 0)
	fmt.Println(ed.Nodes("1")[0].Position.Left)

	ed.Undo(ctx, "1")
	fmt.Println(ed.Nodes("1")[0].Position.Left)

	// Output:
	// Hello World
	// 50
	// 0
}

// ExampleOutline renders the active slide as markdown.
func ExampleOutline() {
	ed, _ := slidedeck.New("p1")
	ed.Reset(domain.Document{Slides: domain.Slides{
		"1": {domain.NewNode("t", domain.NodeText, domain.Ptr("Diagnosis"), 10, 20)},
	}})

	fmt.Print(slidedeck.Outline(ed.State(), true))
	// Output:
	// # Presentation p1
	//
	// ## Slide `1`
	//
	// - `t` **text** at (10, 20) width auto "Diagnosis"
}

// ExampleFullOutline lists every slide with its nodes.
func ExampleFullOutline() {
	ed, _ := slidedeck.New("p1")
	ed.Reset(domain.Document{Slides: domain.Slides{
		"1": {domain.NewNode("t", domain.NodeText, domain.Ptr("Diagnosis"), 10, 20)},
		"2": {},
	}})

	fmt.Print(slidedeck.FullOutline(ed.State()))
	// Output:
	// # Presentation p1
	//
	// 1. `1` 1 node(s) *(active)*
	// 2. `2` 0 node(s)
	//
	// ## Slide `1`
	//
	// - `t` **text** at (10, 20) width auto "Diagnosis"
	//
	// ## Slide `2`
	//
	// _empty slide_
}
