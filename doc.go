/*
Package slidedeck is the editing core of per-patient slide presentations.

A deck is a set of slides, each an ordered list of positioned content blocks (text,
images, html, data tables, timelines) on a fixed 960x700 canvas. Every slide keeps its own
undo/redo timeline, so undoing on one slide never touches another.

# Concept

An Editor is one editing session for one patient. Gestures reach it as mutations
(create, move, resize, edit value, delete, align); each mutation computes the next node
list of the active slide and commits it to the slide's history only when something
actually changed. Persistence only ever sees the present layer of every slide: the
history is session scratch state.

# Usage

	store := memory.NewStore()
	ed, err := slidedeck.New("patient-42", slidedeck.WithStore(store))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := ed.Load(ctx); err != nil { // default title slide when nothing is stored
		log.Fatal(err)
	}

	node, _ := ed.CreateNode(ctx, domain.NodeText, domain.Ptr("Findings"), 0, 0)
	ed.MoveNode(ctx, node.ID, 50, 0)
	ed.Undo(ctx, "") // the active slide

	if err := ed.Save(ctx); err != nil {
		log.Fatal(err)
	}
*/
package slidedeck
