package slidedeck

import (
	"fmt"
	"strings"

	"github.com/aretw0/slidedeck/pkg/domain"
)

// Outline renders a session as markdown. With activeOnly it lists the nodes of the
// active slide; otherwise it lists every slide with its node count.
func Outline(st State, activeOnly bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Presentation %s\n\n", st.PatientID)

	if !activeOnly {
		for i, s := range st.Slides {
			marker := ""
			if s.ID == st.ActiveSlide {
				marker = " *(active)*"
			}
			fmt.Fprintf(&b, "%d. `%s` %d node(s)%s\n", i+1, s.ID, len(s.Nodes), marker)
		}
		return b.String()
	}

	for _, s := range st.Slides {
		if s.ID != st.ActiveSlide {
			continue
		}
		fmt.Fprintf(&b, "## Slide `%s`\n\n", s.ID)
		if len(s.Nodes) == 0 {
			b.WriteString("_empty slide_\n")
		}
		for _, n := range s.Nodes {
			b.WriteString(NodeLine(n))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// FullOutline is Outline followed by the node listing of every slide.
func FullOutline(st State) string {
	var b strings.Builder
	b.WriteString(Outline(st, false))
	for _, s := range st.Slides {
		fmt.Fprintf(&b, "\n## Slide `%s`\n\n", s.ID)
		if len(s.Nodes) == 0 {
			b.WriteString("_empty slide_\n")
		}
		for _, n := range s.Nodes {
			b.WriteString(NodeLine(n))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// NodeLine renders one node as a markdown list item.
func NodeLine(n domain.Node) string {
	width := "auto"
	if n.Position.Width != nil {
		width = fmt.Sprintf("%g", *n.Position.Width)
	}
	value := ""
	if n.Value != nil {
		v := *n.Value
		if len(v) > 40 {
			v = v[:40] + "..."
		}
		value = fmt.Sprintf(" %q", v)
	}
	return fmt.Sprintf("- `%s` **%s** at (%g, %g) width %s%s", n.ID, n.Type, n.Position.Left, n.Position.Top, width, value)
}
