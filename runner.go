package slidedeck

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/slidedeck/pkg/domain"
)

// Runner drives an Editor from line commands, the terminal counterpart of the browser's
// toolbar and keyboard shortcuts.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

const runnerHelp = `commands:
  show                      print the active slide
  slides                    list slides
  slide <id>                switch the active slide
  add                       add an empty slide
  new <type> [value]        create a node (text, image, html, mutationTable, timeline)
  move <node> <dx> <dy>     commit a drag
  resize <node> <width>
  left <node> <x>
  value <node> <text>
  align <node> h|v <extent> centre on the canvas
  del <node>
  select <node> | deselect <node>
  undo | redo
  load | save
  quit`

// Run executes the command loop until EOF or quit.
func (r *Runner) Run(ctx context.Context, ed *Editor) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	writer := r.Output
	if writer == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintf(writer, "--- slidedeck %s: patient %s ---\n", Version, ed.PatientID())
		r.show(writer, ed)
	}

	for {
		if !r.Headless {
			fmt.Fprint(writer, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		fields := strings.Fields(text)
		if len(fields) > 0 {
			if fields[0] == "quit" || fields[0] == "exit" {
				fmt.Fprintln(writer, "Bye!")
				return nil
			}
			out, cmdErr := r.exec(ctx, ed, fields)
			switch {
			case cmdErr != nil:
				fmt.Fprintf(writer, "error: %v\n", cmdErr)
			case out != "":
				fmt.Fprintln(writer, out)
			}
		}
		if eof {
			return nil
		}
	}
}

func (r *Runner) exec(ctx context.Context, ed *Editor, f []string) (string, error) {
	arg := func(i int) (string, error) {
		if len(f) <= i {
			return "", fmt.Errorf("%s: missing argument %d", f[0], i)
		}
		return f[i], nil
	}
	num := func(i int) (float64, error) {
		s, err := arg(i)
		if err != nil {
			return 0, err
		}
		return strconv.ParseFloat(s, 64)
	}
	changed := func(ok bool) (string, error) {
		if ok {
			return "ok", nil
		}
		return "unchanged", nil
	}

	switch f[0] {
	case "help", "?":
		return runnerHelp, nil
	case "show":
		return r.render(Outline(ed.State(), true)), nil
	case "slides":
		return r.render(Outline(ed.State(), false)), nil
	case "slide":
		id, err := arg(1)
		if err != nil {
			return "", err
		}
		return "ok", ed.SetActiveSlide(domain.SlideID(id))
	case "add":
		return string(ed.AddSlide(ctx)), nil
	case "new":
		t, err := arg(1)
		if err != nil {
			return "", err
		}
		var value *string
		if len(f) > 2 {
			value = domain.Ptr(strings.Join(f[2:], " "))
		}
		n, err := ed.CreateNode(ctx, domain.NodeType(t), value, 0, 0)
		if err != nil {
			return "", err
		}
		return n.ID, nil
	case "move":
		dx, err := num(2)
		if err != nil {
			return "", err
		}
		dy, err := num(3)
		if err != nil {
			return "", err
		}
		return changed(ed.MoveNode(ctx, f[1], dx, dy))
	case "resize":
		w, err := num(2)
		if err != nil {
			return "", err
		}
		return changed(ed.ResizeNode(ctx, f[1], w))
	case "left":
		x, err := num(2)
		if err != nil {
			return "", err
		}
		return changed(ed.SetNodeLeft(ctx, f[1], x))
	case "value":
		if len(f) < 3 {
			return "", fmt.Errorf("value: usage value <node> <text>")
		}
		return changed(ed.SetNodeValue(ctx, f[1], domain.Ptr(strings.Join(f[2:], " ")), nil))
	case "align":
		axis, err := arg(2)
		if err != nil {
			return "", err
		}
		extent, err := num(3)
		if err != nil {
			return "", err
		}
		a := AxisHorizontal
		if axis == "v" || axis == string(AxisVertical) {
			a = AxisVertical
		}
		ok, err := ed.AlignNode(ctx, f[1], a, extent)
		if err != nil {
			return "", err
		}
		return changed(ok)
	case "del":
		id, err := arg(1)
		if err != nil {
			return "", err
		}
		return changed(ed.DeleteNode(ctx, id))
	case "select":
		id, err := arg(1)
		if err != nil {
			return "", err
		}
		return "ok", ed.Select(id)
	case "deselect":
		id, err := arg(1)
		if err != nil {
			return "", err
		}
		return changed(ed.Deselect(id))
	case "undo":
		return changed(ed.Undo(ctx, ""))
	case "redo":
		return changed(ed.Redo(ctx, ""))
	case "load":
		return "loaded", ed.Load(ctx)
	case "save":
		return "saved", ed.Save(ctx)
	}
	return "", fmt.Errorf("unknown command %q (try help)", f[0])
}

func (r *Runner) show(w io.Writer, ed *Editor) {
	fmt.Fprintln(w, strings.TrimSpace(r.render(Outline(ed.State(), true))))
}

func (r *Runner) render(md string) string {
	if r.Renderer == nil {
		return md
	}
	out, err := r.Renderer(md)
	if err != nil {
		return md
	}
	return out
}
