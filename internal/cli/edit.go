package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/internal/presentation/tui"
	"github.com/aretw0/slidedeck/pkg/session"
)

// EditOptions configures an interactive editing session.
type EditOptions struct {
	PatientID string
	Headless  bool
	// Plain renders outlines without ANSI styling.
	Plain bool
	Width int
	// AutoSave saves unsaved slides when the session ends.
	AutoSave bool

	Input  io.Reader
	Output io.Writer
}

// RunEdit opens the patient's deck on b and drives it from opts.Input until quit or EOF.
// Decks changed by another process are reloaded while the session has no unsaved edits.
func RunEdit(ctx context.Context, b *Backend, opts EditOptions, logger *slog.Logger) error {
	if opts.PatientID == "" {
		return errors.New("patient id is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sessions := session.NewManager(b.Store, append(b.SessionOptions(logger),
		session.WithEditorOptions(b.EditorOptions()...))...)

	ed, err := sessions.Open(ctx, opts.PatientID)
	if err != nil {
		return fmt.Errorf("failed to open presentation: %w", err)
	}

	if b.Watch != nil {
		go func() {
			if err := sessions.Watch(ctx, b.Watch); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Presentation watch stopped", "err", err)
			}
		}()
	}

	r := slidedeck.NewRunner()
	r.Input = opts.Input
	r.Output = opts.Output
	r.Headless = opts.Headless
	if !opts.Headless {
		render, err := tui.NewRenderer(opts.Width, opts.Plain)
		if err != nil {
			logger.Warn("Markdown renderer unavailable, printing raw outlines", "err", err)
		} else {
			r.Renderer = render
		}
	}

	runErr := r.Run(ctx, ed)

	dirty := ed.Dirty()
	switch {
	case len(dirty) == 0:
	case opts.AutoSave:
		if err := sessions.Save(ctx, opts.PatientID); err != nil {
			return errors.Join(runErr, fmt.Errorf("autosave failed: %w", err))
		}
		logger.Info("Saved presentation on exit", "patient", opts.PatientID, "slides", len(dirty))
	default:
		fmt.Fprintf(opts.Output, "warning: %d slide(s) with unsaved changes were discarded\n", len(dirty))
	}
	return runErr
}
