package http

import (
	"context"
	"net/http"

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/pkg/deck"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/go-chi/chi/v5"
)

type changedResponse struct {
	Changed bool `json:"changed"`
}

type slideRequest struct {
	SlideID domain.SlideID `json:"slideId" validate:"required"`
}

type historyRequest struct {
	SlideID domain.SlideID `json:"slideId"`
}

type createNodeRequest struct {
	Type  domain.NodeType `json:"type" validate:"required,nodetype"`
	Value *string         `json:"value"`
	Left  float64         `json:"left"`
	Top   float64         `json:"top"`
}

type moveRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type resizeRequest struct {
	Width float64 `json:"width" validate:"gt=0"`
}

type leftRequest struct {
	Left float64 `json:"left"`
}

type valueRequest struct {
	Value     *string `json:"value"`
	Draggable *bool   `json:"draggable"`
}

type alignRequest struct {
	Axis   slidedeck.Axis `json:"axis" validate:"required,oneof=horizontal vertical"`
	Extent float64        `json:"extent" validate:"gt=0"`
}

type selectRequest struct {
	NodeID string `json:"nodeId" validate:"required"`
}

func (s *Server) sessionRoutes(r chi.Router) {
	r.Get("/", s.edit(func(_ context.Context, ed *slidedeck.Editor, _ *http.Request) (int, any, error) {
		return http.StatusOK, ed.State(), nil
	}))

	r.Post("/load", s.edit(func(ctx context.Context, ed *slidedeck.Editor, r *http.Request) (int, any, error) {
		load := ed.Load
		if r.URL.Query().Get("force") == "true" {
			load = ed.ForceLoad
		}
		if err := load(ctx); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, ed.State(), nil
	}))

	r.Post("/save", s.edit(func(ctx context.Context, ed *slidedeck.Editor, _ *http.Request) (int, any, error) {
		if err := ed.Save(ctx); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, ed.State(), nil
	}))

	r.Post("/slides", s.edit(func(ctx context.Context, ed *slidedeck.Editor, _ *http.Request) (int, any, error) {
		id := ed.AddSlide(ctx)
		return http.StatusCreated, slideRequest{SlideID: id}, nil
	}))

	r.Put("/active", s.edit(func(_ context.Context, ed *slidedeck.Editor, r *http.Request) (int, any, error) {
		var body slideRequest
		if err := decode(r, &body); err != nil {
			return 0, nil, err
		}
		if err := ed.SetActiveSlide(body.SlideID); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, ed.State(), nil
	}))

	r.Post("/nodes", s.edit(func(ctx context.Context, ed *slidedeck.Editor, r *http.Request) (int, any, error) {
		var body createNodeRequest
		if err := decode(r, &body); err != nil {
			return 0, nil, err
		}
		node, err := ed.CreateNode(ctx, body.Type, body.Value, body.Left, body.Top)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, node, nil
	}))

	r.Route("/nodes/{nodeId}", func(r chi.Router) {
		r.Patch("/move", s.mutation(func(ctx context.Context, ed *slidedeck.Editor, id string, r *http.Request) (bool, error) {
			var body moveRequest
			if err := decode(r, &body); err != nil {
				return false, err
			}
			return ed.MoveNode(ctx, id, body.DX, body.DY), nil
		}))
		r.Patch("/resize", s.mutation(func(ctx context.Context, ed *slidedeck.Editor, id string, r *http.Request) (bool, error) {
			var body resizeRequest
			if err := decode(r, &body); err != nil {
				return false, err
			}
			return ed.ResizeNode(ctx, id, body.Width), nil
		}))
		r.Patch("/left", s.mutation(func(ctx context.Context, ed *slidedeck.Editor, id string, r *http.Request) (bool, error) {
			var body leftRequest
			if err := decode(r, &body); err != nil {
				return false, err
			}
			return ed.SetNodeLeft(ctx, id, body.Left), nil
		}))
		r.Patch("/value", s.mutation(func(ctx context.Context, ed *slidedeck.Editor, id string, r *http.Request) (bool, error) {
			var body valueRequest
			if err := decode(r, &body); err != nil {
				return false, err
			}
			return ed.SetNodeValue(ctx, id, body.Value, body.Draggable), nil
		}))
		r.Patch("/align", s.mutation(func(ctx context.Context, ed *slidedeck.Editor, id string, r *http.Request) (bool, error) {
			var body alignRequest
			if err := decode(r, &body); err != nil {
				return false, err
			}
			return ed.AlignNode(ctx, id, body.Axis, body.Extent)
		}))
		r.Delete("/", s.mutation(func(ctx context.Context, ed *slidedeck.Editor, id string, _ *http.Request) (bool, error) {
			return ed.DeleteNode(ctx, id), nil
		}))
	})

	r.Post("/select", s.edit(func(_ context.Context, ed *slidedeck.Editor, r *http.Request) (int, any, error) {
		var body selectRequest
		if err := decode(r, &body); err != nil {
			return 0, nil, err
		}
		if err := ed.Select(body.NodeID); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, ed.Selection(), nil
	}))

	r.Post("/deselect", s.edit(func(_ context.Context, ed *slidedeck.Editor, r *http.Request) (int, any, error) {
		var body selectRequest
		if err := decode(r, &body); err != nil {
			return 0, nil, err
		}
		ed.Deselect(body.NodeID)
		return http.StatusOK, ed.Selection(), nil
	}))

	r.Post("/undo", s.edit(func(ctx context.Context, ed *slidedeck.Editor, r *http.Request) (int, any, error) {
		var body historyRequest
		if err := decodeOptional(r, &body); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, changedResponse{Changed: ed.Undo(ctx, body.SlideID)}, nil
	}))

	r.Post("/redo", s.edit(func(ctx context.Context, ed *slidedeck.Editor, r *http.Request) (int, any, error) {
		var body historyRequest
		if err := decodeOptional(r, &body); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, changedResponse{Changed: ed.Redo(ctx, body.SlideID)}, nil
	}))

	r.Post("/copy", s.edit(func(_ context.Context, ed *slidedeck.Editor, _ *http.Request) (int, any, error) {
		clip, err := ed.Copy()
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, clip, nil
	}))

	r.With(limitBody(maxUploadBody)).Post("/paste", s.edit(func(ctx context.Context, ed *slidedeck.Editor, r *http.Request) (int, any, error) {
		var body deck.Clipboard
		if err := decode(r, &body); err != nil {
			return 0, nil, err
		}
		node, err := ed.Paste(ctx, body)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, node, nil
	}))
}

// editFunc runs one session operation and returns the status and body to reply with.
type editFunc func(ctx context.Context, ed *slidedeck.Editor, r *http.Request) (int, any, error)

// edit runs fn under the patient's session lock.
func (s *Server) edit(fn editFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			status int
			body   any
		)
		err := s.Sessions.WithLock(r.Context(), patientID(r), func(ctx context.Context, ed *slidedeck.Editor) error {
			var err error
			status, body, err = fn(ctx, ed, r)
			return err
		})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, status, body)
	}
}

// mutation adapts a node mutation to an edit reporting {changed}.
func (s *Server) mutation(fn func(ctx context.Context, ed *slidedeck.Editor, nodeID string, r *http.Request) (bool, error)) http.HandlerFunc {
	return s.edit(func(ctx context.Context, ed *slidedeck.Editor, r *http.Request) (int, any, error) {
		changed, err := fn(ctx, ed, chi.URLParam(r, "nodeId"), r)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, changedResponse{Changed: changed}, nil
	})
}
