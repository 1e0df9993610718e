package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/pkg/deck"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/history"
	"github.com/go-playground/validator/v10"
)

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs),
		errors.Is(err, domain.ErrInvalidNode),
		errors.Is(err, deck.ErrEmptyClipboard),
		errors.Is(err, deck.ErrNotCopyable),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPresentationNotFound),
		errors.Is(err, domain.ErrImageNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrUnknownSlide),
		errors.Is(err, domain.ErrNoSelection):
		return http.StatusNotFound
	case errors.Is(err, history.ErrInvalidAction),
		errors.Is(err, slidedeck.ErrStaleLoad):
		return http.StatusConflict
	case errors.Is(err, slidedeck.ErrNoImageStore):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail writes err with its mapped status and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, status, err.Error())
}
