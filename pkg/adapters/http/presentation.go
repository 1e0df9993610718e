package http

import (
	"net/http"
	"strconv"

	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/go-chi/chi/v5"
)

type presentationBody struct {
	Slides domain.Slides `json:"slides" validate:"required"`
}

type imageUpload struct {
	ContentType string `json:"contentType" validate:"required,startswith=image/"`
	Data        []byte `json:"data" validate:"required"`
}

type imageLocation struct {
	Location string `json:"location"`
}

type patientList struct {
	Patients []string `json:"patients"`
}

func patientID(r *http.Request) string {
	return chi.URLParam(r, "patientId")
}

// listPresentations handles GET /presentation.
func (s *Server) listPresentations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, patientList{Patients: ids})
}

// getPresentation handles GET /presentation/{patientId}.
func (s *Server) getPresentation(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Store.Load(r.Context(), patientID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presentationBody{Slides: doc.Slides})
}

// savePresentation handles POST /presentation/{patientId}. Open sessions without unsaved
// slides pick up the new deck.
func (s *Server) savePresentation(w http.ResponseWriter, r *http.Request) {
	var body presentationBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	doc := domain.Document{Slides: body.Slides}
	if err := doc.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	id := patientID(r)
	if err := s.Store.Save(r.Context(), id, doc); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.Sessions.Reload(r.Context(), id); err != nil {
		s.logger.Warn("failed to refresh session after save", "patient_id", id, "err", err)
	}
	writeJSON(w, http.StatusOK, presentationBody{Slides: doc.Slides})
}

// deletePresentation handles DELETE /presentation/{patientId}.
func (s *Server) deletePresentation(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), patientID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadImage handles POST /presentation/{patientId}/image.
func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	if s.Images == nil {
		writeError(w, http.StatusNotImplemented, "image storage is not configured")
		return
	}
	var body imageUpload
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	location, err := s.Images.PutImage(r.Context(), patientID(r), body.ContentType, body.Data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusOK, imageLocation{Location: location})
}

// getImage handles GET /presentation/{patientId}/image/{imageId}.
func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	if s.Images == nil {
		writeError(w, http.StatusNotImplemented, "image storage is not configured")
		return
	}
	img, err := s.Images.GetImage(r.Context(), patientID(r), chi.URLParam(r, "imageId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	_, _ = w.Write(img.Data)
}
