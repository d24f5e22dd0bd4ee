package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/B1zn3/SearchWork-Website/internal/models"
	"github.com/B1zn3/SearchWork-Website/internal/service"
)

type statusRequest struct {
	Status string `json:"status"`
}

// apply accepts the public application form, either form-encoded or JSON.
func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	limitBody(w, r, 1<<20)

	var in models.ApplicationInput
	if isJSON(r) {
		if err := decodeJSON(r, &in); err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		if err := parseForm(r); err != nil {
			s.writeError(w, r, err)
			return
		}
		defer removeForm(r)

		in = models.ApplicationInput{
			FullName:   r.FormValue("fullName"),
			Email:      r.FormValue("email"),
			Phone:      r.FormValue("phone"),
			Experience: r.FormValue("experience"),
		}
	}

	app, err := s.deps.Applications.Apply(r.Context(), jobID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, app)
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pagination(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	apps, err := s.deps.Applications.List(r.Context(), offset, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) getApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	app, err := s.deps.Applications.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, app)
}

func (s *Server) filterApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.deps.Applications.FilterByStatus(r.Context(), mux.Vars(r)["status"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, apps)
}

// updateApplicationStatus answers as soon as the decision is stored. The
// applicant email goes out in the background.
func (s *Server) updateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req statusRequest
	if isJSON(r) {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		if err := parseForm(r); err != nil {
			s.writeError(w, r, err)
			return
		}
		req.Status = r.FormValue("status")
	}

	app, _, err := s.deps.Applications.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: service.StatusMessage(app.Status)})
}
