package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/B1zn3/SearchWork-Website/internal/apperr"
	"github.com/B1zn3/SearchWork-Website/internal/models"
	"github.com/B1zn3/SearchWork-Website/internal/service"
	"github.com/B1zn3/SearchWork-Website/internal/validation"
)

const (
	msgJobDeleted    = "Вакансия успешно удалена"
	msgImagesDeleted = "Файлы успешно удалены"
	msgMediaDeleted  = "Файл успешно удален"
)

type deleteImagesRequest struct {
	Keys []string `json:"keys"`
}

func (s *Server) listPublicJobs(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pagination(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	jobs, err := s.deps.Jobs.PublicList(r.Context(), offset, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pagination(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	jobs, err := s.deps.Jobs.List(r.Context(), offset, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	job, err := s.deps.Jobs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, s.cfg.MaxUploadBytes)

	in, uploads, done, err := jobRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer done()

	job, err := s.deps.Jobs.Create(r.Context(), in, uploads)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	limitBody(w, r, s.cfg.MaxUploadBytes)

	in, uploads, done, err := jobRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer done()

	job, err := s.deps.Jobs.Update(r.Context(), id, in, uploads)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.deps.Jobs.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msgJobDeleted})
}

// addMedia attaches multipart "media" files and "photos" references to a job.
func (s *Server) addMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	limitBody(w, r, s.cfg.MaxUploadBytes)

	if err := parseForm(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	defer removeForm(r)

	uploads, done, err := openUploads(r, "media")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer done()

	media, err := s.deps.Jobs.AddMedia(r.Context(), id, formValues(r, "photos"), uploads)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, media)
}

func (s *Server) deleteMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.deps.Jobs.DeleteMedia(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msgMediaDeleted})
}

func (s *Server) uploadImages(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, s.cfg.MaxUploadBytes)

	if err := parseForm(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	defer removeForm(r)

	uploads, done, err := openUploads(r, "files")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer done()

	if len(uploads) == 0 {
		s.writeError(w, r, apperr.Validation("files", msgInvalidForm))
		return
	}

	objects, err := s.deps.Jobs.UploadImages(r.Context(), uploads)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"files": objects})
}

func (s *Server) deleteImages(w http.ResponseWriter, r *http.Request) {
	var req deleteImagesRequest
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
		req.Keys = formValues(r, "keys")
	}

	if err := s.deps.Jobs.DeleteImages(r.Context(), req.Keys); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msgImagesDeleted})
}

func (s *Server) media(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.deps.Jobs.Media(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch {
	case len(m.Data) > 0:
		w.Header().Set("Content-Type", m.MimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(m.Data)))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(m.Data)
	case m.URL != nil && *m.URL != "":
		http.Redirect(w, r, *m.URL, http.StatusFound)
	default:
		s.writeError(w, r, apperr.NotFound(service.MsgMediaNotFound))
	}
}

// jobRequest reads a job from a JSON body or from a multipart form whose
// "media" files become attachments.
func jobRequest(r *http.Request) (models.JobInput, []service.Upload, func(), error) {
	var in models.JobInput
	noop := func() {}

	if isJSON(r) {
		if err := decodeJSON(r, &in); err != nil {
			return in, nil, noop, err
		}
		return in, nil, noop, nil
	}

	if err := parseForm(r); err != nil {
		return in, nil, noop, err
	}

	in.Title = r.FormValue("title")
	in.Description = r.FormValue("description")
	in.Location = r.FormValue("location")
	in.Requirements = optionalForm(r, "requirements", "Requirements")
	in.ConditionsAndBenefits = optionalForm(r, "conditions_and_benefits", "Conditions_and_benefits")
	in.Photos = formValues(r, "photos")

	raw := strings.TrimSpace(r.FormValue("salary"))
	if raw == "" {
		return in, nil, noop, apperr.Validation("salary", validation.MsgSalary)
	}
	salary, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return in, nil, noop, apperr.Validation("salary", validation.MsgInvalidField)
	}
	in.Salary = &salary

	uploads, closeFiles, err := openUploads(r, "media")
	if err != nil {
		removeForm(r)
		return in, nil, noop, err
	}

	return in, uploads, func() {
		closeFiles()
		removeForm(r)
	}, nil
}

// optionalForm returns the first non-empty value among the given field
// names, or nil.
func optionalForm(r *http.Request, names ...string) *string {
	for _, name := range names {
		if v := strings.TrimSpace(r.FormValue(name)); v != "" {
			return &v
		}
	}
	return nil
}

func removeForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
