package httpapi

import (
	"net/http"

	"github.com/B1zn3/SearchWork-Website/internal/models"
)

const msgSettingsUpdated = "Настройки обновлены"

func (s *Server) publicSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.Public(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var in models.SettingsInput
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

		// the admin panel sends settings as query parameters
		in = models.SettingsInput{
			SiteEmail:   r.FormValue("site_email"),
			SitePhone:   r.FormValue("site_phone"),
			SiteAddress: r.FormValue("site_address"),
		}
	}

	settings, err := s.deps.Settings.Update(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msgSettingsUpdated, Data: settings})
}
