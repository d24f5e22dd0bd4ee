package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/B1zn3/SearchWork-Website/internal/apperr"
	"github.com/B1zn3/SearchWork-Website/internal/service"
)

func (s *Server) weather(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	lat, err := strconv.ParseFloat(vars["lat"], 64)
	if err != nil {
		s.writeError(w, r, apperr.Validation("lat", service.MsgCoordinates))
		return
	}
	lon, err := strconv.ParseFloat(vars["lon"], 64)
	if err != nil {
		s.writeError(w, r, apperr.Validation("lon", service.MsgCoordinates))
		return
	}

	raw, err := s.deps.Weather.Current(r.Context(), lat, lon)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
