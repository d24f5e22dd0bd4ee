package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/B1zn3/SearchWork-Website/internal/apperr"
)

const msgInternal = "Внутренняя ошибка сервера"

type messageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// statusFor maps an error category to its HTTP status. Conflicts are
// reported as 400, the way the admin panel expects them.
func statusFor(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation, apperr.CodeConflict:
		return http.StatusBadRequest
	case apperr.CodeNotFound, apperr.CodeForeignKey:
		return http.StatusNotFound
	case apperr.CodeUnavailable:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"detail": ...}. Uncategorized errors are logged
// and hidden behind a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeDetail(w, status, msgInternal)
		return
	}

	if status == http.StatusBadGateway {
		s.logger.Warn("upstream failure", zap.String("path", r.URL.Path), zap.Error(err))
	}

	writeDetail(w, status, apperr.Message(err))
}
