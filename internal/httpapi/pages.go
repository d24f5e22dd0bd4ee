package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
)

const (
	msgIndexMissing = "Главная страница не найдена"
	msgAdminMissing = "Админ панель не найдена"
)

func (s *Server) indexPage(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, filepath.Join(s.cfg.TemplatesDir, "index.html"), msgIndexMissing)
}

func (s *Server) adminPage(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, filepath.Join(s.cfg.AdminTemplatesDir, "admin.html"), msgAdminMissing)
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, path, missing string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeDetail(w, http.StatusNotFound, missing)
		return
	}
	http.ServeFile(w, r, path)
}
