// Package httpapi exposes the job board over HTTP: the public site API, the
// admin panel API behind Basic auth, static pages and ops endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/B1zn3/SearchWork-Website/internal/httpapi/middleware"
	"github.com/B1zn3/SearchWork-Website/internal/metrics"
	"github.com/B1zn3/SearchWork-Website/internal/models"
	"github.com/B1zn3/SearchWork-Website/internal/notify"
	"github.com/B1zn3/SearchWork-Website/internal/service"
	"github.com/B1zn3/SearchWork-Website/internal/storage/s3"
)

type JobService interface {
	Create(ctx context.Context, in models.JobInput, uploads []service.Upload) (*models.Job, error)
	Get(ctx context.Context, id int64) (*models.Job, error)
	List(ctx context.Context, offset, limit int) ([]models.Job, error)
	PublicList(ctx context.Context, offset, limit int) ([]models.Job, error)
	Update(ctx context.Context, id int64, in models.JobInput, uploads []service.Upload) (*models.Job, error)
	Delete(ctx context.Context, id int64) error
	Media(ctx context.Context, id int64) (*models.Media, error)
	AddMedia(ctx context.Context, jobID int64, photos []string, uploads []service.Upload) ([]models.Media, error)
	DeleteMedia(ctx context.Context, id int64) error
	UploadImages(ctx context.Context, uploads []service.Upload) ([]s3.Object, error)
	DeleteImages(ctx context.Context, keys []string) error
}

type ApplicationService interface {
	Apply(ctx context.Context, jobID int64, in models.ApplicationInput) (*models.Application, error)
	Get(ctx context.Context, id int64) (*models.Application, error)
	List(ctx context.Context, offset, limit int) ([]models.Application, error)
	FilterByStatus(ctx context.Context, raw string) ([]models.Application, error)
	UpdateStatus(ctx context.Context, id int64, raw string) (*models.Application, *notify.Task, error)
}

type SettingsService interface {
	Get(ctx context.Context) (*models.Settings, error)
	Public(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, in models.SettingsInput) (*models.Settings, error)
}

type WeatherService interface {
	Current(ctx context.Context, lat, lon float64) (json.RawMessage, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Credentials       middleware.Credentials
	ApplyRateLimit    int
	MaxUploadBytes    int64
	StaticDir         string
	AdminStaticDir    string
	TemplatesDir      string
	AdminTemplatesDir string
}

// Deps holds everything the handlers need. RateCounter and the health
// checks are optional.
type Deps struct {
	Jobs         JobService
	Applications ApplicationService
	Settings     SettingsService
	Weather      WeatherService
	RateCounter  middleware.ApplyCounter
	Health       map[string]Pinger
	Logger       *zap.Logger
}

type Server struct {
	router *mux.Router
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, deps Deps) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}

	s := &Server{
		router: mux.NewRouter(),
		deps:   deps,
		cfg:    cfg,
		logger: deps.Logger,
	}

	s.setupMiddleware()

	s.registerHandlers()

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery(s.logger))

	s.router.Use(middleware.Logger(s.logger))

	s.router.Use(middleware.Metrics())
}

func (s *Server) registerHandlers() {
	r := s.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	auth := middleware.BasicAuth(s.cfg.Credentials, s.logger)

	// Pages
	r.HandleFunc("/", s.indexPage).Methods(http.MethodGet)
	r.Handle("/admin", auth(http.HandlerFunc(s.adminPage))).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.StaticDir))))
	r.PathPrefix("/admin/static/").Handler(http.StripPrefix("/admin/static/", http.FileServer(http.Dir(s.cfg.AdminStaticDir))))

	// Public API
	public := r.PathPrefix("/main").Subrouter()
	public.HandleFunc("/jobs", s.listPublicJobs).Methods(http.MethodGet)
	public.HandleFunc("/jobs/{id:[0-9]+}", s.getJob).Methods(http.MethodGet)
	public.Handle("/apply/{id:[0-9]+}",
		middleware.RateLimit(s.deps.RateCounter, s.cfg.ApplyRateLimit, s.logger)(http.HandlerFunc(s.apply)),
	).Methods(http.MethodPost)
	public.HandleFunc("/settings", s.publicSettings).Methods(http.MethodGet)
	public.HandleFunc("/weather-info/{lat}/{lon}", s.weather).Methods(http.MethodGet)
	public.HandleFunc("/media/{id:[0-9]+}", s.media).Methods(http.MethodGet)

	// Admin API
	admin := r.PathPrefix("/admin-panel").Subrouter()
	admin.Use(auth)
	admin.HandleFunc("/jobs", s.listJobs).Methods(http.MethodGet)
	admin.HandleFunc("/jobs", s.createJob).Methods(http.MethodPost)
	admin.HandleFunc("/new_job", s.createJob).Methods(http.MethodPost)
	admin.HandleFunc("/jobs/{id:[0-9]+}", s.getJob).Methods(http.MethodGet)
	admin.HandleFunc("/jobs/{id:[0-9]+}", s.updateJob).Methods(http.MethodPut)
	admin.HandleFunc("/jobs/{id:[0-9]+}", s.deleteJob).Methods(http.MethodDelete)
	admin.HandleFunc("/jobs/{id:[0-9]+}/media", s.addMedia).Methods(http.MethodPost)
	admin.HandleFunc("/media/{id:[0-9]+}", s.deleteMedia).Methods(http.MethodDelete)
	admin.HandleFunc("/upload-images", s.uploadImages).Methods(http.MethodPost)
	admin.HandleFunc("/delete-images", s.deleteImages).Methods(http.MethodPost)
	admin.HandleFunc("/applications", s.listApplications).Methods(http.MethodGet)
	admin.HandleFunc("/applications/{id:[0-9]+}", s.getApplication).Methods(http.MethodGet)
	admin.HandleFunc("/applications/{id:[0-9]+}/status", s.updateApplicationStatus).Methods(http.MethodPut)
	admin.HandleFunc("/applications/filter/{status}", s.filterApplications).Methods(http.MethodGet)
	admin.HandleFunc("/settings", s.getSettings).Methods(http.MethodGet)
	admin.HandleFunc("/settings", s.updateSettings).Methods(http.MethodPut)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.Health))
	for name, p := range s.deps.Health {
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", zap.String("component", name), zap.Error(err))
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}

	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}
