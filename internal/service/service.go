package service

import (
	"context"
	"encoding/json"
	"io"

	"github.com/B1zn3/SearchWork-Website/internal/mailer"
	"github.com/B1zn3/SearchWork-Website/internal/models"
	"github.com/B1zn3/SearchWork-Website/internal/notify"
	"github.com/B1zn3/SearchWork-Website/internal/storage/s3"
)

const (
	MsgJobNotFound         = "Вакансия не найдена"
	MsgApplicationNotFound = "Заявка не найдена!"
	MsgMediaNotFound       = "Файл не найден"
	MsgJobHasApplications  = "Невозможно удалить вакансию, так как с ней связаны заявки"
	MsgStatusFinal         = "Решение по заявке уже принято, статус изменить нельзя"
	MsgUnsupportedMedia    = "Неподдерживаемый тип файла"
	MsgStorageDisabled     = "Хранилище файлов не настроено"
	MsgNoMedia             = "Не выбрано ни одного файла"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type JobRepository interface {
	CreateJob(ctx context.Context, in models.JobInput, media []models.MediaInput) (*models.Job, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	ListJobs(ctx context.Context, offset, limit int) ([]models.Job, error)
	UpdateJob(ctx context.Context, id int64, in models.JobInput, media []models.MediaInput) (*models.Job, error)
	DeleteJob(ctx context.Context, id int64) ([]string, bool, error)
	GetMedia(ctx context.Context, id int64) (*models.Media, error)
	AddMedia(ctx context.Context, jobID int64, media []models.MediaInput) ([]models.Media, error)
	DeleteMedia(ctx context.Context, id int64) (*models.Media, error)
}

type ApplicationRepository interface {
	CreateApplication(ctx context.Context, in models.ApplicationInput) (*models.Application, error)
	GetApplication(ctx context.Context, id int64) (*models.Application, error)
	ListApplications(ctx context.Context, offset, limit int) ([]models.Application, error)
	FilterApplicationsByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus) (*models.Application, error)
}

type SettingsRepository interface {
	GetOrCreateSettings(ctx context.Context) (*models.Settings, error)
	FindSettings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, in models.SettingsInput) (*models.Settings, error)
}

// ObjectStorage keeps uploaded media outside the database.
type ObjectStorage interface {
	Upload(ctx context.Context, fileName, contentType string, r io.Reader, size int64) (*s3.Object, error)
	Delete(ctx context.Context, keys ...string) error
	URL(key string) string
}

type Dispatcher interface {
	Submit(name string, fn notify.Func) (*notify.Task, error)
}

type Mailer interface {
	SendDecision(ctx context.Context, d mailer.Decision) error
}

type ApplicationNotifier interface {
	NewApplication(ctx context.Context, app *models.Application) error
}

type JobCache interface {
	GetPublicJobs(ctx context.Context) ([]models.Job, error)
	SetPublicJobs(ctx context.Context, jobs []models.Job) error
	InvalidatePublicJobs(ctx context.Context) error
}

type WeatherCache interface {
	GetWeather(ctx context.Context, lat, lon float64) (json.RawMessage, error)
	SetWeather(ctx context.Context, lat, lon float64, raw json.RawMessage) error
}

type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64) (json.RawMessage, error)
}

// Upload is a file received from the admin panel.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Page clamps offset and limit to sane values.
func Page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return offset, limit
}
