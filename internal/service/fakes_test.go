package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/B1zn3/SearchWork-Website/internal/apperr"
	"github.com/B1zn3/SearchWork-Website/internal/mailer"
	"github.com/B1zn3/SearchWork-Website/internal/models"
	"github.com/B1zn3/SearchWork-Website/internal/notify"
	"github.com/B1zn3/SearchWork-Website/internal/storage/postgres"
	"github.com/B1zn3/SearchWork-Website/internal/storage/s3"
)

var errFakeForeignKey = apperr.ForeignKey("связанная запись не найдена", nil)

type fakeStore struct {
	mu           sync.Mutex
	nextID       int64
	jobs         map[int64]*models.Job
	media        map[int64]*models.Media
	applications map[int64]*models.Application
	settings     *models.Settings
	failCreate   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:         map[int64]*models.Job{},
		media:        map[int64]*models.Media{},
		applications: map[int64]*models.Application{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addMedia(jobID int64, in []models.MediaInput) []models.Media {
	out := make([]models.Media, 0, len(in))
	for _, item := range in {
		m := models.Media{
			ID:         f.id(),
			JobID:      jobID,
			FileName:   item.FileName,
			FileType:   item.FileType,
			MimeType:   item.MimeType,
			StorageKey: item.StorageKey,
			URL:        item.URL,
			Data:       item.Data,
		}
		f.media[m.ID] = &m
		out = append(out, m)
	}
	return out
}

func (f *fakeStore) jobMedia(jobID int64) []models.Media {
	out := []models.Media{}
	for _, m := range f.media {
		if m.JobID == jobID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeStore) CreateJob(_ context.Context, in models.JobInput, media []models.MediaInput) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreate != nil {
		return nil, f.failCreate
	}

	job := &models.Job{
		ID:                    f.id(),
		Title:                 in.Title,
		Description:           in.Description,
		Location:              in.Location,
		Salary:                in.SalaryValue(),
		CreatedAt:             time.Now().UTC(),
		Requirements:          in.Requirements,
		ConditionsAndBenefits: in.ConditionsAndBenefits,
	}
	f.jobs[job.ID] = job

	out := *job
	out.Media = f.addMedia(job.ID, media)
	return &out, nil
}

func (f *fakeStore) GetJob(_ context.Context, id int64) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	out := *job
	out.Media = f.jobMedia(id)
	return &out, nil
}

func (f *fakeStore) ListJobs(_ context.Context, offset, limit int) ([]models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int64, 0, len(f.jobs))
	for id := range f.jobs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []models.Job{}
	for i, id := range ids {
		if i < offset || len(out) == limit {
			continue
		}
		job := *f.jobs[id]
		job.Media = f.jobMedia(id)
		out = append(out, job)
	}
	return out, nil
}

func (f *fakeStore) UpdateJob(_ context.Context, id int64, in models.JobInput, media []models.MediaInput) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	job.Title = in.Title
	job.Description = in.Description
	job.Location = in.Location
	job.Salary = in.SalaryValue()
	job.Requirements = in.Requirements
	job.ConditionsAndBenefits = in.ConditionsAndBenefits
	f.addMedia(id, media)

	out := *job
	out.Media = f.jobMedia(id)
	return &out, nil
}

func (f *fakeStore) DeleteJob(_ context.Context, id int64) ([]string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.jobs[id]; !ok {
		return nil, false, nil
	}
	for _, app := range f.applications {
		if app.JobID == id {
			return nil, true, fmt.Errorf("delete job: %w", postgres.ErrJobHasApplications)
		}
	}

	keys := []string{}
	for mid, m := range f.media {
		if m.JobID != id {
			continue
		}
		if m.StorageKey != nil {
			keys = append(keys, *m.StorageKey)
		}
		delete(f.media, mid)
	}
	sort.Strings(keys)
	delete(f.jobs, id)
	return keys, true, nil
}

func (f *fakeStore) GetMedia(_ context.Context, id int64) (*models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.media[id]
	if !ok {
		return nil, nil
	}
	out := *m
	return &out, nil
}

func (f *fakeStore) AddMedia(_ context.Context, jobID int64, in []models.MediaInput) ([]models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.jobs[jobID]; !ok {
		return nil, fmt.Errorf("add media: %w", errFakeForeignKey)
	}
	return f.addMedia(jobID, in), nil
}

func (f *fakeStore) DeleteMedia(_ context.Context, id int64) (*models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.media[id]
	if !ok {
		return nil, nil
	}
	delete(f.media, id)
	return m, nil
}

func (f *fakeStore) CreateApplication(_ context.Context, in models.ApplicationInput) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[in.JobID]
	if !ok {
		return nil, fmt.Errorf("create application: %w", postgres.ErrJobNotFound)
	}

	app := &models.Application{
		ID:        f.id(),
		JobID:     in.JobID,
		JobTitle:  job.Title,
		FullName:  in.FullName,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: time.Now().UTC(),
		Status:    models.StatusPending,
	}
	if in.Experience != "" {
		experience := in.Experience
		app.Experience = &experience
	}
	f.applications[app.ID] = app

	out := *app
	return &out, nil
}

func (f *fakeStore) GetApplication(_ context.Context, id int64) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	app, ok := f.applications[id]
	if !ok {
		return nil, nil
	}
	out := *app
	return &out, nil
}

func (f *fakeStore) ListApplications(_ context.Context, offset, limit int) ([]models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.Application{}
	for _, app := range f.applications {
		out = append(out, *app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []models.Application{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) FilterApplicationsByStatus(_ context.Context, status models.ApplicationStatus) ([]models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.Application{}
	for _, app := range f.applications {
		if app.Status == status {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateApplicationStatus(_ context.Context, id int64, status models.ApplicationStatus) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	app, ok := f.applications[id]
	if !ok {
		return nil, nil
	}
	if !app.Status.CanTransition(status) {
		return nil, fmt.Errorf("update application status: %w", postgres.ErrStatusTransition)
	}
	app.Status = status
	out := *app
	return &out, nil
}

func (f *fakeStore) GetOrCreateSettings(_ context.Context) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.settings == nil {
		defaults := models.DefaultSettings()
		defaults.ID = 1
		f.settings = &defaults
	}
	out := *f.settings
	return &out, nil
}

func (f *fakeStore) FindSettings(_ context.Context) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.settings == nil {
		return nil, nil
	}
	out := *f.settings
	return &out, nil
}

func (f *fakeStore) UpdateSettings(_ context.Context, in models.SettingsInput) (*models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.settings = &models.Settings{
		ID:          1,
		SiteEmail:   in.SiteEmail,
		SitePhone:   in.SitePhone,
		SiteAddress: in.SiteAddress,
	}
	out := *f.settings
	return &out, nil
}

type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	deleted  []string
	seq      int
	failNext bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Upload(_ context.Context, fileName, _ string, r io.Reader, _ int64) (*s3.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext {
		f.failNext = false
		return nil, errors.New("bucket unavailable")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.seq++
	key := fmt.Sprintf("jobs/%d-%s", f.seq, fileName)
	f.objects[key] = data
	return &s3.Object{Key: key, URL: f.URL(key)}, nil
}

func (f *fakeStorage) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, key := range keys {
		delete(f.objects, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeStorage) URL(key string) string {
	return "https://cdn.example.by/" + key
}

func (f *fakeStorage) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := append([]string(nil), f.deleted...)
	sort.Strings(out)
	return out
}

type fakeMailer struct {
	mu        sync.Mutex
	decisions []mailer.Decision
	err       error
}

func (f *fakeMailer) SendDecision(_ context.Context, d mailer.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.decisions = append(f.decisions, d)
	return f.err
}

func (f *fakeMailer) sent() []mailer.Decision {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]mailer.Decision(nil), f.decisions...)
}

type fakeNotifier struct {
	mu   sync.Mutex
	apps []models.Application
}

func (f *fakeNotifier) NewApplication(_ context.Context, app *models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.apps = append(f.apps, *app)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.apps)
}

// rejectingDispatcher simulates a full queue.
type rejectingDispatcher struct{}

func (rejectingDispatcher) Submit(string, notify.Func) (*notify.Task, error) {
	return nil, notify.ErrQueueFull
}

type fakeCache struct {
	mu          sync.Mutex
	jobs        []models.Job
	hasJobs     bool
	weather     map[string]json.RawMessage
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{weather: map[string]json.RawMessage{}}
}

var errMiss = errors.New("miss")

func (f *fakeCache) GetPublicJobs(context.Context) ([]models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.hasJobs {
		return nil, errMiss
	}
	return f.jobs, nil
}

func (f *fakeCache) SetPublicJobs(_ context.Context, jobs []models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.jobs, f.hasJobs = jobs, true
	return nil
}

func (f *fakeCache) InvalidatePublicJobs(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.jobs, f.hasJobs = nil, false
	f.invalidated++
	return nil
}

func (f *fakeCache) GetWeather(_ context.Context, lat, lon float64) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, ok := f.weather[fmt.Sprint(lat, lon)]
	if !ok {
		return nil, errMiss
	}
	return raw, nil
}

func (f *fakeCache) SetWeather(_ context.Context, lat, lon float64, raw json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.weather[fmt.Sprint(lat, lon)] = raw
	return nil
}

type fakeWeather struct {
	calls int
	raw   json.RawMessage
	err   error
}

func (f *fakeWeather) Current(context.Context, float64, float64) (json.RawMessage, error) {
	f.calls++
	return f.raw, f.err
}

func upload(name, contentType, body string) Upload {
	return Upload{
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Body:        bytes.NewReader([]byte(body)),
	}
}
