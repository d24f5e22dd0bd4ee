package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/B1zn3/SearchWork-Website/internal/apperr"
	"github.com/B1zn3/SearchWork-Website/internal/config"
	"github.com/B1zn3/SearchWork-Website/internal/models"
	"github.com/B1zn3/SearchWork-Website/internal/notify"
	"github.com/B1zn3/SearchWork-Website/internal/service"
	"github.com/B1zn3/SearchWork-Website/internal/storage/s3"
	"github.com/B1zn3/SearchWork-Website/internal/validation"
)

type fakeJobs struct {
	validator *validation.Validator

	jobs    map[int64]*models.Job
	media   map[int64]*models.Media
	err     error
	created models.JobInput
	files   map[string]string
	deleted []string
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{
		validator: validation.New(config.PhoneFormatBelarus),
		jobs:      map[int64]*models.Job{},
		media:     map[int64]*models.Media{},
		files:     map[string]string{},
	}
}

func (f *fakeJobs) readUploads(uploads []service.Upload) {
	for _, u := range uploads {
		data, _ := io.ReadAll(u.Body)
		f.files[u.FileName] = string(data)
	}
}

func (f *fakeJobs) Create(_ context.Context, in models.JobInput, uploads []service.Upload) (*models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	in, err := f.validator.Job(in)
	if err != nil {
		return nil, err
	}
	f.created = in
	f.readUploads(uploads)
	job := &models.Job{ID: int64(len(f.jobs) + 1), Title: in.Title, Salary: in.SalaryValue()}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeJobs) Get(_ context.Context, id int64) (*models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	job, ok := f.jobs[id]
	if !ok {
		return nil, apperr.NotFound(service.MsgJobNotFound)
	}
	return job, nil
}

func (f *fakeJobs) List(_ context.Context, _, _ int) ([]models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, *j)
	}
	return out, nil
}

func (f *fakeJobs) PublicList(ctx context.Context, offset, limit int) ([]models.Job, error) {
	return f.List(ctx, offset, limit)
}

func (f *fakeJobs) Update(_ context.Context, id int64, in models.JobInput, uploads []service.Upload) (*models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	job, ok := f.jobs[id]
	if !ok {
		return nil, apperr.NotFound(service.MsgJobNotFound)
	}
	f.readUploads(uploads)
	job.Title = in.Title
	return job, nil
}

func (f *fakeJobs) Delete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.jobs[id]; !ok {
		return apperr.NotFound(service.MsgJobNotFound)
	}
	delete(f.jobs, id)
	return nil
}

func (f *fakeJobs) Media(_ context.Context, id int64) (*models.Media, error) {
	m, ok := f.media[id]
	if !ok {
		return nil, apperr.NotFound(service.MsgMediaNotFound)
	}
	return m, nil
}

func (f *fakeJobs) AddMedia(_ context.Context, jobID int64, photos []string, uploads []service.Upload) ([]models.Media, error) {
	if _, ok := f.jobs[jobID]; !ok {
		return nil, apperr.NotFound(service.MsgJobNotFound)
	}
	f.readUploads(uploads)
	out := make([]models.Media, 0, len(photos)+len(uploads))
	for _, p := range photos {
		link := p
		out = append(out, models.Media{ID: int64(len(f.media) + len(out) + 1), JobID: jobID, FileName: p, URL: &link})
	}
	for _, u := range uploads {
		out = append(out, models.Media{ID: int64(len(f.media) + len(out) + 1), JobID: jobID, FileName: u.FileName})
	}
	for i := range out {
		f.media[out[i].ID] = &out[i]
	}
	return out, nil
}

func (f *fakeJobs) DeleteMedia(_ context.Context, id int64) error {
	if _, ok := f.media[id]; !ok {
		return apperr.NotFound(service.MsgMediaNotFound)
	}
	delete(f.media, id)
	return nil
}

func (f *fakeJobs) UploadImages(_ context.Context, uploads []service.Upload) ([]s3.Object, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.readUploads(uploads)
	out := make([]s3.Object, 0, len(uploads))
	for _, u := range uploads {
		out = append(out, s3.Object{Key: "jobs/" + u.FileName, URL: "https://cdn.test/jobs/" + u.FileName})
	}
	return out, nil
}

func (f *fakeJobs) DeleteImages(_ context.Context, keys []string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = keys
	return nil
}

type fakeApplications struct {
	applied models.ApplicationInput
	jobID   int64
	apps    []models.Application
	status  string
	err     error
	panic   bool
}

func (f *fakeApplications) Apply(_ context.Context, jobID int64, in models.ApplicationInput) (*models.Application, error) {
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	f.jobID = jobID
	f.applied = in
	return &models.Application{ID: 1, JobID: jobID, FullName: in.FullName, Email: in.Email, Status: models.StatusPending}, nil
}

func (f *fakeApplications) Get(_ context.Context, id int64) (*models.Application, error) {
	for i := range f.apps {
		if f.apps[i].ID == id {
			return &f.apps[i], nil
		}
	}
	return nil, apperr.NotFound(service.MsgApplicationNotFound)
}

func (f *fakeApplications) List(_ context.Context, _, _ int) ([]models.Application, error) {
	return f.apps, f.err
}

func (f *fakeApplications) FilterByStatus(_ context.Context, raw string) ([]models.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Application
	for _, a := range f.apps {
		if string(a.Status) == raw {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApplications) UpdateStatus(_ context.Context, id int64, raw string) (*models.Application, *notify.Task, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.status = raw
	return &models.Application{ID: id, Status: models.ApplicationStatus(raw)}, nil, nil
}

type fakeSettings struct {
	settings models.Settings
	updated  models.SettingsInput
	err      error
}

func (f *fakeSettings) Get(context.Context) (*models.Settings, error) {
	return &f.settings, f.err
}

func (f *fakeSettings) Public(context.Context) (*models.Settings, error) {
	return &f.settings, f.err
}

func (f *fakeSettings) Update(_ context.Context, in models.SettingsInput) (*models.Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = in
	f.settings = models.Settings{SiteEmail: in.SiteEmail, SitePhone: in.SitePhone, SiteAddress: in.SiteAddress}
	return &f.settings, nil
}

type fakeWeather struct {
	raw json.RawMessage
	err error
}

func (f *fakeWeather) Current(context.Context, float64, float64) (json.RawMessage, error) {
	return f.raw, f.err
}

type fakeCounter struct {
	count int64
	err   error
}

func (f *fakeCounter) IncrementApplyRateLimit(context.Context, string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.count++
	return f.count, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

var errDown = errors.New("connection refused")
