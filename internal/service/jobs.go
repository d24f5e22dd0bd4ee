package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/B1zn3/SearchWork-Website/internal/apperr"
	"github.com/B1zn3/SearchWork-Website/internal/metrics"
	"github.com/B1zn3/SearchWork-Website/internal/models"
	"github.com/B1zn3/SearchWork-Website/internal/storage/postgres"
	"github.com/B1zn3/SearchWork-Website/internal/storage/s3"
	"github.com/B1zn3/SearchWork-Website/internal/validation"
)

type JobService struct {
	repo      JobRepository
	validator *validation.Validator
	storage   ObjectStorage
	cache     JobCache
	tasks     Dispatcher
	logger    *zap.Logger
}

// NewJobService wires the job use cases. storage and cache may be nil: media
// is then kept in the database and the public list is read directly.
func NewJobService(repo JobRepository, v *validation.Validator, storage ObjectStorage, cache JobCache, tasks Dispatcher, logger *zap.Logger) *JobService {
	return &JobService{
		repo:      repo,
		validator: v,
		storage:   storage,
		cache:     cache,
		tasks:     tasks,
		logger:    logger,
	}
}

func (s *JobService) Create(ctx context.Context, in models.JobInput, uploads []Upload) (*models.Job, error) {
	in, err := s.validator.Job(in)
	if err != nil {
		return nil, err
	}

	media, uploaded, err := s.prepareMedia(ctx, in.Photos, uploads)
	if err != nil {
		return nil, err
	}

	job, err := s.repo.CreateJob(ctx, in, media)
	if err != nil {
		s.deleteObjectsLater(uploaded)
		return nil, err
	}

	s.invalidatePublicJobs(ctx)

	return job, nil
}

func (s *JobService) Get(ctx context.Context, id int64) (*models.Job, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperr.NotFound(MsgJobNotFound)
	}
	return job, nil
}

func (s *JobService) List(ctx context.Context, offset, limit int) ([]models.Job, error) {
	offset, limit = Page(offset, limit)
	return s.repo.ListJobs(ctx, offset, limit)
}

// PublicList serves the first page of the public site from cache when one
// is configured. Other pages go to the database.
func (s *JobService) PublicList(ctx context.Context, offset, limit int) ([]models.Job, error) {
	offset, limit = Page(offset, limit)
	firstPage := offset == 0 && limit == DefaultPageSize

	if firstPage && s.cache != nil {
		jobs, err := s.cache.GetPublicJobs(ctx)
		if err == nil {
			metrics.CacheHit("jobs")
			return jobs, nil
		}
		metrics.CacheMiss("jobs")
	}

	jobs, err := s.repo.ListJobs(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	if firstPage && s.cache != nil {
		if err := s.cache.SetPublicJobs(ctx, jobs); err != nil {
			s.logger.Warn("failed to cache public jobs", zap.Error(err))
		}
	}

	return jobs, nil
}

// Update overwrites the job fields. New uploads and photos are appended to
// the existing media.
func (s *JobService) Update(ctx context.Context, id int64, in models.JobInput, uploads []Upload) (*models.Job, error) {
	in, err := s.validator.Job(in)
	if err != nil {
		return nil, err
	}

	media, uploaded, err := s.prepareMedia(ctx, in.Photos, uploads)
	if err != nil {
		return nil, err
	}

	job, err := s.repo.UpdateJob(ctx, id, in, media)
	if err != nil {
		s.deleteObjectsLater(uploaded)
		return nil, err
	}
	if job == nil {
		s.deleteObjectsLater(uploaded)
		return nil, apperr.NotFound(MsgJobNotFound)
	}

	s.invalidatePublicJobs(ctx)

	return job, nil
}

// Delete removes a job without applications. Stored objects of its media
// are removed in the background after the rows are gone.
func (s *JobService) Delete(ctx context.Context, id int64) error {
	keys, found, err := s.repo.DeleteJob(ctx, id)
	if errors.Is(err, postgres.ErrJobHasApplications) {
		return apperr.Conflict(MsgJobHasApplications)
	}
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound(MsgJobNotFound)
	}

	s.deleteObjectsLater(keys)
	s.invalidatePublicJobs(ctx)

	return nil
}

func (s *JobService) Media(ctx context.Context, id int64) (*models.Media, error) {
	media, err := s.repo.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, apperr.NotFound(MsgMediaNotFound)
	}
	return media, nil
}

// AddMedia attaches new uploads and photos to an existing job.
func (s *JobService) AddMedia(ctx context.Context, jobID int64, photos []string, uploads []Upload) ([]models.Media, error) {
	if _, err := s.Get(ctx, jobID); err != nil {
		return nil, err
	}

	media, uploaded, err := s.prepareMedia(ctx, photos, uploads)
	if err != nil {
		return nil, err
	}
	if len(media) == 0 {
		return nil, apperr.Validation("media", MsgNoMedia)
	}

	added, err := s.repo.AddMedia(ctx, jobID, media)
	if err != nil {
		s.deleteObjectsLater(uploaded)
		if apperr.IsForeignKey(err) {
			return nil, apperr.NotFound(MsgJobNotFound)
		}
		return nil, err
	}

	s.invalidatePublicJobs(ctx)

	return added, nil
}

// DeleteMedia removes one attachment. Its stored object, if any, is removed
// in the background.
func (s *JobService) DeleteMedia(ctx context.Context, id int64) error {
	media, err := s.repo.DeleteMedia(ctx, id)
	if err != nil {
		return err
	}
	if media == nil {
		return apperr.NotFound(MsgMediaNotFound)
	}

	if media.StorageKey != nil {
		s.deleteObjectsLater([]string{*media.StorageKey})
	}
	s.invalidatePublicJobs(ctx)

	return nil
}

// UploadImages stores files in object storage ahead of job creation. The
// returned keys go into the photos field of a job.
func (s *JobService) UploadImages(ctx context.Context, uploads []Upload) ([]s3.Object, error) {
	if s.storage == nil {
		return nil, apperr.Validation("files", MsgStorageDisabled)
	}

	objects := make([]s3.Object, 0, len(uploads))
	for _, u := range uploads {
		if _, ok := models.MediaTypeFromMIME(contentType(u)); !ok {
			s.deleteObjectsLater(objectKeys(objects))
			return nil, apperr.Validation("files", MsgUnsupportedMedia)
		}

		obj, err := s.storage.Upload(ctx, u.FileName, contentType(u), u.Body, u.Size)
		if err != nil {
			s.deleteObjectsLater(objectKeys(objects))
			return nil, err
		}
		objects = append(objects, *obj)
	}

	return objects, nil
}

// DeleteImages removes objects by key and waits for the result.
func (s *JobService) DeleteImages(ctx context.Context, keys []string) error {
	if s.storage == nil {
		return apperr.Validation("keys", MsgStorageDisabled)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.storage.Delete(ctx, keys...)
}

func (s *JobService) prepareMedia(ctx context.Context, photos []string, uploads []Upload) ([]models.MediaInput, []string, error) {
	media := make([]models.MediaInput, 0, len(photos)+len(uploads))
	var uploaded []string

	for _, photo := range photos {
		photo = strings.TrimSpace(photo)
		if photo == "" {
			continue
		}
		media = append(media, s.photoMedia(photo))
	}

	for _, u := range uploads {
		ct := contentType(u)
		fileType, ok := models.MediaTypeFromMIME(ct)
		if !ok {
			s.deleteObjectsLater(uploaded)
			return nil, nil, apperr.Validation("media", MsgUnsupportedMedia)
		}

		item := models.MediaInput{
			FileName: u.FileName,
			FileType: fileType,
			MimeType: ct,
		}

		if s.storage != nil {
			obj, err := s.storage.Upload(ctx, u.FileName, ct, u.Body, u.Size)
			if err != nil {
				s.deleteObjectsLater(uploaded)
				return nil, nil, err
			}
			uploaded = append(uploaded, obj.Key)
			key, url := obj.Key, obj.URL
			item.StorageKey = &key
			item.URL = &url
		} else {
			data, err := io.ReadAll(u.Body)
			if err != nil {
				return nil, nil, fmt.Errorf("read upload %q: %w", u.FileName, err)
			}
			item.Data = data
		}

		media = append(media, item)
	}

	return media, uploaded, nil
}

// photoMedia describes a photo given either as an absolute URL or as a key
// returned by UploadImages.
func (s *JobService) photoMedia(photo string) models.MediaInput {
	item := models.MediaInput{
		FileName: path.Base(photo),
		FileType: models.MediaTypeImage,
		MimeType: mime.TypeByExtension(strings.ToLower(path.Ext(photo))),
	}
	if item.MimeType == "" {
		item.MimeType = "image/jpeg"
	}
	if fileType, ok := models.MediaTypeFromMIME(item.MimeType); ok {
		item.FileType = fileType
	}

	if strings.HasPrefix(photo, "http://") || strings.HasPrefix(photo, "https://") {
		url := photo
		item.URL = &url
		return item
	}

	key := photo
	item.StorageKey = &key
	if s.storage != nil {
		url := s.storage.URL(key)
		item.URL = &url
	}
	return item
}

func (s *JobService) deleteObjectsLater(keys []string) {
	if len(keys) == 0 || s.storage == nil || s.tasks == nil {
		return
	}

	_, err := s.tasks.Submit("delete_objects", func(ctx context.Context) error {
		return s.storage.Delete(ctx, keys...)
	})
	if err != nil {
		s.logger.Warn("failed to schedule object deletion",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

func (s *JobService) invalidatePublicJobs(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePublicJobs(ctx); err != nil {
		s.logger.Warn("failed to invalidate public jobs cache", zap.Error(err))
	}
}

func contentType(u Upload) string {
	if u.ContentType != "" && u.ContentType != "application/octet-stream" {
		return u.ContentType
	}
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(u.FileName))); ct != "" {
		return ct
	}
	return u.ContentType
}

func objectKeys(objects []s3.Object) []string {
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	return keys
}
