package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"

	"github.com/B1zn3/SearchWork-Website/internal/models"
)

// mediaMetaColumns leaves out file_data so listings never pull blobs.
var mediaMetaColumns = []string{
	"id", "job_id", "file_name", "file_type", "mime_type", "storage_key", "url",
}

func (s *Store) ListMedia(ctx context.Context, jobID int64) ([]models.Media, error) {
	media := []models.Media{}

	_, err := s.sess.
		Select(mediaMetaColumns...).
		From("job_media").
		Where("job_id = ?", jobID).
		OrderBy("id").
		LoadContext(ctx, &media)
	if err != nil {
		s.logger.Error("failed to list media",
			zap.Int64("job_id", jobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list media: %w", err)
	}

	return media, nil
}

func (s *Store) ListMediaForJobs(ctx context.Context, jobIDs []int64) (map[int64][]models.Media, error) {
	byJob := make(map[int64][]models.Media, len(jobIDs))
	if len(jobIDs) == 0 {
		return byJob, nil
	}

	var media []models.Media
	_, err := s.sess.
		Select(mediaMetaColumns...).
		From("job_media").
		Where("job_id IN ?", jobIDs).
		OrderBy("id").
		LoadContext(ctx, &media)
	if err != nil {
		s.logger.Error("failed to list media for jobs",
			zap.Int("jobs", len(jobIDs)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list media: %w", err)
	}

	for _, m := range media {
		byJob[m.JobID] = append(byJob[m.JobID], m)
	}

	return byJob, nil
}

// GetMedia loads a single media row including its blob. It returns nil
// without error when the row does not exist.
func (s *Store) GetMedia(ctx context.Context, id int64) (*models.Media, error) {
	var media models.Media

	err := s.sess.
		Select("*").
		From("job_media").
		Where("id = ?", id).
		LoadOneContext(ctx, &media)
	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to get media",
			zap.Int64("media_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get media: %w", err)
	}

	return &media, nil
}

// DeleteMedia removes one media row and returns it so the caller can drop the
// stored object. It returns nil without error when the row does not exist.
func (s *Store) DeleteMedia(ctx context.Context, id int64) (*models.Media, error) {
	media, err := s.media.get(ctx, s.sess, id)
	if err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	if media == nil {
		return nil, nil
	}

	if _, err := s.media.delete(ctx, s.sess, id); err != nil {
		s.logger.Error("failed to delete media",
			zap.Int64("media_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("delete media: %w", err)
	}

	return media, nil
}

// AddMedia attaches media to an existing job.
func (s *Store) AddMedia(ctx context.Context, jobID int64, in []models.MediaInput) ([]models.Media, error) {
	media, err := insertMedia(ctx, s.sess, jobID, in)
	if err != nil {
		s.logger.Error("failed to add media",
			zap.Int64("job_id", jobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("add media: %w", err)
	}
	return media, nil
}

func mediaKeys(ctx context.Context, r dbr.SessionRunner, jobID int64) ([]string, error) {
	keys := []string{}

	_, err := r.Select("storage_key").
		From("job_media").
		Where("job_id = ? AND storage_key IS NOT NULL", jobID).
		OrderBy("id").
		LoadContext(ctx, &keys)
	if err != nil {
		return nil, err
	}

	return keys, nil
}

func insertMedia(ctx context.Context, r dbr.SessionRunner, jobID int64, in []models.MediaInput) ([]models.Media, error) {
	media := make([]models.Media, 0, len(in))

	query := `
		INSERT INTO job_media (job_id, file_name, file_type, mime_type, storage_key, url, file_data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	for _, item := range in {
		m := models.Media{
			JobID:      jobID,
			FileName:   item.FileName,
			FileType:   item.FileType,
			MimeType:   item.MimeType,
			StorageKey: item.StorageKey,
			URL:        item.URL,
		}

		err := r.SelectBySql(query,
			jobID,
			item.FileName,
			string(item.FileType),
			item.MimeType,
			item.StorageKey,
			item.URL,
			item.Data,
		).LoadOneContext(ctx, &m.ID)
		if err != nil {
			return nil, fmt.Errorf("insert media %q: %w", item.FileName, mapDBError(err))
		}

		media = append(media, m)
	}

	return media, nil
}
