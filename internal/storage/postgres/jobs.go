package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"

	"github.com/B1zn3/SearchWork-Website/internal/models"
)

// CreateJob inserts the job together with its media in one transaction.
func (s *Store) CreateJob(ctx context.Context, in models.JobInput, media []models.MediaInput) (*models.Job, error) {
	job := models.Job{
		Title:                 in.Title,
		Description:           in.Description,
		Location:              in.Location,
		Salary:                in.SalaryValue(),
		Requirements:          in.Requirements,
		ConditionsAndBenefits: in.ConditionsAndBenefits,
	}

	err := s.inTx(ctx, func(tx *dbr.Tx) error {
		query := `
			INSERT INTO jobs (title, description, location, salary, requirements, conditions_and_benefits, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id, created_at
		`
		err := tx.SelectBySql(query,
			job.Title,
			job.Description,
			job.Location,
			job.Salary,
			job.Requirements,
			job.ConditionsAndBenefits,
			time.Now().UTC(),
		).LoadOneContext(ctx, &job)
		if err != nil {
			return mapDBError(err)
		}

		job.Media, err = insertMedia(ctx, tx, job.ID, media)
		return err
	})
	if err != nil {
		s.logger.Error("failed to create job",
			zap.String("title", in.Title),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.Info("job created",
		zap.Int64("job_id", job.ID),
		zap.Int("media", len(job.Media)),
	)

	return &job, nil
}

// GetJob returns nil without error when the job does not exist.
func (s *Store) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	job, err := s.jobs.get(ctx, s.sess, id)
	if err != nil {
		s.logger.Error("failed to get job",
			zap.Int64("job_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job == nil {
		return nil, nil
	}

	job.Media, err = s.ListMedia(ctx, id)
	if err != nil {
		return nil, err
	}

	return job, nil
}

func (s *Store) ListJobs(ctx context.Context, offset, limit int) ([]models.Job, error) {
	jobs, err := s.jobs.list(ctx, s.sess, offset, limit)
	if err != nil {
		s.logger.Error("failed to list jobs",
			zap.Int("offset", offset),
			zap.Int("limit", limit),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	ids := make([]int64, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}

	media, err := s.ListMediaForJobs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range jobs {
		jobs[i].Media = media[jobs[i].ID]
		if jobs[i].Media == nil {
			jobs[i].Media = []models.Media{}
		}
	}

	return jobs, nil
}

// UpdateJob overwrites the mutable fields. It returns nil without error when
// the job does not exist. Photos in the input are appended as new media.
func (s *Store) UpdateJob(ctx context.Context, id int64, in models.JobInput, media []models.MediaInput) (*models.Job, error) {
	found := false

	err := s.inTx(ctx, func(tx *dbr.Tx) error {
		result, err := tx.Update("jobs").
			Set("title", in.Title).
			Set("description", in.Description).
			Set("location", in.Location).
			Set("salary", in.SalaryValue()).
			Set("requirements", in.Requirements).
			Set("conditions_and_benefits", in.ConditionsAndBenefits).
			Where("id = ?", id).
			ExecContext(ctx)
		if err != nil {
			return mapDBError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		found = true

		_, err = insertMedia(ctx, tx, id, media)
		return err
	})
	if err != nil {
		s.logger.Error("failed to update job",
			zap.Int64("job_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("update job: %w", err)
	}
	if !found {
		return nil, nil
	}

	s.logger.Info("job updated", zap.Int64("job_id", id))

	return s.GetJob(ctx, id)
}

// DeleteJob removes the job and its media rows. The application count is
// checked under a row lock so no application can slip in between the check
// and the delete. It returns the object storage keys of the removed media so
// the caller can clean them up, and found=false when the job does not exist.
func (s *Store) DeleteJob(ctx context.Context, id int64) (keys []string, found bool, err error) {
	err = s.inTx(ctx, func(tx *dbr.Tx) error {
		var locked int64
		err := tx.SelectBySql(`SELECT id FROM jobs WHERE id = ? FOR UPDATE`, id).
			LoadOneContext(ctx, &locked)
		if errors.Is(err, dbr.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		count, err := countApplications(ctx, tx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrJobHasApplications
		}

		keys, err = mediaKeys(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := tx.DeleteFrom("job_media").
			Where("job_id = ?", id).
			ExecContext(ctx); err != nil {
			return err
		}

		if _, err := s.jobs.delete(ctx, tx, id); err != nil {
			return mapDBError(err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to delete job",
			zap.Int64("job_id", id),
			zap.Error(err),
		)
		return nil, found, fmt.Errorf("delete job: %w", err)
	}

	if found {
		s.logger.Info("job deleted",
			zap.Int64("job_id", id),
			zap.Int("media_keys", len(keys)),
		)
	}

	return keys, found, nil
}
