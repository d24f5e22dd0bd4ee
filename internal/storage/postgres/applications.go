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

const applicationWithJobQuery = `
	SELECT a.id, a.job_id, a.full_name, a.email, a.phone, a.experience,
	       a.created_at, a.status, j.title AS job_title
	FROM applications a
	JOIN jobs j ON j.id = a.job_id
`

// CreateApplication stores a pending application. It returns ErrJobNotFound
// when the referenced job does not exist.
func (s *Store) CreateApplication(ctx context.Context, in models.ApplicationInput) (*models.Application, error) {
	app := models.Application{
		JobID:    in.JobID,
		FullName: in.FullName,
		Email:    in.Email,
		Phone:    in.Phone,
		Status:   models.StatusPending,
	}
	if in.Experience != "" {
		experience := in.Experience
		app.Experience = &experience
	}

	err := s.inTx(ctx, func(tx *dbr.Tx) error {
		var title string
		err := tx.Select("title").
			From("jobs").
			Where("id = ?", in.JobID).
			LoadOneContext(ctx, &title)
		if errors.Is(err, dbr.ErrNotFound) {
			return ErrJobNotFound
		}
		if err != nil {
			return err
		}
		app.JobTitle = title

		query := `
			INSERT INTO applications (job_id, full_name, email, phone, experience, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id, created_at
		`
		err = tx.SelectBySql(query,
			app.JobID,
			app.FullName,
			app.Email,
			app.Phone,
			app.Experience,
			string(app.Status),
			time.Now().UTC(),
		).LoadOneContext(ctx, &app)
		return mapDBError(err)
	})
	if err != nil {
		s.logger.Error("failed to create application",
			zap.Int64("job_id", in.JobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.logger.Info("application created",
		zap.Int64("application_id", app.ID),
		zap.Int64("job_id", app.JobID),
	)

	return &app, nil
}

// GetApplication returns nil without error when the application does not
// exist.
func (s *Store) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	app, err := getApplication(ctx, s.sess, id, false)
	if err != nil {
		s.logger.Error("failed to get application",
			zap.Int64("application_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

// ListApplications returns applications newest first with the job title
// joined in.
func (s *Store) ListApplications(ctx context.Context, offset, limit int) ([]models.Application, error) {
	apps, err := listApplications(ctx, s.sess, "", offset, limit)
	if err != nil {
		s.logger.Error("failed to list applications",
			zap.Int("offset", offset),
			zap.Int("limit", limit),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func (s *Store) FilterApplicationsByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.Application, error) {
	apps, err := listApplications(ctx, s.sess, status, 0, 0)
	if err != nil {
		s.logger.Error("failed to filter applications",
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("filter applications: %w", err)
	}
	return apps, nil
}

func (s *Store) CountApplicationsForJob(ctx context.Context, jobID int64) (int, error) {
	count, err := countApplications(ctx, s.sess, jobID)
	if err != nil {
		s.logger.Error("failed to count applications",
			zap.Int64("job_id", jobID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}

// UpdateApplicationStatus moves the application to next. The current status
// is read under a row lock and checked with CanTransition, so two concurrent
// decisions cannot both succeed. It returns nil without error when the
// application does not exist and an error wrapping ErrStatusTransition when
// the move is not allowed.
func (s *Store) UpdateApplicationStatus(ctx context.Context, id int64, next models.ApplicationStatus) (*models.Application, error) {
	var app *models.Application

	err := s.inTx(ctx, func(tx *dbr.Tx) error {
		current, err := getApplication(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if current == nil {
			return nil
		}

		if !current.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", ErrStatusTransition, current.Status, next)
		}

		if _, err := tx.Update("applications").
			Set("status", string(next)).
			Where("id = ?", id).
			ExecContext(ctx); err != nil {
			return mapDBError(err)
		}

		current.Status = next
		app = current
		return nil
	})
	if err != nil {
		s.logger.Error("failed to update application status",
			zap.Int64("application_id", id),
			zap.String("status", string(next)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("update application status: %w", err)
	}

	if app != nil {
		s.logger.Info("application status updated",
			zap.Int64("application_id", id),
			zap.String("status", string(next)),
		)
	}

	return app, nil
}

func getApplication(ctx context.Context, r dbr.SessionRunner, id int64, lock bool) (*models.Application, error) {
	var app models.Application

	query := applicationWithJobQuery + ` WHERE a.id = ?`
	if lock {
		query += ` FOR UPDATE OF a`
	}

	err := r.SelectBySql(query, id).LoadOneContext(ctx, &app)
	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &app, nil
}

func listApplications(ctx context.Context, r dbr.SessionRunner, status models.ApplicationStatus, offset, limit int) ([]models.Application, error) {
	apps := []models.Application{}

	query := applicationWithJobQuery
	args := []interface{}{}
	if status != "" {
		query += ` WHERE a.status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY a.created_at DESC, a.id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	if offset > 0 {
		query += ` OFFSET ?`
		args = append(args, offset)
	}

	if _, err := r.SelectBySql(query, args...).LoadContext(ctx, &apps); err != nil {
		return nil, err
	}

	return apps, nil
}

func countApplications(ctx context.Context, r dbr.SessionRunner, jobID int64) (int, error) {
	var count int

	err := r.Select("COUNT(*)").
		From("applications").
		Where("job_id = ?", jobID).
		LoadOneContext(ctx, &count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
