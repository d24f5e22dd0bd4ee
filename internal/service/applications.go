package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/B1zn3/SearchWork-Website/internal/apperr"
	"github.com/B1zn3/SearchWork-Website/internal/mailer"
	"github.com/B1zn3/SearchWork-Website/internal/metrics"
	"github.com/B1zn3/SearchWork-Website/internal/models"
	"github.com/B1zn3/SearchWork-Website/internal/notify"
	"github.com/B1zn3/SearchWork-Website/internal/storage/postgres"
	"github.com/B1zn3/SearchWork-Website/internal/validation"
)

type ApplicationService struct {
	repo      ApplicationRepository
	settings  SettingsRepository
	validator *validation.Validator
	mailer    Mailer
	notifier  ApplicationNotifier
	tasks     Dispatcher
	logger    *zap.Logger
}

// NewApplicationService wires the application use cases. notifier may be nil.
func NewApplicationService(
	repo ApplicationRepository,
	settings SettingsRepository,
	v *validation.Validator,
	m Mailer,
	notifier ApplicationNotifier,
	tasks Dispatcher,
	logger *zap.Logger,
) *ApplicationService {
	return &ApplicationService{
		repo:      repo,
		settings:  settings,
		validator: v,
		mailer:    m,
		notifier:  notifier,
		tasks:     tasks,
		logger:    logger,
	}
}

// Apply stores a pending application for the job.
func (s *ApplicationService) Apply(ctx context.Context, jobID int64, in models.ApplicationInput) (*models.Application, error) {
	in.JobID = jobID

	in, err := s.validator.Application(in)
	if err != nil {
		return nil, err
	}

	app, err := s.repo.CreateApplication(ctx, in)
	if errors.Is(err, postgres.ErrJobNotFound) || apperr.IsForeignKey(err) {
		return nil, apperr.NotFound(MsgJobNotFound)
	}
	if err != nil {
		return nil, err
	}

	metrics.ApplicationSubmitted()

	if s.notifier != nil {
		alert := *app
		if _, err := s.tasks.Submit("telegram_alert", func(ctx context.Context) error {
			return s.notifier.NewApplication(ctx, &alert)
		}); err != nil {
			s.logger.Warn("failed to schedule application alert",
				zap.Int64("application_id", app.ID),
				zap.Error(err),
			)
		}
	}

	return app, nil
}

func (s *ApplicationService) Get(ctx context.Context, id int64) (*models.Application, error) {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperr.NotFound(MsgApplicationNotFound)
	}
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context, offset, limit int) ([]models.Application, error) {
	offset, limit = Page(offset, limit)
	return s.repo.ListApplications(ctx, offset, limit)
}

func (s *ApplicationService) FilterByStatus(ctx context.Context, raw string) ([]models.Application, error) {
	status, err := s.validator.Status(raw)
	if err != nil {
		return nil, err
	}
	return s.repo.FilterApplicationsByStatus(ctx, status)
}

// UpdateStatus records the admin decision and queues exactly one email to
// the applicant. Only pending applications can be decided; approved and
// rejected are final. The returned task is nil when the email could not be
// queued; the status change stands either way.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id int64, raw string) (*models.Application, *notify.Task, error) {
	status, err := s.validator.Status(raw)
	if err != nil {
		return nil, nil, err
	}
	if !status.Final() {
		return nil, nil, apperr.Validation("status", validation.MsgStatus)
	}

	app, err := s.repo.UpdateApplicationStatus(ctx, id, status)
	if errors.Is(err, postgres.ErrStatusTransition) {
		return nil, nil, apperr.Conflict(MsgStatusFinal)
	}
	if err != nil {
		return nil, nil, err
	}
	if app == nil {
		return nil, nil, apperr.NotFound(MsgApplicationNotFound)
	}

	metrics.ApplicationDecision(string(status))

	decision := mailer.Decision{
		From:     s.senderAddress(ctx),
		To:       app.Email,
		Name:     app.FullName,
		JobTitle: app.JobTitle,
		Approved: status == models.StatusApproved,
	}

	task, err := s.tasks.Submit("decision_email", func(ctx context.Context) error {
		return s.mailer.SendDecision(ctx, decision)
	})
	if err != nil {
		s.logger.Error("failed to schedule decision email",
			zap.Int64("application_id", app.ID),
			zap.Error(err),
		)
		return app, nil, nil
	}

	s.logger.Info("application decided",
		zap.Int64("application_id", app.ID),
		zap.String("status", string(status)),
		zap.Uint64("task_id", task.ID),
	)

	return app, task, nil
}

// StatusMessage is the confirmation shown to the admin.
func StatusMessage(status models.ApplicationStatus) string {
	return fmt.Sprintf("Статус заявки успешно изменен на %s", status)
}

// senderAddress falls back to the site email as the From address when the
// mailer has no configured sender.
func (s *ApplicationService) senderAddress(ctx context.Context) string {
	settings, err := s.settings.FindSettings(ctx)
	if err != nil {
		s.logger.Warn("failed to load settings for sender address", zap.Error(err))
		return models.DefaultSiteEmail
	}
	if settings == nil {
		return models.DefaultSiteEmail
	}
	return settings.SiteEmail
}
