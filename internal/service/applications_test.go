package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/B1zn3/SearchWork-Website/internal/apperr"
	"github.com/B1zn3/SearchWork-Website/internal/models"
	"github.com/B1zn3/SearchWork-Website/internal/notify"
	"github.com/B1zn3/SearchWork-Website/internal/validation"
)

type applicationFixture struct {
	store    *fakeStore
	mailer   *fakeMailer
	notifier *fakeNotifier
	tasks    *notify.Dispatcher
	svc      *ApplicationService
	job      *models.Job
}

func newApplicationFixture(t *testing.T) *applicationFixture {
	t.Helper()

	f := &applicationFixture{
		store:    newFakeStore(),
		mailer:   &fakeMailer{},
		notifier: &fakeNotifier{},
		tasks:    notify.New(2, 20, zap.NewNop()),
	}
	f.tasks.Start(context.Background())
	t.Cleanup(f.tasks.Stop)

	f.svc = NewApplicationService(f.store, f.store, newValidator(), f.mailer, f.notifier, f.tasks, zap.NewNop())

	job, err := f.store.CreateJob(context.Background(), validJob(), nil)
	require.NoError(t, err)
	f.job = job

	return f
}

func validApplication() models.ApplicationInput {
	return models.ApplicationInput{
		FullName:   "Иванов Иван Иванович",
		Email:      "ivan@example.by",
		Phone:      "+375 (29) 123-45-67",
		Experience: "  3 года backend  ",
	}
}

func waitTask(t *testing.T, task *notify.Task) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return task.Wait(ctx)
}

func TestApplyCreatesPendingApplication(t *testing.T) {
	f := newApplicationFixture(t)

	app, err := f.svc.Apply(context.Background(), f.job.ID, validApplication())

	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, f.job.ID, app.JobID)
	require.NotNil(t, app.Experience)
	assert.Equal(t, "3 года backend", *app.Experience)
	assert.Equal(t, "+375 (29) 123-45-67", app.Phone)

	f.tasks.Stop()
	assert.Equal(t, 1, f.notifier.count())
}

func TestApplyUnknownJob(t *testing.T) {
	f := newApplicationFixture(t)

	_, err := f.svc.Apply(context.Background(), 999, validApplication())

	require.True(t, apperr.IsNotFound(err))
	assert.Equal(t, MsgJobNotFound, apperr.Message(err))
	assert.Empty(t, f.store.applications)
}

func TestApplyValidationError(t *testing.T) {
	f := newApplicationFixture(t)

	in := validApplication()
	in.FullName = "Иван"

	_, err := f.svc.Apply(context.Background(), f.job.ID, in)

	require.True(t, apperr.IsValidation(err))
	assert.Equal(t, validation.MsgNameWords, apperr.Message(err))
}

func TestApproveSendsExactlyOneEmail(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	app, err := f.svc.Apply(ctx, f.job.ID, validApplication())
	require.NoError(t, err)

	updated, task, err := f.svc.UpdateStatus(ctx, app.ID, "approved")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, models.StatusApproved, updated.Status)

	require.NoError(t, waitTask(t, task))

	sent := f.mailer.sent()
	require.Len(t, sent, 1)
	assert.True(t, sent[0].Approved)
	assert.Equal(t, "ivan@example.by", sent[0].To)
	assert.Equal(t, "Иванов Иван Иванович", sent[0].Name)
	assert.Equal(t, "Backend Engineer", sent[0].JobTitle)
	assert.Equal(t, models.DefaultSiteEmail, sent[0].From)
}

func TestRejectSendsNegativeDecision(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	app, err := f.svc.Apply(ctx, f.job.ID, validApplication())
	require.NoError(t, err)

	_, task, err := f.svc.UpdateStatus(ctx, app.ID, " Rejected ")
	require.NoError(t, err)
	require.NoError(t, waitTask(t, task))

	sent := f.mailer.sent()
	require.Len(t, sent, 1)
	assert.False(t, sent[0].Approved)
}

func TestFinalStatusCannotChange(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	app, err := f.svc.Apply(ctx, f.job.ID, validApplication())
	require.NoError(t, err)

	_, task, err := f.svc.UpdateStatus(ctx, app.ID, "approved")
	require.NoError(t, err)
	require.NoError(t, waitTask(t, task))

	_, task, err = f.svc.UpdateStatus(ctx, app.ID, "rejected")
	require.True(t, apperr.IsConflict(err))
	assert.Equal(t, MsgStatusFinal, apperr.Message(err))
	assert.Nil(t, task)

	f.tasks.Stop()
	assert.Len(t, f.mailer.sent(), 1)
}

func TestUpdateStatusRejectsUnknownAndPending(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	app, err := f.svc.Apply(ctx, f.job.ID, validApplication())
	require.NoError(t, err)

	for _, raw := range []string{"hired", "", "pending"} {
		_, _, err := f.svc.UpdateStatus(ctx, app.ID, raw)
		require.True(t, apperr.IsValidation(err), raw)
	}

	f.tasks.Stop()
	assert.Empty(t, f.mailer.sent())
}

func TestUpdateStatusMissingApplication(t *testing.T) {
	f := newApplicationFixture(t)

	_, _, err := f.svc.UpdateStatus(context.Background(), 404, "approved")

	require.True(t, apperr.IsNotFound(err))
	assert.Equal(t, MsgApplicationNotFound, apperr.Message(err))
}

func TestUpdateStatusSurvivesFullQueue(t *testing.T) {
	store := newFakeStore()
	svc := NewApplicationService(store, store, newValidator(), &fakeMailer{}, nil, rejectingDispatcher{}, zap.NewNop())
	ctx := context.Background()

	job, err := store.CreateJob(ctx, validJob(), nil)
	require.NoError(t, err)
	app, err := svc.Apply(ctx, job.ID, validApplication())
	require.NoError(t, err)

	updated, task, err := svc.UpdateStatus(ctx, app.ID, "approved")

	require.NoError(t, err)
	assert.Nil(t, task)
	assert.Equal(t, models.StatusApproved, updated.Status)
}

func TestDecisionUsesSiteEmailAsSender(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	_, err := f.store.UpdateSettings(ctx, models.SettingsInput{SiteEmail: "hr@example.by"})
	require.NoError(t, err)
	app, err := f.svc.Apply(ctx, f.job.ID, validApplication())
	require.NoError(t, err)

	_, task, err := f.svc.UpdateStatus(ctx, app.ID, "approved")
	require.NoError(t, err)
	require.NoError(t, waitTask(t, task))

	assert.Equal(t, "hr@example.by", f.mailer.sent()[0].From)
}

func TestFilterByStatus(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	first, err := f.svc.Apply(ctx, f.job.ID, validApplication())
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, f.job.ID, validApplication())
	require.NoError(t, err)
	_, _, err = f.svc.UpdateStatus(ctx, first.ID, "approved")
	require.NoError(t, err)

	approved, err := f.svc.FilterByStatus(ctx, "approved")
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)

	pending, err := f.svc.FilterByStatus(ctx, "pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = f.svc.FilterByStatus(ctx, "archived")
	assert.True(t, apperr.IsValidation(err))
}

func TestListNewestFirst(t *testing.T) {
	f := newApplicationFixture(t)
	ctx := context.Background()

	first, err := f.svc.Apply(ctx, f.job.ID, validApplication())
	require.NoError(t, err)
	second, err := f.svc.Apply(ctx, f.job.ID, validApplication())
	require.NoError(t, err)

	apps, err := f.svc.List(ctx, 0, 0)

	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, second.ID, apps[0].ID)
	assert.Equal(t, first.ID, apps[1].ID)
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "Статус заявки успешно изменен на approved", StatusMessage(models.StatusApproved))
}
