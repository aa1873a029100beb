package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/participium/participium-api/internal/models"
	"github.com/participium/participium-api/pkg/config"
	appErrors "github.com/participium/participium-api/pkg/errors"
	"github.com/participium/participium-api/pkg/jobs"
)

// NotificationsFor maps a completed transition to the events owed to the
// reporting citizen. Every status change produces exactly one event with
// status-specific text; anything that left the status untouched (e.g. an
// external hand-off) produces none.
func NotificationsFor(t models.StatusTransition) []models.NotificationEvent {
	if t.From == t.To || t.ReporterID == "" {
		return nil
	}

	var message string
	switch t.To {
	case models.StatusAssigned:
		message = fmt.Sprintf("Your report %q has been approved and assigned to a technical officer.", t.ReportTitle)
	case models.StatusInProgress:
		message = fmt.Sprintf("Work on your report %q is now in progress.", t.ReportTitle)
	case models.StatusSuspended:
		message = fmt.Sprintf("Work on your report %q has been suspended.", t.ReportTitle)
	case models.StatusResolved:
		message = fmt.Sprintf("Your report %q has been resolved.", t.ReportTitle)
	case models.StatusRejected:
		message = fmt.Sprintf("Your report %q has been rejected.", t.ReportTitle)
		if t.RejectionReason != "" {
			message = fmt.Sprintf("%s Reason: %s", message, t.RejectionReason)
		}
	default:
		message = fmt.Sprintf("Your report %q is now %s.", t.ReportTitle, t.To.Label())
	}

	return []models.NotificationEvent{{
		UserID:   t.ReporterID,
		ReportID: t.ReportID,
		Kind:     models.NotificationReportStatus,
		Message:  message,
	}}
}

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// NotificationService turns transitions into stored notifications through a
// background queue. Dispatch is best-effort and retried independently; a failed
// delivery never fails the transition that produced it.
type NotificationService struct {
	store  notificationStore
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService builds the service and its dispatch queue.
func NewNotificationService(store notificationStore, logger *zap.Logger, cfg config.NotificationsConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{store: store, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// DispatchTransition enqueues the events owed for a completed transition.
func (s *NotificationService) DispatchTransition(ctx context.Context, t models.StatusTransition) {
	for _, event := range NotificationsFor(t) {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    string(event.Kind),
			Payload: event,
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue notification",
				zap.String("report_id", event.ReportID),
				zap.String("user_id", event.UserID),
				zap.Error(err),
			)
		}
	}
}

// ListForUser returns the caller's notifications.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	notifications, err := s.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.store.MarkRead(ctx, id, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.NotificationEvent)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.store.Create(ctx, &models.Notification{
		UserID:   event.UserID,
		ReportID: event.ReportID,
		Kind:     event.Kind,
		Message:  event.Message,
	})
}
