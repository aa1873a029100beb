package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/participium/participium-api/internal/models"
	"github.com/participium/participium-api/pkg/config"
)

type notificationStoreStub struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func (s *notificationStoreStub) Create(ctx context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *notification)
	return nil
}

func (s *notificationStoreStub) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *notificationStoreStub) MarkRead(ctx context.Context, id, userID string) error {
	return nil
}

func (s *notificationStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

func TestNotificationServiceDispatchesStoredNotification(t *testing.T) {
	store := &notificationStoreStub{}
	svc := NewNotificationService(store, nil, config.NotificationsConfig{WorkerConcurrency: 1})
	svc.Start(context.Background())
	defer svc.Stop()

	svc.DispatchTransition(context.Background(), models.StatusTransition{
		ReportID:    "r1",
		ReportTitle: "Pothole",
		ReporterID:  "c1",
		From:        models.StatusAssigned,
		To:          models.StatusInProgress,
	})

	require.Eventually(t, func() bool {
		return store.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	notifications, err := svc.ListForUser(context.Background(), "c1", 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "in progress")
	assert.Equal(t, models.NotificationReportStatus, notifications[0].Kind)
}

func TestNotificationServiceIgnoresSilentTransitions(t *testing.T) {
	store := &notificationStoreStub{}
	svc := NewNotificationService(store, nil, config.NotificationsConfig{WorkerConcurrency: 1})
	svc.Start(context.Background())
	defer svc.Stop()

	svc.DispatchTransition(context.Background(), models.StatusTransition{
		ReportID:    "r1",
		ReportTitle: "Pothole",
		ReporterID:  "c1",
		From:        models.StatusInProgress,
		To:          models.StatusInProgress,
	})

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, store.count())
}
