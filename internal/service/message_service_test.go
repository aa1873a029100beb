package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/participium/participium-api/internal/models"
	appErrors "github.com/participium/participium-api/pkg/errors"
)

type messageStoreStub struct {
	messages []models.Message
}

func (s *messageStoreStub) Create(ctx context.Context, message *models.Message) error {
	s.messages = append(s.messages, *message)
	return nil
}

func (s *messageStoreStub) ListByReportAndScope(ctx context.Context, reportID string, scope models.MessageScope) ([]models.Message, error) {
	var out []models.Message
	for _, m := range s.messages {
		if m.ReportID == reportID && m.Scope == scope {
			out = append(out, m)
		}
	}
	return out, nil
}

type reportReaderStub struct {
	report *models.Report
}

func (s *reportReaderStub) FindByID(ctx context.Context, id string) (*models.Report, error) {
	if s.report == nil || s.report.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.report, nil
}

func chatReport() *models.Report {
	officerID := "u2"
	maintainerID := "m1"
	return &models.Report{
		ID:                   "r1",
		Status:               models.StatusInProgress,
		ReporterID:           "c1",
		TechnicalOfficerID:   &officerID,
		ExternalMaintainerID: &maintainerID,
	}
}

func TestIsParticipantInternalScope(t *testing.T) {
	report := chatReport()

	assert.True(t, IsParticipant(report, "c1", models.ScopeInternal), "reporter participates internally")
	assert.True(t, IsParticipant(report, "u2", models.ScopeInternal), "assigned officer participates internally")
	assert.False(t, IsParticipant(report, "m1", models.ScopeInternal), "maintainer is not part of the internal chat")
	assert.False(t, IsParticipant(report, "stranger", models.ScopeInternal))
}

func TestIsParticipantExternalScope(t *testing.T) {
	report := chatReport()

	assert.True(t, IsParticipant(report, "u2", models.ScopeExternal), "officer participates externally")
	assert.True(t, IsParticipant(report, "m1", models.ScopeExternal), "maintainer participates externally")
	assert.False(t, IsParticipant(report, "c1", models.ScopeExternal), "the citizen is never part of the external chat")
}

func TestIsParticipantUnassignedReport(t *testing.T) {
	report := &models.Report{ID: "r1", Status: models.StatusPendingApproval, ReporterID: "c1"}

	assert.True(t, IsParticipant(report, "c1", models.ScopeInternal))
	assert.False(t, IsParticipant(report, "u2", models.ScopeInternal))
	assert.False(t, IsParticipant(report, "c1", models.ScopeExternal))
}

func TestIsParticipantUnknownScope(t *testing.T) {
	assert.False(t, IsParticipant(chatReport(), "c1", models.MessageScope("SOMETHING")))
	assert.False(t, IsParticipant(nil, "c1", models.ScopeInternal))
	assert.False(t, IsParticipant(chatReport(), "", models.ScopeInternal))
}

func TestSendMessageAsParticipant(t *testing.T) {
	store := &messageStoreStub{}
	svc := NewMessageService(store, &reportReaderStub{report: chatReport()}, nil)

	message, err := svc.Send(context.Background(), models.Actor{ID: "c1", Role: models.RoleCitizen}, "r1", models.ScopeInternal, "  When will this be fixed?  ")
	require.NoError(t, err)

	assert.Equal(t, "When will this be fixed?", message.Body)
	assert.Equal(t, "c1", message.SenderID)
	assert.Equal(t, models.ScopeInternal, message.Scope)
	require.Len(t, store.messages, 1)
}

func TestSendMessageCitizenBlockedFromExternalScope(t *testing.T) {
	svc := NewMessageService(&messageStoreStub{}, &reportReaderStub{report: chatReport()}, nil)

	_, err := svc.Send(context.Background(), models.Actor{ID: "c1", Role: models.RoleCitizen}, "r1", models.ScopeExternal, "hello")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSendMessageEmptyBody(t *testing.T) {
	svc := NewMessageService(&messageStoreStub{}, &reportReaderStub{report: chatReport()}, nil)

	_, err := svc.Send(context.Background(), models.Actor{ID: "c1", Role: models.RoleCitizen}, "r1", models.ScopeInternal, "   ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSendMessageInvalidScope(t *testing.T) {
	svc := NewMessageService(&messageStoreStub{}, &reportReaderStub{report: chatReport()}, nil)

	_, err := svc.Send(context.Background(), models.Actor{ID: "c1", Role: models.RoleCitizen}, "r1", models.MessageScope("PUBLIC"), "hello")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListMessagesUnknownReport(t *testing.T) {
	svc := NewMessageService(&messageStoreStub{}, &reportReaderStub{}, nil)

	_, err := svc.List(context.Background(), models.Actor{ID: "c1", Role: models.RoleCitizen}, "missing", models.ScopeInternal)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListMessagesScopedToConversation(t *testing.T) {
	store := &messageStoreStub{messages: []models.Message{
		{ID: "m1", ReportID: "r1", SenderID: "c1", Scope: models.ScopeInternal, Body: "internal"},
		{ID: "m2", ReportID: "r1", SenderID: "u2", Scope: models.ScopeExternal, Body: "external"},
	}}
	svc := NewMessageService(store, &reportReaderStub{report: chatReport()}, nil)

	messages, err := svc.List(context.Background(), models.Actor{ID: "u2", Role: models.RoleTechnicalStaff}, "r1", models.ScopeExternal)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "external", messages[0].Body)
}
