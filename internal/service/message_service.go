package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/participium/participium-api/internal/models"
	appErrors "github.com/participium/participium-api/pkg/errors"
)

// IsParticipant reports whether the user belongs to the two-party conversation
// for the given scope. INTERNAL pairs the reporting citizen with the assigned
// technical officer; EXTERNAL pairs the officer with the external maintainer.
// The citizen is never a participant of the external scope.
func IsParticipant(report *models.Report, userID string, scope models.MessageScope) bool {
	if report == nil || userID == "" {
		return false
	}
	switch scope {
	case models.ScopeInternal:
		if userID == report.ReporterID {
			return true
		}
		return report.TechnicalOfficerID != nil && *report.TechnicalOfficerID == userID
	case models.ScopeExternal:
		if report.TechnicalOfficerID != nil && *report.TechnicalOfficerID == userID {
			return true
		}
		return report.ExternalMaintainerID != nil && *report.ExternalMaintainerID == userID
	default:
		return false
	}
}

type messageStore interface {
	Create(ctx context.Context, message *models.Message) error
	ListByReportAndScope(ctx context.Context, reportID string, scope models.MessageScope) ([]models.Message, error)
}

type reportReader interface {
	FindByID(ctx context.Context, id string) (*models.Report, error)
}

// MessageService mediates the report-scoped two-party chat. Every read and
// write goes through the participant policy first.
type MessageService struct {
	messages messageStore
	reports  reportReader
	logger   *zap.Logger
}

// NewMessageService creates a service instance.
func NewMessageService(messages messageStore, reports reportReader, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{messages: messages, reports: reports, logger: logger}
}

// List returns the conversation for a scope, if the caller participates in it.
func (s *MessageService) List(ctx context.Context, actor models.Actor, reportID string, scope models.MessageScope) ([]models.Message, error) {
	report, err := s.authorize(ctx, actor, reportID, scope)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByReportAndScope(ctx, report.ID, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, nil
}

// Send stores a new message in a scope the caller participates in.
func (s *MessageService) Send(ctx context.Context, actor models.Actor, reportID string, scope models.MessageScope, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message body is required")
	}

	report, err := s.authorize(ctx, actor, reportID, scope)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ReportID: report.ID,
		SenderID: actor.ID,
		Scope:    scope,
		Body:     body,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}
	return message, nil
}

func (s *MessageService) authorize(ctx context.Context, actor models.Actor, reportID string, scope models.MessageScope) (*models.Report, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown message scope")
	}

	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}

	if !IsParticipant(report, actor.ID, scope) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not a participant of this conversation")
	}
	return report, nil
}
