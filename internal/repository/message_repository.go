package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/participium/participium-api/internal/models"
)

// MessageRepository persists report-scoped chat messages. Authorization happens
// before anything reaches this layer.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs a MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a chat message.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_messages (id, report_id, sender_id, scope, body, created_at)
		VALUES (:id, :report_id, :sender_id, :scope, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListByReportAndScope returns a report's conversation in chronological order.
func (r *MessageRepository) ListByReportAndScope(ctx context.Context, reportID string, scope models.MessageScope) ([]models.Message, error) {
	const query = `SELECT id, report_id, sender_id, scope, body, created_at
		FROM report_messages
		WHERE report_id = $1 AND scope = $2
		ORDER BY created_at ASC`
	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, reportID, scope); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
