package models

import "time"

// NotificationKind classifies notification events.
type NotificationKind string

const (
	NotificationReportStatus NotificationKind = "REPORT_STATUS_CHANGED"
)

// NotificationEvent is the record handed to the dispatch collaborator. The core
// only constructs these; delivery and storage happen elsewhere.
type NotificationEvent struct {
	UserID   string           `json:"user_id"`
	ReportID string           `json:"report_id"`
	Kind     NotificationKind `json:"kind"`
	Message  string           `json:"message"`
}

// Notification is a stored, per-user notification row.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	ReportID  string           `db:"report_id" json:"report_id"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	Message   string           `db:"message" json:"message"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
