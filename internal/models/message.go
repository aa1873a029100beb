package models

import "time"

// MessageScope identifies one of the two report-scoped conversations.
type MessageScope string

const (
	// ScopeInternal is the citizen ↔ technical officer conversation.
	ScopeInternal MessageScope = "INTERNAL"
	// ScopeExternal is the technical officer ↔ external maintainer conversation.
	// The reporting citizen is never a participant here.
	ScopeExternal MessageScope = "EXTERNAL"
)

// Valid reports whether the scope is one of the known conversation scopes.
func (s MessageScope) Valid() bool {
	return s == ScopeInternal || s == ScopeExternal
}

// Message is a chat entry exchanged on a report.
type Message struct {
	ID        string       `db:"id" json:"id"`
	ReportID  string       `db:"report_id" json:"report_id"`
	SenderID  string       `db:"sender_id" json:"sender_id"`
	Scope     MessageScope `db:"scope" json:"scope"`
	Body      string       `db:"body" json:"body"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
