package models

import (
	"time"

	"github.com/lib/pq"
)

// ReportStatus enumerates the report workflow states.
type ReportStatus string

const (
	StatusPendingApproval ReportStatus = "PENDING_APPROVAL"
	StatusAssigned        ReportStatus = "ASSIGNED"
	StatusInProgress      ReportStatus = "IN_PROGRESS"
	StatusSuspended       ReportStatus = "SUSPENDED"
	StatusRejected        ReportStatus = "REJECTED"
	StatusResolved        ReportStatus = "RESOLVED"
)

// Terminal reports accept no further transitions.
func (s ReportStatus) Terminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// Active statuses count toward an assignee's workload.
func (s ReportStatus) Active() bool {
	switch s {
	case StatusResolved, StatusRejected, StatusPendingApproval:
		return false
	default:
		return true
	}
}

// Label returns the human-readable form used in citizen-facing text.
func (s ReportStatus) Label() string {
	switch s {
	case StatusPendingApproval:
		return "pending approval"
	case StatusAssigned:
		return "assigned"
	case StatusInProgress:
		return "in progress"
	case StatusSuspended:
		return "suspended"
	case StatusRejected:
		return "rejected"
	case StatusResolved:
		return "resolved"
	default:
		return string(s)
	}
}

// Report is the central entity: a citizen-submitted municipal problem.
type Report struct {
	ID                   string         `db:"id" json:"id"`
	Title                string         `db:"title" json:"title"`
	Description          string         `db:"description" json:"description"`
	Latitude             float64        `db:"latitude" json:"latitude"`
	Longitude            float64        `db:"longitude" json:"longitude"`
	Address              *string        `db:"address" json:"address,omitempty"`
	Anonymous            bool           `db:"anonymous" json:"anonymous"`
	Photos               pq.StringArray `db:"photos" json:"photos"`
	Status               ReportStatus   `db:"status" json:"status"`
	RejectionReason      *string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ReporterID           string         `db:"reporter_id" json:"reporter_id"`
	CategoryID           string         `db:"category_id" json:"category_id"`
	TechnicalOfficerID   *string        `db:"technical_officer_id" json:"technical_officer_id,omitempty"`
	ExternalMaintainerID *string        `db:"external_maintainer_id" json:"external_maintainer_id,omitempty"`
	CompanyID            *string        `db:"company_id" json:"company_id,omitempty"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// ReportPatch describes a partial update to a report. Nil fields are left
// untouched; ClearRejectionReason nulls the reason (approval after a prior
// rejection attempt must never leave a reason behind).
type ReportPatch struct {
	Status               *ReportStatus
	RejectionReason      *string
	ClearRejectionReason bool
	TechnicalOfficerID   *string
	ExternalMaintainerID *string
	CompanyID            *string

	// ExpectedStatus, when set, turns the write into a single-row conditional
	// update so callers can serialize racing transitions at the storage layer.
	ExpectedStatus *ReportStatus
}

// ReportFilter captures filtering options for listing reports.
type ReportFilter struct {
	Status     *ReportStatus
	CategoryID string
	ReporterID string
	AssigneeID string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// StatusTransition records a completed status change for notification purposes.
type StatusTransition struct {
	ReportID        string
	ReportTitle     string
	ReporterID      string
	From            ReportStatus
	To              ReportStatus
	RejectionReason string
}
