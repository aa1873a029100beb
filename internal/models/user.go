package models

import "time"

// UserRole is the closed set of roles recognised by the authorization layer.
type UserRole string

const (
	RoleCitizen            UserRole = "CITIZEN"
	RolePROfficer          UserRole = "PR_OFFICER"
	RoleTechnicalStaff     UserRole = "TECHNICAL_STAFF"
	RoleExternalMaintainer UserRole = "EXTERNAL_MAINTAINER"
	RoleAdmin              UserRole = "ADMIN"
)

// User represents an application user stored in the users table. Technical staff
// belong to an office, external maintainers to a company; both are nil for citizens.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Role         UserRole  `db:"role" json:"role"`
	OfficeID     *string   `db:"office_id" json:"office_id,omitempty"`
	CompanyID    *string   `db:"company_id" json:"company_id,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Actor identifies the authenticated caller of a domain operation. The identity
// collaborator (JWT middleware) fills it in; services trust it as-is.
type Actor struct {
	ID   string
	Role UserRole
}

// Candidate is an assignee option carrying its precomputed active-report count.
// Active means any status other than RESOLVED, REJECTED or PENDING_APPROVAL.
type Candidate struct {
	ID                string `db:"id" json:"id"`
	FirstName         string `db:"first_name" json:"first_name"`
	LastName          string `db:"last_name" json:"last_name"`
	ActiveReportCount int    `db:"active_report_count" json:"active_report_count"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
