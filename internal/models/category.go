package models

import "time"

// ProblemCategory maps a report topic to its owning technical office.
// OfficeID is nullable at the storage level; a category without an office is a
// configuration error surfaced by the assignment engine, not by the repository.
type ProblemCategory struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	OfficeID  *string   `db:"office_id" json:"office_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TechnicalOffice is an organizational unit owning exactly one category and
// staffed by technical-staff users.
type TechnicalOffice struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Company is an external maintenance provider eligible for zero or more categories.
type Company struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
