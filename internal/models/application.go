package models

import "time"

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Final reports whether no further transition is allowed.
func (s ApplicationStatus) Final() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether an admin decision may move an application
// from s to next.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	return s == StatusPending && next.Final()
}

type Application struct {
	ID         int64             `db:"id" json:"id"`
	JobID      int64             `db:"job_id" json:"job_id"`
	JobTitle   string            `db:"job_title" json:"job_title,omitempty"`
	FullName   string            `db:"full_name" json:"full_name"`
	Email      string            `db:"email" json:"email"`
	Phone      string            `db:"phone" json:"phone"`
	Experience *string           `db:"experience" json:"experience"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	Status     ApplicationStatus `db:"status" json:"status"`
}

type ApplicationInput struct {
	JobID      int64  `json:"job_id"`
	FullName   string `json:"fullName" validate:"fullname"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"phone"`
	Experience string `json:"experience" validate:"max=2000"`
}
