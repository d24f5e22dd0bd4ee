package models

import "time"

type Job struct {
	ID                    int64     `db:"id" json:"id"`
	Title                 string    `db:"title" json:"title"`
	Description           string    `db:"description" json:"description"`
	Location              string    `db:"location" json:"location"`
	Salary                float64   `db:"salary" json:"salary"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	Requirements          *string   `db:"requirements" json:"requirements"`
	ConditionsAndBenefits *string   `db:"conditions_and_benefits" json:"conditions_and_benefits"`

	Media []Media `db:"-" json:"media"`
}

// JobInput carries the mutable fields of a job. Photos are object storage
// keys or external URLs that were uploaded beforehand.
type JobInput struct {
	Title                 string   `json:"title" validate:"min=5,max=200"`
	Description           string   `json:"description" validate:"required"`
	Location              string   `json:"location" validate:"required"`
	Salary                *float64 `json:"salary" validate:"required,gte=0"`
	Requirements          *string  `json:"requirements"`
	ConditionsAndBenefits *string  `json:"conditions_and_benefits"`
	Photos                []string `json:"photos"`
}

// SalaryValue returns the salary, or 0 when it was not given.
func (in JobInput) SalaryValue() float64 {
	if in.Salary == nil {
		return 0
	}
	return *in.Salary
}
