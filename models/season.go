package models

import "time"

// Season is a bounded period of play with its own registration window.
// All roster state (team membership, captaincy, payment, waiver) is scoped
// to exactly one season.
type Season struct {
	ID                int       `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	DateStart         time.Time `json:"date_start" db:"date_start"`
	DateEnd           time.Time `json:"date_end" db:"date_end"`
	RegistrationStart time.Time `json:"registration_start" db:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end" db:"registration_end"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`

	Teams []Team `json:"teams,omitempty" db:"-"`
}

func (s *Season) RegistrationOpen(at time.Time) bool {
	return !at.Before(s.RegistrationStart) && at.Before(s.RegistrationEnd)
}
