package models

import "time"

// EventStatus mirrors the ENUM values in the events table.
type EventStatus string

const (
	EventStatusRegistration EventStatus = "registration"
	EventStatusStarted      EventStatus = "started"
	EventStatusFinished     EventStatus = "finished"
)

type ScoreKind string

const (
	ScoreKindPoints  ScoreKind = "points"
	ScoreKindOutcome ScoreKind = "outcome"
)

// Event is one competition inside an olympiad. Teams enroll with a seed
// that fixes their bracket placement order.
type Event struct {
	ID         int         `json:"id" db:"id"`
	OlympiadID int         `json:"olympiad_id" db:"olympiad_id"`
	Name       string      `json:"name" db:"name"`
	Status     EventStatus `json:"status" db:"status"`
	ScoreKind  ScoreKind   `json:"score_kind" db:"score_kind"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`

	Teams  []Team  `json:"teams,omitempty" db:"-"`
	Stages []Stage `json:"stages,omitempty" db:"-"`
}
