package models

import "time"

// Olympiad is the root aggregate: it owns players, teams and events.
// Version is the optimistic-locking token exposed to clients as an ETag.
type Olympiad struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	PINHash   string    `json:"-" db:"pin_hash"`
	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
