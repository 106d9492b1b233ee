package models

import "time"

type Player struct {
	ID         int       `json:"id" db:"id"`
	OlympiadID int       `json:"olympiad_id" db:"olympiad_id"`
	Name       string    `json:"name" db:"name"`
	Version    int       `json:"version" db:"version"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
