package models

import "time"

type Team struct {
	ID         int       `json:"id" db:"id"`
	OlympiadID int       `json:"olympiad_id" db:"olympiad_id"`
	Name       string    `json:"name" db:"name"`
	Version    int       `json:"version" db:"version"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	Players []Player `json:"players,omitempty" db:"-"`
}
