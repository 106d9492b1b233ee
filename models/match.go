package models

import "time"

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
)

// Match owns up to two participating teams. NextMatchID comes from the
// bracket_matches edge and is nil only for the final of a stage.
type Match struct {
	ID        int         `json:"id" db:"id"`
	GroupID   int         `json:"-" db:"group_id"`
	Status    MatchStatus `json:"status" db:"status"`
	Version   int         `json:"version" db:"version"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`

	Teams       []MatchTeam `json:"teams"`
	NextMatchID *int        `json:"next_match_id"`
}

// MatchTeam is a team's slot in a match together with its stored score.
// Score stays nil until the scoring flow records one.
type MatchTeam struct {
	ID    int    `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Score *int   `json:"score" db:"score"`
}

// BracketEdge links a match to the match its winner advances to.
// Exactly one edge exists per bracket match; NextMatchID is NULL for the
// final, which makes the edge set a binary in-tree rooted at the final.
type BracketEdge struct {
	MatchID     int  `json:"match_id" db:"match_id"`
	NextMatchID *int `json:"next_match_id" db:"next_match_id"`
}
