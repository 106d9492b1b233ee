package models

type StageKind string

const (
	StageKindSingleElimination StageKind = "single_elimination"
	StageKindRoundRobin        StageKind = "round_robin"
)

type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusInProgress StageStatus = "in_progress"
	StageStatusCompleted  StageStatus = "completed"
)

// Stage is one phase of an event. For single elimination there is exactly
// one group; the group owns the stage's matches.
type Stage struct {
	ID           int         `json:"id" db:"id"`
	EventID      int         `json:"event_id" db:"event_id"`
	Kind         StageKind   `json:"kind" db:"kind"`
	Status       StageStatus `json:"status" db:"status"`
	StageOrder   int         `json:"stage_order" db:"stage_order"`
	AdvanceCount *int        `json:"advance_count" db:"advance_count"`

	Matches []Match `json:"matches" db:"-"`
}

// StageKindInfo is a row of the stage_kinds lookup table.
type StageKindInfo struct {
	Kind  StageKind `json:"kind" db:"kind"`
	Label string    `json:"label" db:"label"`
}
