package brackets

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/ldemarco/olympiad-system/models"
)

var (
	ErrNotEnoughTeams = errors.New("at least 2 teams are required to generate a bracket")
	ErrDuplicateTeam  = errors.New("duplicate team id in bracket input")
)

// Slot is one match position in a generated bracket. Slot numbers are
// allocation order: persisting them ascending keeps database match IDs
// aligned with bracket order, so the final is always the last slot.
// NextSlot is the slot the winner advances to, nil only for the final.
// Team1/Team2 are team IDs; a nil side on a first-round slot is a bye.
type Slot struct {
	Slot     int
	Round    int
	NextSlot *int
	Team1    *int
	Team2    *int
}

type Bracket struct {
	Rounds      int
	BracketSize int
	Slots       []Slot
}

// FirstRoundSize returns the number of slots in the opening round.
func (b *Bracket) FirstRoundSize() int {
	return b.BracketSize / 2
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Kind() models.StageKind {
	return models.StageKindSingleElimination
}

// GenerateBracket builds the full single-elimination graph for the given
// seed order. For n teams it produces bracketSize-1 slots where
// bracketSize is the next power of two >= n. Rounds are laid out first
// round first and final last; slot i of a round feeds slot i/2 of the
// following round. First-round pairings follow standard top-vs-bottom
// seeding, and a seed index past the team list leaves a bye.
//
// The result is deterministic: the same TeamIDs sequence always yields
// the same slots, edges and assignments.
func (g *SingleEliminationGenerator) GenerateBracket(_ context.Context, params GenerateBracketParams) (*Bracket, error) {
	teamIDs := params.TeamIDs
	n := len(teamIDs)

	if n < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrNotEnoughTeams, n)
	}
	seen := make(map[int]struct{}, n)
	for _, id := range teamIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: team %d", ErrDuplicateTeam, id)
		}
		seen[id] = struct{}{}
	}

	rounds := ceilLog2(n)
	bracketSize := 1 << rounds
	totalMatches := bracketSize - 1

	slots := make([]Slot, totalMatches)

	// For bracketSize 8 the round slices are [0..3], [4..5], [6].
	offset := 0
	round := 1
	for size := bracketSize / 2; size >= 1; size /= 2 {
		for i := 0; i < size; i++ {
			idx := offset + i
			slots[idx] = Slot{Slot: idx, Round: round}
			if size > 1 {
				next := offset + size + i/2
				slots[idx].NextSlot = &next
			}
		}
		offset += size
		round++
	}

	for matchIdx, pair := range seedPositions(bracketSize / 2) {
		if pair[0] < n {
			id := teamIDs[pair[0]]
			slots[matchIdx].Team1 = &id
		}
		if pair[1] < n {
			id := teamIDs[pair[1]]
			slots[matchIdx].Team2 = &id
		}
	}

	return &Bracket{
		Rounds:      rounds,
		BracketSize: bracketSize,
		Slots:       slots,
	}, nil
}

// ceilLog2 returns the smallest k with 2^k >= n. Integer bit-length
// arithmetic, so it stays exact where float64 log2 would drift.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// seedPositions pairs seeds for the opening round of a bracket with the
// given number of first-round matches: match i gets seed i against seed
// 2*size-1-i, so the top seed meets the bottom one.
func seedPositions(size int) [][2]int {
	if size == 1 {
		return [][2]int{{0, 1}}
	}
	positions := make([][2]int, 0, size)
	for i := 0; i < size; i++ {
		positions = append(positions, [2]int{i, size*2 - 1 - i})
	}
	return positions
}
