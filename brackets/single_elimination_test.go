package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teamIDs(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = 100 + i
	}
	return ids
}

func generate(t *testing.T, n int) *Bracket {
	t.Helper()
	b, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{TeamIDs: teamIDs(n)})
	require.NoError(t, err)
	return b
}

func TestMatchCount(t *testing.T) {
	testCases := []struct {
		teams   int
		matches int
	}{
		{2, 1},
		{3, 3},
		{4, 3},
		{5, 7},
		{7, 7},
		{8, 7},
		{9, 15},
		{16, 15},
		{17, 31},
	}

	for _, tc := range testCases {
		b := generate(t, tc.teams)
		assert.Len(t, b.Slots, tc.matches, "teams=%d", tc.teams)
		assert.Equal(t, tc.matches+1, b.BracketSize, "teams=%d", tc.teams)
	}
}

func TestTreeShape(t *testing.T) {
	for _, n := range []int{2, 3, 5, 8, 9, 17} {
		b := generate(t, n)

		roots := 0
		children := make(map[int]int)
		for _, s := range b.Slots {
			if s.NextSlot == nil {
				roots++
				continue
			}
			require.Greater(t, *s.NextSlot, s.Slot, "edges must point toward the final")
			require.Less(t, *s.NextSlot, len(b.Slots))
			children[*s.NextSlot]++
		}
		assert.Equal(t, 1, roots, "teams=%d", n)

		// Every non-first-round slot is fed by exactly two children.
		firstRound := b.BracketSize / 2
		for slot := firstRound; slot < len(b.Slots); slot++ {
			assert.Equal(t, 2, children[slot], "teams=%d slot=%d", n, slot)
		}

		// Round r (1-based from the first round) holds bracketSize/2^r slots.
		perRound := make(map[int]int)
		for _, s := range b.Slots {
			perRound[s.Round]++
		}
		for r := 1; r <= b.Rounds; r++ {
			assert.Equal(t, b.BracketSize>>r, perRound[r], "teams=%d round=%d", n, r)
		}
	}
}

func TestSeedPositions(t *testing.T) {
	testCases := []struct {
		size     int
		expected [][2]int
	}{
		{1, [][2]int{{0, 1}}},
		{2, [][2]int{{0, 3}, {1, 2}}},
		{4, [][2]int{{0, 7}, {1, 6}, {2, 5}, {3, 4}}},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, seedPositions(tc.size), "size=%d", tc.size)
	}
}

func TestFirstRoundSeeding(t *testing.T) {
	ids := teamIDs(8)
	b := generate(t, 8)

	expected := [][2]int{
		{ids[0], ids[7]},
		{ids[1], ids[6]},
		{ids[2], ids[5]},
		{ids[3], ids[4]},
	}
	for i, want := range expected {
		require.NotNil(t, b.Slots[i].Team1)
		require.NotNil(t, b.Slots[i].Team2)
		assert.Equal(t, want[0], *b.Slots[i].Team1, "match %d", i)
		assert.Equal(t, want[1], *b.Slots[i].Team2, "match %d", i)
	}
}

// With 5 teams in a bracket of 8 there are three byes: only the 3-vs-4
// pairing is complete and every slot still holds at least one team. With
// 7 teams only the top seed draws a bye.
func TestByes(t *testing.T) {
	count := func(b *Bracket) (full, single int) {
		for _, s := range b.Slots[:b.FirstRoundSize()] {
			switch {
			case s.Team1 != nil && s.Team2 != nil:
				full++
			case s.Team1 != nil || s.Team2 != nil:
				single++
			default:
				t.Fatalf("first-round slot %d has no teams", s.Slot)
			}
		}
		return full, single
	}

	b5 := generate(t, 5)
	full, single := count(b5)
	assert.Equal(t, 1, full)
	assert.Equal(t, 3, single)

	b7 := generate(t, 7)
	full, single = count(b7)
	assert.Equal(t, 3, full)
	assert.Equal(t, 1, single)
	// Seed 0 is the one with the walkover: its opponent would be seed 7.
	require.NotNil(t, b7.Slots[0].Team1)
	assert.Nil(t, b7.Slots[0].Team2)

	// Later rounds carry no assignments at generation time.
	for _, s := range b5.Slots[b5.FirstRoundSize():] {
		assert.Nil(t, s.Team1)
		assert.Nil(t, s.Team2)
	}
}

func TestDeterminism(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	params := GenerateBracketParams{TeamIDs: []int{42, 7, 99, 13, 5}}

	first, err := gen.GenerateBracket(context.Background(), params)
	require.NoError(t, err)
	second, err := gen.GenerateBracket(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDegenerateInput(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	for _, ids := range [][]int{nil, {}, {1}} {
		b, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{TeamIDs: ids})
		assert.ErrorIs(t, err, ErrNotEnoughTeams)
		assert.Nil(t, b)
	}

	b, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{TeamIDs: []int{1, 2, 1}})
	assert.ErrorIs(t, err, ErrDuplicateTeam)
	assert.Nil(t, b)
}

func TestCeilLog2(t *testing.T) {
	testCases := []struct{ n, want int }{
		{1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4},
		{1 << 16, 16}, {(1 << 16) + 1, 17}, {100000, 17},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, ceilLog2(tc.n), "n=%d", tc.n)
	}
}
