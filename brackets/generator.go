package brackets

import (
	"context"

	"github.com/ldemarco/olympiad-system/models"
)

// GenerateBracketParams carries the inputs for bracket generation.
// TeamIDs is the seed order: index 0 is the top seed and the order is
// preserved exactly as supplied by the caller.
type GenerateBracketParams struct {
	TeamIDs []int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error)

	Kind() models.StageKind
}
