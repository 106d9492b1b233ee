package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ldemarco/olympiad-system/models"
	"github.com/ldemarco/olympiad-system/repositories"
)

type ScoreInput struct {
	TeamID int `json:"team_id"`
	Score  int `json:"score"`
}

// UpdateMatchInput updates status and scores together. An empty Status
// keeps the current one; the version still advances.
type UpdateMatchInput struct {
	Status models.MatchStatus `json:"status"`
	Scores []ScoreInput       `json:"scores"`
}

type MatchService interface {
	Get(ctx context.Context, id int) (*models.Match, error)
	// Update applies the mutation only when expectedVersion matches the
	// stored row and the admin token is scoped to the owning olympiad.
	Update(ctx context.Context, id, tokenOlympiadID int, input UpdateMatchInput, expectedVersion int) (*models.Match, error)
}

type matchService struct {
	db        *sql.DB
	matchRepo repositories.MatchRepository
}

func NewMatchService(db *sql.DB, matchRepo repositories.MatchRepository) MatchService {
	return &matchService{db: db, matchRepo: matchRepo}
}

func (s *matchService) Get(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapMatchRepositoryError(err)
	}
	teams, err := s.matchRepo.ListTeams(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	m.Teams = teams
	return m, nil
}

func (s *matchService) Update(ctx context.Context, id, tokenOlympiadID int, input UpdateMatchInput, expectedVersion int) (*models.Match, error) {
	var updated *models.Match
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		current, olympiadID, err := s.matchRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return mapMatchRepositoryError(err)
		}
		if olympiadID != tokenOlympiadID {
			return ErrForbiddenOperation
		}
		if current.Version != expectedVersion {
			return &repositories.VersionConflictError{CurrentVersion: current.Version}
		}

		status := input.Status
		if status == "" {
			status = current.Status
		}
		switch status {
		case models.MatchStatusPending, models.MatchStatusInProgress, models.MatchStatusCompleted:
		default:
			return ErrInvalidStatusTransition
		}
		if !isValidMatchStatusTransition(current.Status, status) {
			return ErrInvalidStatusTransition
		}

		if len(input.Scores) > 0 {
			teams, err := s.matchRepo.ListTeams(ctx, tx, id)
			if err != nil {
				return err
			}
			members := make(map[int]struct{}, len(teams))
			for _, t := range teams {
				members[t.ID] = struct{}{}
			}
			for _, sc := range input.Scores {
				if _, ok := members[sc.TeamID]; !ok {
					return ErrScoreTeamInvalid
				}
				if err := s.matchRepo.UpsertScore(ctx, tx, id, sc.TeamID, sc.Score); err != nil {
					return mapMatchRepositoryError(err)
				}
			}
		}

		updated, err = s.matchRepo.UpdateStatus(ctx, tx, id, status, expectedVersion)
		if err != nil {
			return mapMatchRepositoryError(err)
		}
		teams, err := s.matchRepo.ListTeams(ctx, tx, id)
		if err != nil {
			return err
		}
		updated.Teams = teams
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func mapMatchRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchTeamInvalid):
		return ErrTeamNotFound
	}
	return err
}
