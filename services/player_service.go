package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ldemarco/olympiad-system/models"
	"github.com/ldemarco/olympiad-system/repositories"
)

type PlayerService interface {
	List(ctx context.Context, olympiadID int) ([]*models.Player, error)
	Get(ctx context.Context, olympiadID, id int) (*models.Player, error)
	Create(ctx context.Context, olympiadID int, name, pin string) (*models.Player, error)
	Rename(ctx context.Context, olympiadID, id int, name, pin string, expectedVersion int) (*models.Player, error)
	Delete(ctx context.Context, olympiadID, id int, pin string, expectedVersion int) error
}

type playerService struct {
	db           *sql.DB
	playerRepo   repositories.PlayerRepository
	olympiadRepo repositories.OlympiadRepository
}

func NewPlayerService(db *sql.DB, playerRepo repositories.PlayerRepository, olympiadRepo repositories.OlympiadRepository) PlayerService {
	return &playerService{db: db, playerRepo: playerRepo, olympiadRepo: olympiadRepo}
}

func (s *playerService) List(ctx context.Context, olympiadID int) ([]*models.Player, error) {
	if _, err := s.olympiadRepo.GetByID(ctx, olympiadID); err != nil {
		return nil, mapOlympiadRepositoryError(err)
	}
	return s.playerRepo.ListByOlympiad(ctx, olympiadID)
}

func (s *playerService) Get(ctx context.Context, olympiadID, id int) (*models.Player, error) {
	p, err := s.playerRepo.GetByID(ctx, id, olympiadID)
	if err != nil {
		return nil, mapPlayerRepositoryError(err)
	}
	return p, nil
}

func (s *playerService) Create(ctx context.Context, olympiadID int, name, pin string) (*models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	player := &models.Player{OlympiadID: olympiadID, Name: name}
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		return mapPlayerRepositoryError(s.playerRepo.Create(ctx, tx, player))
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

func (s *playerService) Rename(ctx context.Context, olympiadID, id int, name, pin string, expectedVersion int) (*models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	var updated *models.Player
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		current, err := s.playerRepo.GetForUpdate(ctx, tx, id, olympiadID)
		if err != nil {
			return mapPlayerRepositoryError(err)
		}
		if current.Version != expectedVersion {
			return &repositories.VersionConflictError{CurrentVersion: current.Version}
		}
		updated, err = s.playerRepo.UpdateName(ctx, tx, id, name, expectedVersion)
		return mapPlayerRepositoryError(err)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *playerService) Delete(ctx context.Context, olympiadID, id int, pin string, expectedVersion int) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		current, err := s.playerRepo.GetForUpdate(ctx, tx, id, olympiadID)
		if err != nil {
			return mapPlayerRepositoryError(err)
		}
		if current.Version != expectedVersion {
			return &repositories.VersionConflictError{CurrentVersion: current.Version}
		}
		return mapPlayerRepositoryError(s.playerRepo.Delete(ctx, tx, id, expectedVersion))
	})
}

func mapPlayerRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPlayerNameConflict):
		return ErrPlayerNameConflict
	}
	return err
}
