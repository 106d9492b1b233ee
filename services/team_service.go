package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ldemarco/olympiad-system/models"
	"github.com/ldemarco/olympiad-system/repositories"
	"github.com/ldemarco/olympiad-system/storage"
)

type TeamService interface {
	List(ctx context.Context, olympiadID int) ([]*models.Team, error)
	Get(ctx context.Context, olympiadID, id int) (*models.Team, error)
	Create(ctx context.Context, olympiadID int, name string, playerIDs []int, pin string) (*models.Team, error)
	Rename(ctx context.Context, olympiadID, id int, name, pin string, expectedVersion int) (*models.Team, error)
	SetPlayers(ctx context.Context, olympiadID, id int, playerIDs []int, pin string) (*models.Team, error)
	Delete(ctx context.Context, olympiadID, id int, pin string, expectedVersion int) error
	UploadLogo(ctx context.Context, olympiadID, id int, pin, contentType string, file io.Reader) (*models.Team, error)
}

type teamService struct {
	db           *sql.DB
	teamRepo     repositories.TeamRepository
	olympiadRepo repositories.OlympiadRepository
	uploader     storage.FileUploader
}

func NewTeamService(db *sql.DB, teamRepo repositories.TeamRepository, olympiadRepo repositories.OlympiadRepository, uploader storage.FileUploader) TeamService {
	return &teamService{db: db, teamRepo: teamRepo, olympiadRepo: olympiadRepo, uploader: uploader}
}

func (s *teamService) List(ctx context.Context, olympiadID int) ([]*models.Team, error) {
	if _, err := s.olympiadRepo.GetByID(ctx, olympiadID); err != nil {
		return nil, mapOlympiadRepositoryError(err)
	}
	teams, err := s.teamRepo.ListByOlympiad(ctx, olympiadID)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		populateTeamLogoURL(t, s.uploader)
	}
	return teams, nil
}

func (s *teamService) Get(ctx context.Context, olympiadID, id int) (*models.Team, error) {
	t, err := s.teamRepo.GetByID(ctx, id, olympiadID)
	if err != nil {
		return nil, mapTeamRepositoryError(err)
	}
	players, err := s.teamRepo.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Players = players
	populateTeamLogoURL(t, s.uploader)
	return t, nil
}

func (s *teamService) Create(ctx context.Context, olympiadID int, name string, playerIDs []int, pin string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	team := &models.Team{OlympiadID: olympiadID, Name: name}
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		if err := s.teamRepo.Create(ctx, tx, team); err != nil {
			return mapTeamRepositoryError(err)
		}
		if len(playerIDs) > 0 {
			return mapTeamRepositoryError(s.teamRepo.SetPlayers(ctx, tx, team.ID, playerIDs))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, olympiadID, team.ID)
}

func (s *teamService) Rename(ctx context.Context, olympiadID, id int, name, pin string, expectedVersion int) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	var updated *models.Team
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		current, err := s.teamRepo.GetForUpdate(ctx, tx, id, olympiadID)
		if err != nil {
			return mapTeamRepositoryError(err)
		}
		if current.Version != expectedVersion {
			return &repositories.VersionConflictError{CurrentVersion: current.Version}
		}
		updated, err = s.teamRepo.UpdateName(ctx, tx, id, name, expectedVersion)
		return mapTeamRepositoryError(err)
	})
	if err != nil {
		return nil, err
	}
	populateTeamLogoURL(updated, s.uploader)
	return updated, nil
}

func (s *teamService) SetPlayers(ctx context.Context, olympiadID, id int, playerIDs []int, pin string) (*models.Team, error) {
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		if _, err := s.teamRepo.GetForUpdate(ctx, tx, id, olympiadID); err != nil {
			return mapTeamRepositoryError(err)
		}
		return mapTeamRepositoryError(s.teamRepo.SetPlayers(ctx, tx, id, playerIDs))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, olympiadID, id)
}

func (s *teamService) Delete(ctx context.Context, olympiadID, id int, pin string, expectedVersion int) error {
	var logoKey *string
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		current, err := s.teamRepo.GetForUpdate(ctx, tx, id, olympiadID)
		if err != nil {
			return mapTeamRepositoryError(err)
		}
		if current.Version != expectedVersion {
			return &repositories.VersionConflictError{CurrentVersion: current.Version}
		}
		logoKey = current.LogoKey
		return mapTeamRepositoryError(s.teamRepo.Delete(ctx, tx, id, expectedVersion))
	})
	if err != nil {
		return err
	}
	// The DB row is gone; a leftover object in storage is harmless.
	if logoKey != nil && *logoKey != "" && s.uploader != nil {
		_ = s.uploader.Delete(ctx, *logoKey)
	}
	return nil
}

func (s *teamService) UploadLogo(ctx context.Context, olympiadID, id int, pin, contentType string, file io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, ErrUploaderNotConfigured
	}
	ext, err := getExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("olympiads/%d/teams/%d/logo%s", olympiadID, id, ext)
	var oldKey *string
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		current, err := s.teamRepo.GetForUpdate(ctx, tx, id, olympiadID)
		if err != nil {
			return mapTeamRepositoryError(err)
		}
		oldKey = current.LogoKey

		if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
			return err
		}
		return mapTeamRepositoryError(s.teamRepo.UpdateLogoKey(ctx, tx, id, &key))
	})
	if err != nil {
		return nil, err
	}
	if oldKey != nil && *oldKey != "" && *oldKey != key {
		_ = s.uploader.Delete(ctx, *oldKey)
	}
	return s.Get(ctx, olympiadID, id)
}

func mapTeamRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrTeamPlayerInvalid):
		return ErrPlayerNotFound
	}
	return err
}
