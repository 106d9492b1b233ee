package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ldemarco/olympiad-system/models"
	"github.com/ldemarco/olympiad-system/repositories"
	"github.com/ldemarco/olympiad-system/utils"
)

const adminTokenTTL = 12 * time.Hour

type OlympiadService interface {
	List(ctx context.Context) ([]*models.Olympiad, error)
	Get(ctx context.Context, id int) (*models.Olympiad, error)
	Create(ctx context.Context, name, pin string) (*models.Olympiad, error)
	Rename(ctx context.Context, id int, name, pin string, expectedVersion int) (*models.Olympiad, error)
	Delete(ctx context.Context, id int, pin string, expectedVersion int) error
	// VerifyPIN exchanges a valid PIN for a signed admin token scoped to
	// the olympiad.
	VerifyPIN(ctx context.Context, id int, pin string) (string, error)
}

type olympiadService struct {
	db        *sql.DB
	repo      repositories.OlympiadRepository
	jwtSecret []byte
}

func NewOlympiadService(db *sql.DB, repo repositories.OlympiadRepository, jwtSecret string) OlympiadService {
	return &olympiadService{db: db, repo: repo, jwtSecret: []byte(jwtSecret)}
}

func (s *olympiadService) List(ctx context.Context) ([]*models.Olympiad, error) {
	return s.repo.List(ctx)
}

func (s *olympiadService) Get(ctx context.Context, id int) (*models.Olympiad, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapOlympiadRepositoryError(err)
	}
	return o, nil
}

func (s *olympiadService) Create(ctx context.Context, name, pin string) (*models.Olympiad, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if !utils.IsValidPIN(pin) {
		return nil, ErrPINFormatInvalid
	}

	hash, err := utils.HashPIN(pin)
	if err != nil {
		return nil, err
	}

	olympiad := &models.Olympiad{Name: name, PINHash: hash}
	if err := s.repo.Create(ctx, olympiad); err != nil {
		return nil, mapOlympiadRepositoryError(err)
	}
	return olympiad, nil
}

func (s *olympiadService) Rename(ctx context.Context, id int, name, pin string, expectedVersion int) (*models.Olympiad, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	var updated *models.Olympiad
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := s.authorize(ctx, tx, id, pin)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return &repositories.VersionConflictError{CurrentVersion: current.Version}
		}
		updated, err = s.repo.UpdateName(ctx, tx, id, name, expectedVersion)
		return mapOlympiadRepositoryError(err)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *olympiadService) Delete(ctx context.Context, id int, pin string, expectedVersion int) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := s.authorize(ctx, tx, id, pin)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return &repositories.VersionConflictError{CurrentVersion: current.Version}
		}
		return mapOlympiadRepositoryError(s.repo.Delete(ctx, tx, id, expectedVersion))
	})
}

func (s *olympiadService) VerifyPIN(ctx context.Context, id int, pin string) (string, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", mapOlympiadRepositoryError(err)
	}
	if !utils.CheckPINHash(pin, o.PINHash) {
		return "", ErrInvalidPIN
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"olympiad_id": o.ID,
		"iat":         now.Unix(),
		"exp":         now.Add(adminTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *olympiadService) authorize(ctx context.Context, tx *sql.Tx, id int, pin string) (*models.Olympiad, error) {
	return authorizeOlympiad(ctx, tx, s.repo, id, pin)
}

func mapOlympiadRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrOlympiadNotFound):
		return ErrOlympiadNotFound
	case errors.Is(err, repositories.ErrOlympiadNameConflict):
		return ErrOlympiadNameConflict
	}
	return err
}
