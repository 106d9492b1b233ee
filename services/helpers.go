package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ldemarco/olympiad-system/models"
	"github.com/ldemarco/olympiad-system/repositories"
	"github.com/ldemarco/olympiad-system/storage"
	"github.com/ldemarco/olympiad-system/utils"
)

// authorizeOlympiad locks the olympiad row and verifies the PIN against
// it. Every mutation goes through here so the PIN check and the write see
// the same row state.
func authorizeOlympiad(ctx context.Context, exec repositories.SQLExecutor, repo repositories.OlympiadRepository, id int, pin string) (*models.Olympiad, error) {
	o, err := repo.GetForUpdate(ctx, exec, id)
	if err != nil {
		return nil, mapOlympiadRepositoryError(err)
	}
	if !utils.CheckPINHash(pin, o.PINHash) {
		return nil, ErrInvalidPIN
	}
	return o, nil
}

// runInTx wraps fn in a transaction. A panic inside fn rolls back and
// re-panics so the HTTP recoverer still sees it.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}

func isValidEventStatusTransition(current, next models.EventStatus) bool {
	if current == next {
		return true
	}
	allowed := map[models.EventStatus][]models.EventStatus{
		models.EventStatusRegistration: {models.EventStatusStarted},
		models.EventStatusStarted:      {models.EventStatusFinished},
		models.EventStatusFinished:     {},
	}
	for _, s := range allowed[current] {
		if next == s {
			return true
		}
	}
	return false
}

func isValidStageStatusTransition(current, next models.StageStatus) bool {
	if current == next {
		return true
	}
	allowed := map[models.StageStatus][]models.StageStatus{
		models.StageStatusPending:    {models.StageStatusInProgress},
		models.StageStatusInProgress: {models.StageStatusCompleted},
		models.StageStatusCompleted:  {},
	}
	for _, s := range allowed[current] {
		if next == s {
			return true
		}
	}
	return false
}

func isValidMatchStatusTransition(current, next models.MatchStatus) bool {
	if current == next {
		return true
	}
	allowed := map[models.MatchStatus][]models.MatchStatus{
		models.MatchStatusPending:    {models.MatchStatusInProgress, models.MatchStatusCompleted},
		models.MatchStatusInProgress: {models.MatchStatusCompleted},
		models.MatchStatusCompleted:  {},
	}
	for _, s := range allowed[current] {
		if next == s {
			return true
		}
	}
	return false
}

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team != nil && team.LogoKey != nil && *team.LogoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*team.LogoKey)
		if url != "" {
			team.LogoURL = &url
		}
	}
}

func getExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("%w: %s", ErrInvalidLogoFormat, contentType)
	}
}
