package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ldemarco/olympiad-system/brackets"
	"github.com/ldemarco/olympiad-system/models"
	"github.com/ldemarco/olympiad-system/repositories"
	"github.com/ldemarco/olympiad-system/storage"
)

type StageInput struct {
	Kind         models.StageKind `json:"kind"`
	AdvanceCount *int             `json:"advance_count"`
}

// CreateEventInput carries everything needed to set up an event in one
// shot: the enrolled teams in seed order and the stage pipeline.
type CreateEventInput struct {
	Name      string           `json:"name"`
	ScoreKind models.ScoreKind `json:"score_kind"`
	TeamIDs   []int            `json:"team_ids"`
	Stages    []StageInput     `json:"stages"`
}

type EventService interface {
	List(ctx context.Context, olympiadID int) ([]*models.Event, error)
	Get(ctx context.Context, olympiadID, id int) (*models.Event, error)
	// CreateWithStages validates the full input before touching the
	// database, then creates the event, enrollments, stages, groups and
	// bracket matches in a single transaction.
	CreateWithStages(ctx context.Context, olympiadID int, input CreateEventInput, pin string) (*models.Event, error)
	Update(ctx context.Context, olympiadID, id int, name string, status models.EventStatus, pin string) (*models.Event, error)
	// UpdateStageStatus advances a stage through its lifecycle; the
	// transitions are monotonic, a completed stage never reopens.
	UpdateStageStatus(ctx context.Context, olympiadID, eventID, stageID int, status models.StageStatus, pin string) (*models.Stage, error)
	Delete(ctx context.Context, olympiadID, id int, pin string) error
	// GetBracket returns the event with its teams and every stage's
	// matches, edges and scores attached.
	GetBracket(ctx context.Context, olympiadID, id int) (*models.Event, error)
	ListStageKinds(ctx context.Context) ([]models.StageKindInfo, error)
}

type eventService struct {
	db           *sql.DB
	eventRepo    repositories.EventRepository
	stageRepo    repositories.StageRepository
	matchRepo    repositories.MatchRepository
	teamRepo     repositories.TeamRepository
	olympiadRepo repositories.OlympiadRepository
	uploader     storage.FileUploader
	generators   map[models.StageKind]brackets.BracketGenerator
}

func NewEventService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	olympiadRepo repositories.OlympiadRepository,
	uploader storage.FileUploader,
) EventService {
	generators := make(map[models.StageKind]brackets.BracketGenerator)
	for _, g := range []brackets.BracketGenerator{
		brackets.NewSingleEliminationGenerator(),
	} {
		generators[g.Kind()] = g
	}
	return &eventService{
		db:           db,
		eventRepo:    eventRepo,
		stageRepo:    stageRepo,
		matchRepo:    matchRepo,
		teamRepo:     teamRepo,
		olympiadRepo: olympiadRepo,
		uploader:     uploader,
		generators:   generators,
	}
}

func (s *eventService) List(ctx context.Context, olympiadID int) ([]*models.Event, error) {
	if _, err := s.olympiadRepo.GetByID(ctx, olympiadID); err != nil {
		return nil, mapOlympiadRepositoryError(err)
	}
	return s.eventRepo.ListByOlympiad(ctx, olympiadID)
}

func (s *eventService) Get(ctx context.Context, olympiadID, id int) (*models.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, id, olympiadID)
	if err != nil {
		return nil, mapEventRepositoryError(err)
	}
	return e, nil
}

func (s *eventService) ListStageKinds(ctx context.Context) ([]models.StageKindInfo, error) {
	return s.stageRepo.ListKinds(ctx)
}

func (s *eventService) CreateWithStages(ctx context.Context, olympiadID int, input CreateEventInput, pin string) (*models.Event, error) {
	if err := s.validateCreateInput(ctx, olympiadID, &input); err != nil {
		return nil, err
	}

	event := &models.Event{
		OlympiadID: olympiadID,
		Name:       input.Name,
		ScoreKind:  input.ScoreKind,
	}

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		if err := s.eventRepo.Create(ctx, tx, event); err != nil {
			return mapEventRepositoryError(err)
		}
		for seed, teamID := range input.TeamIDs {
			if err := s.eventRepo.EnrollTeam(ctx, tx, event.ID, teamID, seed); err != nil {
				return mapEventRepositoryError(err)
			}
		}

		for i, in := range input.Stages {
			stage := &models.Stage{
				EventID:      event.ID,
				Kind:         in.Kind,
				StageOrder:   i + 1,
				AdvanceCount: in.AdvanceCount,
			}
			if err := s.stageRepo.Create(ctx, tx, stage); err != nil {
				return err
			}
			groupID, err := s.stageRepo.CreateGroup(ctx, tx, stage.ID)
			if err != nil {
				return err
			}
			for _, teamID := range input.TeamIDs {
				if err := s.stageRepo.AddGroupTeam(ctx, tx, groupID, teamID); err != nil {
					return err
				}
			}
			if err := s.buildStageMatches(ctx, tx, stage, groupID, input.TeamIDs); err != nil {
				return err
			}
			event.Stages = append(event.Stages, *stage)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetBracket(ctx, olympiadID, event.ID)
}

// buildStageMatches generates and persists the match graph for stage
// kinds that pre-schedule their matches. Other kinds get their matches
// when the stage starts.
func (s *eventService) buildStageMatches(ctx context.Context, tx *sql.Tx, stage *models.Stage, groupID int, teamIDs []int) error {
	gen, ok := s.generators[stage.Kind]
	if !ok {
		return nil
	}

	bracket, err := gen.GenerateBracket(ctx, brackets.GenerateBracketParams{TeamIDs: teamIDs})
	if err != nil {
		return mapBracketError(err)
	}

	// Matches are created in slot order so database IDs follow bracket
	// order. Edges can only be written once the target IDs exist, hence
	// the second pass.
	slotToMatchID := make([]int, len(bracket.Slots))
	for _, slot := range bracket.Slots {
		matchID, err := s.matchRepo.Create(ctx, tx, groupID)
		if err != nil {
			return err
		}
		slotToMatchID[slot.Slot] = matchID
	}
	for _, slot := range bracket.Slots {
		var nextID *int
		if slot.NextSlot != nil {
			id := slotToMatchID[*slot.NextSlot]
			nextID = &id
		}
		if err := s.matchRepo.CreateEdge(ctx, tx, slotToMatchID[slot.Slot], nextID); err != nil {
			return err
		}
		if slot.Team1 != nil {
			if err := s.matchRepo.AddTeam(ctx, tx, slotToMatchID[slot.Slot], *slot.Team1); err != nil {
				return err
			}
		}
		if slot.Team2 != nil {
			if err := s.matchRepo.AddTeam(ctx, tx, slotToMatchID[slot.Slot], *slot.Team2); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *eventService) validateCreateInput(ctx context.Context, olympiadID int, input *CreateEventInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return ErrNameRequired
	}
	switch input.ScoreKind {
	case models.ScoreKindPoints, models.ScoreKindOutcome:
	default:
		return ErrUnknownScoreKind
	}
	if len(input.Stages) == 0 {
		return ErrNoStagesDefined
	}
	if len(input.TeamIDs) < 2 {
		return ErrNotEnoughTeams
	}
	seen := make(map[int]struct{}, len(input.TeamIDs))
	for _, id := range input.TeamIDs {
		if _, dup := seen[id]; dup {
			return ErrDuplicateTeamID
		}
		seen[id] = struct{}{}
	}

	kinds, err := s.stageRepo.ListKinds(ctx)
	if err != nil {
		return err
	}
	known := make(map[models.StageKind]struct{}, len(kinds))
	for _, k := range kinds {
		known[k.Kind] = struct{}{}
	}
	for _, in := range input.Stages {
		if _, ok := known[in.Kind]; !ok {
			return ErrUnknownStageKind
		}
	}

	teams, err := s.teamRepo.ListByOlympiad(ctx, olympiadID)
	if err != nil {
		return err
	}
	members := make(map[int]struct{}, len(teams))
	for _, t := range teams {
		members[t.ID] = struct{}{}
	}
	for _, id := range input.TeamIDs {
		if _, ok := members[id]; !ok {
			return ErrTeamNotInOlympiad
		}
	}
	return nil
}

func (s *eventService) Update(ctx context.Context, olympiadID, id int, name string, status models.EventStatus, pin string) (*models.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	switch status {
	case models.EventStatusRegistration, models.EventStatusStarted, models.EventStatusFinished:
	default:
		return nil, ErrInvalidStatusTransition
	}

	var updated *models.Event
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		current, err := s.eventRepo.GetByID(ctx, id, olympiadID)
		if err != nil {
			return mapEventRepositoryError(err)
		}
		if !isValidEventStatusTransition(current.Status, status) {
			return ErrInvalidStatusTransition
		}
		updated, err = s.eventRepo.Update(ctx, tx, id, name, status)
		return mapEventRepositoryError(err)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *eventService) UpdateStageStatus(ctx context.Context, olympiadID, eventID, stageID int, status models.StageStatus, pin string) (*models.Stage, error) {
	switch status {
	case models.StageStatusPending, models.StageStatusInProgress, models.StageStatusCompleted:
	default:
		return nil, ErrInvalidStatusTransition
	}

	var updated *models.Stage
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		if _, err := s.eventRepo.GetByID(ctx, eventID, olympiadID); err != nil {
			return mapEventRepositoryError(err)
		}
		stages, err := s.stageRepo.ListByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		var current *models.Stage
		for _, st := range stages {
			if st.ID == stageID {
				current = st
				break
			}
		}
		if current == nil {
			return ErrStageNotFound
		}
		if !isValidStageStatusTransition(current.Status, status) {
			return ErrInvalidStatusTransition
		}
		if err := s.stageRepo.UpdateStatus(ctx, tx, stageID, status); err != nil {
			return mapStageRepositoryError(err)
		}
		current.Status = status
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *eventService) Delete(ctx context.Context, olympiadID, id int, pin string) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := authorizeOlympiad(ctx, tx, s.olympiadRepo, olympiadID, pin); err != nil {
			return err
		}
		if _, err := s.eventRepo.GetByID(ctx, id, olympiadID); err != nil {
			return mapEventRepositoryError(err)
		}
		return mapEventRepositoryError(s.eventRepo.Delete(ctx, tx, id))
	})
}

func (s *eventService) GetBracket(ctx context.Context, olympiadID, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id, olympiadID)
	if err != nil {
		return nil, mapEventRepositoryError(err)
	}

	var stages []*models.Stage
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.eventRepo.ListTeams(gCtx, id)
		if err != nil {
			return err
		}
		for i := range teams {
			populateTeamLogoURL(&teams[i], s.uploader)
		}
		event.Teams = teams
		return nil
	})
	g.Go(func() error {
		var err error
		stages, err = s.stageRepo.ListByEvent(gCtx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	event.Stages = make([]models.Stage, 0, len(stages))
	for _, stage := range stages {
		matches, err := s.matchRepo.ListByStage(ctx, stage.ID)
		if err != nil {
			return nil, err
		}
		stage.Matches = make([]models.Match, 0, len(matches))
		for _, m := range matches {
			teams, err := s.matchRepo.ListTeams(ctx, s.db, m.ID)
			if err != nil {
				return nil, err
			}
			m.Teams = teams
			stage.Matches = append(stage.Matches, *m)
		}
		event.Stages = append(event.Stages, *stage)
	}
	return event, nil
}

func mapEventRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrEventNotFound):
		return ErrEventNotFound
	case errors.Is(err, repositories.ErrEventNameConflict):
		return ErrEventNameConflict
	case errors.Is(err, repositories.ErrEventTeamInvalid):
		return ErrTeamNotInOlympiad
	}
	return err
}

func mapStageRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrStageNotFound):
		return ErrStageNotFound
	}
	return err
}

func mapBracketError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, brackets.ErrNotEnoughTeams):
		return ErrNotEnoughTeams
	case errors.Is(err, brackets.ErrDuplicateTeam):
		return ErrDuplicateTeamID
	}
	return err
}
