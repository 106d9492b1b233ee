package services

import "errors"

// Shared errors used across services and the HTTP mapping.
var (
	// Validation and business rules
	ErrNameRequired      = errors.New("name is required")
	ErrPINFormatInvalid  = errors.New("pin must be exactly four digits")
	ErrPINRequired       = errors.New("pin is required")
	ErrInvalidPIN        = errors.New("invalid pin")
	ErrNotEnoughTeams    = errors.New("at least two teams are required")
	ErrDuplicateTeamID   = errors.New("duplicate team in participant list")
	ErrNoStagesDefined   = errors.New("event requires at least one stage")
	ErrUnknownStageKind  = errors.New("unknown stage kind")
	ErrUnknownScoreKind  = errors.New("unknown score kind")
	ErrTeamNotInOlympiad = errors.New("team does not belong to this olympiad")
	ErrScoreTeamInvalid  = errors.New("score references a team not in this match")

	// Conflicts
	ErrOlympiadNameConflict = errors.New("olympiad name is already in use")
	ErrPlayerNameConflict   = errors.New("player name is already in use in this olympiad")
	ErrTeamNameConflict     = errors.New("team name is already in use in this olympiad")
	ErrEventNameConflict    = errors.New("event name is already in use in this olympiad")

	// Authentication and authorization
	ErrForbiddenOperation = errors.New("operation not allowed for this olympiad")

	// Entity lookups
	ErrOlympiadNotFound = errors.New("olympiad not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrTeamNotFound     = errors.New("team not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrStageNotFound    = errors.New("stage not found")
	ErrMatchNotFound    = errors.New("match not found")

	// Status lifecycle
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// Uploads
	ErrUploaderNotConfigured = errors.New("file storage is not configured")
	ErrInvalidLogoFormat     = errors.New("unsupported logo content type")
)
