package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	ErrUserNotFound          = errors.New("user not found")
	ErrScoringSchemaNotFound = errors.New("scoring schema not found")
	ErrRankingNotFound       = errors.New("ranking not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrPlayerNotFound        = errors.New("player not found")

	ErrUserEmailConflict         = errors.New("email address is already in use")
	ErrScoringSchemaNameConflict = errors.New("scoring schema name already exists")
	ErrRankingIDConflict         = errors.New("ranking id already exists")
	ErrPlayerNameConflict        = errors.New("player name is already taken")
)
