package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrTeamNameRequired     = errors.New("team name is required")
	ErrTeamNameTooShort     = errors.New("team name must be at least 3 characters")
	ErrEmailNotConfirmed    = errors.New("email address is not confirmed")
	ErrRegistrationClosed   = errors.New("season registration window is not open")
	ErrUserAlreadyRostered  = errors.New("player is already on a team this season")
	ErrUserNotOnTeam        = errors.New("player is not on this team")
	ErrOfferNotPending      = errors.New("offer is no longer pending")
	ErrSeasonDatesInvalid   = errors.New("season dates are inconsistent")
	ErrSeasonHasGames       = errors.New("season already has games scheduled")
	ErrTeamScheduled        = errors.New("team has scheduled games and cannot be deleted")
	ErrNotEnoughTeams       = errors.New("not enough registered teams to build a schedule")
	ErrGameTeamsIdentical   = errors.New("a team cannot play against itself")
	ErrPaymentUnmatched     = errors.New("payment event does not match a known player")
	ErrSignatureUnmatched   = errors.New("signature event does not match a known player")
	ErrEntryMissing         = errors.New("player has no entry for the current season")
	ErrWaiverAlreadySigned  = errors.New("waiver is already signed")
	ErrWaiverBeforePayment  = errors.New("waiver cannot be sent before payment")

	// Conflicts
	ErrUserEmailConflict  = errors.New("email address is already in use")
	ErrTeamNameConflict   = errors.New("team name is already in use this season")
	ErrSeasonNameConflict = errors.New("season name already exists")
	ErrOfferConflict      = errors.New("a pending offer between this player and team already exists")

	// Authentication / authorization
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden = errors.New("only a team captain can perform this action")
	ErrSelfLeaveForbidden     = errors.New("only a team captain or the member themselves can perform this action")

	// Entity-specific not-found (more context than the generic ErrNotFound)
	ErrUserNotFound   = errors.New("user not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrSeasonNotFound = errors.New("season not found")
	ErrOfferNotFound  = errors.New("offer not found")
	ErrGameNotFound   = errors.New("game not found")
)
