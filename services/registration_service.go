package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/league-system/repositories"
)

// RegistrationThreshold is the number of paid+signed roster members that
// makes a team registered for play.
const RegistrationThreshold = 10

// RegistrationService maintains the derived team.registered flag. It always
// recounts from scratch, so re-running it on the same state is a no-op.
type RegistrationService struct {
	entryRepo repositories.EntryRepository
	teamRepo  repositories.TeamRepository
}

func NewRegistrationService(
	entryRepo repositories.EntryRepository,
	teamRepo repositories.TeamRepository,
) *RegistrationService {
	return &RegistrationService{
		entryRepo: entryRepo,
		teamRepo:  teamRepo,
	}
}

// Recount recomputes registered for the team inside the caller's
// transaction. Returns the new value and whether it flipped; the repository
// stamps registered_date on a false->true flip.
func (s *RegistrationService) Recount(ctx context.Context, exec repositories.SQLExecutor, teamID int) (registered bool, flipped bool, err error) {
	previous, err := s.teamRepo.GetRegistered(ctx, exec, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return false, false, ErrTeamNotFound
		}
		return false, false, fmt.Errorf("failed to read team %d registration state: %w", teamID, err)
	}

	count, err := s.entryRepo.CountRegistered(ctx, exec, teamID)
	if err != nil {
		return false, false, fmt.Errorf("failed to count paid+signed roster of team %d: %w", teamID, err)
	}

	registered = count >= RegistrationThreshold
	if err := s.teamRepo.SetRegistered(ctx, exec, teamID, registered); err != nil {
		return false, false, fmt.Errorf("failed to update team %d registration flag: %w", teamID, err)
	}

	return registered, registered != previous, nil
}
