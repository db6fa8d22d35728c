package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/realtime"
	"github.com/Dosada05/league-system/repositories"
	"github.com/Dosada05/league-system/storage"
	"github.com/google/uuid"
)

const teamNameMinLength = 3

type CreateTeamInput struct {
	SeasonID int    `json:"season_id"`
	Name     string `json:"name"`
	// TeamUID carries a returning team's identity across seasons; left
	// empty, a fresh identity is minted.
	TeamUID string `json:"team_uid,omitempty"`

	CreatorID int `json:"-"`
}

type UpdateTeamInput struct {
	Name *string `json:"name"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeamByID(ctx context.Context, teamID int) (*models.Team, error)
	ListTeamsBySeason(ctx context.Context, seasonID int) ([]*models.Team, error)
	UpdateTeamDetails(ctx context.Context, teamID int, input UpdateTeamInput, currentUserID int) (*models.Team, error)
	UploadTeamLogo(ctx context.Context, teamID, currentUserID int, contentType string, file io.Reader) (*models.Team, error)
	RemoveMember(ctx context.Context, teamID, memberID, currentUserID int) error
	SetCaptain(ctx context.Context, teamID, memberID int, captain bool, currentUserID int) error
	DeleteTeam(ctx context.Context, teamID, currentUserID int) error
}

type teamService struct {
	tx           repositories.TxRunner
	teamRepo     repositories.TeamRepository
	seasonRepo   repositories.SeasonRepository
	userRepo     repositories.UserRepository
	entryRepo    repositories.EntryRepository
	offerRepo    repositories.OfferRepository
	registration *RegistrationService
	uploader     storage.FileUploader
	hub          EventBroadcaster
	logger       *slog.Logger
}

func NewTeamService(
	tx repositories.TxRunner,
	teamRepo repositories.TeamRepository,
	seasonRepo repositories.SeasonRepository,
	userRepo repositories.UserRepository,
	entryRepo repositories.EntryRepository,
	offerRepo repositories.OfferRepository,
	registration *RegistrationService,
	uploader storage.FileUploader,
	hub EventBroadcaster,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		tx:           tx,
		teamRepo:     teamRepo,
		seasonRepo:   seasonRepo,
		userRepo:     userRepo,
		entryRepo:    entryRepo,
		offerRepo:    offerRepo,
		registration: registration,
		uploader:     uploader,
		hub:          hub,
		logger:       logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if len(name) < teamNameMinLength {
		return nil, ErrTeamNameTooShort
	}

	season, err := s.getSeason(ctx, input.SeasonID)
	if err != nil {
		return nil, err
	}
	if !season.RegistrationOpen(time.Now()) {
		return nil, ErrRegistrationClosed
	}

	creator, err := s.userRepo.GetByID(ctx, input.CreatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", input.CreatorID, err)
	}
	if !creator.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}

	team := &models.Team{
		SeasonID: season.ID,
		Name:     name,
		TeamUID:  input.TeamUID,
	}
	if team.TeamUID == "" {
		team.TeamUID = uuid.NewString()
	}

	// Creating the team and seating the captain is one transaction; the
	// creator's locked season entry also guards "one team per captain per
	// season" (a rostered player cannot found another team).
	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.entryRepo.GetOrCreate(ctx, exec, creator.ID, season.ID); err != nil {
			return fmt.Errorf("failed to resolve creator's season entry: %w", err)
		}
		entry, err := s.entryRepo.GetForUpdate(ctx, exec, creator.ID, season.ID)
		if err != nil {
			return fmt.Errorf("failed to lock creator's season entry: %w", err)
		}
		if entry.TeamID != nil {
			return ErrUserAlreadyRostered
		}

		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			if errors.Is(err, repositories.ErrTeamNameConflict) {
				return ErrTeamNameConflict
			}
			if errors.Is(err, repositories.ErrTeamSeasonInvalid) {
				return ErrSeasonNotFound
			}
			return fmt.Errorf("failed to create team: %w", err)
		}

		return s.entryRepo.AssignTeam(ctx, exec, entry.ID, team.ID, true)
	})
	if err != nil {
		return nil, err
	}

	return team, nil
}

func (s *teamService) GetTeamByID(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	populateTeamLogoURL(team, s.uploader)

	roster, err := s.entryRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster of team %d: %w", teamID, err)
	}
	team.Roster = make([]models.SeasonEntry, 0, len(roster))
	for _, entry := range roster {
		populateUserDetails(entry.User, s.uploader)
		team.Roster = append(team.Roster, *entry)
	}

	if season, err := s.seasonRepo.GetByID(ctx, team.SeasonID); err == nil {
		team.Season = season
	}

	return team, nil
}

func (s *teamService) ListTeamsBySeason(ctx context.Context, seasonID int) ([]*models.Team, error) {
	teams, err := s.teamRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for season %d: %w", seasonID, err)
	}
	for _, team := range teams {
		populateTeamLogoURL(team, s.uploader)
	}
	return teams, nil
}

func (s *teamService) UpdateTeamDetails(ctx context.Context, teamID int, input UpdateTeamInput, currentUserID int) (*models.Team, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if _, err := captainEntry(ctx, s.entryRepo, currentUserID, team); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if len(name) < teamNameMinLength {
			return nil, ErrTeamNameTooShort
		}
		if err := s.teamRepo.UpdateName(ctx, teamID, name); err != nil {
			if errors.Is(err, repositories.ErrTeamNameConflict) {
				return nil, ErrTeamNameConflict
			}
			return nil, fmt.Errorf("failed to update team %d: %w", teamID, err)
		}
		team.Name = name
	}

	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) UploadTeamLogo(ctx context.Context, teamID, currentUserID int, contentType string, file io.Reader) (*models.Team, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if _, err := captainEntry(ctx, s.entryRepo, currentUserID, team); err != nil {
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("teams/%d/logo/%s%s", team.ID, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}

	oldKey := team.LogoKey
	if err := s.teamRepo.UpdateLogoKey(ctx, team.ID, &key); err != nil {
		// The row update failed; remove the freshly uploaded object so it
		// does not leak.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to clean up orphaned logo object",
				slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to store team logo key: %w", err)
	}

	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to delete previous logo object",
				slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	team.LogoKey = &key
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

// RemoveMember handles both a captain removing a player and a player
// leaving on their own. A sole captain may leave; the team is then
// captainless until someone is promoted.
func (s *teamService) RemoveMember(ctx context.Context, teamID, memberID, currentUserID int) error {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}

	if memberID != currentUserID {
		if _, err := captainEntry(ctx, s.entryRepo, currentUserID, team); err != nil {
			if errors.Is(err, ErrCaptainActionForbidden) {
				return ErrSelfLeaveForbidden
			}
			return err
		}
	}

	var registered, flipped bool
	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		entry, err := s.entryRepo.GetForUpdate(ctx, exec, memberID, team.SeasonID)
		if err != nil {
			if errors.Is(err, repositories.ErrEntryNotFound) {
				return ErrUserNotOnTeam
			}
			return fmt.Errorf("failed to lock season entry: %w", err)
		}
		if entry.TeamID == nil || *entry.TeamID != team.ID {
			return ErrUserNotOnTeam
		}

		if err := s.entryRepo.ClearTeam(ctx, exec, entry.ID); err != nil {
			return fmt.Errorf("failed to clear season entry: %w", err)
		}

		registered, flipped, err = s.registration.Recount(ctx, exec, team.ID)
		return err
	})
	if err != nil {
		return err
	}

	s.broadcastRosterChange(team, registered, flipped)
	return nil
}

func (s *teamService) SetCaptain(ctx context.Context, teamID, memberID int, captain bool, currentUserID int) error {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if _, err := captainEntry(ctx, s.entryRepo, currentUserID, team); err != nil {
		return err
	}

	entry, err := s.entryRepo.Get(ctx, memberID, team.SeasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrEntryNotFound) {
			return ErrUserNotOnTeam
		}
		return fmt.Errorf("failed to get member's season entry: %w", err)
	}
	if entry.TeamID == nil || *entry.TeamID != team.ID {
		return ErrUserNotOnTeam
	}

	if err := s.entryRepo.SetCaptain(ctx, nil, entry.ID, captain); err != nil {
		return fmt.Errorf("failed to update captain flag: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(realtime.TeamRoom(team.ID), realtime.Message{
			Type:    realtime.EventRosterUpdated,
			Payload: map[string]interface{}{"team_id": team.ID},
			RoomID:  realtime.TeamRoom(team.ID),
		})
	}
	return nil
}

// DeleteTeam releases every member and removes the team in one transaction,
// so no player is ever left pointing at a deleted team.
func (s *teamService) DeleteTeam(ctx context.Context, teamID, currentUserID int) error {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if _, err := captainEntry(ctx, s.entryRepo, currentUserID, team); err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.offerRepo.DeleteByTeam(ctx, exec, team.ID); err != nil {
			return fmt.Errorf("failed to delete team offers: %w", err)
		}
		if err := s.entryRepo.ClearTeamForAll(ctx, exec, team.ID); err != nil {
			return fmt.Errorf("failed to release roster: %w", err)
		}
		if err := s.teamRepo.Delete(ctx, exec, team.ID); err != nil {
			return fmt.Errorf("failed to delete team %d: %w", team.ID, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTeamHasGames) {
			return ErrTeamScheduled
		}
		return err
	}

	if team.LogoKey != nil && *team.LogoKey != "" && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *team.LogoKey); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to delete team logo object",
				slog.String("key", *team.LogoKey), slog.Any("error", err))
		}
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(realtime.SeasonRoom(team.SeasonID), realtime.Message{
			Type:    realtime.EventTeamDeleted,
			Payload: map[string]interface{}{"team_id": team.ID},
			RoomID:  realtime.SeasonRoom(team.SeasonID),
		})
	}
	return nil
}

func (s *teamService) getTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return team, nil
}

func (s *teamService) getSeason(ctx context.Context, seasonID int) (*models.Season, error) {
	season, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrSeasonNotFound
		}
		return nil, fmt.Errorf("failed to get season %d: %w", seasonID, err)
	}
	return season, nil
}

func (s *teamService) broadcastRosterChange(team *models.Team, registered, flipped bool) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(realtime.TeamRoom(team.ID), realtime.Message{
		Type:    realtime.EventRosterUpdated,
		Payload: map[string]interface{}{"team_id": team.ID},
		RoomID:  realtime.TeamRoom(team.ID),
	})
	if flipped && registered {
		s.hub.BroadcastToRoom(realtime.SeasonRoom(team.SeasonID), realtime.Message{
			Type:    realtime.EventTeamRegistered,
			Payload: map[string]interface{}{"team_id": team.ID},
			RoomID:  realtime.SeasonRoom(team.SeasonID),
		})
	}
}
