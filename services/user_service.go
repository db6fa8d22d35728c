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

type UpdateProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
	UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error)
	DeleteAccount(ctx context.Context, userID int) error
	// PurgeUnconfirmedAccounts drops accounts that never confirmed their
	// email within the grace period. Returns the number removed.
	PurgeUnconfirmedAccounts(ctx context.Context, olderThan time.Duration) (int64, error)
}

type userService struct {
	tx           repositories.TxRunner
	userRepo     repositories.UserRepository
	teamRepo     repositories.TeamRepository
	entryRepo    repositories.EntryRepository
	offerRepo    repositories.OfferRepository
	registration *RegistrationService
	uploader     storage.FileUploader
	hub          EventBroadcaster
	logger       *slog.Logger
}

func NewUserService(
	tx repositories.TxRunner,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	entryRepo repositories.EntryRepository,
	offerRepo repositories.OfferRepository,
	registration *RegistrationService,
	uploader storage.FileUploader,
	hub EventBroadcaster,
	logger *slog.Logger,
) UserService {
	return &userService{
		tx:           tx,
		userRepo:     userRepo,
		teamRepo:     teamRepo,
		entryRepo:    entryRepo,
		offerRepo:    offerRepo,
		registration: registration,
		uploader:     uploader,
		hub:          hub,
		logger:       logger,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	populateUserDetails(user, s.uploader)
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, fmt.Errorf("%w: first name cannot be empty", ErrValidationFailed)
		}
		user.FirstName = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, fmt.Errorf("%w: last name cannot be empty", ErrValidationFailed)
		}
		user.LastName = name
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}

	user.PasswordHash = ""
	populateUserDetails(user, s.uploader)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("users/%d/avatar/%s%s", user.ID, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	oldKey := user.LogoKey
	if err := s.userRepo.UpdateLogoKey(ctx, user.ID, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to clean up orphaned avatar object",
				slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to store avatar key: %w", err)
	}

	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to delete previous avatar object",
				slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	user.LogoKey = &key
	user.PasswordHash = ""
	populateUserDetails(user, s.uploader)
	return user, nil
}

// DeleteAccount removes the user and everything that points at them in a
// single transaction: pending offers, season entries, and the user row
// itself. Teams the user played on get their registration flag recounted
// inside the same transaction, so a deletion that drops a roster below
// the threshold immediately unregisters the team.
func (s *userService) DeleteAccount(ctx context.Context, userID int) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	type teamChange struct {
		teamID     int
		seasonID   int
		registered bool
		flipped    bool
	}
	var changes []teamChange

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		teamIDs, err := s.entryRepo.TeamIDsByUser(ctx, exec, userID)
		if err != nil {
			return fmt.Errorf("failed to list teams of user %d: %w", userID, err)
		}

		if err := s.offerRepo.DeleteByUser(ctx, exec, userID); err != nil {
			return fmt.Errorf("failed to delete offers of user %d: %w", userID, err)
		}
		if err := s.entryRepo.DeleteByUser(ctx, exec, userID); err != nil {
			return fmt.Errorf("failed to delete season entries of user %d: %w", userID, err)
		}

		for _, teamID := range teamIDs {
			registered, flipped, err := s.registration.Recount(ctx, exec, teamID)
			if err != nil {
				return err
			}
			team, err := s.teamRepo.GetByID(ctx, teamID)
			if err != nil {
				return fmt.Errorf("failed to get team %d: %w", teamID, err)
			}
			changes = append(changes, teamChange{
				teamID:     teamID,
				seasonID:   team.SeasonID,
				registered: registered,
				flipped:    flipped,
			})
		}

		return s.userRepo.Delete(ctx, exec, userID)
	})
	if err != nil {
		return err
	}

	if user.LogoKey != nil && *user.LogoKey != "" && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *user.LogoKey); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to delete avatar object",
				slog.String("key", *user.LogoKey), slog.Any("error", err))
		}
	}

	if s.hub != nil {
		for _, change := range changes {
			s.hub.BroadcastToRoom(realtime.TeamRoom(change.teamID), realtime.Message{
				Type:    realtime.EventRosterUpdated,
				Payload: map[string]interface{}{"team_id": change.teamID},
				RoomID:  realtime.TeamRoom(change.teamID),
			})
			if change.flipped && !change.registered {
				s.hub.BroadcastToRoom(realtime.SeasonRoom(change.seasonID), realtime.Message{
					Type:    realtime.EventRosterUpdated,
					Payload: map[string]interface{}{"team_id": change.teamID, "registered": false},
					RoomID:  realtime.SeasonRoom(change.seasonID),
				})
			}
		}
	}

	return nil
}

func (s *userService) PurgeUnconfirmedAccounts(ctx context.Context, olderThan time.Duration) (int64, error) {
	deleted, err := s.userRepo.DeleteUnconfirmedBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to purge unconfirmed accounts: %w", err)
	}
	return deleted, nil
}

func (s *userService) getUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}
