package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/realtime"
	"github.com/Dosada05/league-system/repositories"
)

// WaiverSender asks the e-signature provider to put a waiver in front of
// a player. Satisfied by *esign.Client.
type WaiverSender interface {
	SendWaiverRequest(ctx context.Context, signerName, signerEmail string) (string, error)
}

type PaymentEvent struct {
	Email    string `json:"email"`
	SeasonID int    `json:"season_id"`
	Amount   int    `json:"amount_cents"`
	Currency string `json:"currency"`
}

type SignatureEvent struct {
	Email    string `json:"signer_email"`
	SeasonID int    `json:"season_id"`
}

type BillingService interface {
	HandlePaymentCompleted(ctx context.Context, event PaymentEvent) error
	HandleSignatureCompleted(ctx context.Context, event SignatureEvent) error
	ResendWaiver(ctx context.Context, userID, seasonID int) error
}

type billingService struct {
	tx           repositories.TxRunner
	userRepo     repositories.UserRepository
	entryRepo    repositories.EntryRepository
	teamRepo     repositories.TeamRepository
	registration *RegistrationService
	waivers      WaiverSender
	hub          EventBroadcaster
	logger       *slog.Logger
}

func NewBillingService(
	tx repositories.TxRunner,
	userRepo repositories.UserRepository,
	entryRepo repositories.EntryRepository,
	teamRepo repositories.TeamRepository,
	registration *RegistrationService,
	waivers WaiverSender,
	hub EventBroadcaster,
	logger *slog.Logger,
) BillingService {
	return &billingService{
		tx:           tx,
		userRepo:     userRepo,
		entryRepo:    entryRepo,
		teamRepo:     teamRepo,
		registration: registration,
		waivers:      waivers,
		hub:          hub,
		logger:       logger,
	}
}

// HandlePaymentCompleted marks the player's season entry as paid and then
// kicks off the waiver. The payment mark commits even when the waiver
// request fails: money has changed hands, and the waiver can be resent.
func (s *billingService) HandlePaymentCompleted(ctx context.Context, event PaymentEvent) error {
	user, entry, err := s.resolveEntry(ctx, event.Email, event.SeasonID, ErrPaymentUnmatched)
	if err != nil {
		return err
	}

	if entry.Paid {
		// Duplicate webhook delivery, nothing to do.
		return nil
	}

	var registered, flipped bool
	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.entryRepo.SetPaid(ctx, exec, entry.ID, true); err != nil {
			return fmt.Errorf("failed to mark entry %d paid: %w", entry.ID, err)
		}
		if entry.TeamID != nil {
			registered, flipped, err = s.registration.Recount(ctx, exec, *entry.TeamID)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcastEntryChange(ctx, entry, registered, flipped)

	if s.waivers != nil && !entry.Signed {
		name := fmt.Sprintf("%s %s", user.FirstName, user.LastName)
		if _, err := s.waivers.SendWaiverRequest(ctx, name, user.Email); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to send waiver request",
				slog.Int("user_id", user.ID),
				slog.Int("season_id", event.SeasonID),
				slog.Any("error", err))
		}
	}

	return nil
}

func (s *billingService) HandleSignatureCompleted(ctx context.Context, event SignatureEvent) error {
	_, entry, err := s.resolveEntry(ctx, event.Email, event.SeasonID, ErrSignatureUnmatched)
	if err != nil {
		return err
	}

	if entry.Signed {
		return nil
	}

	var registered, flipped bool
	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.entryRepo.SetSigned(ctx, exec, entry.ID, true); err != nil {
			return fmt.Errorf("failed to mark entry %d signed: %w", entry.ID, err)
		}
		if entry.TeamID != nil {
			registered, flipped, err = s.registration.Recount(ctx, exec, *entry.TeamID)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcastEntryChange(ctx, entry, registered, flipped)
	return nil
}

func (s *billingService) ResendWaiver(ctx context.Context, userID, seasonID int) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	entry, err := s.entryRepo.Get(ctx, userID, seasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrEntryNotFound) {
			return ErrEntryMissing
		}
		return fmt.Errorf("failed to get season entry: %w", err)
	}
	if !entry.Paid {
		return ErrWaiverBeforePayment
	}
	if entry.Signed {
		return ErrWaiverAlreadySigned
	}
	if s.waivers == nil {
		return fmt.Errorf("waiver provider is not configured")
	}

	name := fmt.Sprintf("%s %s", user.FirstName, user.LastName)
	if _, err := s.waivers.SendWaiverRequest(ctx, name, user.Email); err != nil {
		return fmt.Errorf("failed to send waiver request: %w", err)
	}
	return nil
}

func (s *billingService) resolveEntry(ctx context.Context, email string, seasonID int, unmatched error) (*models.User, *models.SeasonEntry, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil, unmatched
		}
		return nil, nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	entry, err := s.entryRepo.Get(ctx, user.ID, seasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrEntryNotFound) {
			return nil, nil, unmatched
		}
		return nil, nil, fmt.Errorf("failed to get season entry: %w", err)
	}
	return user, entry, nil
}

func (s *billingService) broadcastEntryChange(ctx context.Context, entry *models.SeasonEntry, registered, flipped bool) {
	if s.hub == nil || entry.TeamID == nil {
		return
	}
	teamID := *entry.TeamID
	s.hub.BroadcastToRoom(realtime.TeamRoom(teamID), realtime.Message{
		Type:    realtime.EventRosterUpdated,
		Payload: map[string]interface{}{"team_id": teamID},
		RoomID:  realtime.TeamRoom(teamID),
	})
	if flipped && registered {
		team, err := s.teamRepo.GetByID(ctx, teamID)
		if err != nil {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "failed to load team for broadcast",
					slog.Int("team_id", teamID), slog.Any("error", err))
			}
			return
		}
		s.hub.BroadcastToRoom(realtime.SeasonRoom(team.SeasonID), realtime.Message{
			Type:    realtime.EventTeamRegistered,
			Payload: map[string]interface{}{"team_id": teamID},
			RoomID:  realtime.SeasonRoom(team.SeasonID),
		})
	}
}
