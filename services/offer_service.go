package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/realtime"
	"github.com/Dosada05/league-system/repositories"
	"github.com/Dosada05/league-system/storage"
)

type CreateOfferInput struct {
	Creator models.OfferCreator `json:"creator"`
	UserID  int                 `json:"user_id"`
	TeamID  int                 `json:"team_id"`

	// CurrentUserID is filled from the auth context, never from the body.
	CurrentUserID int `json:"-"`
}

type OfferService interface {
	CreateOffer(ctx context.Context, input CreateOfferInput) (*models.Offer, error)
	AcceptOffer(ctx context.Context, offerID, currentUserID int) error
	DeclineOffer(ctx context.Context, offerID, currentUserID int) error
	ListUserOffers(ctx context.Context, userID, currentUserID int) ([]*models.Offer, error)
	ListTeamOffers(ctx context.Context, teamID, currentUserID int) ([]*models.Offer, error)
}

type offerService struct {
	tx           repositories.TxRunner
	offerRepo    repositories.OfferRepository
	teamRepo     repositories.TeamRepository
	seasonRepo   repositories.SeasonRepository
	userRepo     repositories.UserRepository
	entryRepo    repositories.EntryRepository
	registration *RegistrationService
	uploader     storage.FileUploader
	hub          EventBroadcaster
	email        *EmailService
	logger       *slog.Logger
}

func NewOfferService(
	tx repositories.TxRunner,
	offerRepo repositories.OfferRepository,
	teamRepo repositories.TeamRepository,
	seasonRepo repositories.SeasonRepository,
	userRepo repositories.UserRepository,
	entryRepo repositories.EntryRepository,
	registration *RegistrationService,
	uploader storage.FileUploader,
	hub EventBroadcaster,
	email *EmailService,
	logger *slog.Logger,
) OfferService {
	return &offerService{
		tx:           tx,
		offerRepo:    offerRepo,
		teamRepo:     teamRepo,
		seasonRepo:   seasonRepo,
		userRepo:     userRepo,
		entryRepo:    entryRepo,
		registration: registration,
		uploader:     uploader,
		hub:          hub,
		email:        email,
		logger:       logger,
	}
}

func (s *offerService) CreateOffer(ctx context.Context, input CreateOfferInput) (*models.Offer, error) {
	if input.Creator != models.OfferByPlayer && input.Creator != models.OfferByCaptain {
		return nil, fmt.Errorf("%w: unknown offer creator %q", ErrValidationFailed, input.Creator)
	}

	team, err := s.getTeam(ctx, input.TeamID)
	if err != nil {
		return nil, err
	}

	season, err := s.seasonRepo.GetByID(ctx, team.SeasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrSeasonNotFound
		}
		return nil, fmt.Errorf("failed to get season %d: %w", team.SeasonID, err)
	}
	if !season.RegistrationOpen(time.Now()) {
		return nil, ErrRegistrationClosed
	}

	switch input.Creator {
	case models.OfferByPlayer:
		// A join request is always made for oneself.
		if input.UserID != input.CurrentUserID {
			return nil, ErrForbiddenOperation
		}
	case models.OfferByCaptain:
		if _, err := captainEntry(ctx, s.entryRepo, input.CurrentUserID, team); err != nil {
			return nil, err
		}
	}

	target, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", input.UserID, err)
	}
	if !target.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}

	entry, err := s.entryRepo.GetOrCreate(ctx, nil, target.ID, season.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve season entry for user %d: %w", target.ID, err)
	}
	if entry.TeamID != nil {
		return nil, ErrUserAlreadyRostered
	}

	offer := &models.Offer{
		Creator:  input.Creator,
		UserID:   target.ID,
		TeamID:   team.ID,
		SeasonID: season.ID,
	}
	if err := s.offerRepo.Create(ctx, offer); err != nil {
		switch {
		case errors.Is(err, repositories.ErrOfferAlreadyPending):
			return nil, ErrOfferConflict
		case errors.Is(err, repositories.ErrOfferRefInvalid):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(realtime.TeamRoom(team.ID), realtime.Message{
			Type:    realtime.EventOfferCreated,
			Payload: offer,
			RoomID:  realtime.TeamRoom(team.ID),
		})
	}
	s.notifyOfferCreated(ctx, offer, team, target)

	return offer, nil
}

// AcceptOffer rosters the player in a single transaction: the season entry
// row is locked, so two accepts racing on the same player serialize and the
// loser sees the entry already taken.
func (s *offerService) AcceptOffer(ctx context.Context, offerID, currentUserID int) error {
	offer, err := s.getOffer(ctx, offerID)
	if err != nil {
		return err
	}
	if offer.Status != models.OfferPending {
		return ErrOfferNotPending
	}

	team, err := s.getTeam(ctx, offer.TeamID)
	if err != nil {
		return err
	}

	// An invite is accepted by the player, a request by a team captain.
	switch offer.Creator {
	case models.OfferByCaptain:
		if offer.UserID != currentUserID {
			return ErrForbiddenOperation
		}
	case models.OfferByPlayer:
		if _, err := captainEntry(ctx, s.entryRepo, currentUserID, team); err != nil {
			return err
		}
	}

	var registered, flipped bool
	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		entry, err := s.entryRepo.GetForUpdate(ctx, exec, offer.UserID, offer.SeasonID)
		if err != nil {
			if errors.Is(err, repositories.ErrEntryNotFound) {
				return ErrEntryMissing
			}
			return fmt.Errorf("failed to lock season entry: %w", err)
		}
		if entry.TeamID != nil {
			return ErrUserAlreadyRostered
		}

		if err := s.entryRepo.AssignTeam(ctx, exec, entry.ID, offer.TeamID, false); err != nil {
			return fmt.Errorf("failed to assign team: %w", err)
		}

		// Dropping every other pending offer for this player, invites and
		// requests alike, inside the same transaction.
		if _, err := s.offerRepo.DeleteByUserSeason(ctx, exec, offer.UserID, offer.SeasonID, offer.ID); err != nil {
			return fmt.Errorf("failed to delete competing offers: %w", err)
		}
		if err := s.offerRepo.Delete(ctx, exec, offer.ID); err != nil {
			return fmt.Errorf("failed to delete accepted offer: %w", err)
		}

		registered, flipped, err = s.registration.Recount(ctx, exec, offer.TeamID)
		return err
	})
	if err != nil {
		return err
	}

	s.broadcastRosterChange(offer.TeamID, team.SeasonID, registered, flipped)
	if s.hub != nil {
		s.hub.BroadcastToRoom(realtime.TeamRoom(offer.TeamID), realtime.Message{
			Type:    realtime.EventOfferResolved,
			Payload: map[string]interface{}{"offer_id": offer.ID, "accepted": true},
			RoomID:  realtime.TeamRoom(offer.TeamID),
		})
	}

	return nil
}

// DeclineOffer covers both declining an incoming offer and withdrawing an
// outgoing one; either side of the offer may call it and the row is simply
// removed.
func (s *offerService) DeclineOffer(ctx context.Context, offerID, currentUserID int) error {
	offer, err := s.getOffer(ctx, offerID)
	if err != nil {
		return err
	}

	if offer.UserID != currentUserID {
		team, err := s.getTeam(ctx, offer.TeamID)
		if err != nil {
			return err
		}
		if _, err := captainEntry(ctx, s.entryRepo, currentUserID, team); err != nil {
			return err
		}
	}

	if err := s.offerRepo.Delete(ctx, nil, offer.ID); err != nil {
		if errors.Is(err, repositories.ErrOfferNotFound) {
			// Already resolved by a concurrent accept/decline.
			return nil
		}
		return fmt.Errorf("failed to delete offer %d: %w", offer.ID, err)
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(realtime.TeamRoom(offer.TeamID), realtime.Message{
			Type:    realtime.EventOfferResolved,
			Payload: map[string]interface{}{"offer_id": offer.ID, "accepted": false},
			RoomID:  realtime.TeamRoom(offer.TeamID),
		})
	}

	return nil
}

func (s *offerService) ListUserOffers(ctx context.Context, userID, currentUserID int) ([]*models.Offer, error) {
	if userID != currentUserID {
		return nil, ErrForbiddenOperation
	}

	season, err := s.seasonRepo.Current(ctx, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return []*models.Offer{}, nil
		}
		return nil, fmt.Errorf("failed to resolve current season: %w", err)
	}

	offers, err := s.offerRepo.ListByUserSeason(ctx, userID, season.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers for user %d: %w", userID, err)
	}

	for _, offer := range offers {
		team, err := s.teamRepo.GetByID(ctx, offer.TeamID)
		if err == nil {
			populateTeamLogoURL(team, s.uploader)
			offer.Team = team
		}
	}
	return offers, nil
}

func (s *offerService) ListTeamOffers(ctx context.Context, teamID, currentUserID int) ([]*models.Offer, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if _, err := captainEntry(ctx, s.entryRepo, currentUserID, team); err != nil {
		return nil, err
	}

	offers, err := s.offerRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers for team %d: %w", teamID, err)
	}

	for _, offer := range offers {
		user, err := s.userRepo.GetByID(ctx, offer.UserID)
		if err == nil {
			populateUserDetails(user, s.uploader)
			offer.User = user
		}
	}
	return offers, nil
}

func (s *offerService) getOffer(ctx context.Context, offerID int) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, repositories.ErrOfferNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to get offer %d: %w", offerID, err)
	}
	return offer, nil
}

func (s *offerService) getTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return team, nil
}

func (s *offerService) broadcastRosterChange(teamID, seasonID int, registered, flipped bool) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(realtime.TeamRoom(teamID), realtime.Message{
		Type:    realtime.EventRosterUpdated,
		Payload: map[string]interface{}{"team_id": teamID},
		RoomID:  realtime.TeamRoom(teamID),
	})
	if flipped && registered {
		s.hub.BroadcastToRoom(realtime.SeasonRoom(seasonID), realtime.Message{
			Type:    realtime.EventTeamRegistered,
			Payload: map[string]interface{}{"team_id": teamID},
			RoomID:  realtime.SeasonRoom(seasonID),
		})
	}
}

// notifyOfferCreated emails the receiving side: the player for an invite,
// the team captains for a join request. Failures are logged, never returned.
func (s *offerService) notifyOfferCreated(ctx context.Context, offer *models.Offer, team *models.Team, target *models.User) {
	if s.email == nil {
		return
	}

	switch offer.Creator {
	case models.OfferByCaptain:
		if err := s.email.SendOfferEmail(target.Email, team.Name, offer.Creator); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to send invite email",
				slog.Int("offer_id", offer.ID), slog.Any("error", err))
		}
	case models.OfferByPlayer:
		entries, err := s.entryRepo.ListByTeam(ctx, team.ID)
		if err != nil {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "failed to list roster for request notification",
					slog.Int("team_id", team.ID), slog.Any("error", err))
			}
			return
		}
		for _, entry := range entries {
			if !entry.Captain || entry.User == nil {
				continue
			}
			if err := s.email.SendOfferEmail(entry.User.Email, team.Name, offer.Creator); err != nil && s.logger != nil {
				s.logger.WarnContext(ctx, "failed to send request email",
					slog.Int("offer_id", offer.ID), slog.Any("error", err))
			}
		}
	}
}
