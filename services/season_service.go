package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/repositories"
)

type CreateSeasonInput struct {
	Name              string    `json:"name"`
	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
	DateStart         time.Time `json:"date_start"`
	DateEnd           time.Time `json:"date_end"`
}

type SeasonService interface {
	CreateSeason(ctx context.Context, input CreateSeasonInput) (*models.Season, error)
	GetSeasonByID(ctx context.Context, seasonID int) (*models.Season, error)
	ListSeasons(ctx context.Context) ([]*models.Season, error)
	CurrentSeason(ctx context.Context) (*models.Season, error)
	// EnsureEntry registers a player's participation in a season, making
	// them visible to captains browsing free agents.
	EnsureEntry(ctx context.Context, userID, seasonID int) (*models.SeasonEntry, error)
}

type seasonService struct {
	seasonRepo repositories.SeasonRepository
	entryRepo  repositories.EntryRepository
	userRepo   repositories.UserRepository
}

func NewSeasonService(
	seasonRepo repositories.SeasonRepository,
	entryRepo repositories.EntryRepository,
	userRepo repositories.UserRepository,
) SeasonService {
	return &seasonService{
		seasonRepo: seasonRepo,
		entryRepo:  entryRepo,
		userRepo:   userRepo,
	}
}

func (s *seasonService) CreateSeason(ctx context.Context, input CreateSeasonInput) (*models.Season, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: season name is required", ErrValidationFailed)
	}
	if !input.RegistrationStart.Before(input.RegistrationEnd) {
		return nil, fmt.Errorf("%w: registration must open before it closes", ErrSeasonDatesInvalid)
	}
	if !input.DateStart.Before(input.DateEnd) {
		return nil, fmt.Errorf("%w: season must start before it ends", ErrSeasonDatesInvalid)
	}
	if input.DateStart.Before(input.RegistrationEnd) {
		return nil, fmt.Errorf("%w: games cannot start before registration closes", ErrSeasonDatesInvalid)
	}

	season := &models.Season{
		Name:              name,
		RegistrationStart: input.RegistrationStart,
		RegistrationEnd:   input.RegistrationEnd,
		DateStart:         input.DateStart,
		DateEnd:           input.DateEnd,
	}
	if err := s.seasonRepo.Create(ctx, season); err != nil {
		if errors.Is(err, repositories.ErrSeasonNameConflict) {
			return nil, ErrSeasonNameConflict
		}
		return nil, fmt.Errorf("failed to create season: %w", err)
	}
	return season, nil
}

func (s *seasonService) GetSeasonByID(ctx context.Context, seasonID int) (*models.Season, error) {
	season, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrSeasonNotFound
		}
		return nil, fmt.Errorf("failed to get season %d: %w", seasonID, err)
	}
	return season, nil
}

func (s *seasonService) ListSeasons(ctx context.Context) ([]*models.Season, error) {
	seasons, err := s.seasonRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	return seasons, nil
}

func (s *seasonService) CurrentSeason(ctx context.Context) (*models.Season, error) {
	season, err := s.seasonRepo.Current(ctx, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrSeasonNotFound
		}
		return nil, fmt.Errorf("failed to resolve current season: %w", err)
	}
	return season, nil
}

func (s *seasonService) EnsureEntry(ctx context.Context, userID, seasonID int) (*models.SeasonEntry, error) {
	season, err := s.GetSeasonByID(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	if !season.RegistrationOpen(time.Now()) {
		return nil, ErrRegistrationClosed
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if !user.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}

	entry, err := s.entryRepo.GetOrCreate(ctx, nil, userID, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure season entry: %w", err)
	}
	return entry, nil
}
