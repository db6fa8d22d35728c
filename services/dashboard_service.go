package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

type dashboardService struct {
	userRepo   repositories.UserRepository
	seasonRepo repositories.SeasonRepository
	teamRepo   repositories.TeamRepository
	gameRepo   repositories.GameRepository
	offerRepo  repositories.OfferRepository
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	seasonRepo repositories.SeasonRepository,
	teamRepo repositories.TeamRepository,
	gameRepo repositories.GameRepository,
	offerRepo repositories.OfferRepository,
) DashboardService {
	return &dashboardService{
		userRepo:   userRepo,
		seasonRepo: seasonRepo,
		teamRepo:   teamRepo,
		gameRepo:   gameRepo,
		offerRepo:  offerRepo,
	}
}

// Stats gathers the admin dashboard counters. The counts are independent
// queries, so they run concurrently.
func (s *dashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.UsersTotal, err = s.userRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.SeasonsTotal, err = s.seasonRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TeamsTotal, err = s.teamRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.RegisteredTeams, err = s.teamRepo.CountRegistered(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.GamesPlayed, err = s.gameRepo.CountPlayed(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingOffers, err = s.offerRepo.CountPending(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect dashboard stats: %w", err)
	}
	return &stats, nil
}
