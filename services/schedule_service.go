package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/realtime"
	"github.com/Dosada05/league-system/repositories"
)

const defaultGameSlotInterval = 7 * 24 * time.Hour

type GenerateScheduleInput struct {
	SeasonID int `json:"season_id"`
	// Rounds is 1 for a single round-robin, 2 for home-and-away.
	Rounds int `json:"rounds"`
	// FirstGameTime anchors the schedule; each later round is one slot
	// interval after the previous one.
	FirstGameTime time.Time `json:"first_game_time"`
	Field         string    `json:"field"`
}

type RecordResultInput struct {
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
}

type ScheduleService interface {
	GenerateSchedule(ctx context.Context, input GenerateScheduleInput) ([]*models.Game, error)
	RecordResult(ctx context.Context, gameID int, input RecordResultInput) (*models.Game, error)
	ListSeasonGames(ctx context.Context, seasonID int) ([]*models.Game, error)
	ListTeamGames(ctx context.Context, teamID int) ([]*models.Game, error)
	Standings(ctx context.Context, seasonID int) ([]models.TeamStanding, error)
	FinalizeSeason(ctx context.Context, seasonID int) ([]models.TeamStanding, error)
}

type scheduleService struct {
	tx         repositories.TxRunner
	gameRepo   repositories.GameRepository
	teamRepo   repositories.TeamRepository
	seasonRepo repositories.SeasonRepository
	hub        EventBroadcaster
}

func NewScheduleService(
	tx repositories.TxRunner,
	gameRepo repositories.GameRepository,
	teamRepo repositories.TeamRepository,
	seasonRepo repositories.SeasonRepository,
	hub EventBroadcaster,
) ScheduleService {
	return &scheduleService{
		tx:         tx,
		gameRepo:   gameRepo,
		teamRepo:   teamRepo,
		seasonRepo: seasonRepo,
		hub:        hub,
	}
}

// GenerateSchedule builds a round-robin fixture list from the season's
// registered teams using the circle method: one team stays fixed and the
// rest rotate, so every team plays exactly once per round.
func (s *scheduleService) GenerateSchedule(ctx context.Context, input GenerateScheduleInput) ([]*models.Game, error) {
	season, err := s.seasonRepo.GetByID(ctx, input.SeasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrSeasonNotFound
		}
		return nil, fmt.Errorf("failed to get season %d: %w", input.SeasonID, err)
	}

	rounds := input.Rounds
	if rounds == 0 {
		rounds = 1
	}
	if rounds != 1 && rounds != 2 {
		return nil, fmt.Errorf("%w: rounds must be 1 or 2", ErrValidationFailed)
	}

	existing, err := s.gameRepo.CountBySeason(ctx, season.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count season games: %w", err)
	}
	if existing > 0 {
		return nil, ErrSeasonHasGames
	}

	teams, err := s.teamRepo.ListBySeason(ctx, season.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for season %d: %w", season.ID, err)
	}
	registered := make([]*models.Team, 0, len(teams))
	for _, team := range teams {
		if team.Registered {
			registered = append(registered, team)
		}
	}
	if len(registered) < 2 {
		return nil, ErrNotEnoughTeams
	}

	firstGame := input.FirstGameTime
	if firstGame.IsZero() {
		firstGame = season.DateStart
	}

	games := buildRoundRobin(season.ID, registered, rounds, firstGame, input.Field)

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.gameRepo.CreateBatch(ctx, exec, games)
	})
	if err != nil {
		return nil, err
	}

	return games, nil
}

func buildRoundRobin(seasonID int, teams []*models.Team, rounds int, firstGame time.Time, field string) []*models.Game {
	ids := make([]int, len(teams))
	for i, team := range teams {
		ids[i] = team.ID
	}
	// The circle method needs an even count; a zero sentinel marks a bye.
	if len(ids)%2 != 0 {
		ids = append(ids, 0)
	}
	n := len(ids)

	var games []*models.Game
	slot := firstGame
	for leg := 0; leg < rounds; leg++ {
		rotation := make([]int, n)
		copy(rotation, ids)
		for round := 0; round < n-1; round++ {
			for i := 0; i < n/2; i++ {
				home, away := rotation[i], rotation[n-1-i]
				if home == 0 || away == 0 {
					continue
				}
				if leg == 1 {
					home, away = away, home
				}
				games = append(games, &models.Game{
					SeasonID:   seasonID,
					HomeTeamID: home,
					AwayTeamID: away,
					GameTime:   slot,
					Field:      field,
				})
			}
			// Rotate all but the first element.
			last := rotation[n-1]
			copy(rotation[2:], rotation[1:n-1])
			rotation[1] = last
			slot = slot.Add(defaultGameSlotInterval)
		}
	}
	return games
}

func (s *scheduleService) RecordResult(ctx context.Context, gameID int, input RecordResultInput) (*models.Game, error) {
	if input.HomeScore < 0 || input.AwayScore < 0 {
		return nil, fmt.Errorf("%w: scores cannot be negative", ErrValidationFailed)
	}

	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}

	if err := s.gameRepo.UpdateScore(ctx, gameID, input.HomeScore, input.AwayScore); err != nil {
		return nil, fmt.Errorf("failed to record result for game %d: %w", gameID, err)
	}
	game.HomeScore = &input.HomeScore
	game.AwayScore = &input.AwayScore

	if s.hub != nil {
		s.hub.BroadcastToRoom(realtime.SeasonRoom(game.SeasonID), realtime.Message{
			Type: realtime.EventGameResult,
			Payload: map[string]interface{}{
				"game_id":    game.ID,
				"home_score": input.HomeScore,
				"away_score": input.AwayScore,
			},
			RoomID: realtime.SeasonRoom(game.SeasonID),
		})
	}

	return game, nil
}

func (s *scheduleService) ListSeasonGames(ctx context.Context, seasonID int) ([]*models.Game, error) {
	games, err := s.gameRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for season %d: %w", seasonID, err)
	}
	return games, nil
}

func (s *scheduleService) ListTeamGames(ctx context.Context, teamID int) ([]*models.Game, error) {
	games, err := s.gameRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for team %d: %w", teamID, err)
	}
	return games, nil
}

// Standings is computed from played games on every call. Three points for
// a win, one for a draw; ties break on score difference, then score for,
// then name.
func (s *scheduleService) Standings(ctx context.Context, seasonID int) ([]models.TeamStanding, error) {
	teams, err := s.teamRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for season %d: %w", seasonID, err)
	}
	games, err := s.gameRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for season %d: %w", seasonID, err)
	}

	byTeam := make(map[int]*models.TeamStanding, len(teams))
	for _, team := range teams {
		if !team.Registered {
			continue
		}
		byTeam[team.ID] = &models.TeamStanding{TeamID: team.ID, TeamName: team.Name}
	}

	for _, game := range games {
		if !game.Played() {
			continue
		}
		home, away := byTeam[game.HomeTeamID], byTeam[game.AwayTeamID]
		if home == nil || away == nil {
			continue
		}
		applyResult(home, *game.HomeScore, *game.AwayScore)
		applyResult(away, *game.AwayScore, *game.HomeScore)
	}

	table := make([]models.TeamStanding, 0, len(byTeam))
	for _, standing := range byTeam {
		standing.ScoreDifference = standing.ScoreFor - standing.ScoreAgainst
		table = append(table, *standing)
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Points != table[j].Points {
			return table[i].Points > table[j].Points
		}
		if table[i].ScoreDifference != table[j].ScoreDifference {
			return table[i].ScoreDifference > table[j].ScoreDifference
		}
		if table[i].ScoreFor != table[j].ScoreFor {
			return table[i].ScoreFor > table[j].ScoreFor
		}
		return table[i].TeamName < table[j].TeamName
	})
	for i := range table {
		table[i].Rank = i + 1
	}
	return table, nil
}

func applyResult(standing *models.TeamStanding, scored, conceded int) {
	standing.GamesPlayed++
	standing.ScoreFor += scored
	standing.ScoreAgainst += conceded
	switch {
	case scored > conceded:
		standing.Wins++
		standing.Points += 3
	case scored == conceded:
		standing.Draws++
		standing.Points++
	default:
		standing.Losses++
	}
}

// FinalizeSeason stamps the final table ranks onto the teams' placement
// column.
func (s *scheduleService) FinalizeSeason(ctx context.Context, seasonID int) ([]models.TeamStanding, error) {
	table, err := s.Standings(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	for _, standing := range table {
		placement := standing.Rank
		if err := s.teamRepo.SetPlacement(ctx, standing.TeamID, &placement); err != nil {
			return nil, fmt.Errorf("failed to set placement for team %d: %w", standing.TeamID, err)
		}
	}
	return table, nil
}
