package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameTeamInvalid = errors.New("game team or season invalid")
)

type GameRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, games []*models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	UpdateScore(ctx context.Context, id int, homeScore, awayScore int) error
	ListBySeason(ctx context.Context, seasonID int) ([]*models.Game, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.Game, error)
	CountBySeason(ctx context.Context, seasonID int) (int, error)
	CountPlayed(ctx context.Context) (int, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `id, season_id, home_team_id, away_team_id, home_score, away_score, game_time, field, created_at`

func (r *postgresGameRepository) CreateBatch(ctx context.Context, exec SQLExecutor, games []*models.Game) error {
	executor := r.getExecutor(exec)

	query := `
		INSERT INTO games (season_id, home_team_id, away_team_id, game_time, field)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	for _, game := range games {
		err := executor.QueryRowContext(ctx, query,
			game.SeasonID,
			game.HomeTeamID,
			game.AwayTeamID,
			game.GameTime,
			game.Field,
		).Scan(&game.ID, &game.CreatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				return ErrGameTeamInvalid
			}
			return err
		}
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game := &models.Game{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&game.ID,
		&game.SeasonID,
		&game.HomeTeamID,
		&game.AwayTeamID,
		&game.HomeScore,
		&game.AwayScore,
		&game.GameTime,
		&game.Field,
		&game.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return game, nil
}

func (r *postgresGameRepository) UpdateScore(ctx context.Context, id int, homeScore, awayScore int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE games SET home_score = $2, away_score = $3 WHERE id = $1`, id, homeScore, awayScore)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) scanGames(rows *sql.Rows) ([]*models.Game, error) {
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		var game models.Game
		if scanErr := rows.Scan(
			&game.ID,
			&game.SeasonID,
			&game.HomeTeamID,
			&game.AwayTeamID,
			&game.HomeScore,
			&game.AwayScore,
			&game.GameTime,
			&game.Field,
			&game.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		games = append(games, &game)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *postgresGameRepository) ListBySeason(ctx context.Context, seasonID int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE season_id = $1 ORDER BY game_time ASC`

	rows, err := r.db.QueryContext(ctx, query, seasonID)
	if err != nil {
		return nil, err
	}
	return r.scanGames(rows)
}

func (r *postgresGameRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE home_team_id = $1 OR away_team_id = $1
		ORDER BY game_time ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	return r.scanGames(rows)
}

func (r *postgresGameRepository) CountBySeason(ctx context.Context, seasonID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE season_id = $1`, seasonID).Scan(&count)
	return count, err
}

func (r *postgresGameRepository) CountPlayed(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM games WHERE home_score IS NOT NULL AND away_score IS NOT NULL`).Scan(&count)
	return count, err
}
