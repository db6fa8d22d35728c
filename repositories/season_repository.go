package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrSeasonNotFound     = errors.New("season not found")
	ErrSeasonNameConflict = errors.New("season name conflict")
)

type SeasonRepository interface {
	Create(ctx context.Context, season *models.Season) error
	GetByID(ctx context.Context, id int) (*models.Season, error)
	List(ctx context.Context) ([]*models.Season, error)
	// Current returns the season whose play or registration window covers
	// now, falling back to the next upcoming season.
	Current(ctx context.Context, now time.Time) (*models.Season, error)
	Count(ctx context.Context) (int, error)
}

type postgresSeasonRepository struct {
	db *sql.DB
}

func NewPostgresSeasonRepository(db *sql.DB) SeasonRepository {
	return &postgresSeasonRepository{db: db}
}

const seasonColumns = `id, name, date_start, date_end, registration_start, registration_end, created_at`

func scanSeason(row *sql.Row) (*models.Season, error) {
	season := &models.Season{}
	err := row.Scan(
		&season.ID,
		&season.Name,
		&season.DateStart,
		&season.DateEnd,
		&season.RegistrationStart,
		&season.RegistrationEnd,
		&season.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeasonNotFound
		}
		return nil, err
	}
	return season, nil
}

func (r *postgresSeasonRepository) Create(ctx context.Context, season *models.Season) error {
	query := `
		INSERT INTO seasons (name, date_start, date_end, registration_start, registration_end)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		season.Name,
		season.DateStart,
		season.DateEnd,
		season.RegistrationStart,
		season.RegistrationEnd,
	).Scan(&season.ID, &season.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "seasons_name_key" {
				return ErrSeasonNameConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresSeasonRepository) GetByID(ctx context.Context, id int) (*models.Season, error) {
	query := `SELECT ` + seasonColumns + ` FROM seasons WHERE id = $1`
	return scanSeason(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresSeasonRepository) List(ctx context.Context) ([]*models.Season, error) {
	query := `SELECT ` + seasonColumns + ` FROM seasons ORDER BY date_start DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seasons := make([]*models.Season, 0)
	for rows.Next() {
		var season models.Season
		if scanErr := rows.Scan(
			&season.ID,
			&season.Name,
			&season.DateStart,
			&season.DateEnd,
			&season.RegistrationStart,
			&season.RegistrationEnd,
			&season.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		seasons = append(seasons, &season)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seasons, nil
}

func (r *postgresSeasonRepository) Current(ctx context.Context, now time.Time) (*models.Season, error) {
	query := `
		SELECT ` + seasonColumns + `
		FROM seasons
		WHERE date_end >= $1 OR registration_end >= $1
		ORDER BY registration_start ASC
		LIMIT 1`
	return scanSeason(r.db.QueryRowContext(ctx, query, now))
}

func (r *postgresSeasonRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seasons`).Scan(&count)
	return count, err
}
