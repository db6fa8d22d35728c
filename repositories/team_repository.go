package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamNameConflict  = errors.New("team name conflict")
	ErrTeamSeasonInvalid = errors.New("team season conflict or invalid")
	ErrTeamHasGames      = errors.New("team is referenced by scheduled games")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListBySeason(ctx context.Context, seasonID int) ([]*models.Team, error)
	UpdateName(ctx context.Context, id int, name string) error
	UpdateLogoKey(ctx context.Context, id int, logoKey *string) error
	// GetRegistered reads the derived flag inside a transaction so the
	// recount can detect flips.
	GetRegistered(ctx context.Context, exec SQLExecutor, id int) (bool, error)
	// SetRegistered stamps registered_date on a false->true flip and clears
	// it on the way back down, all in one statement so a repeated recount
	// is a no-op.
	SetRegistered(ctx context.Context, exec SQLExecutor, id int, registered bool) error
	SetPlacement(ctx context.Context, id int, placement *int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	Count(ctx context.Context) (int, error)
	CountRegistered(ctx context.Context) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `id, season_id, name, team_uid, registered, registered_date, placement, logo_key, created_at`

func scanTeam(row *sql.Row) (*models.Team, error) {
	team := &models.Team{}
	err := row.Scan(
		&team.ID,
		&team.SeasonID,
		&team.Name,
		&team.TeamUID,
		&team.Registered,
		&team.RegisteredDate,
		&team.Placement,
		&team.LogoKey,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "teams_season_id_name_key" || pqErr.Constraint == "teams_season_id_team_uid_key" {
				return ErrTeamNameConflict
			}
		case "23503": // foreign_key_violation
			return ErrTeamSeasonInvalid
		}
	}
	return err
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (season_id, name, team_uid)
		VALUES ($1, $2, $3)
		RETURNING id, registered, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		team.SeasonID,
		team.Name,
		team.TeamUID,
	).Scan(&team.ID, &team.Registered, &team.CreatedAt)

	return handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return scanTeam(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) ListBySeason(ctx context.Context, seasonID int) ([]*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams
		WHERE season_id = $1
		ORDER BY placement NULLS LAST, name ASC`

	rows, err := r.db.QueryContext(ctx, query, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var team models.Team
		if scanErr := rows.Scan(
			&team.ID,
			&team.SeasonID,
			&team.Name,
			&team.TeamUID,
			&team.Registered,
			&team.RegisteredDate,
			&team.Placement,
			&team.LogoKey,
			&team.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, &team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return teams, nil
}

func (r *postgresTeamRepository) UpdateName(ctx context.Context, id int, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET logo_key = $2 WHERE id = $1`, id, logoKey)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) GetRegistered(ctx context.Context, exec SQLExecutor, id int) (bool, error) {
	var registered bool
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT registered FROM teams WHERE id = $1`, id).Scan(&registered)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrTeamNotFound
	}
	return registered, err
}

func (r *postgresTeamRepository) SetRegistered(ctx context.Context, exec SQLExecutor, id int, registered bool) error {
	query := `
		UPDATE teams
		SET registered = $2,
		    registered_date = CASE
		        WHEN $2 AND NOT registered THEN NOW()
		        WHEN NOT $2 THEN NULL
		        ELSE registered_date
		    END
		WHERE id = $1`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, id, registered)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) SetPlacement(ctx context.Context, id int, placement *int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET placement = $2 WHERE id = $1`, id, placement)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrTeamHasGames
		}
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count)
	return count, err
}

func (r *postgresTeamRepository) CountRegistered(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams WHERE registered`).Scan(&count)
	return count, err
}
