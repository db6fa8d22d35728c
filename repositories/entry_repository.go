package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrEntryNotFound      = errors.New("season entry not found")
	ErrEntrySeasonInvalid = errors.New("season entry season or user invalid")
)

// EntryRepository manages a player's per-season state. A team's roster is
// the set of entries carrying its team_id.
type EntryRepository interface {
	// GetOrCreate lazily appends the per-season entry the first time a
	// player touches a season.
	GetOrCreate(ctx context.Context, exec SQLExecutor, userID, seasonID int) (*models.SeasonEntry, error)
	Get(ctx context.Context, userID, seasonID int) (*models.SeasonEntry, error)
	GetByID(ctx context.Context, id int) (*models.SeasonEntry, error)
	// GetForUpdate locks the entry row for the duration of a transaction.
	// Racing roster mutations on the same player serialize on this lock.
	GetForUpdate(ctx context.Context, exec SQLExecutor, userID, seasonID int) (*models.SeasonEntry, error)
	AssignTeam(ctx context.Context, exec SQLExecutor, entryID, teamID int, captain bool) error
	ClearTeam(ctx context.Context, exec SQLExecutor, entryID int) error
	ClearTeamForAll(ctx context.Context, exec SQLExecutor, teamID int) error
	SetCaptain(ctx context.Context, exec SQLExecutor, entryID int, captain bool) error
	SetPaid(ctx context.Context, exec SQLExecutor, entryID int, paid bool) error
	SetSigned(ctx context.Context, exec SQLExecutor, entryID int, signed bool) error
	ListByTeam(ctx context.Context, teamID int) ([]*models.SeasonEntry, error)
	ListByUser(ctx context.Context, userID int) ([]*models.SeasonEntry, error)
	// CountRegistered counts roster members with paid AND signed.
	CountRegistered(ctx context.Context, exec SQLExecutor, teamID int) (int, error)
	// TeamIDsByUser returns the teams a user is currently rostered on,
	// across all seasons (at most one per season).
	TeamIDsByUser(ctx context.Context, exec SQLExecutor, userID int) ([]int, error)
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresEntryRepository struct {
	db *sql.DB
}

func NewPostgresEntryRepository(db *sql.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

func (r *postgresEntryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const entryColumns = `id, user_id, season_id, team_id, captain, paid, signed, created_at`

func scanEntry(row *sql.Row) (*models.SeasonEntry, error) {
	entry := &models.SeasonEntry{}
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.SeasonID,
		&entry.TeamID,
		&entry.Captain,
		&entry.Paid,
		&entry.Signed,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *postgresEntryRepository) GetOrCreate(ctx context.Context, exec SQLExecutor, userID, seasonID int) (*models.SeasonEntry, error) {
	executor := r.getExecutor(exec)

	query := `
		INSERT INTO season_entries (user_id, season_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT season_entries_user_id_season_id_key DO NOTHING`

	if _, err := executor.ExecContext(ctx, query, userID, seasonID); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return nil, ErrEntrySeasonInvalid
		}
		return nil, err
	}

	selectQuery := `SELECT ` + entryColumns + ` FROM season_entries WHERE user_id = $1 AND season_id = $2`
	return scanEntry(executor.QueryRowContext(ctx, selectQuery, userID, seasonID))
}

func (r *postgresEntryRepository) Get(ctx context.Context, userID, seasonID int) (*models.SeasonEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM season_entries WHERE user_id = $1 AND season_id = $2`
	return scanEntry(r.db.QueryRowContext(ctx, query, userID, seasonID))
}

func (r *postgresEntryRepository) GetByID(ctx context.Context, id int) (*models.SeasonEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM season_entries WHERE id = $1`
	return scanEntry(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresEntryRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, userID, seasonID int) (*models.SeasonEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM season_entries
		WHERE user_id = $1 AND season_id = $2
		FOR UPDATE`
	return scanEntry(r.getExecutor(exec).QueryRowContext(ctx, query, userID, seasonID))
}

func (r *postgresEntryRepository) AssignTeam(ctx context.Context, exec SQLExecutor, entryID, teamID int, captain bool) error {
	query := `UPDATE season_entries SET team_id = $2, captain = $3 WHERE id = $1`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, entryID, teamID, captain)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEntryNotFound)
}

func (r *postgresEntryRepository) ClearTeam(ctx context.Context, exec SQLExecutor, entryID int) error {
	query := `UPDATE season_entries SET team_id = NULL, captain = FALSE WHERE id = $1`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, entryID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEntryNotFound)
}

func (r *postgresEntryRepository) ClearTeamForAll(ctx context.Context, exec SQLExecutor, teamID int) error {
	query := `UPDATE season_entries SET team_id = NULL, captain = FALSE WHERE team_id = $1`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, teamID)
	return err
}

func (r *postgresEntryRepository) SetCaptain(ctx context.Context, exec SQLExecutor, entryID int, captain bool) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE season_entries SET captain = $2 WHERE id = $1 AND team_id IS NOT NULL`, entryID, captain)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEntryNotFound)
}

func (r *postgresEntryRepository) SetPaid(ctx context.Context, exec SQLExecutor, entryID int, paid bool) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE season_entries SET paid = $2 WHERE id = $1`, entryID, paid)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEntryNotFound)
}

func (r *postgresEntryRepository) SetSigned(ctx context.Context, exec SQLExecutor, entryID int, signed bool) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE season_entries SET signed = $2 WHERE id = $1`, entryID, signed)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEntryNotFound)
}

func (r *postgresEntryRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.SeasonEntry, error) {
	query := `
		SELECT e.id, e.user_id, e.season_id, e.team_id, e.captain, e.paid, e.signed, e.created_at,
		       u.id, u.first_name, u.last_name, u.email, u.logo_key, u.created_at
		FROM season_entries e
		JOIN users u ON u.id = e.user_id
		WHERE e.team_id = $1
		ORDER BY e.captain DESC, e.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.SeasonEntry, 0)
	for rows.Next() {
		var entry models.SeasonEntry
		var user models.User
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.SeasonID,
			&entry.TeamID,
			&entry.Captain,
			&entry.Paid,
			&entry.Signed,
			&entry.CreatedAt,
			&user.ID,
			&user.FirstName,
			&user.LastName,
			&user.Email,
			&user.LogoKey,
			&user.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entry.User = &user
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *postgresEntryRepository) ListByUser(ctx context.Context, userID int) ([]*models.SeasonEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM season_entries
		WHERE user_id = $1
		ORDER BY season_id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.SeasonEntry, 0)
	for rows.Next() {
		var entry models.SeasonEntry
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.SeasonID,
			&entry.TeamID,
			&entry.Captain,
			&entry.Paid,
			&entry.Signed,
			&entry.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *postgresEntryRepository) CountRegistered(ctx context.Context, exec SQLExecutor, teamID int) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM season_entries WHERE team_id = $1 AND paid AND signed`, teamID,
	).Scan(&count)
	return count, err
}

func (r *postgresEntryRepository) TeamIDsByUser(ctx context.Context, exec SQLExecutor, userID int) ([]int, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx,
		`SELECT team_id FROM season_entries WHERE user_id = $1 AND team_id IS NOT NULL`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teamIDs := make([]int, 0)
	for rows.Next() {
		var teamID int
		if scanErr := rows.Scan(&teamID); scanErr != nil {
			return nil, scanErr
		}
		teamIDs = append(teamIDs, teamID)
	}
	return teamIDs, rows.Err()
}

func (r *postgresEntryRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM season_entries WHERE user_id = $1`, userID)
	return err
}
