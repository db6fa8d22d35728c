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
	ErrOfferNotFound       = errors.New("offer not found")
	ErrOfferAlreadyPending = errors.New("offer already pending for this player and team")
	ErrOfferRefInvalid     = errors.New("offer references an unknown player, team or season")
)

type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, id int) (*models.Offer, error)
	ListByUserSeason(ctx context.Context, userID, seasonID int) ([]*models.Offer, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.Offer, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	// DeleteByUserSeason removes every pending offer referencing the player
	// in a season, both invites and requests, optionally sparing one id.
	DeleteByUserSeason(ctx context.Context, exec SQLExecutor, userID, seasonID, exceptID int) (int64, error)
	DeleteByTeam(ctx context.Context, exec SQLExecutor, teamID int) error
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
	// DeleteStale drops pending offers older than maxAge. Returns the
	// number of offers removed.
	DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error)
	CountPending(ctx context.Context) (int, error)
}

type postgresOfferRepository struct {
	db *sql.DB
}

func NewPostgresOfferRepository(db *sql.DB) OfferRepository {
	return &postgresOfferRepository{db: db}
}

func (r *postgresOfferRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const offerColumns = `id, creator, user_id, team_id, season_id, status, created_at`

func scanOffer(row *sql.Row) (*models.Offer, error) {
	offer := &models.Offer{}
	err := row.Scan(
		&offer.ID,
		&offer.Creator,
		&offer.UserID,
		&offer.TeamID,
		&offer.SeasonID,
		&offer.Status,
		&offer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return offer, nil
}

func (r *postgresOfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	query := `
		INSERT INTO offers (creator, user_id, team_id, season_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		offer.Creator,
		offer.UserID,
		offer.TeamID,
		offer.SeasonID,
		models.OfferPending,
	).Scan(&offer.ID, &offer.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation on the pending partial index
				return ErrOfferAlreadyPending
			case "23503": // foreign_key_violation
				return ErrOfferRefInvalid
			}
		}
		return err
	}

	offer.Status = models.OfferPending
	return nil
}

func (r *postgresOfferRepository) GetByID(ctx context.Context, id int) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	return scanOffer(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresOfferRepository) scanOffers(rows *sql.Rows) ([]*models.Offer, error) {
	defer rows.Close()

	offers := make([]*models.Offer, 0)
	for rows.Next() {
		var offer models.Offer
		if scanErr := rows.Scan(
			&offer.ID,
			&offer.Creator,
			&offer.UserID,
			&offer.TeamID,
			&offer.SeasonID,
			&offer.Status,
			&offer.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		offers = append(offers, &offer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *postgresOfferRepository) ListByUserSeason(ctx context.Context, userID, seasonID int) ([]*models.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE user_id = $1 AND season_id = $2 AND status = 'pending'
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, seasonID)
	if err != nil {
		return nil, err
	}
	return r.scanOffers(rows)
}

func (r *postgresOfferRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE team_id = $1 AND status = 'pending'
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	return r.scanOffers(rows)
}

func (r *postgresOfferRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrOfferNotFound)
}

func (r *postgresOfferRepository) DeleteByUserSeason(ctx context.Context, exec SQLExecutor, userID, seasonID, exceptID int) (int64, error) {
	query := `DELETE FROM offers WHERE user_id = $1 AND season_id = $2 AND id <> $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, userID, seasonID, exceptID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresOfferRepository) DeleteByTeam(ctx context.Context, exec SQLExecutor, teamID int) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM offers WHERE team_id = $1`, teamID)
	return err
}

func (r *postgresOfferRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM offers WHERE user_id = $1`, userID)
	return err
}

func (r *postgresOfferRepository) DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	query := `DELETE FROM offers WHERE created_at <= NOW() - make_interval(secs => $1)`

	result, err := r.db.ExecContext(ctx, query, maxAge.Seconds())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresOfferRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offers WHERE status = 'pending'`).Scan(&count)
	return count, err
}
