package triprepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/triplink-app/triplink-api/internal/adapters/postgres"
	"github.com/triplink-app/triplink-api/internal/domain"
	"github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
)

// Repo is a Postgres implementation of triprepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, t triprepo.Trip) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(t.ID))
	if err != nil {
		return fmt.Errorf("invalid trip id: %w", err)
	}
	ownerUUID, err := uuid.Parse(string(t.OwnerID))
	if err != nil {
		return fmt.Errorf("invalid owner id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO trips (
				id, trip_token, owner_id, name, date_start, date_end,
				description, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`,
			tripUUID,
			t.TripToken,
			ownerUUID,
			t.Name,
			datePtr(t.DateStart),
			datePtr(t.DateEnd),
			t.Description,
			t.CreatedAt.UTC(),
			t.UpdatedAt.UTC(),
		)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return triprepo.ErrAlreadyExists
			}
			return err
		}
		return syncParticipants(ctx, tx, tripUUID, t.ParticipantIDs)
	})
}

func (r *Repo) Save(ctx context.Context, t triprepo.Trip) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(t.ID))
	if err != nil {
		return fmt.Errorf("invalid trip id: %w", err)
	}
	ownerUUID, err := uuid.Parse(string(t.OwnerID))
	if err != nil {
		return fmt.Errorf("invalid owner id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE trips SET
				trip_token = $2,
				owner_id = $3,
				name = $4,
				date_start = $5,
				date_end = $6,
				description = $7,
				updated_at = $8
			WHERE id = $1
		`,
			tripUUID,
			t.TripToken,
			ownerUUID,
			t.Name,
			datePtr(t.DateStart),
			datePtr(t.DateEnd),
			t.Description,
			t.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return triprepo.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM trip_participants WHERE trip_id = $1`, tripUUID); err != nil {
			return err
		}
		return syncParticipants(ctx, tx, tripUUID, t.ParticipantIDs)
	})
}

func syncParticipants(ctx context.Context, tx pgx.Tx, tripUUID uuid.UUID, ids []domain.UserID) error {
	for i, id := range ids {
		pid, err := uuid.Parse(string(id))
		if err != nil {
			return fmt.Errorf("invalid participant id: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO trip_participants (trip_id, user_id, position) VALUES ($1,$2,$3)`,
			tripUUID, pid, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TripID) (triprepo.Trip, error) {
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return triprepo.Trip{}, triprepo.ErrNotFound
	}
	return r.getWhere(ctx, `id = $1`, tripUUID)
}

func (r *Repo) GetByToken(ctx context.Context, tripToken string) (triprepo.Trip, error) {
	if tripToken == "" {
		return triprepo.Trip{}, triprepo.ErrNotFound
	}
	return r.getWhere(ctx, `trip_token = $1`, tripToken)
}

func (r *Repo) getWhere(ctx context.Context, where string, arg any) (triprepo.Trip, error) {
	if r.pool == nil {
		return triprepo.Trip{}, errors.New("nil postgres pool")
	}
	var (
		t         triprepo.Trip
		tripUUID  uuid.UUID
		ownerUUID uuid.UUID
		dateStart *time.Time
		dateEnd   *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, trip_token, owner_id, name, date_start, date_end,
		       description, created_at, updated_at
		FROM trips WHERE `+where,
		arg,
	).Scan(
		&tripUUID,
		&t.TripToken,
		&ownerUUID,
		&t.Name,
		&dateStart,
		&dateEnd,
		&t.Description,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return triprepo.Trip{}, triprepo.ErrNotFound
		}
		return triprepo.Trip{}, err
	}
	t.ID = domain.TripID(tripUUID.String())
	t.OwnerID = domain.UserID(ownerUUID.String())
	if dateStart != nil {
		t.DateStart = dateStart.UTC()
	}
	if dateEnd != nil {
		t.DateEnd = dateEnd.UTC()
	}

	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM trip_participants WHERE trip_id = $1 ORDER BY position`, tripUUID)
	if err != nil {
		return triprepo.Trip{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var pid uuid.UUID
		if err := rows.Scan(&pid); err != nil {
			return triprepo.Trip{}, err
		}
		t.ParticipantIDs = append(t.ParticipantIDs, domain.UserID(pid.String()))
	}
	if err := rows.Err(); err != nil {
		return triprepo.Trip{}, err
	}
	return t, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.TripID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return triprepo.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, tripUUID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return triprepo.ErrNotFound
	}
	return nil
}

// datePtr maps the zero time to NULL; the date columns reject year zero.
func datePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
