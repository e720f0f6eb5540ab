package eventrepo

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
	"github.com/triplink-app/triplink-api/internal/ports/out/eventrepo"
)

// Repo is a Postgres implementation of eventrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, e eventrepo.Event) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	eventUUID, err := uuid.Parse(string(e.ID))
	if err != nil {
		return fmt.Errorf("invalid event id: %w", err)
	}
	tripUUID, err := uuid.Parse(string(e.TripID))
	if err != nil {
		return fmt.Errorf("invalid trip id: %w", err)
	}
	creatorUUID, err := uuid.Parse(string(e.CreatorID))
	if err != nil {
		return fmt.Errorf("invalid creator id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO events (
				id, event_token, trip_id, creator_id, category, name,
				description, place, date, time_start, time_end, seats,
				ticket, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		`,
			eventUUID,
			e.EventToken,
			tripUUID,
			creatorUUID,
			e.Category,
			e.Name,
			e.Description,
			e.Place,
			timePtr(e.Date),
			timePtr(e.TimeStart),
			timePtr(e.TimeEnd),
			e.Seats,
			e.Ticket,
			e.CreatedAt.UTC(),
			e.UpdatedAt.UTC(),
		)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return eventrepo.ErrAlreadyExists
			}
			return err
		}
		return syncChildren(ctx, tx, eventUUID, e)
	})
}

func (r *Repo) Save(ctx context.Context, e eventrepo.Event) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	eventUUID, err := uuid.Parse(string(e.ID))
	if err != nil {
		return fmt.Errorf("invalid event id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE events SET
				event_token = $2,
				category = $3,
				name = $4,
				description = $5,
				place = $6,
				date = $7,
				time_start = $8,
				time_end = $9,
				seats = $10,
				ticket = $11,
				updated_at = $12
			WHERE id = $1
		`,
			eventUUID,
			e.EventToken,
			e.Category,
			e.Name,
			e.Description,
			e.Place,
			timePtr(e.Date),
			timePtr(e.TimeStart),
			timePtr(e.TimeEnd),
			e.Seats,
			e.Ticket,
			e.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return eventrepo.ErrNotFound
		}
		for _, table := range []string{"event_participants", "event_infos"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE event_id = $1`, eventUUID); err != nil {
				return err
			}
		}
		return syncChildren(ctx, tx, eventUUID, e)
	})
}

func syncChildren(ctx context.Context, tx pgx.Tx, eventUUID uuid.UUID, e eventrepo.Event) error {
	for i, id := range e.ParticipantIDs {
		pid, err := uuid.Parse(string(id))
		if err != nil {
			return fmt.Errorf("invalid participant id: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO event_participants (event_id, user_id, position) VALUES ($1,$2,$3)`,
			eventUUID, pid, i); err != nil {
			return err
		}
	}
	for i, info := range e.Infos {
		aid, err := uuid.Parse(string(info.AuthorID))
		if err != nil {
			return fmt.Errorf("invalid info author id: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO event_infos (event_id, info_token, author_id, name, info_type, uri, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, eventUUID, info.InfoToken, aid, info.Name, info.Type, info.URI, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.EventID) (eventrepo.Event, error) {
	eventUUID, err := uuid.Parse(string(id))
	if err != nil {
		return eventrepo.Event{}, eventrepo.ErrNotFound
	}
	return r.getWhere(ctx, `id = $1`, eventUUID)
}

func (r *Repo) GetByToken(ctx context.Context, eventToken string) (eventrepo.Event, error) {
	if eventToken == "" {
		return eventrepo.Event{}, eventrepo.ErrNotFound
	}
	return r.getWhere(ctx, `event_token = $1`, eventToken)
}

func (r *Repo) getWhere(ctx context.Context, where string, arg any) (eventrepo.Event, error) {
	if r.pool == nil {
		return eventrepo.Event{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, event_token, trip_id, creator_id, category, name,
		       description, place, date, time_start, time_end, seats,
		       ticket, created_at, updated_at
		FROM events WHERE `+where,
		arg,
	)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return eventrepo.Event{}, eventrepo.ErrNotFound
		}
		return eventrepo.Event{}, err
	}
	if err := r.loadChildren(ctx, &e); err != nil {
		return eventrepo.Event{}, err
	}
	return e, nil
}

func (r *Repo) ListByTrip(ctx context.Context, tripID domain.TripID) ([]eventrepo.Event, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(tripID))
	if err != nil {
		return []eventrepo.Event{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_token, trip_id, creator_id, category, name,
		       description, place, date, time_start, time_end, seats,
		       ticket, created_at, updated_at
		FROM events WHERE trip_id = $1
		ORDER BY date NULLS LAST, time_start NULLS LAST, created_at, id
	`, tripUUID)
	if err != nil {
		return nil, err
	}
	out := make([]eventrepo.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.EventID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	eventUUID, err := uuid.Parse(string(id))
	if err != nil {
		return eventrepo.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventUUID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return eventrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteByTrip(ctx context.Context, tripID domain.TripID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	tripUUID, err := uuid.Parse(string(tripID))
	if err != nil {
		return nil
	}
	_, err = r.pool.Exec(ctx, `DELETE FROM events WHERE trip_id = $1`, tripUUID)
	return err
}

func scanEvent(row pgx.Row) (eventrepo.Event, error) {
	var (
		e           eventrepo.Event
		eventUUID   uuid.UUID
		tripUUID    uuid.UUID
		creatorUUID uuid.UUID
		date        *time.Time
		timeStart   *time.Time
		timeEnd     *time.Time
	)
	err := row.Scan(
		&eventUUID,
		&e.EventToken,
		&tripUUID,
		&creatorUUID,
		&e.Category,
		&e.Name,
		&e.Description,
		&e.Place,
		&date,
		&timeStart,
		&timeEnd,
		&e.Seats,
		&e.Ticket,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return eventrepo.Event{}, err
	}
	e.ID = domain.EventID(eventUUID.String())
	e.TripID = domain.TripID(tripUUID.String())
	e.CreatorID = domain.UserID(creatorUUID.String())
	if date != nil {
		e.Date = date.UTC()
	}
	if timeStart != nil {
		e.TimeStart = timeStart.UTC()
	}
	if timeEnd != nil {
		e.TimeEnd = timeEnd.UTC()
	}
	return e, nil
}

func (r *Repo) loadChildren(ctx context.Context, e *eventrepo.Event) error {
	eventUUID, err := uuid.Parse(string(e.ID))
	if err != nil {
		return fmt.Errorf("invalid event id: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM event_participants WHERE event_id = $1 ORDER BY position`, eventUUID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var pid uuid.UUID
		if err := rows.Scan(&pid); err != nil {
			rows.Close()
			return err
		}
		e.ParticipantIDs = append(e.ParticipantIDs, domain.UserID(pid.String()))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT info_token, author_id, name, info_type, uri
		FROM event_infos WHERE event_id = $1 ORDER BY position
	`, eventUUID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			info eventrepo.Info
			aid  uuid.UUID
		)
		if err := rows.Scan(&info.InfoToken, &aid, &info.Name, &info.Type, &info.URI); err != nil {
			rows.Close()
			return err
		}
		info.AuthorID = domain.UserID(aid.String())
		e.Infos = append(e.Infos, info)
	}
	rows.Close()
	return rows.Err()
}

// timePtr maps the zero time to NULL.
func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
