package userrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/triplink-app/triplink-api/internal/adapters/postgres"
	"github.com/triplink-app/triplink-api/internal/domain"
	"github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

// Repo is a Postgres implementation of userrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, u userrepo.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	userUUID, err := uuid.Parse(string(u.ID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (
				id, session_token, user_token, username, email,
				password_hash, active, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`,
			userUUID,
			u.SessionToken,
			u.UserToken,
			u.Username,
			u.Email,
			u.PasswordHash,
			u.Active,
			u.CreatedAt.UTC(),
			u.UpdatedAt.UTC(),
		)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return userrepo.ErrAlreadyExists
			}
			return err
		}
		return syncChildren(ctx, tx, userUUID, u)
	})
}

func (r *Repo) Save(ctx context.Context, u userrepo.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	userUUID, err := uuid.Parse(string(u.ID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE users SET
				session_token = $2,
				user_token = $3,
				username = $4,
				email = $5,
				password_hash = $6,
				active = $7,
				updated_at = $8
			WHERE id = $1
		`,
			userUUID,
			u.SessionToken,
			u.UserToken,
			u.Username,
			u.Email,
			u.PasswordHash,
			u.Active,
			u.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return userrepo.ErrNotFound
		}

		// Child rows are rewritten wholesale; the lists are small and order
		// is part of the contract.
		for _, table := range []string{"user_friends", "user_trips", "user_documents"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, userUUID); err != nil {
				return err
			}
		}
		return syncChildren(ctx, tx, userUUID, u)
	})
}

func syncChildren(ctx context.Context, tx pgx.Tx, userUUID uuid.UUID, u userrepo.User) error {
	for _, friendID := range u.Friends {
		fid, err := uuid.Parse(string(friendID))
		if err != nil {
			return fmt.Errorf("invalid friend id: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_friends (user_id, friend_id) VALUES ($1,$2)`,
			userUUID, fid); err != nil {
			return err
		}
	}
	for i, tripID := range u.Trips {
		tid, err := uuid.Parse(string(tripID))
		if err != nil {
			return fmt.Errorf("invalid trip id: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_trips (user_id, trip_id, position) VALUES ($1,$2,$3)`,
			userUUID, tid, i); err != nil {
			return err
		}
	}
	for i, d := range u.Documents {
		var tripID *uuid.UUID
		if d.TripID != nil {
			tid, err := uuid.Parse(string(*d.TripID))
			if err != nil {
				return fmt.Errorf("invalid document trip id: %w", err)
			}
			tripID = &tid
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_documents (user_id, doc_token, doc_type, name, uri, trip_id, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, userUUID, d.DocToken, d.Type, d.Name, d.URI, tripID, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	userUUID, err := uuid.Parse(string(id))
	if err != nil {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return r.getWhere(ctx, `id = $1`, userUUID)
}

func (r *Repo) GetBySessionToken(ctx context.Context, token string) (userrepo.User, error) {
	if token == "" {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return r.getWhere(ctx, `session_token = $1`, token)
}

func (r *Repo) GetByUserToken(ctx context.Context, token string) (userrepo.User, error) {
	if token == "" {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return r.getWhere(ctx, `user_token = $1`, token)
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (userrepo.User, error) {
	if username == "" {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return r.getWhere(ctx, `username = $1`, username)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (userrepo.User, error) {
	if email == "" {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return r.getWhere(ctx, `LOWER(email) = LOWER($1)`, email)
}

func (r *Repo) getWhere(ctx context.Context, where string, arg any) (userrepo.User, error) {
	if r.pool == nil {
		return userrepo.User{}, errors.New("nil postgres pool")
	}
	var (
		u        userrepo.User
		userUUID uuid.UUID
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, session_token, user_token, username, email,
		       password_hash, active, created_at, updated_at
		FROM users WHERE `+where,
		arg,
	).Scan(
		&userUUID,
		&u.SessionToken,
		&u.UserToken,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userrepo.User{}, userrepo.ErrNotFound
		}
		return userrepo.User{}, err
	}
	u.ID = domain.UserID(userUUID.String())

	if err := r.loadChildren(ctx, userUUID, &u); err != nil {
		return userrepo.User{}, err
	}
	return u, nil
}

func (r *Repo) loadChildren(ctx context.Context, userUUID uuid.UUID, u *userrepo.User) error {
	rows, err := r.pool.Query(ctx,
		`SELECT friend_id FROM user_friends WHERE user_id = $1`, userUUID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var fid uuid.UUID
		if err := rows.Scan(&fid); err != nil {
			rows.Close()
			return err
		}
		u.Friends = append(u.Friends, domain.UserID(fid.String()))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx,
		`SELECT trip_id FROM user_trips WHERE user_id = $1 ORDER BY position`, userUUID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var tid uuid.UUID
		if err := rows.Scan(&tid); err != nil {
			rows.Close()
			return err
		}
		u.Trips = append(u.Trips, domain.TripID(tid.String()))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT doc_token, doc_type, name, uri, trip_id
		FROM user_documents WHERE user_id = $1 ORDER BY position
	`, userUUID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			d      userrepo.Document
			tripID *uuid.UUID
		)
		if err := rows.Scan(&d.DocToken, &d.Type, &d.Name, &d.URI, &tripID); err != nil {
			rows.Close()
			return err
		}
		if tripID != nil {
			v := domain.TripID(tripID.String())
			d.TripID = &v
		}
		u.Documents = append(u.Documents, d)
	}
	rows.Close()
	return rows.Err()
}
