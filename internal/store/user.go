package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chirpnet/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for unique-index violations.
const uniqueViolation = "23505"

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// Create inserts a new user. The unique index on email arbitrates concurrent
// registrations; the loser gets ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET name = $1,
			email = $2,
			password_hash = $3,
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// ListOthers returns every user except the one identified by excludeID.
func (r *UserRepository) ListOthers(ctx context.Context, excludeID string) ([]types.User, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE id <> $1
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListByIDs returns the users matching the given IDs, skipping unknown ones.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]types.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) scanOne(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func scanUser(rows *sql.Rows) (types.User, error) {
	var user types.User
	err := rows.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
