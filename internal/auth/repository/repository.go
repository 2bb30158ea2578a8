package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("operator not found")

// Operator is a dashboard user allowed to run campaigns.
type Operator struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetOperatorByEmail(ctx context.Context, email string) (Operator, error) {
	var op Operator
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM operators
		WHERE LOWER(email) = LOWER($1)`,
		email,
	).Scan(&op.ID, &op.Email, &op.Name, &op.PasswordHash, &op.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Operator{}, ErrNotFound
	}
	if err != nil {
		return Operator{}, err
	}
	return op, nil
}

func (r *Repository) GetOperator(ctx context.Context, id uuid.UUID) (Operator, error) {
	var op Operator
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM operators
		WHERE id = $1`,
		id,
	).Scan(&op.ID, &op.Email, &op.Name, &op.PasswordHash, &op.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Operator{}, ErrNotFound
	}
	if err != nil {
		return Operator{}, err
	}
	return op, nil
}

func (r *Repository) CreateOperator(ctx context.Context, email, name, passwordHash string) (Operator, error) {
	op := Operator{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO operators (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		op.ID, op.Email, op.Name, op.PasswordHash,
	).Scan(&op.CreatedAt)
	if err != nil {
		return Operator{}, err
	}
	return op, nil
}
