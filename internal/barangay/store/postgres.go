package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"lingap/internal/barangay/models"
	id "lingap/pkg/domain"
	"lingap/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// Postgres persists barangays. Unique indexes on lower(name) and
// control_code back the store-level uniqueness contract.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) CreateIfAvailable(ctx context.Context, b *models.Barangay) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO barangays (id, name, control_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, b.ID.String(), b.Name, b.ControlCode, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert barangay: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, barangayID id.BarangayID) (*models.Barangay, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, control_code, created_at, updated_at
		FROM barangays WHERE id = $1
	`, barangayID.String())
	return scanBarangay(row)
}

func (s *Postgres) FindByName(ctx context.Context, name string) (*models.Barangay, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, control_code, created_at, updated_at
		FROM barangays WHERE lower(name) = lower($1)
	`, name)
	return scanBarangay(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Barangay, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, control_code, created_at, updated_at
		FROM barangays ORDER BY lower(name)
	`)
	if err != nil {
		return nil, fmt.Errorf("list barangays: %w", err)
	}
	defer rows.Close()

	var out []*models.Barangay
	for rows.Next() {
		b, err := scanBarangay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBarangay(row rowScanner) (*models.Barangay, error) {
	var (
		b   models.Barangay
		raw string
	)
	if err := row.Scan(&raw, &b.Name, &b.ControlCode, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan barangay: %w", err)
	}
	parsed, err := id.ParseBarangayID(raw)
	if err != nil {
		return nil, fmt.Errorf("stored barangay id invalid: %w", err)
	}
	b.ID = parsed
	return &b, nil
}
