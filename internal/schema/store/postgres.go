package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"lingap/internal/schema/models"
	id "lingap/pkg/domain"
	"lingap/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// Postgres persists the intake schema. Unique indexes on lower(name) and
// lower(label) back the duplicate-field contract.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) CreateFieldIfAvailable(ctx context.Context, def *models.FieldDefinition) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO schema_fields
			(id, name, label, kind, options, required, group_key, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, def.ID.String(), def.Name, def.Label, string(def.Kind), def.Options,
		def.Required, def.GroupKey, def.DisplayOrder, def.CreatedAt, def.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert schema field: %w", err)
	}
	return nil
}

func (s *Postgres) DeleteField(ctx context.Context, fieldID id.FieldID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM schema_fields WHERE id = $1`, fieldID.String())
	if err != nil {
		return fmt.Errorf("delete schema field: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListFields(ctx context.Context) ([]*models.FieldDefinition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, label, kind, options, required, group_key, display_order, created_at, updated_at
		FROM schema_fields
		ORDER BY group_key, display_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list schema fields: %w", err)
	}
	defer rows.Close()

	var out []*models.FieldDefinition
	for rows.Next() {
		var (
			def  models.FieldDefinition
			raw  string
			kind string
		)
		if err := rows.Scan(&raw, &def.Name, &def.Label, &kind, &def.Options,
			&def.Required, &def.GroupKey, &def.DisplayOrder, &def.CreatedAt, &def.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan schema field: %w", err)
		}
		fieldID, err := id.ParseFieldID(raw)
		if err != nil {
			return nil, fmt.Errorf("stored field id invalid: %w", err)
		}
		def.ID = fieldID
		def.Kind = models.FieldKind(kind)
		out = append(out, &def)
	}
	return out, rows.Err()
}

func (s *Postgres) NextDisplayOrder(ctx context.Context, groupKey string) (int, error) {
	var next int
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(display_order), 0) + 1 FROM schema_fields WHERE group_key = $1
	`, groupKey).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next display order: %w", err)
	}
	return next, nil
}

func (s *Postgres) SaveGroup(ctx context.Context, group *models.FieldGroup) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO schema_groups (key, label, display_order)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET label = EXCLUDED.label, display_order = EXCLUDED.display_order
	`, group.Key, group.Label, group.DisplayOrder)
	if err != nil {
		return fmt.Errorf("save schema group: %w", err)
	}
	return nil
}

func (s *Postgres) ListGroups(ctx context.Context) ([]*models.FieldGroup, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT key, label, display_order FROM schema_groups ORDER BY display_order, key
	`)
	if err != nil {
		return nil, fmt.Errorf("list schema groups: %w", err)
	}
	defer rows.Close()

	var out []*models.FieldGroup
	for rows.Next() {
		var g models.FieldGroup
		if err := rows.Scan(&g.Key, &g.Label, &g.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan schema group: %w", err)
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}
