package beneficiary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"lingap/internal/registry/models"
	"lingap/pkg/attrs"
	id "lingap/pkg/domain"
	"lingap/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// Postgres persists beneficiary records: structured identity columns plus
// the attribute map as JSONB. A partial unique index on the flattened
// idNumber attribute (non-deleted rows only) is the authoritative backstop
// behind the allocator's optimistic check.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const beneficiaryColumns = `
	b.id, b.first_name, b.last_name, b.middle_name, b.suffix, b.barangay_id,
	b.attributes, b.document_url, b.document_type, b.document_external_id,
	b.photo_url, b.photo_external_id, b.registered, b.deleted, b.deleted_at,
	b.archived, b.archive_reason, b.archive_date, b.created_at, b.updated_at`

func (s *Postgres) Create(ctx context.Context, record *models.BeneficiaryRecord) error {
	attributes, err := json.Marshal(record.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO beneficiaries
			(id, first_name, last_name, middle_name, suffix, barangay_id,
			 attributes, document_url, document_type, document_external_id,
			 photo_url, photo_external_id, registered, deleted, deleted_at,
			 archived, archive_reason, archive_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`, record.ID.String(), record.FirstName, record.LastName, record.MiddleName,
		record.Suffix, record.BarangayID.String(), attributes,
		record.DocumentURL, record.DocumentType, record.DocumentExternalID,
		record.PhotoURL, record.PhotoExternalID,
		record.Registered, record.Deleted, record.DeletedAt,
		record.Archived, record.ArchiveReason, record.ArchiveDate,
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrDuplicateIDNumber
		}
		return fmt.Errorf("insert beneficiary: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, record *models.BeneficiaryRecord) error {
	attributes, err := json.Marshal(record.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE beneficiaries SET
			first_name = $2, last_name = $3, middle_name = $4, suffix = $5,
			barangay_id = $6, attributes = $7,
			document_url = $8, document_type = $9, document_external_id = $10,
			photo_url = $11, photo_external_id = $12,
			registered = $13, deleted = $14, deleted_at = $15,
			archived = $16, archive_reason = $17, archive_date = $18,
			updated_at = $19
		WHERE id = $1
	`, record.ID.String(), record.FirstName, record.LastName, record.MiddleName,
		record.Suffix, record.BarangayID.String(), attributes,
		record.DocumentURL, record.DocumentType, record.DocumentExternalID,
		record.PhotoURL, record.PhotoExternalID,
		record.Registered, record.Deleted, record.DeletedAt,
		record.Archived, record.ArchiveReason, record.ArchiveDate,
		record.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrDuplicateIDNumber
		}
		return fmt.Errorf("update beneficiary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, recordID id.BeneficiaryID) (*models.BeneficiaryRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+beneficiaryColumns+` FROM beneficiaries b WHERE b.id = $1`,
		recordID.String())
	return scanBeneficiary(row)
}

func (s *Postgres) Delete(ctx context.Context, recordID id.BeneficiaryID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM beneficiaries WHERE id = $1`, recordID.String())
	if err != nil {
		return fmt.Errorf("delete beneficiary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) IDNumberInUse(ctx context.Context, idNumber string) (bool, error) {
	var inUse bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM beneficiaries b
			WHERE NOT b.deleted AND b.attributes->'idNumber'->>'value' = $1
		)
	`, idNumber).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("check id number: %w", err)
	}
	return inUse, nil
}

// HasDuplicate matches identity case-insensitively and trimmed against
// non-deleted records. A nil birthdate matches only records also lacking
// one: missing birthdate is its own equivalence class, never a wildcard.
func (s *Postgres) HasDuplicate(ctx context.Context, firstName, lastName string, birthdate *string, exclude id.BeneficiaryID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM beneficiaries b
			WHERE NOT b.deleted
			  AND lower(trim(b.first_name)) = lower(trim($1))
			  AND lower(trim(b.last_name)) = lower(trim($2))
			  AND b.id <> $3`
	args := []any{firstName, lastName, exclude.String()}
	if birthdate != nil {
		query += ` AND b.attributes->'birthdate'->>'value' = $4`
		args = append(args, *birthdate)
	} else {
		query += ` AND NOT (b.attributes ? 'birthdate')`
	}
	query += `)`

	var duplicate bool
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&duplicate); err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return duplicate, nil
}

// List compiles the filter predicate to SQL once and runs both the count
// and the page under it, keeping Total consistent with the rows returned
// (best-effort under concurrent writes, not snapshot-isolated).
func (s *Postgres) List(ctx context.Context, filter models.ListFilter, knownProviders []string) (*models.PageResult, error) {
	filter = filter.Normalize()
	where, args := buildWhere(filter, knownProviders)

	var total int
	countQuery := `SELECT count(*) FROM beneficiaries b JOIN barangays br ON br.id = b.barangay_id ` + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count beneficiaries: %w", err)
	}

	pageQuery := `SELECT ` + beneficiaryColumns +
		` FROM beneficiaries b JOIN barangays br ON br.id = b.barangay_id ` +
		where + orderClause(filter) +
		fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset())

	rows, err := s.pool.Query(ctx, pageQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	defer rows.Close()

	var items []*models.BeneficiaryRecord
	for rows.Next() {
		record, err := scanBeneficiary(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	return models.NewPageResult(items, total, filter.Limit), nil
}

// attrText flattens an attribute value for SQL comparison.
func attrText(key string) string {
	return fmt.Sprintf("b.attributes->'%s'->>'value'", key)
}

// attrFlag is the SQL rendition of attrs.Map.Flag.
func attrFlag(key string) string {
	return fmt.Sprintf(
		"(b.attributes ? '%s' AND lower(coalesce(%s, 'x')) NOT IN ('', 'no', 'none', 'n/a', 'false', '0'))",
		key, attrText(key))
}

func buildWhere(filter models.ListFilter, knownProviders []string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch filter.Scope {
	case models.ScopeDeleted:
		conds = append(conds, "b.deleted")
	case models.ScopeArchived:
		conds = append(conds, "b.archived AND NOT b.deleted")
	case models.ScopePending:
		conds = append(conds, "NOT b.registered AND NOT b.deleted")
	default:
		conds = append(conds, "b.registered AND NOT b.deleted AND NOT b.archived")
	}

	if !filter.BarangayID.IsNil() {
		conds = append(conds, "b.barangay_id = "+arg(filter.BarangayID.String()))
	}
	if filter.Gender != "" {
		conds = append(conds, fmt.Sprintf("lower(coalesce(%s, '')) = lower(%s)", attrText(models.KeyGender), arg(filter.Gender)))
	}
	if filter.HealthRemark != "" {
		conds = append(conds, fmt.Sprintf("lower(coalesce(%s, '')) = lower(%s)", attrText(models.KeyHealthRemark), arg(filter.HealthRemark)))
	}
	if filter.PensionProvider != "" {
		source := attrText(models.KeyPensionSource)
		if filter.PensionProvider == models.OthersProvider {
			others := []string{fmt.Sprintf("coalesce(%s, '') <> ''", source)}
			for _, known := range knownProviders {
				others = append(others, fmt.Sprintf("%s NOT ILIKE %s", source, arg("%"+known+"%")))
			}
			conds = append(conds, "("+strings.Join(others, " AND ")+")")
		} else {
			conds = append(conds, fmt.Sprintf("%s ILIKE %s", source, arg("%"+filter.PensionProvider+"%")))
		}
	}
	if min, max, ok := filter.AgeBounds(); ok {
		age := fmt.Sprintf("date_part('year', age(now(), (%s)::date))", attrText(models.KeyBirthdate))
		cond := fmt.Sprintf("(b.attributes ? '%s' AND %s >= %s", models.KeyBirthdate, age, arg(min))
		if max >= 0 {
			cond += fmt.Sprintf(" AND %s <= %s", age, arg(max))
		}
		conds = append(conds, cond+")")
	}
	for key, wanted := range map[string]bool{
		models.KeyBooklet:       filter.Booklet,
		models.KeyUTP:           filter.UTP,
		models.KeyTransferee:    filter.Transferee,
		models.KeyPDL:           filter.PDL,
		models.KeyPWD:           filter.PWD,
		models.KeyIPAffiliation: filter.IPMember,
	} {
		if wanted {
			conds = append(conds, attrFlag(key))
		}
	}
	if filter.Search != "" {
		pattern := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf(
			`(b.first_name ILIKE %[1]s OR b.last_name ILIKE %[1]s OR coalesce(b.middle_name, '') ILIKE %[1]s
			  OR coalesce(b.suffix, '') ILIKE %[1]s OR br.name ILIKE %[1]s OR coalesce(%[2]s, '') ILIKE %[1]s)`,
			pattern, attrText(attrs.KeyIDNumber)))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(filter models.ListFilter) string {
	var column string
	switch filter.SortBy {
	case "firstName":
		column = "lower(b.first_name)"
	case "createdAt":
		column = "b.created_at"
	case "idNumber":
		column = attrText(attrs.KeyIDNumber)
	case "barangay":
		column = "lower(br.name)"
	default:
		column = "lower(b.last_name)"
	}
	direction := " ASC"
	if filter.SortDesc {
		direction = " DESC"
	}
	return " ORDER BY " + column + direction + ", b.id"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBeneficiary(row rowScanner) (*models.BeneficiaryRecord, error) {
	var (
		record        models.BeneficiaryRecord
		rawID         string
		rawBarangayID string
		rawAttributes []byte
	)
	err := row.Scan(&rawID, &record.FirstName, &record.LastName, &record.MiddleName,
		&record.Suffix, &rawBarangayID, &rawAttributes,
		&record.DocumentURL, &record.DocumentType, &record.DocumentExternalID,
		&record.PhotoURL, &record.PhotoExternalID,
		&record.Registered, &record.Deleted, &record.DeletedAt,
		&record.Archived, &record.ArchiveReason, &record.ArchiveDate,
		&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan beneficiary: %w", err)
	}

	recordID, err := id.ParseBeneficiaryID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored beneficiary id invalid: %w", err)
	}
	record.ID = recordID
	barangayID, err := id.ParseBarangayID(rawBarangayID)
	if err != nil {
		return nil, fmt.Errorf("stored barangay id invalid: %w", err)
	}
	record.BarangayID = barangayID

	if len(rawAttributes) > 0 {
		if err := json.Unmarshal(rawAttributes, &record.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}
	return &record, nil
}
