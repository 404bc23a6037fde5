package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

const entityColumns = `id, type, name, industry, company_size, tax_id, first_name, last_name,
	tags, email, phone, status, custom_fields, created_at, updated_at`

// SaveEntity inserts or replaces an entity by ID.
func (r *Repository) SaveEntity(ctx context.Context, e *entities.Entity) error {
	query := `
		INSERT INTO entities (id, type, name, industry, company_size, tax_id, first_name, last_name,
			tags, email, phone, status, custom_fields, search_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			industry = excluded.industry,
			company_size = excluded.company_size,
			tax_id = excluded.tax_id,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			tags = excluded.tags,
			email = excluded.email,
			phone = excluded.phone,
			status = excluded.status,
			custom_fields = excluded.custom_fields,
			search_text = excluded.search_text,
			updated_at = excluded.updated_at
	`
	_, err := r.exec(ctx, query,
		e.ID,
		string(e.Type),
		e.Name,
		e.Industry,
		e.CompanySize,
		e.TaxID,
		e.FirstName,
		e.LastName,
		e.Tags,
		e.Email,
		e.Phone,
		e.Status,
		e.CustomFields,
		e.SearchText(),
		e.CreatedAt.UTC(),
		e.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving entity: %w", err)
	}
	return nil
}

// UpdateEntity replaces an entity whose updated_at still equals prev.
func (r *Repository) UpdateEntity(ctx context.Context, e *entities.Entity, prev time.Time) error {
	query := `
		UPDATE entities SET
			name = ?, industry = ?, company_size = ?, tax_id = ?, first_name = ?, last_name = ?,
			tags = ?, email = ?, phone = ?, status = ?, custom_fields = ?, search_text = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?
	`
	res, err := r.exec(ctx, query,
		e.Name,
		e.Industry,
		e.CompanySize,
		e.TaxID,
		e.FirstName,
		e.LastName,
		e.Tags,
		e.Email,
		e.Phone,
		e.Status,
		e.CustomFields,
		e.SearchText(),
		e.UpdatedAt.UTC(),
		e.ID,
		prev.UTC(),
	)
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}
	if n > 0 {
		return nil
	}

	current, err := r.FindEntityByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("entity %s: %w", e.ID, entities.ErrNotFound)
	}
	return fmt.Errorf("entity %s: %w", e.ID, entities.ErrConflict)
}

// FindEntityByID finds an entity by its ID.
func (r *Repository) FindEntityByID(ctx context.Context, id string) (*entities.Entity, error) {
	row := r.queryRow(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ?`, id)

	e, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entity: %w", err)
	}
	return e, nil
}

// lookupColumns are the columns FindEntityByField may match on.
var lookupColumns = map[string]bool{"name": true, "email": true, "tax_id": true}

// FindEntityByField returns the oldest entity whose field matches value
// case-insensitively.
func (r *Repository) FindEntityByField(ctx context.Context, t entities.EntityType, field, value string) (*entities.Entity, error) {
	if !lookupColumns[field] {
		return nil, fmt.Errorf("unsupported lookup field %q", field)
	}
	query := `SELECT ` + entityColumns + ` FROM entities
		WHERE type = ? AND LOWER(` + field + `) = ?
		ORDER BY created_at, id LIMIT 1`

	e, err := scanEntity(r.queryRow(ctx, query, string(t), strings.ToLower(value)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entity: %w", err)
	}
	return e, nil
}

// FindEntitiesByIDs returns the entities that exist among ids.
func (r *Repository) FindEntitiesByIDs(ctx context.Context, ids []string) (map[string]*entities.Entity, error) {
	result := make(map[string]*entities.Entity, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + entityColumns + ` FROM entities WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.query(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		result[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return result, nil
}

// ListEntities lists entities matching the filter in creation order.
func (r *Repository) ListEntities(ctx context.Context, filter entities.EntityFilter, limit, offset int) ([]*entities.Entity, error) {
	where, args := entityWhere(filter)
	query := `SELECT ` + entityColumns + ` FROM entities` + where + ` ORDER BY created_at, id`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	result := []*entities.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return result, nil
}

// CountEntities counts entities matching the filter.
func (r *Repository) CountEntities(ctx context.Context, filter entities.EntityFilter) (int, error) {
	where, args := entityWhere(filter)

	var count int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM entities`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting entities: %w", err)
	}
	return count, nil
}

// DeleteEntity deletes an entity by ID.
func (r *Repository) DeleteEntity(ctx context.Context, id string) error {
	if _, err := r.exec(ctx, `DELETE FROM entities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	return nil
}

// entityWhere builds the WHERE clause for a filter. search_text is stored
// lower-cased, so a plain LIKE is case-insensitive in both dialects.
func entityWhere(filter entities.EntityFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	if q := entities.NormalizeSearch(filter.Search); q != "" {
		conds = append(conds, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q)+"%")
	}
	if len(conds) == 0 {
		return "", args
	}
	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*entities.Entity, error) {
	var e entities.Entity
	var entityType string
	err := row.Scan(
		&e.ID,
		&entityType,
		&e.Name,
		&e.Industry,
		&e.CompanySize,
		&e.TaxID,
		&e.FirstName,
		&e.LastName,
		&e.Tags,
		&e.Email,
		&e.Phone,
		&e.Status,
		&e.CustomFields,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Type = entities.EntityType(entityType)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}
