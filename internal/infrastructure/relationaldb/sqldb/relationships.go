package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

const relationshipColumns = `id, source_id, source_type, target_id, target_type, relationship_type, metadata, created_at`

// SaveRelationship inserts or replaces a relationship.
func (r *Repository) SaveRelationship(ctx context.Context, rel *entities.Relationship) error {
	query := `
		INSERT INTO relationships (` + relationshipColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			relationship_type = excluded.relationship_type,
			metadata = excluded.metadata
	`
	_, err := r.exec(ctx, query,
		rel.ID,
		rel.SourceID,
		string(rel.SourceType),
		rel.TargetID,
		string(rel.TargetType),
		rel.RelationshipType,
		rel.Metadata,
		rel.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving relationship: %w", err)
	}
	return nil
}

// FindRelationshipByID finds a relationship by its ID.
func (r *Repository) FindRelationshipByID(ctx context.Context, id string) (*entities.Relationship, error) {
	row := r.queryRow(ctx, `SELECT `+relationshipColumns+` FROM relationships WHERE id = ?`, id)

	rel, err := scanRelationship(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning relationship: %w", err)
	}
	return rel, nil
}

// ListRelationships lists relationships in creation order.
func (r *Repository) ListRelationships(ctx context.Context, limit, offset int) ([]*entities.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships ORDER BY created_at, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	defer rows.Close()

	result := []*entities.Relationship{}
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		result = append(result, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relationships: %w", err)
	}
	return result, nil
}

// CountRelationships returns the total number of relationships in the database.
func (r *Repository) CountRelationships(ctx context.Context) (int, error) {
	var count int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM relationships`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting relationships: %w", err)
	}
	return count, nil
}

// DeleteRelationship deletes a relationship by ID.
func (r *Repository) DeleteRelationship(ctx context.Context, id string) error {
	if _, err := r.exec(ctx, `DELETE FROM relationships WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	return nil
}

func scanRelationship(row rowScanner) (*entities.Relationship, error) {
	var rel entities.Relationship
	var sourceType, targetType string
	err := row.Scan(
		&rel.ID,
		&rel.SourceID,
		&sourceType,
		&rel.TargetID,
		&targetType,
		&rel.RelationshipType,
		&rel.Metadata,
		&rel.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rel.SourceType = entities.EntityType(sourceType)
	rel.TargetType = entities.EntityType(targetType)
	rel.CreatedAt = rel.CreatedAt.UTC()
	return &rel, nil
}
