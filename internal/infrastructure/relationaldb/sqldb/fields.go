package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

const fieldColumns = `id, entity_type, name, label, value_type, required, enum_values, default_value, position, created_at`

// SaveFieldDefinition inserts a definition.
func (r *Repository) SaveFieldDefinition(ctx context.Context, def *entities.FieldDefinition) error {
	var defaultJSON sql.NullString
	if def.DefaultValue != nil {
		data, err := json.Marshal(def.DefaultValue)
		if err != nil {
			return fmt.Errorf("marshaling default value: %w", err)
		}
		defaultJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO field_definitions (` + fieldColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.exec(ctx, query,
		def.ID,
		string(def.EntityType),
		def.Name,
		def.Label,
		string(def.ValueType),
		def.Required,
		def.EnumValues,
		defaultJSON,
		def.Position,
		def.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("field %s.%s: %w", def.EntityType.Plural(), def.Name, entities.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("saving field definition: %w", err)
	}
	return nil
}

// FindFieldDefinition finds a definition by entity type and name.
func (r *Repository) FindFieldDefinition(ctx context.Context, entityType entities.EntityType, name string) (*entities.FieldDefinition, error) {
	query := `SELECT ` + fieldColumns + ` FROM field_definitions WHERE entity_type = ? AND name = ?`
	def, err := scanFieldDefinition(r.queryRow(ctx, query, string(entityType), name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning field definition: %w", err)
	}
	return def, nil
}

// ListFieldDefinitions lists definitions ordered by position then creation.
func (r *Repository) ListFieldDefinitions(ctx context.Context, entityType entities.EntityType) ([]entities.FieldDefinition, error) {
	query := `SELECT ` + fieldColumns + ` FROM field_definitions`
	var args []any
	if entityType != "" {
		query += ` WHERE entity_type = ?`
		args = append(args, string(entityType))
	}
	query += ` ORDER BY position, created_at, id`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing field definitions: %w", err)
	}
	defer rows.Close()

	result := []entities.FieldDefinition{}
	for rows.Next() {
		def, err := scanFieldDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning field definition: %w", err)
		}
		result = append(result, *def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating field definitions: %w", err)
	}
	return result, nil
}

// DeleteFieldDefinition removes a definition.
func (r *Repository) DeleteFieldDefinition(ctx context.Context, entityType entities.EntityType, name string) error {
	_, err := r.exec(ctx, `DELETE FROM field_definitions WHERE entity_type = ? AND name = ?`, string(entityType), name)
	if err != nil {
		return fmt.Errorf("deleting field definition: %w", err)
	}
	return nil
}

func scanFieldDefinition(row rowScanner) (*entities.FieldDefinition, error) {
	var def entities.FieldDefinition
	var entityType, valueType string
	var defaultJSON sql.NullString
	err := row.Scan(
		&def.ID,
		&entityType,
		&def.Name,
		&def.Label,
		&valueType,
		&def.Required,
		&def.EnumValues,
		&defaultJSON,
		&def.Position,
		&def.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	def.EntityType = entities.EntityType(entityType)
	def.ValueType = entities.ValueType(valueType)
	def.CreatedAt = def.CreatedAt.UTC()
	if defaultJSON.Valid && defaultJSON.String != "" {
		if err := json.Unmarshal([]byte(defaultJSON.String), &def.DefaultValue); err != nil {
			return nil, fmt.Errorf("unmarshaling default value: %w", err)
		}
	}
	return &def, nil
}
