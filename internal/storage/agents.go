package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/hinagata/fieldspec"
	"github.com/ashita-ai/hinagata/internal/model"
)

// CreateAgent inserts a new agent definition. The id and timestamps are
// assigned here; the caller sets OwnerID from the authenticated identity.
func (db *DB) CreateAgent(ctx context.Context, def model.AgentDefinition) (model.AgentDefinition, error) {
	def.ID = uuid.New()
	now := time.Now().UTC()
	def.CreatedAt = now
	def.UpdatedAt = now
	if def.FormFields == nil {
		def.FormFields = []fieldspec.FieldSpec{}
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO agents (id, name, description, prompt, form_fields, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		def.ID, def.Name, def.Description, def.Prompt, def.FormFields,
		def.OwnerID, def.CreatedAt, def.UpdatedAt,
	)
	if err != nil {
		return model.AgentDefinition{}, fmt.Errorf("storage: create agent: %w", err)
	}
	return def, nil
}

// GetAgent retrieves an agent definition by id with the owner's username.
func (db *DB) GetAgent(ctx context.Context, id uuid.UUID) (model.AgentDefinition, error) {
	var a model.AgentDefinition
	err := db.pool.QueryRow(ctx,
		`SELECT a.id, a.name, a.description, a.prompt, a.form_fields,
		        a.owner_id, COALESCE(u.username, ''), a.created_at, a.updated_at
		 FROM agents a LEFT JOIN users u ON u.id = a.owner_id
		 WHERE a.id = $1`, id,
	).Scan(
		&a.ID, &a.Name, &a.Description, &a.Prompt, &a.FormFields,
		&a.OwnerID, &a.OwnerName, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AgentDefinition{}, fmt.Errorf("storage: agent %s: %w", id, ErrNotFound)
		}
		return model.AgentDefinition{}, fmt.Errorf("storage: get agent: %w", err)
	}
	return a, nil
}

// ListAgents returns all agent definitions in creation order with owner
// usernames.
func (db *DB) ListAgents(ctx context.Context) ([]model.AgentDefinition, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT a.id, a.name, a.description, a.prompt, a.form_fields,
		        a.owner_id, COALESCE(u.username, ''), a.created_at, a.updated_at
		 FROM agents a LEFT JOIN users u ON u.id = a.owner_id
		 ORDER BY a.created_at ASC, a.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list agents: %w", err)
	}
	defer rows.Close()

	var agents []model.AgentDefinition
	for rows.Next() {
		var a model.AgentDefinition
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Description, &a.Prompt, &a.FormFields,
			&a.OwnerID, &a.OwnerName, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage: scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// UpdateAgent performs a partial update of an agent definition. Only the
// fields the patch sets are applied (COALESCE pattern); id, owner_id, and
// created_at never change. Returns the updated definition.
func (db *DB) UpdateAgent(ctx context.Context, id uuid.UUID, patch model.AgentPatch) (model.AgentDefinition, error) {
	// A nil slice must reach Postgres as SQL NULL, not 'null'::jsonb,
	// so COALESCE keeps the stored value.
	var fields any
	if patch.FormFields != nil {
		fields = patch.FormFields
	}

	var a model.AgentDefinition
	err := db.pool.QueryRow(ctx,
		`UPDATE agents
		 SET name = COALESCE($1, name),
		     description = COALESCE($2, description),
		     prompt = COALESCE($3, prompt),
		     form_fields = COALESCE($4::jsonb, form_fields),
		     updated_at = now()
		 WHERE id = $5
		 RETURNING id, name, description, prompt, form_fields, owner_id, created_at, updated_at`,
		patch.Name, patch.Description, patch.Prompt, fields, id,
	).Scan(
		&a.ID, &a.Name, &a.Description, &a.Prompt, &a.FormFields,
		&a.OwnerID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AgentDefinition{}, fmt.Errorf("storage: agent %s: %w", id, ErrNotFound)
		}
		return model.AgentDefinition{}, fmt.Errorf("storage: update agent: %w", err)
	}
	return a, nil
}

// DeleteAgent removes an agent definition by id.
func (db *DB) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: agent %s: %w", id, ErrNotFound)
	}
	return nil
}

// CloneAgent copies an existing definition into a new record owned by
// newOwner. The copy gets a fresh id and fresh timestamps and keeps no
// reference to its source. A single INSERT..SELECT makes the copy atomic.
func (db *DB) CloneAgent(ctx context.Context, id uuid.UUID, newOwner uuid.UUID) (model.AgentDefinition, error) {
	newID := uuid.New()
	now := time.Now().UTC()

	var a model.AgentDefinition
	err := db.pool.QueryRow(ctx,
		`INSERT INTO agents (id, name, description, prompt, form_fields, owner_id, created_at, updated_at)
		 SELECT $1, name, description, prompt, form_fields, $2, $3, $3
		 FROM agents WHERE id = $4
		 RETURNING id, name, description, prompt, form_fields, owner_id, created_at, updated_at`,
		newID, newOwner, now, id,
	).Scan(
		&a.ID, &a.Name, &a.Description, &a.Prompt, &a.FormFields,
		&a.OwnerID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AgentDefinition{}, fmt.Errorf("storage: agent %s: %w", id, ErrNotFound)
		}
		return model.AgentDefinition{}, fmt.Errorf("storage: clone agent: %w", err)
	}
	return a, nil
}

// CountAgents returns the number of stored agent definitions.
func (db *DB) CountAgents(ctx context.Context) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM agents`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("storage: count agents: %w", err)
	}
	return count, nil
}
