package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/hinagata/fieldspec"
)

// AgentDefinition is a reusable prompt template with an optional ordered
// list of fill-in fields. FormFields order is both the render order and the
// order of composed lines.
type AgentDefinition struct {
	ID          uuid.UUID             `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Prompt      string                `json:"prompt"`
	FormFields  []fieldspec.FieldSpec `json:"form_fields"`
	OwnerID     uuid.UUID             `json:"owner_id"`
	OwnerName   string                `json:"owner_name,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// MaxNameLen caps agent and user names; MaxPromptLen caps template text so a
// single record cannot fill a TEXT column with caller-controlled garbage.
const (
	MaxNameLen        = 255
	MaxDescriptionLen = 2048
	MaxPromptLen      = 64 * 1024 // 64 KB
	MaxFormFields     = 64
)

// ValidateAgentDefinition checks the caller-supplied parts of a definition
// before it reaches storage. Owner, id, and timestamps are server-assigned
// and not checked here.
func ValidateAgentDefinition(d AgentDefinition) error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(d.Name) > MaxNameLen {
		return fmt.Errorf("name must be at most %d characters", MaxNameLen)
	}
	if len(d.Description) > MaxDescriptionLen {
		return fmt.Errorf("description must be at most %d characters", MaxDescriptionLen)
	}
	if d.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if len(d.Prompt) > MaxPromptLen {
		return fmt.Errorf("prompt must be at most %d bytes", MaxPromptLen)
	}
	if len(d.FormFields) > MaxFormFields {
		return fmt.Errorf("form_fields must have at most %d elements", MaxFormFields)
	}
	if err := fieldspec.Validate(d.FormFields); err != nil {
		return fmt.Errorf("form_fields: %w", err)
	}
	return nil
}

// AgentPatch is a partial update for an agent definition. Nil pointers leave
// the column untouched. ID, owner, and timestamps are never patchable.
type AgentPatch struct {
	Name        *string
	Description *string
	Prompt      *string
	FormFields  []fieldspec.FieldSpec // nil = untouched, empty = clear
}

// Validate checks only the fields the patch sets.
func (p AgentPatch) Validate() error {
	if p.Name != nil {
		if *p.Name == "" {
			return fmt.Errorf("name must not be empty")
		}
		if len(*p.Name) > MaxNameLen {
			return fmt.Errorf("name must be at most %d characters", MaxNameLen)
		}
	}
	if p.Description != nil && len(*p.Description) > MaxDescriptionLen {
		return fmt.Errorf("description must be at most %d characters", MaxDescriptionLen)
	}
	if p.Prompt != nil {
		if *p.Prompt == "" {
			return fmt.Errorf("prompt must not be empty")
		}
		if len(*p.Prompt) > MaxPromptLen {
			return fmt.Errorf("prompt must be at most %d bytes", MaxPromptLen)
		}
	}
	if p.FormFields != nil {
		if len(p.FormFields) > MaxFormFields {
			return fmt.Errorf("form_fields must have at most %d elements", MaxFormFields)
		}
		if err := fieldspec.Validate(p.FormFields); err != nil {
			return fmt.Errorf("form_fields: %w", err)
		}
	}
	return nil
}
