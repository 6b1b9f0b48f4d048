package hinagata

import (
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/hinagata/fieldspec"
)

// User is a registered account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AgentDefinition is a stored prompt template with its form fields.
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

// CreateAgentRequest is the body for CreateAgent.
type CreateAgentRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Prompt      string                `json:"prompt"`
	FormFields  []fieldspec.FieldSpec `json:"form_fields,omitempty"`
}

// UpdateAgentRequest is the body for UpdateAgent. Nil fields are left
// untouched on the server; a non-nil empty FormFields clears the fields.
// FormFields must not carry omitempty: an empty slice has to reach the wire
// as [] for the clear to happen, while nil serializes as null and is kept.
type UpdateAgentRequest struct {
	Name        *string               `json:"name,omitempty"`
	Description *string               `json:"description,omitempty"`
	Prompt      *string               `json:"prompt,omitempty"`
	FormFields  []fieldspec.FieldSpec `json:"form_fields"`
}

// HealthResponse is the server health report.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Postgres string `json:"postgres"`
	Uptime   int64  `json:"uptime_seconds"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type deleteResponse struct {
	Deleted uuid.UUID `json:"deleted"`
}
