package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ashita-ai/hinagata/internal/authz"
	"github.com/ashita-ai/hinagata/internal/model"
)

// HandleListAgents handles GET /agents. The listing is public.
func (h *Handlers) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.db.ListAgents(r.Context())
	if err != nil {
		h.writeInternalError(w, r, "failed to list agents", err)
		return
	}
	if agents == nil {
		agents = []model.AgentDefinition{}
	}
	writeJSON(w, r, http.StatusOK, agents)
}

// HandleCreateAgent handles POST /agents.
func (h *Handlers) HandleCreateAgent(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}

	var req model.CreateAgentRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	def := model.AgentDefinition{
		Name:        req.Name,
		Description: req.Description,
		Prompt:      req.Prompt,
		FormFields:  req.FormFields,
		OwnerID:     requester,
	}
	if err := model.ValidateAgentDefinition(def); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	created, err := h.db.CreateAgent(r.Context(), def)
	if err != nil {
		h.writeInternalError(w, r, "failed to create agent", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, created)
}

// HandleUpdateAgent handles PUT /agents/{id}. Owner only; the patch is
// restricted to name, description, prompt, and form_fields.
func (h *Handlers) HandleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req model.UpdateAgentRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	patch := model.AgentPatch{
		Name:        req.Name,
		Description: req.Description,
		Prompt:      req.Prompt,
		FormFields:  req.FormFields,
	}
	if err := patch.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	// Load the record first: the ownership check runs before any mutation.
	existing, err := h.db.GetAgent(r.Context(), id)
	if err != nil {
		h.writeStorageError(w, r, err, "failed to load agent")
		return
	}
	if authz.CanMutate(existing.OwnerID, requester) != authz.Allow {
		writeError(w, r, http.StatusForbidden, model.ErrCodeForbidden, "only the owner may update this agent")
		return
	}

	updated, err := h.db.UpdateAgent(r.Context(), id, patch)
	if err != nil {
		h.writeStorageError(w, r, err, "failed to update agent")
		return
	}

	writeJSON(w, r, http.StatusOK, updated)
}

// HandleDeleteAgent handles DELETE /agents/{id}. Owner only.
func (h *Handlers) HandleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	existing, err := h.db.GetAgent(r.Context(), id)
	if err != nil {
		h.writeStorageError(w, r, err, "failed to load agent")
		return
	}
	if authz.CanMutate(existing.OwnerID, requester) != authz.Allow {
		writeError(w, r, http.StatusForbidden, model.ErrCodeForbidden, "only the owner may delete this agent")
		return
	}

	if err := h.db.DeleteAgent(r.Context(), id); err != nil {
		h.writeStorageError(w, r, err, "failed to delete agent")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"deleted": id.String()})
}

// HandleCloneAgent handles POST /agents/{id}/clone. Any authenticated user
// may clone any agent; the copy belongs to the requester.
func (h *Handlers) HandleCloneAgent(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requesterID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	clone, err := h.db.CloneAgent(r.Context(), id, requester)
	if err != nil {
		h.writeStorageError(w, r, err, "failed to clone agent")
		return
	}

	writeJSON(w, r, http.StatusCreated, clone)
}

// requesterID resolves the authenticated user's id from the request claims.
// Writes an error response and returns false when the claims are absent.
func (h *Handlers) requesterID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "no claims in context")
		return uuid.Nil, false
	}
	id, err := claims.UserID()
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid token subject")
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses the {id} path segment as a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid agent id")
		return uuid.Nil, false
	}
	return id, true
}
