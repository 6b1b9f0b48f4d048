package mcp

import (
	"github.com/ashita-ai/hinagata/internal/model"
)

// compactAgent returns a minimal representation of an agent definition for
// MCP responses. Drops timestamps and the owner id, which clients don't
// act on; empty optional fields are omitted.
func compactAgent(def model.AgentDefinition) map[string]any {
	m := map[string]any{
		"id":          def.ID,
		"name":        def.Name,
		"prompt_name": promptName(def),
	}
	if def.Description != "" {
		m["description"] = def.Description
	}
	if def.OwnerName != "" {
		m["owner"] = def.OwnerName
	}
	if len(def.FormFields) > 0 {
		fields := make([]map[string]any, 0, len(def.FormFields))
		for _, f := range def.FormFields {
			fm := map[string]any{
				"label":       f.Label,
				"type":        f.Type,
				"placeholder": f.Placeholder,
			}
			if f.Default != "" {
				fm["default"] = f.Default
			}
			fields = append(fields, fm)
		}
		m["form_fields"] = fields
	}
	return m
}
