package model_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/hinagata/fieldspec"
	"github.com/ashita-ai/hinagata/internal/model"
)

func validDefinition() model.AgentDefinition {
	return model.AgentDefinition{
		Name:        "Article writer",
		Description: "Writes articles on demand",
		Prompt:      "Write an article about the topic below.",
		FormFields: []fieldspec.FieldSpec{
			{Label: "Topic", Type: fieldspec.TypeText, Placeholder: "topic"},
		},
	}
}

func TestValidateAgentDefinition_Valid(t *testing.T) {
	require.NoError(t, model.ValidateAgentDefinition(validDefinition()))

	// Fields are optional.
	d := validDefinition()
	d.FormFields = nil
	require.NoError(t, model.ValidateAgentDefinition(d))
}

func TestValidateAgentDefinition_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.AgentDefinition)
	}{
		{"empty name", func(d *model.AgentDefinition) { d.Name = "" }},
		{"name too long", func(d *model.AgentDefinition) { d.Name = strings.Repeat("a", 256) }},
		{"description too long", func(d *model.AgentDefinition) { d.Description = strings.Repeat("a", 2049) }},
		{"empty prompt", func(d *model.AgentDefinition) { d.Prompt = "" }},
		{"prompt too long", func(d *model.AgentDefinition) { d.Prompt = strings.Repeat("a", 64*1024+1) }},
		{"bad field spec", func(d *model.AgentDefinition) {
			d.FormFields = []fieldspec.FieldSpec{{Label: "X", Type: fieldspec.TypeText}}
		}},
		{"unknown field type", func(d *model.AgentDefinition) {
			d.FormFields = []fieldspec.FieldSpec{{Label: "X", Type: "checkbox", Placeholder: "x"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDefinition()
			tt.mutate(&d)
			assert.Error(t, model.ValidateAgentDefinition(d))
		})
	}
}

func TestAgentPatchValidate(t *testing.T) {
	name := "New name"
	empty := ""
	prompt := "New prompt"

	assert.NoError(t, model.AgentPatch{}.Validate())
	assert.NoError(t, model.AgentPatch{Name: &name, Prompt: &prompt}.Validate())
	assert.NoError(t, model.AgentPatch{FormFields: []fieldspec.FieldSpec{}}.Validate())

	assert.Error(t, model.AgentPatch{Name: &empty}.Validate())
	assert.Error(t, model.AgentPatch{Prompt: &empty}.Validate())
	assert.Error(t, model.AgentPatch{
		FormFields: []fieldspec.FieldSpec{{Label: "X"}},
	}.Validate())
}

func TestValidateUsername(t *testing.T) {
	valid := []string{
		"alice",
		"test-user",
		"user.v2",
		"User_01",
		"user@example",
		strings.Repeat("a", 64),
	}
	for _, name := range valid {
		require.NoError(t, model.ValidateUsername(name), "expected valid: %q", name)
	}

	invalid := []string{
		"",
		"ab",
		strings.Repeat("a", 65),
		"has space",
		"tab\tname",
		"emoji😀",
	}
	for _, name := range invalid {
		require.Error(t, model.ValidateUsername(name), "expected invalid: %q", name)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, model.ValidatePassword("longenough"))
	assert.Error(t, model.ValidatePassword("short"))
	assert.Error(t, model.ValidatePassword(strings.Repeat("a", 1025)))
}
