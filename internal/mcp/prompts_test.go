package mcp

import (
	"testing"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/hinagata/fieldspec"
	"github.com/ashita-ai/hinagata/internal/model"
)

func sampleDefinition() model.AgentDefinition {
	return model.AgentDefinition{
		ID:          uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Name:        "Code reviewer",
		Description: "Reviews diffs",
		Prompt:      "Review the diff below.",
		FormFields: []fieldspec.FieldSpec{
			{Label: "Diff", Type: fieldspec.TypeTextarea, Placeholder: "diff"},
			{Label: "Focus", Type: fieldspec.TypeText, Placeholder: "focus", Default: "correctness"},
		},
		OwnerName: "alice",
	}
}

func TestPromptName(t *testing.T) {
	def := sampleDefinition()
	name := promptName(def)
	assert.Equal(t, "Code reviewer [11111111]", name)

	// Same name, different id yields a distinct prompt name.
	other := def
	other.ID = uuid.MustParse("99999999-2222-3333-4444-555555555555")
	assert.NotEqual(t, name, promptName(other))
}

func TestPromptFromAgent(t *testing.T) {
	def := sampleDefinition()
	p := promptFromAgent(def)

	assert.Equal(t, promptName(def), p.Name)
	assert.Equal(t, "Reviews diffs", p.Description)
	require.Len(t, p.Arguments, 2)
	assert.Equal(t, "diff", p.Arguments[0].Name)
	assert.Equal(t, "Diff", p.Arguments[0].Description)
	assert.Equal(t, "focus", p.Arguments[1].Name)
}

func TestPromptResult(t *testing.T) {
	def := sampleDefinition()

	result := promptResult(def, map[string]string{"diff": "+1 -1"})
	assert.Equal(t, "Reviews diffs", result.Description)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, mcplib.RoleUser, result.Messages[0].Role)

	tc, ok := result.Messages[0].Content.(mcplib.TextContent)
	require.True(t, ok, "message content should be TextContent")
	assert.Contains(t, tc.Text, "Review the diff below.")
	assert.Contains(t, tc.Text, "diff: +1 -1")
	assert.Contains(t, tc.Text, "focus: correctness")
}

func TestParseValues(t *testing.T) {
	values, err := parseValues("")
	require.NoError(t, err)
	assert.Nil(t, values)

	values, err = parseValues(`{"topic": "compilers"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"topic": "compilers"}, values)

	_, err = parseValues(`["not", "an", "object"]`)
	require.Error(t, err)

	_, err = parseValues(`{"n": 3}`)
	require.Error(t, err, "non-string values are rejected")
}

func TestCompactAgent(t *testing.T) {
	def := sampleDefinition()
	m := compactAgent(def)

	assert.Equal(t, def.ID, m["id"])
	assert.Equal(t, "Code reviewer", m["name"])
	assert.Equal(t, promptName(def), m["prompt_name"])
	assert.Equal(t, "alice", m["owner"])

	fields, ok := m["form_fields"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "diff", fields[0]["placeholder"])
	_, hasDefault := fields[0]["default"]
	assert.False(t, hasDefault, "empty default is omitted")
	assert.Equal(t, "correctness", fields[1]["default"])

	// Bare definition omits the optional keys.
	bare := compactAgent(model.AgentDefinition{ID: def.ID, Name: "Bare"})
	_, hasDesc := bare["description"]
	assert.False(t, hasDesc)
	_, hasFields := bare["form_fields"]
	assert.False(t, hasFields)
}
