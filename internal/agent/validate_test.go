package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDefinition(t *testing.T, name string) *Definition {
	t.Helper()
	r, err := DefaultRegistry()
	require.NoError(t, err)
	def, ok := r.Get(name)
	require.True(t, ok, "agent %s not registered", name)
	return def
}

func TestValidateAccepts(t *testing.T) {
	def := mustDefinition(t, ColdEmail)

	v := Validate(def, map[string]any{
		"recipientRole": "  Head of Sales ",
		"product":       "MailPilot",
		"goal":          "book more demos",
		"tone":          "friendly",
		"senderName":    "  Ana  ",
		"userId":        "u-1",
		"unknown":       42,
	})
	require.True(t, v.OK, v.Error)
	assert.Equal(t, ColdEmail, v.Value.Agent)
	assert.Equal(t, Fields{
		"recipientRole": "Head of Sales",
		"product":       "MailPilot",
		"goal":          "book more demos",
		"tone":          "friendly",
		"senderName":    "  Ana  ",
	}, v.Value.Fields, "required trimmed, optional unchanged, unknown dropped")
}

func TestValidateRejects(t *testing.T) {
	def := mustDefinition(t, ColdEmail)
	valid := func() map[string]any {
		return map[string]any{"recipientRole": "CTO", "product": "X", "goal": "y"}
	}

	tests := []struct {
		name      string
		payload   any
		wantField string
		wantMsg   string
	}{
		{"not an object", []any{"a"}, "", "request body must be a JSON object"},
		{"nil", nil, "", "request body must be a JSON object"},
		{"string", "hello", "", "request body must be a JSON object"},
		{"missing required", func() any { p := valid(); delete(p, "product"); return p }(), "product", "product is required"},
		{"null required", func() any { p := valid(); p["goal"] = nil; return p }(), "goal", "goal is required"},
		{"wrong type", func() any { p := valid(); p["recipientRole"] = 7; return p }(), "recipientRole", "recipientRole must be a string"},
		{"empty string", func() any { p := valid(); p["goal"] = ""; return p }(), "goal", "goal must not be empty"},
		{"whitespace only", func() any { p := valid(); p["goal"] = " \t\n"; return p }(), "goal", "goal must not be empty"},
		{"bad enum", func() any { p := valid(); p["tone"] = "angry"; return p }(), "tone", "tone must be one of: professional, friendly, persuasive, casual"},
		{"optional wrong type", func() any { p := valid(); p["senderName"] = true; return p }(), "senderName", "senderName must be a string"},
		{"first failing field wins", map[string]any{"goal": 1}, "recipientRole", "recipientRole is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(def, tt.payload)
			assert.False(t, v.OK)
			assert.Nil(t, v.Value)
			assert.Equal(t, tt.wantField, v.Field)
			assert.Equal(t, tt.wantMsg, v.Error)
		})
	}
}

func TestValidateEveryAgentRequiresItsFields(t *testing.T) {
	for _, def := range Definitions() {
		require.NoError(t, def.compile())
		for _, missing := range def.Required {
			payload := map[string]any{}
			for _, f := range def.Required {
				if f != missing {
					payload[f] = "value"
				}
			}
			v := Validate(def, payload)
			assert.False(t, v.OK, "%s without %s", def.Name, missing)
			assert.Equal(t, missing, v.Field)
		}
	}
}

func TestValidateAcceptsTypedMaps(t *testing.T) {
	def := mustDefinition(t, SEOResearch)
	v := Validate(def, Fields{"keyword": "ai video editors"})
	require.True(t, v.OK)
	assert.Equal(t, "ai video editors", v.Value.Fields["keyword"])

	v = Validate(def, map[string]string{"keyword": " "})
	assert.False(t, v.OK)
}
