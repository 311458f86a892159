package templates

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPrompt(t *testing.T) {
	testCases := []struct {
		name           string
		input          string
		expectedSystem string
		expectedUser   string
	}{
		{
			name:           "with separator",
			input:          "System instructions\n\n=== USER PROMPT ===\n\nUser task",
			expectedSystem: "System instructions",
			expectedUser:   "User task",
		},
		{
			name:         "without separator",
			input:        "All user prompt",
			expectedUser: "All user prompt",
		},
		{
			name: "empty input",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sys, user := SplitPrompt(tc.input)
			assert.Equal(t, tc.expectedSystem, sys)
			assert.Equal(t, tc.expectedUser, user)
		})
	}
}

func TestManager_RenderPrompts(t *testing.T) {
	fsys := fstest.MapFS{
		"hello.tmpl": {Data: []byte("sys {{.Name}}\n=== USER PROMPT ===\nuser {{pct .Ratio}}")},
	}

	m, err := NewManagerWithValidation(fsys, []string{"hello.tmpl"})
	require.NoError(t, err)

	sys, user, err := RenderPrompts(m, "hello.tmpl", map[string]any{"Name": "x", "Ratio": 0.75})
	require.NoError(t, err)
	assert.Equal(t, "sys x", sys)
	assert.Equal(t, "user 75%", user)

	_, err = m.ExecuteTemplate("missing.tmpl", nil)
	assert.Error(t, err)
}

func TestNewManagerWithValidation_MissingTemplate(t *testing.T) {
	fsys := fstest.MapFS{"a.tmpl": {Data: []byte("a")}}
	_, err := NewManagerWithValidation(fsys, []string{"b.tmpl"})
	assert.Error(t, err)
}

func TestDefault_HasPromptTemplates(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)
	assert.True(t, m.TemplateExists("forecast.tmpl"))
	assert.True(t, m.TemplateExists("options_narration.tmpl"))
}

func TestBuiltin_Telegram(t *testing.T) {
	m, err := Builtin(SetTelegram)
	require.NoError(t, err)
	assert.True(t, m.TemplateExists("prediction_created.tmpl"))
	assert.True(t, m.TemplateExists("prediction_outcome.tmpl"))
}
