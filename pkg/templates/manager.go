package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/pkg/logger"
)

//go:embed prompts/*.tmpl telegram/*.tmpl
var embedded embed.FS

// UserPromptSeparator divides a rendered template into system and user prompts
const UserPromptSeparator = "=== USER PROMPT ==="

// Renderer interface for template rendering (for dependency injection)
type Renderer interface {
	ExecuteTemplate(name string, data any) (string, error)
	TemplateExists(name string) bool
}

// Manager holds a parsed template set
type Manager struct {
	templates *template.Template
}

// DefaultFuncMap returns common template helper functions
func DefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"mul": func(a, b float64) float64 {
			return a * b
		},
		"pct": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v*100)
		},
		"money": func(v float64) string {
			return fmt.Sprintf("$%.2f", v)
		},
		"join": strings.Join,
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// NewManager parses every *.tmpl file under fsys
func NewManager(fsys fs.FS) (*Manager, error) {
	tmpl, err := template.New("root").Funcs(DefaultFuncMap()).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	logger.Debug("templates loaded", zap.Int("count", len(tmpl.Templates())-1))

	return &Manager{templates: tmpl}, nil
}

// Built-in template sets
const (
	SetPrompts  = "prompts"
	SetTelegram = "telegram"
)

// Builtin returns a manager over one of the embedded template sets
func Builtin(set string) (*Manager, error) {
	sub, err := fs.Sub(embedded, set)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded %s templates: %w", set, err)
	}
	return NewManager(sub)
}

// Default returns a manager over the built-in prompt templates
func Default() (*Manager, error) {
	return Builtin(SetPrompts)
}

// NewManagerWithValidation creates manager and validates required templates exist
func NewManagerWithValidation(fsys fs.FS, required []string) (*Manager, error) {
	manager, err := NewManager(fsys)
	if err != nil {
		return nil, err
	}

	for _, name := range required {
		if !manager.TemplateExists(name) {
			return nil, fmt.Errorf("required template not found: %s", name)
		}
	}

	return manager, nil
}

// ExecuteTemplate renders template with data
func (m *Manager) ExecuteTemplate(name string, data any) (string, error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// TemplateExists checks if template exists
func (m *Manager) TemplateExists(name string) bool {
	return m.templates.Lookup(name) != nil
}

// RenderPrompts executes a template and splits it into system and user prompts
func RenderPrompts(r Renderer, name string, data any) (systemPrompt, userPrompt string, err error) {
	output, err := r.ExecuteTemplate(name, data)
	if err != nil {
		return "", "", err
	}
	systemPrompt, userPrompt = SplitPrompt(output)
	return systemPrompt, userPrompt, nil
}

// SplitPrompt splits template output into system and user prompts
func SplitPrompt(output string) (systemPrompt string, userPrompt string) {
	idx := strings.Index(output, UserPromptSeparator)
	if idx == -1 {
		return "", strings.TrimSpace(output)
	}

	systemPrompt = strings.TrimSpace(output[:idx])
	userPrompt = strings.TrimSpace(output[idx+len(UserPromptSeparator):])
	return systemPrompt, userPrompt
}
