package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

type TemplateName string

const (
	TemplateExplainWord  TemplateName = "explain_word.yaml"
	TemplateSongAnalysis TemplateName = "song_analysis.yaml"
)

// Message is a rendered chat prompt split by role.
type Message struct {
	System string
	User   string
}

type templateFile struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiledTemplate struct {
	system *template.Template
	user   *template.Template
}

type PromptBuilder struct {
	mu        sync.RWMutex
	templates map[TemplateName]*compiledTemplate
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		templates: make(map[TemplateName]*compiledTemplate),
	}
}

func (pb *PromptBuilder) Render(name TemplateName, data any) (Message, error) {
	tmpl, err := pb.getTemplate(name)
	if err != nil {
		return Message{}, err
	}

	system, err := execute(tmpl.system, data)
	if err != nil {
		return Message{}, fmt.Errorf("render prompt %s (system): %w", name, err)
	}
	user, err := execute(tmpl.user, data)
	if err != nil {
		return Message{}, fmt.Errorf("render prompt %s (user): %w", name, err)
	}

	return Message{System: strings.TrimSpace(system), User: strings.TrimSpace(user)}, nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (pb *PromptBuilder) getTemplate(name TemplateName) (*compiledTemplate, error) {
	pb.mu.RLock()
	if tmpl, ok := pb.templates[name]; ok {
		pb.mu.RUnlock()
		return tmpl, nil
	}
	pb.mu.RUnlock()

	filename := filepath.ToSlash(filepath.Join("templates", string(name)))
	content, err := templateFS.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("load prompt template %s: %w", name, err)
	}

	var file templateFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("decode prompt template %s: %w", name, err)
	}
	if strings.TrimSpace(file.User) == "" {
		return nil, fmt.Errorf("prompt template %s has no user section", name)
	}

	system, err := template.New(string(name) + ".system").Option("missingkey=error").Parse(file.System)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	user, err := template.New(string(name) + ".user").Option("missingkey=error").Parse(file.User)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}

	compiled := &compiledTemplate{system: system, user: user}

	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.templates[name] = compiled

	return compiled, nil
}
