package content

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"outreach_backend/internal/leads"
)

// Two fixed fallback templates: one for leads with a named decision-maker,
// one generic greeting for the rest.
const namedTemplate = `<p>Olá, {{.DecisionMakerName}}!</p>
<p>Encontrei a {{.Company}}{{if .City}} em {{.City}}{{end}} e acredito que podemos ajudar a reduzir o tempo gasto com tarefas administrativas da clínica.</p>
<p>Teria disponibilidade para uma conversa rápida esta semana?</p>
<p>Abraços</p>`

const genericTemplate = `<p>Olá, equipe da {{.Company}}!</p>
<p>Trabalhamos com clínicas{{if .City}} na região de {{.City}}{{end}} ajudando a reduzir o tempo gasto com tarefas administrativas.</p>
<p>Poderiam me indicar a melhor pessoa para uma conversa rápida?</p>
<p>Abraços</p>`

// TemplateGenerator renders the fixed non-personalized fallback content.
type TemplateGenerator struct {
	named   *template.Template
	generic *template.Template
}

// NewTemplateGenerator parses the built-in templates.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{
		named:   template.Must(template.New("named").Parse(namedTemplate)),
		generic: template.Must(template.New("generic").Parse(genericTemplate)),
	}
}

// Generate implements Generator. It never fails for well-formed leads; a
// render error is still returned rather than panicking.
func (t *TemplateGenerator) Generate(_ context.Context, lead leads.Lead) (string, string, error) {
	tmpl := t.generic
	if lead.DecisionMakerName != "" {
		tmpl = t.named
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, lead); err != nil {
		return "", "", fmt.Errorf("render fallback template: %w", err)
	}

	subject := fmt.Sprintf("Uma ideia para a %s", lead.Company)
	return subject, body.String(), nil
}
