package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// CallbackAlertData fills the callback alert template.
type CallbackAlertData struct {
	Name        string
	Email       string
	Phone       string
	LawFirm     string
	CurrentCpql string
}

// QualifiedAlertData fills the qualified-lead alert template.
type QualifiedAlertData struct {
	Name             string
	Email            string
	Phone            string
	LawFirm          string
	BudgetCommitment string
	CurrentCpql      string
	MonthlySavings   string
}

func renderEmailTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
