package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type orderCreatedEmailData struct {
	baseEmailData
	CampaignName       string
	AgentName          string
	OrderType          string
	TotalFormatted     string
	FreshTarget        int
	SecondChanceTarget int
}

type orderCancelledEmailData struct {
	baseEmailData
	CampaignName   string
	AgentName      string
	TotalFormatted string
	Reason         string
}

type importCompletedEmailData struct {
	baseEmailData
	CampaignName string
	Origin       string
	Imported     int
	Skipped      int
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyUSD(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
