package senders

import (
	_ "embed"
	"fmt"
	"html/template"
	"strings"
)

var (
	//go:embed alert.html
	alertHTML     string
	alertTemplate = template.Must(template.New("alert.html").Parse(alertHTML))
)

func mustFillTemplate(tmpl *template.Template, values any) string {
	buf := new(strings.Builder)
	err := tmpl.Execute(buf, values)
	if err != nil {
		return ""
	}
	return buf.String()
}

type alertEmailFormat struct {
	*AlertPayload
}

func (ef *alertEmailFormat) Subject() string {
	return fmt.Sprintf("Price alert: %s", ef.Item.Title)
}

func (ef *alertEmailFormat) Body() string {
	return mustFillTemplate(alertTemplate, ef)
}

func (ef *alertEmailFormat) PriceLine() string {
	return fmt.Sprintf("%s %.2f", ef.Currency, ef.LatestPrice)
}

func (ef *alertEmailFormat) When() string {
	return ef.TriggeredAt.Format("02 Jan 2006 15:04 MST")
}
