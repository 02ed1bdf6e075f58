package notifier

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Template names.
const (
	TemplateLockerMember        = "locker_member"
	TemplateLockerStaff         = "locker_staff"
	TemplateOutstandingBalance  = "outstanding_balance"
	TemplateRegistrationInvalid = "registration_invalid"
	TemplateLeagueBroadcast     = "league_broadcast"
	TemplateTest                = "test"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

type LockerReminder struct {
	MemberName   string
	Email        string
	Phone        string
	LockerNumber string
	Location     string
	RentalRate   string
	RentalPeriod string
	EndDate      string
	Days         int
}

type BalanceReminder struct {
	MemberName string
	LeagueName string
	Balance    string
}

type RegistrationReminder struct {
	MemberName         string
	RegistrationNumber string
}

type LeagueBroadcast struct {
	Subject    string
	MemberName string
	LeagueName string
	Message    string
}

type TestNotice struct {
	Recipient string
	SentAt    string
}

// Renderer turns a template into a Message. The first rendered line is the
// subject; the rest is markdown converted to HTML with raw HTML escaped.
type Renderer struct {
	templates *template.Template
	markdown  goldmark.Markdown
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("notifications").Option("missingkey=error").ParseFS(templateFS, "templates/*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse notification templates: %w", err)
	}

	return &Renderer{
		templates: tmpl,
		markdown: goldmark.New(
			goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
		),
	}, nil
}

func (r *Renderer) Render(name, to string, data any) (Message, error) {
	var out bytes.Buffer
	if err := r.templates.ExecuteTemplate(&out, name+".md.tmpl", data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}

	subject, body, _ := strings.Cut(out.String(), "\n")
	body = strings.TrimSpace(body)

	var html bytes.Buffer
	if err := r.markdown.Convert([]byte(body), &html); err != nil {
		return Message{}, fmt.Errorf("convert %s to html: %w", name, err)
	}

	return Message{
		To:      to,
		Subject: strings.TrimSpace(subject),
		Text:    body,
		HTML:    html.String(),
	}, nil
}
