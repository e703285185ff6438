package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/galhr/portal/backend/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type mailKind struct {
	subject  string
	template string
	data     func() any
}

var kinds = map[string]mailKind{
	domain.MailTypeCreateUser: {
		subject:  "HR Portal - Your account",
		template: "create_user.html",
		data:     func() any { return &domain.CreateUserMailData{} },
	},
	domain.MailTypeWelcome: {
		subject:  "HR Portal - Welcome",
		template: "welcome.html",
		data:     func() any { return &domain.WelcomeMailData{} },
	},
	domain.MailTypeResetPassword: {
		subject:  "HR Portal - Reset your password",
		template: "reset_password.html",
		data:     func() any { return &domain.ResetPasswordMailData{} },
	},
	domain.MailTypeEntryDecision: {
		subject:  "HR Portal - Entry reviewed",
		template: "entry_decision.html",
		data:     func() any { return &domain.EntryDecisionMailData{} },
	},
}

// queuedMail mirrors domain.MailMessage with the payload left undecoded until the type is known.
type queuedMail struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

// buildMessage turns one queue body into a mail ready to send.
func buildMessage(from string, body []byte) (*mail.Msg, error) {
	var q queuedMail
	if err := json.Unmarshal(body, &q); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	kind, ok := kinds[q.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mail type %q", q.Type)
	}

	data := kind.data()
	if len(q.Data) > 0 {
		if err := json.Unmarshal(q.Data, data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", q.Type, err)
		}
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(q.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(kind.subject)

	if err := m.SetBodyHTMLTemplate(templates.Lookup(kind.template), data); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind.template, err)
	}
	return m, nil
}
