package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Template names a pair of html and text bodies under templates/.
type Template string

const (
	TemplateConfirmEmail  Template = "confirm-email"
	TemplateResetPassword Template = "reset-password"
)

var subjects = map[Template]string{
	TemplateConfirmEmail:  "Confirm your email",
	TemplateResetPassword: "Reset your password",
}

//go:embed templates/*.html templates/*.txt
var templatesFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/*.txt"))
)

// TemplateData is what every template can reference.
type TemplateData struct {
	FirstName string
	URL       string
	ExpiresIn string
}

// Render builds the message for tmpl addressed to to.
func Render(tmpl Template, to string, data TemplateData) (Message, error) {
	subject, ok := subjects[tmpl]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail template %q", tmpl)
	}

	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, string(tmpl)+".html", data); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", tmpl, err)
	}
	if err := textTemplates.ExecuteTemplate(&text, string(tmpl)+".txt", data); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", tmpl, err)
	}

	return Message{
		To:       to,
		Subject:  subject,
		HTML:     html.String(),
		Text:     text.String(),
		Template: tmpl,
	}, nil
}
