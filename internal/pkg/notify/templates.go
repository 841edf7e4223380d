package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/ManuelReschke/MemberPortal/internal/pkg/mail"
)

const (
	tmplWelcome         = "welcome"
	tmplNewsPublished   = "news_published"
	tmplEventRegistered = "event_registered"
	tmplEventReminder   = "event_reminder"
	tmplEventCancelled  = "event_cancelled"
	tmplArticleReviewed = "article_reviewed"
	tmplUrgent          = "urgent"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.New("").ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.New("").ParseFS(templateFS, "templates/*.txt"))

	subjectTemplates = mustParseTexts(map[string]string{
		tmplWelcome:         "Welcome to {{.Organization}}",
		tmplNewsPublished:   "New article: {{.Title}}",
		tmplEventRegistered: "Registration confirmed: {{.Title}}",
		tmplEventReminder:   "Reminder: {{.Title}} takes place tomorrow",
		tmplEventCancelled:  "Cancelled: {{.Title}}",
		tmplArticleReviewed: "Review result for your article: {{.Title}}",
		tmplUrgent:          "Urgent notice - {{.Organization}}",
	})

	smsTemplates = mustParseTexts(map[string]string{
		tmplWelcome:         "Dear {{.Name}}, welcome to {{.Organization}}.",
		tmplEventRegistered: "Dear {{.Name}}, your registration for {{.Title}} is confirmed.",
		tmplEventReminder:   "Dear {{.Name}}, reminder: {{.Title}} takes place on {{.Date}}.",
		tmplEventCancelled:  "Dear {{.Name}}, {{.Title}} has been cancelled.",
		tmplArticleReviewed: "Dear {{.Name}}, your article {{.Title}} {{if .Approved}}was approved and published{{else}}was not accepted{{end}}.",
	})
)

// TemplateData is the data available to every notification template.
type TemplateData struct {
	Organization string
	PublicURL    string
	Name         string
	Title        string
	Date         string
	Location     string
	Approved     bool
	Comments     string
	Message      string
	Link         string
}

func mustParseTexts(src map[string]string) map[string]*texttemplate.Template {
	out := make(map[string]*texttemplate.Template, len(src))
	for name, body := range src {
		out[name] = texttemplate.Must(texttemplate.New(name).Parse(body))
	}
	return out
}

// RenderEmail renders the subject, HTML and text body of a template.
func RenderEmail(name string, data TemplateData) (mail.Message, error) {
	subject, ok := subjectTemplates[name]
	if !ok {
		return mail.Message{}, fmt.Errorf("unknown email template %q", name)
	}

	var subj, html, text bytes.Buffer
	if err := subject.Execute(&subj, data); err != nil {
		return mail.Message{}, err
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return mail.Message{}, err
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		Subject: subj.String(),
		HTML:    html.String(),
		Text:    strings.TrimSpace(text.String()),
	}, nil
}

// RenderSMS renders the short text of a template. Not every template has one.
func RenderSMS(name string, data TemplateData) (string, bool, error) {
	tmpl, ok := smsTemplates[name]
	if !ok {
		return "", false, nil
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", true, err
	}
	return buf.String(), true, nil
}
