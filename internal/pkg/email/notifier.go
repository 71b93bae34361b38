package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/rs/zerolog"

	"github.com/destinpq/destinpq-lms-sub000/internal/app/models"
)

// Recipient is the addressee of a notification.
type Recipient struct {
	Name  string
	Email string
}

// Notifier sends the LMS notification emails.
type Notifier interface {
	Welcome(ctx context.Context, to Recipient) error
	WorkshopEnrollment(ctx context.Context, to Recipient, workshop *models.Workshop) error
	SessionReminder(ctx context.Context, to Recipient, workshop *models.Workshop, session *models.WorkshopSession) error
	HomeworkGraded(ctx context.Context, to Recipient, hw *models.Homework) error
}

const layout = `<html><body><div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<p>Hello {{.Name}},</p>
{{template "content" .}}
<p>Best regards,<br>{{.AppName}}</p>
</div></body></html>`

var templates = map[string]string{
	"welcome": `{{define "content"}}<p>Welcome to {{.AppName}}. Your account is ready and you can now browse courses and workshops.</p>{{end}}`,
	"enrollment": `{{define "content"}}<p>You are enrolled in <strong>{{.Workshop.Title}}</strong>{{with .Workshop.Instructor}} with {{.}}{{end}}.</p>
{{with .Workshop.StartDate}}<p>The workshop starts on {{.Format "Monday, 02 January 2006"}}.</p>{{end}}{{end}}`,
	"reminder": `{{define "content"}}<p>Reminder: <strong>{{.Session.Title}}</strong> of {{.Workshop.Title}} starts {{.Session.StartsAt.Format "Mon, 02 Jan 2006 15:04 MST"}}.</p>
{{with .Session.JoinURL}}<p><a href="{{.}}">Join the session</a></p>{{end}}{{end}}`,
	"graded": `{{define "content"}}<p>Your homework <strong>{{.Homework.Title}}</strong> has been graded{{with .Homework.Grade}}: {{.}}/100{{end}}.</p>
{{with .Homework.Feedback}}<p>Feedback: {{.}}</p>{{end}}{{end}}`,
}

type templateData struct {
	AppName  string
	Name     string
	Workshop *models.Workshop
	Session  *models.WorkshopSession
	Homework *models.Homework
}

// TemplateNotifier renders html/template bodies and hands them to a Sender.
type TemplateNotifier struct {
	sender  Sender
	appName string
	tmpl    map[string]*template.Template
	logger  zerolog.Logger
}

// NewTemplateNotifier parses every template once.
func NewTemplateNotifier(sender Sender, appName string, logger zerolog.Logger) *TemplateNotifier {
	parsed := make(map[string]*template.Template, len(templates))
	for name, body := range templates {
		t := template.Must(template.New(name).Parse(layout))
		parsed[name] = template.Must(t.Parse(body))
	}
	return &TemplateNotifier{sender: sender, appName: appName, tmpl: parsed, logger: logger}
}

func (n *TemplateNotifier) send(ctx context.Context, name, subject string, to Recipient, data templateData) error {
	data.AppName = n.appName
	data.Name = to.Name

	var buf bytes.Buffer
	if err := n.tmpl[name].Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", name, err)
	}
	err := n.sender.Send(ctx, Message{To: to.Email, ToName: to.Name, Subject: subject, HTML: buf.String()})
	if err != nil {
		n.logger.Warn().Err(err).Str("template", name).Str("to", to.Email).Msg("Notification not delivered")
	}
	return err
}

// Welcome greets a newly registered user.
func (n *TemplateNotifier) Welcome(ctx context.Context, to Recipient) error {
	return n.send(ctx, "welcome", "Welcome to "+n.appName, to, templateData{})
}

// WorkshopEnrollment confirms a new workshop membership.
func (n *TemplateNotifier) WorkshopEnrollment(ctx context.Context, to Recipient, workshop *models.Workshop) error {
	return n.send(ctx, "enrollment", "You're enrolled: "+workshop.Title, to, templateData{Workshop: workshop})
}

// SessionReminder announces an upcoming session.
func (n *TemplateNotifier) SessionReminder(ctx context.Context, to Recipient, workshop *models.Workshop, session *models.WorkshopSession) error {
	return n.send(ctx, "reminder", "Reminder: "+session.Title, to, templateData{Workshop: workshop, Session: session})
}

// HomeworkGraded tells the student their grade.
func (n *TemplateNotifier) HomeworkGraded(ctx context.Context, to Recipient, hw *models.Homework) error {
	return n.send(ctx, "graded", "Homework graded: "+hw.Title, to, templateData{Homework: hw})
}
