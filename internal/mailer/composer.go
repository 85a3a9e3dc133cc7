package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/jmehdipour/contact-site/internal/model"
	"github.com/jmehdipour/contact-site/internal/util"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const subjectPrefix = "🔧 New Repair Service Inquiry from "

// SubmittedAtLayout is how the submission time is printed in both bodies.
const SubmittedAtLayout = "Jan 2, 2006 3:04:05 PM MST"

// Message is one composed email ready for a Transport.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

type inquiryView struct {
	Name        string
	Email       string
	Phone       string
	Tel         string
	Service     string
	Message     string
	SubmittedAt string
}

// Composer turns a submission into the inbox notification.
type Composer struct {
	from string
	to   []string
	loc  *time.Location

	html *htmltemplate.Template
	text *texttemplate.Template
}

// NewComposer parses the embedded templates. loc may be nil (local time).
func NewComposer(from string, to []string, loc *time.Location) (*Composer, error) {
	h, err := htmltemplate.ParseFS(templateFS, "templates/inquiry.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}
	t, err := texttemplate.ParseFS(templateFS, "templates/inquiry.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Composer{from: from, to: to, loc: loc, html: h, text: t}, nil
}

// Compose renders subject and bodies. HTML fields are escaped by html/template.
func (c *Composer) Compose(s model.Submission, at time.Time) (Message, error) {
	view := inquiryView{
		Name:        s.Name,
		Email:       s.Email,
		Phone:       s.PhoneOrDefault(),
		Service:     s.Service,
		Message:     s.Message,
		SubmittedAt: at.In(c.loc).Format(SubmittedAtLayout),
	}
	if s.Phone != "" {
		view.Tel = util.PhoneDigits(s.Phone)
	}

	var hb, tb bytes.Buffer
	if err := c.html.Execute(&hb, view); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	if err := c.text.Execute(&tb, view); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}

	return Message{
		From:    c.from,
		To:      c.to,
		ReplyTo: strings.TrimSpace(s.Email),
		Subject: Subject(s.Name),
		HTML:    hb.String(),
		Text:    tb.String(),
	}, nil
}

// Subject builds the inbox subject line; line breaks in name are dropped.
func Subject(name string) string {
	clean := strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(name))
	return subjectPrefix + clean
}
