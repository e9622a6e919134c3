package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"

	"hireflow/pkg/domain"
)

// StatusEmail is a rendered candidate notification.
type StatusEmail struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers candidate status emails.
type Sender interface {
	SendStatusEmail(ctx context.Context, to, candidateName, formTitle string, status domain.ApplicationStatus) error
}

type statusTemplate struct {
	subject string
	body    *template.Template
}

type templateData struct {
	CandidateName string
	FormTitle     string
}

var statusTemplates = map[domain.ApplicationStatus]statusTemplate{
	domain.StatusPending: {
		subject: "We received your application",
		body: template.Must(template.New("pending").Parse(
			`<p>Hi {{.CandidateName}},</p>
<p>Thanks for applying to <strong>{{.FormTitle}}</strong>. Your application has been received and is waiting for review.</p>
<p>We will be in touch.</p>`)),
	},
	domain.StatusReviewed: {
		subject: "Your application is under review",
		body: template.Must(template.New("reviewed").Parse(
			`<p>Hi {{.CandidateName}},</p>
<p>Your application for <strong>{{.FormTitle}}</strong> has been reviewed by the hiring team. We will follow up with next steps soon.</p>`)),
	},
	domain.StatusShortlisted: {
		subject: "You have been shortlisted",
		body: template.Must(template.New("shortlisted").Parse(
			`<p>Hi {{.CandidateName}},</p>
<p>Good news: you have been shortlisted for <strong>{{.FormTitle}}</strong>. The hiring team will reach out to schedule the next step.</p>`)),
	},
	domain.StatusRejected: {
		subject: "Update on your application",
		body: template.Must(template.New("rejected").Parse(
			`<p>Hi {{.CandidateName}},</p>
<p>Thank you for your interest in <strong>{{.FormTitle}}</strong>. After careful review we have decided not to move forward with your application at this time.</p>
<p>We encourage you to apply for future openings.</p>`)),
	},
}

// RenderStatusEmail builds the email for a status change. ok is false
// when the status has no template; callers treat that as a no-op rather
// than an error so unknown statuses never block the queue.
func RenderStatusEmail(to, candidateName, formTitle string, status domain.ApplicationStatus) (StatusEmail, bool) {
	tpl, ok := statusTemplates[status]
	if !ok {
		return StatusEmail{}, false
	}
	if strings.TrimSpace(candidateName) == "" {
		candidateName = "there"
	}
	var buf bytes.Buffer
	if err := tpl.body.Execute(&buf, templateData{CandidateName: candidateName, FormTitle: formTitle}); err != nil {
		return StatusEmail{}, false
	}
	return StatusEmail{To: to, Subject: tpl.subject, HTML: buf.String()}, true
}

// SMTPSender delivers emails over plain SMTP with optional AUTH.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPSender builds an SMTP sender. username may be empty for
// unauthenticated relays.
func NewSMTPSender(host string, port int, username, password, from string) (*SMTPSender, error) {
	host = strings.TrimSpace(host)
	from = strings.TrimSpace(from)
	if host == "" {
		return nil, fmt.Errorf("smtp host required")
	}
	if from == "" {
		return nil, fmt.Errorf("smtp from address required")
	}
	if port <= 0 {
		port = 587
	}
	var auth smtp.Auth
	if strings.TrimSpace(username) != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
	}, nil
}

// SendStatusEmail implements Sender.
func (s *SMTPSender) SendStatusEmail(ctx context.Context, to, candidateName, formTitle string, status domain.ApplicationStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	email, ok := RenderStatusEmail(to, candidateName, formTitle, status)
	if !ok {
		return nil
	}
	msg := buildMessage(s.from, email)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{email.To}, msg); err != nil {
		return fmt.Errorf("send status email: %w", err)
	}
	return nil
}

func buildMessage(from string, email StatusEmail) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.HTML)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogSender logs emails instead of delivering them. Used when SMTP is
// not configured so local environments still exercise the notify path.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// SendStatusEmail implements Sender by logging the rendered email.
func (s *LogSender) SendStatusEmail(ctx context.Context, to, candidateName, formTitle string, status domain.ApplicationStatus) error {
	email, ok := RenderStatusEmail(to, candidateName, formTitle, status)
	if !ok {
		s.logger.Info("status email skipped, no template", "status", status)
		return nil
	}
	s.logger.Info("status email (smtp disabled)",
		"to", email.To,
		"subject", email.Subject,
		"status", status,
	)
	return nil
}
