// Package email is the outbound mail collaborator.
//
// Services describe what to send with a Message naming a template and its
// variables; a Sender renders and delivers it. Delivery goes through the
// Resend API when an API key is configured, otherwise messages are only
// written to the log so local runs work without credentials.
package email

import (
	"bytes"
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"
)

// Message is one email to deliver.
type Message struct {
	To        string
	Subject   string
	Template  string
	Variables map[string]string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewResendSender returns a Sender backed by the Resend API.
func NewResendSender(apiKey, fromEmail, fromName string) Sender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *resendSender) Send(ctx context.Context, msg Message) error {
	html, err := Render(msg.Template, msg.Variables)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    html,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send %s email: %w", msg.Template, err)
	}
	return nil
}

type logSender struct {
	log *zap.Logger
}

// NewLogSender returns a Sender that renders the message and logs it
// instead of delivering it.
func NewLogSender(log *zap.Logger) Sender {
	return &logSender{log: log.Named("email")}
}

func (s *logSender) Send(_ context.Context, msg Message) error {
	if _, err := Render(msg.Template, msg.Variables); err != nil {
		return err
	}
	s.log.Info("email not delivered (no provider configured)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", msg.Template),
	)
	return nil
}

// Render executes the named template with vars.
func Render(name string, vars map[string]string) (string, error) {
	tmpl := templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("unknown email template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
