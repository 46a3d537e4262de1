package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/Sivanthsiv/food-ecommerce/internal/util"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer delivers one plain-text message
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SendGridMailer sends through the SendGrid v3 API
type SendGridMailer struct {
	client   *sendgrid.Client
	fromAddr string
	fromName string
}

func NewSendGridMailer(apiKey, fromAddr, fromName string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromAddr: fromAddr,
		fromName: fromName,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.fromAddr == "" {
		return fmt.Errorf("from address is empty")
	}
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.fromAddr),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	util.GetLogger().Debug("Mail sent",
		zap.Int("status", response.StatusCode),
		zap.String("subject", subject),
	)
	return nil
}

// LogMailer only logs messages. Used when no mail provider is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, body string) error {
	util.GetLogger().Info("Mail (not sent, no provider configured)",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
