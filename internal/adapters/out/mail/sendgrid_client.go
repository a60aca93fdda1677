// internal/adapters/out/mail/sendgrid_client.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Client sends plain-text mail.
type Client interface {
	Send(ctx context.Context, to, subject, body string) error
}

// sendFunc is the transport; swapped in tests.
type sendFunc func(ctx context.Context, msg *sgmail.SGMailV3) (*rest.Response, error)

// SendGridClient implements Client over the SendGrid v3 API.
type SendGridClient struct {
	apiKey   string
	from     string
	fromName string
	log      *zap.Logger
	send     sendFunc
}

func NewSendGridClient(apiKey, from string, log *zap.Logger) *SendGridClient {
	if log == nil {
		log = zap.NewNop()
	}
	c := &SendGridClient{apiKey: apiKey, from: from, fromName: "Invoicer", log: log}
	c.send = func(ctx context.Context, msg *sgmail.SGMailV3) (*rest.Response, error) {
		return sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, msg)
	}
	return c
}

// Send sends body as text, with a <pre> HTML alternative.
func (c *SendGridClient) Send(ctx context.Context, to, subject, body string) error {
	if c.apiKey == "" {
		return errors.New("sendgrid api key is empty")
	}
	if c.from == "" {
		return errors.New("from address is empty")
	}
	if to == "" {
		return errors.New("to address is empty")
	}

	msg := sgmail.NewSingleEmail(
		sgmail.NewEmail(c.fromName, c.from),
		subject,
		sgmail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	resp, err := c.send(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.log.Error("[sendgrid] send failed", zap.Int("status", resp.StatusCode), zap.String("body", resp.Body))
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", resp.StatusCode, resp.Body)
	}

	c.log.Info("[sendgrid] mail sent", zap.Int("status", resp.StatusCode), zap.String("to", to), zap.String("subject", subject))
	return nil
}
