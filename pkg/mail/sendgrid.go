package mail

import (
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridSender delivers mail through the Sendgrid v3 API.
type SendgridSender struct {
	key    string
	from   *sgmail.Email
	logger *zap.Logger
}

// NewSendgridSender builds a Sendgrid-backed sender.
func NewSendgridSender(key, fromName, fromEmail string, logger *zap.Logger) *SendgridSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendgridSender{
		key:    key,
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
}

// Send delivers a single message synchronously.
func (s *SendgridSender) Send(msg Message) error {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)

	text := msg.TextBody
	if text == "" {
		text = msg.Subject
	}
	contents := []*sgmail.Content{sgmail.NewContent("text/plain", text)}
	if msg.HTMLBody != "" {
		contents = append(contents, sgmail.NewContent("text/html", msg.HTMLBody))
	}
	m.AddContent(contents...)

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid responded %d: %s", res.StatusCode, res.Body)
	}

	s.logger.Debug("mail sent", zap.String("to", msg.ToEmail), zap.String("subject", msg.Subject))
	return nil
}

// NopSender drops messages, used when mail delivery is disabled.
type NopSender struct{}

// Send implements Sender.
func (NopSender) Send(Message) error { return nil }
