package service

import (
	"context"
	"fmt"

	"github.com/RaymondSalim/hms-sub002/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridMailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridMailService(apiKey, fromEmail, fromName string) MailService {
	return &sendGridMailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func newPlainTextMessage(fromEmail, fromName, to, toName, subject, body string) *mail.SGMailV3 {
	from := mail.NewEmail(fromName, fromEmail)
	recipient := mail.NewEmail(toName, to)
	return mail.NewSingleEmail(from, subject, recipient, body, "")
}

func (s *sendGridMailService) SendMail(ctx context.Context, to, toName, subject, body string) error {
	if to == "" {
		return fmt.Errorf("recipient address is required")
	}
	logger.ExternalServiceCall("sendgrid", "SendMail", "to", to, "subject", subject)

	message := newPlainTextMessage(s.fromEmail, s.fromName, to, toName, subject, body)
	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		err = fmt.Errorf("failed to send email: %w", err)
		logger.ExternalServiceResult("sendgrid", "SendMail", err, "to", to)
		return err
	}
	if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "SendMail", err, "to", to)
		return err
	}

	logger.ExternalServiceResult("sendgrid", "SendMail", nil, "to", to, "status", response.StatusCode)
	return nil
}

// logMailService writes mails to the log instead of sending them. It is used
// when no SendGrid API key is configured.
type logMailService struct{}

func NewLogMailService() MailService {
	return &logMailService{}
}

func (s *logMailService) SendMail(ctx context.Context, to, toName, subject, body string) error {
	logger.InfoContext(ctx, "Mail not sent, no mail provider configured", "to", to, "subject", subject)
	return nil
}
