// Package email is the outbound mail transport used by the dispatch
// coordinator, built on SendGrid.
package email

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"corrcreate/internal/models"
)

// Sender delivers one correspondence email. Implemented by the SendGrid
// service; tests substitute fakes.
type Sender interface {
	SendCorrespondence(payload models.EmailPayload) error
}

// EmailService handles sending emails via SendGrid
type EmailService struct {
	apiKey      string
	senderEmail string
}

// NewEmailService creates a new email service instance. senderEmail is the
// fallback From address when an item carries none.
func NewEmailService(apiKey, senderEmail string) *EmailService {
	return &EmailService{
		apiKey:      apiKey,
		senderEmail: senderEmail,
	}
}

// SendCorrespondence sends one rendered correspondence to its recipients.
func (es *EmailService) SendCorrespondence(payload models.EmailPayload) error {
	if es.apiKey == "" {
		return fmt.Errorf("SendGrid API key not configured")
	}
	if len(payload.Recipients) == 0 {
		return fmt.Errorf("no recipients")
	}

	sender := payload.SenderAddress
	if sender == "" {
		sender = es.senderEmail
	}
	from := mail.NewEmail("", sender)

	plain := payload.BodyText
	html := payload.BodyHTML
	if html == "" {
		html = plain
	}

	message := mail.NewSingleEmail(from, payload.Subject, mail.NewEmail("", payload.Recipients[0]), plain, html)
	if len(message.Personalizations) > 0 {
		for _, rcpt := range payload.Recipients[1:] {
			message.Personalizations[0].AddTos(mail.NewEmail("", rcpt))
		}
	}

	client := sendgrid.NewSendClient(es.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}
