package email

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// Sender sends a single email. Satisfied by the SendGrid client in
// production and by mocks in tests.
type Sender interface {
	Send(toEmail, toName, subject, htmlBody, plainTextBody string) error
}

// Service handles email notifications for the workspace
type Service struct {
	fromEmail   string
	fromName    string
	notifyEmail string
	studioName  string
	sender      Sender
}

// NewService creates a new email service.
// If sendGridAPIKey is provided, emails are sent via SendGrid.
// Otherwise, emails are logged to console (development mode).
func NewService(fromEmail, fromName, notifyEmail, studioName, sendGridAPIKey string) *Service {
	var sender Sender
	if sendGridAPIKey != "" {
		log.Printf("✅ Email service initialized with SendGrid")
		sender = &sendGridSender{apiKey: sendGridAPIKey, fromEmail: fromEmail, fromName: fromName}
	} else {
		log.Printf("⚠️  Email service in console-only mode (set SENDGRID_API_KEY for production)")
	}

	return &Service{
		fromEmail:   fromEmail,
		fromName:    fromName,
		notifyEmail: notifyEmail,
		studioName:  studioName,
		sender:      sender,
	}
}

// NewServiceWithSender creates a service with a custom sender (tests).
func NewServiceWithSender(fromEmail, fromName, notifyEmail, studioName string, sender Sender) *Service {
	return &Service{
		fromEmail:   fromEmail,
		fromName:    fromName,
		notifyEmail: notifyEmail,
		studioName:  studioName,
		sender:      sender,
	}
}

// NotifyNewLead sends an internal notification when the public site form
// produces a new lead. A missing notify address is not an error; the
// deployment simply runs without email alerts.
func (s *Service) NotifyNewLead(lead *models.Lead) error {
	if lead == nil || s.notifyEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("New lead: %s", lead.Name)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>New lead from the %s site</h2>
			<p><strong>Name:</strong> %s</p>
			<p><strong>Contact:</strong> %s</p>
			<p><strong>Department:</strong> %s</p>
			<p><strong>Priority:</strong> %s</p>
			<p><strong>Message:</strong></p>
			<p>%s</p>
		</body>
		</html>
	`, s.studioName, lead.Name, lead.Contact, lead.Department, lead.Priority, lead.Message)

	plainText := fmt.Sprintf(`
New lead from the %s site

Name: %s
Contact: %s
Department: %s
Priority: %s

Message:
%s
	`, s.studioName, lead.Name, lead.Contact, lead.Department, lead.Priority, lead.Message)

	if s.sender != nil {
		return s.sender.Send(s.notifyEmail, s.studioName, subject, body, plainText)
	}

	// Development mode: log to console
	log.Printf("📧 [EMAIL] %s", subject)
	log.Printf("   To: %s", s.notifyEmail)
	log.Printf("   Contact: %s", lead.Contact)
	log.Printf("   ⚠️  Email NOT sent (development mode)")
	return nil
}

// sendGridSender sends email using the SendGrid API
type sendGridSender struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func (g *sendGridSender) Send(toEmail, toName, subject, htmlBody, plainTextBody string) error {
	from := mail.NewEmail(g.fromName, g.fromEmail)
	to := mail.NewEmail(toName, toEmail)

	message := mail.NewSingleEmail(from, subject, to, plainTextBody, htmlBody)

	client := sendgrid.NewSendClient(g.apiKey)
	response, err := client.Send(message)

	if err != nil {
		log.Printf("❌ SendGrid error: %v", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		log.Printf("❌ SendGrid returned error status %d: %s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid returned error status: %d", response.StatusCode)
	}

	log.Printf("✅ Email sent successfully to %s (SendGrid status: %d)", toEmail, response.StatusCode)
	return nil
}
