package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// ErrSlackSendFailed is returned when the webhook rejects a message.
var ErrSlackSendFailed = errors.New("slack: send failed")

// Message is a Slack incoming-webhook payload.
type Message struct {
	Text string `json:"text"`
}

// Client delivers messages to Slack.
type Client interface {
	SendMessage(ctx context.Context, msg Message) error
}

// WebhookClient posts messages to a Slack incoming webhook URL.
type WebhookClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookClient creates a webhook client. Returns nil when no URL is
// configured, which the Service treats as notifications disabled.
func NewWebhookClient(webhookURL string) *WebhookClient {
	if webhookURL == "" {
		return nil
	}
	return &WebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *WebhookClient) SendMessage(ctx context.Context, msg Message) error {
	// A typed-nil client reaches here through the Client interface when no
	// webhook URL is configured.
	if c == nil {
		return nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack: %w: %v", ErrSlackSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack: %w: status %d", ErrSlackSendFailed, resp.StatusCode)
	}
	return nil
}

// Service sends workspace notifications to Slack.
type Service struct {
	client Client
}

// NewService creates a notification service. A nil client disables
// notifications without erroring.
func NewService(client Client) *Service {
	return &Service{client: client}
}

// NotifyNewLead announces a new public-form lead in the team channel.
func (s *Service) NotifyNewLead(ctx context.Context, lead *models.Lead) error {
	if s == nil || s.client == nil || lead == nil {
		return nil
	}

	text := fmt.Sprintf(":incoming_envelope: *New Lead*\nName: %s\nContact: %s\nDepartment: %s\nPriority: %s",
		lead.Name, lead.Contact, lead.Department, lead.Priority)
	if lead.Message != "" {
		text += fmt.Sprintf("\nMessage: %s", lead.Message)
	}

	return s.client.SendMessage(ctx, Message{Text: text})
}

// NotifyLeadCompleted announces a closed deal.
func (s *Service) NotifyLeadCompleted(ctx context.Context, lead *models.Lead) error {
	if s == nil || s.client == nil || lead == nil {
		return nil
	}

	var text string
	if lead.Outcome == models.OutcomeSuccess {
		text = fmt.Sprintf(":tada: *Deal Closed*\nLead: %s\nBy: %s", lead.Name, lead.CompletedBy)
	} else {
		text = fmt.Sprintf(":file_folder: *Lead Closed*\nLead: %s\nOutcome: %s\nBy: %s",
			lead.Name, lead.Outcome, lead.CompletedBy)
	}

	return s.client.SendMessage(ctx, Message{Text: text})
}
