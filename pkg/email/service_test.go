package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

type mockSender struct {
	sent []sentEmail
	err  error
}

type sentEmail struct {
	to      string
	subject string
	html    string
	plain   string
}

func (m *mockSender) Send(toEmail, toName, subject, htmlBody, plainTextBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: toEmail, subject: subject, html: htmlBody, plain: plainTextBody})
	return nil
}

func TestNotifyNewLead(t *testing.T) {
	lead := &models.Lead{
		Name:       "Аня",
		Contact:    "+79123456789",
		Department: "unassigned",
		Priority:   "normal",
		Message:    "нужен лендинг",
	}

	t.Run("Sends to the configured address", func(t *testing.T) {
		sender := &mockSender{}
		svc := NewServiceWithSender("noreply@lumeo.studio", "Lumeo Studio", "sales@lumeo.studio", "Lumeo Studio", sender)

		require.NoError(t, svc.NotifyNewLead(lead))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "sales@lumeo.studio", sender.sent[0].to)
		assert.Equal(t, "New lead: Аня", sender.sent[0].subject)
		assert.Contains(t, sender.sent[0].html, "+79123456789")
		assert.Contains(t, sender.sent[0].plain, "нужен лендинг")
	})

	t.Run("No notify address disables alerts", func(t *testing.T) {
		sender := &mockSender{}
		svc := NewServiceWithSender("noreply@lumeo.studio", "Lumeo Studio", "", "Lumeo Studio", sender)

		require.NoError(t, svc.NotifyNewLead(lead))
		assert.Empty(t, sender.sent)
	})

	t.Run("Nil lead is a no-op", func(t *testing.T) {
		sender := &mockSender{}
		svc := NewServiceWithSender("noreply@lumeo.studio", "Lumeo Studio", "sales@lumeo.studio", "Lumeo Studio", sender)

		require.NoError(t, svc.NotifyNewLead(nil))
		assert.Empty(t, sender.sent)
	})

	t.Run("Console mode without a sender", func(t *testing.T) {
		svc := NewService("noreply@lumeo.studio", "Lumeo Studio", "sales@lumeo.studio", "Lumeo Studio", "")
		assert.NoError(t, svc.NotifyNewLead(lead))
	})
}
