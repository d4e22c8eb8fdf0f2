package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskhub/internal/models"
)

var (
	_ EmailService = (*SMTPEmailService)(nil)
	_ EmailService = (*MockEmailService)(nil)
)

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", Role: models.RoleAdmin}
}

func TestTemplatesRender(t *testing.T) {
	tpl := NewTemplates()
	data := &EmailData{Username: "alice", Email: "alice@example.com", Role: "admin", AppName: "TaskHub", SupportEmail: "help@example.com"}

	for name, tmpl := range map[string]EmailTemplate{"welcome": tpl.Welcome, "admin_created": tpl.AdminCreated} {
		t.Run(name, func(t *testing.T) {
			subject, err := render(tmpl.Subject, data)
			require.NoError(t, err)
			assert.Contains(t, subject, "TaskHub")

			text, err := render(tmpl.TextBody, data)
			require.NoError(t, err)
			assert.Contains(t, text, "alice")
			assert.Contains(t, text, "help@example.com")

			html, err := render(tmpl.HTMLBody, data)
			require.NoError(t, err)
			assert.Contains(t, html, "alice@example.com")
		})
	}
}

func TestBuildMIMEMessage(t *testing.T) {
	msg := string(buildMIMEMessage("noreply@example.com", "TaskHub", "alice@example.com", "Hi", "plain", "<p>html</p>", "b0undary"))

	assert.True(t, strings.HasPrefix(msg, "From: TaskHub <noreply@example.com>\n"))
	assert.Contains(t, msg, `boundary="b0undary"`)
	assert.Contains(t, msg, "plain")
	assert.Contains(t, msg, "<p>html</p>")
	assert.True(t, strings.HasSuffix(msg, "--b0undary--\n"))
}

func TestSMTPEmailService_CancelledContext(t *testing.T) {
	svc := NewSMTPEmailService(&Config{SMTPHost: "127.0.0.1", SMTPPort: 1, AppName: "TaskHub"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.SendWelcomeEmail(ctx, testUser())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockEmailService(t *testing.T) {
	m := NewMockEmailService()
	ctx := context.Background()
	user := testUser()

	require.NoError(t, m.SendWelcomeEmail(ctx, user))
	require.NoError(t, m.SendAdminCreatedEmail(ctx, user))

	sent := m.GetSentEmails()
	require.Len(t, sent, 2)
	assert.Equal(t, "welcome", sent[0].Template)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, "admin_created", m.GetLastSentEmail().Template)

	m.Clear()
	assert.Nil(t, m.GetLastSentEmail())

	m.Err = errors.New("smtp down")
	assert.EqualError(t, m.SendWelcomeEmail(ctx, user), "smtp down")
	assert.Empty(t, m.GetSentEmails())
}

func TestMockEmailService_Concurrent(t *testing.T) {
	m := NewMockEmailService()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.SendWelcomeEmail(context.Background(), testUser())
		}()
	}
	wg.Wait()
	assert.Len(t, m.GetSentEmails(), 20)
}
