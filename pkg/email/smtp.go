// pkg/email/smtp.go
package email

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/smtp"
	"sync"
	"text/template"
	"time"

	"github.com/gurkanbulca/taskhub/internal/models"
)

// SMTPEmailService implements EmailService using SMTP
type SMTPEmailService struct {
	config    *Config
	templates *Templates
	auth      smtp.Auth
}

// NewSMTPEmailService creates a new SMTP email service
func NewSMTPEmailService(config *Config) *SMTPEmailService {
	var auth smtp.Auth
	if config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", config.SMTPUsername, config.SMTPPassword, config.SMTPHost)
	}

	return &SMTPEmailService{
		config:    config,
		templates: NewTemplates(),
		auth:      auth,
	}
}

// SendWelcomeEmail thanks a newly registered user.
func (s *SMTPEmailService) SendWelcomeEmail(ctx context.Context, user *models.User) error {
	return s.sendEmail(ctx, user.Email, s.templates.Welcome, s.buildEmailData(user))
}

// SendAdminCreatedEmail notifies the owner of a new administrator account.
func (s *SMTPEmailService) SendAdminCreatedEmail(ctx context.Context, user *models.User) error {
	return s.sendEmail(ctx, user.Email, s.templates.AdminCreated, s.buildEmailData(user))
}

func (s *SMTPEmailService) buildEmailData(user *models.User) *EmailData {
	return &EmailData{
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role.String(),
		AppName:      s.config.AppName,
		SupportEmail: s.config.SupportEmail,
	}
}

func (s *SMTPEmailService) sendEmail(ctx context.Context, to string, tmpl EmailTemplate, data *EmailData) error {
	subject, err := render(tmpl.Subject, data)
	if err != nil {
		return fmt.Errorf("render subject: %w", err)
	}
	htmlBody, err := render(tmpl.HTMLBody, data)
	if err != nil {
		return fmt.Errorf("render HTML body: %w", err)
	}
	textBody, err := render(tmpl.TextBody, data)
	if err != nil {
		return fmt.Errorf("render text body: %w", err)
	}

	message := buildMIMEMessage(s.config.FromEmail, s.config.FromName, to, subject, textBody, htmlBody, generateBoundary())

	// net/smtp takes no context.
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	if err := smtp.SendMail(addr, s.auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func render(text string, data *EmailData) (string, error) {
	t, err := template.New("email").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func generateBoundary() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// buildMIMEMessage builds a MIME email message with both text and HTML parts
func buildMIMEMessage(from, fromName, to, subject, textBody, htmlBody, boundary string) []byte {
	message := fmt.Sprintf(`From: %s <%s>
To: %s
Subject: %s
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="%s"

--%s
Content-Type: text/plain; charset=UTF-8
Content-Transfer-Encoding: 7bit

%s

--%s
Content-Type: text/html; charset=UTF-8
Content-Transfer-Encoding: 7bit

%s

--%s--
`, fromName, from, to, subject, boundary, boundary, textBody, boundary, htmlBody, boundary)

	return []byte(message)
}

// TestConnection dials the SMTP server and authenticates when credentials are set.
func (s *SMTPEmailService) TestConnection(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial SMTP server: %w", err)
	}
	defer client.Close()

	if s.auth == nil {
		return nil
	}
	if err := client.Auth(s.auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	return nil
}

// MockEmailService records emails instead of sending them. It is safe for
// concurrent use.
type MockEmailService struct {
	mu         sync.Mutex
	sentEmails []SentEmail
	// Err, when set, is returned by every send.
	Err error
}

// SentEmail represents an email that was sent via MockEmailService
type SentEmail struct {
	To       string
	Template string
	Data     *EmailData
	SentAt   time.Time
}

// NewMockEmailService creates a new mock email service
func NewMockEmailService() *MockEmailService {
	return &MockEmailService{
		sentEmails: make([]SentEmail, 0),
	}
}

// SendWelcomeEmail mock implementation
func (m *MockEmailService) SendWelcomeEmail(_ context.Context, user *models.User) error {
	return m.record(user, "welcome")
}

// SendAdminCreatedEmail mock implementation
func (m *MockEmailService) SendAdminCreatedEmail(_ context.Context, user *models.User) error {
	return m.record(user, "admin_created")
}

func (m *MockEmailService) record(user *models.User, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.sentEmails = append(m.sentEmails, SentEmail{
		To:       user.Email,
		Template: name,
		Data: &EmailData{
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role.String(),
		},
		SentAt: time.Now(),
	})
	return nil
}

// GetSentEmails returns a copy of all sent emails (for testing)
func (m *MockEmailService) GetSentEmails() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SentEmail, len(m.sentEmails))
	copy(out, m.sentEmails)
	return out
}

// GetLastSentEmail returns the last sent email (for testing)
func (m *MockEmailService) GetLastSentEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sentEmails) == 0 {
		return nil
	}
	last := m.sentEmails[len(m.sentEmails)-1]
	return &last
}

// Clear clears all sent emails (for testing)
func (m *MockEmailService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentEmails = make([]SentEmail, 0)
}
