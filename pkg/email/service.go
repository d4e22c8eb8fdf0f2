// pkg/email/service.go
package email

import (
	"context"

	"github.com/gurkanbulca/taskhub/internal/models"
)

// EmailService sends account notifications. Callers treat delivery as
// best effort.
type EmailService interface {
	SendWelcomeEmail(ctx context.Context, user *models.User) error
	SendAdminCreatedEmail(ctx context.Context, user *models.User) error
}

// EmailTemplate represents an email template
type EmailTemplate struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailData contains data for template rendering
type EmailData struct {
	Username     string
	Email        string
	Role         string
	AppName      string
	SupportEmail string
}

// Config holds email service configuration
type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	AppName      string
	SupportEmail string
}

// Templates holds all email templates
type Templates struct {
	Welcome      EmailTemplate
	AdminCreated EmailTemplate
}

// NewTemplates creates default email templates
func NewTemplates() *Templates {
	return &Templates{
		Welcome: EmailTemplate{
			Subject: "Welcome to {{.AppName}}",
			HTMLBody: `
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Welcome</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 14px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Thanks for registering, {{.Username}}!</h1>
        <p>Your {{.AppName}} account for <strong>{{.Email}}</strong> is ready. You can sign in and start creating tasks right away.</p>
        <div class="footer">
            <p>Questions? Contact us at {{.SupportEmail}}</p>
        </div>
    </div>
</body>
</html>`,
			TextBody: `Thanks for registering, {{.Username}}!

Your {{.AppName}} account for {{.Email}} is ready. You can sign in and start creating tasks right away.

Questions? Contact us at {{.SupportEmail}}`,
		},
		AdminCreated: EmailTemplate{
			Subject: "Your {{.AppName}} administrator account",
			HTMLBody: `
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Administrator account created</title>
</head>
<body>
    <div style="max-width: 600px; margin: 0 auto; padding: 20px; font-family: sans-serif;">
        <h1>Hello {{.Username}},</h1>
        <p>An account with the <strong>{{.Role}}</strong> role was created for {{.Email}} on {{.AppName}}.</p>
        <p>If you did not expect this, contact {{.SupportEmail}} immediately.</p>
    </div>
</body>
</html>`,
			TextBody: `Hello {{.Username}},

An account with the {{.Role}} role was created for {{.Email}} on {{.AppName}}.

If you did not expect this, contact {{.SupportEmail}} immediately.`,
		},
	}
}
