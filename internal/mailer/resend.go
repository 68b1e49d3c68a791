// Package mailer delivers login codes over email through the Resend API.
package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/acadflow/approval-api/internal/models"
)

// roleTitles maps a role to the human title used in OTP mail subjects.
var roleTitles = map[models.UserRole]string{
	models.RoleStudent:      "Student",
	models.RoleClassTeacher: "Class Teacher",
	models.RoleFaculty:      "Faculty",
	models.RoleHod:          "HOD",
	models.RoleCoe:          "COE",
}

// RoleTitle returns the display title for a role.
func RoleTitle(role models.UserRole) string {
	if title, ok := roleTitles[role]; ok {
		return title
	}
	return "User"
}

// ResendMailer sends OTP mail via Resend.
type ResendMailer struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

// NewResendMailer constructs a mailer with the given API key and sender.
func NewResendMailer(apiKey, from string, logger *zap.Logger) *ResendMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}

// SendOTP mails a login code to the recipient. The code itself is never
// logged.
func (m *ResendMailer) SendOTP(ctx context.Context, email string, role models.UserRole, code string, validMinutes int) error {
	title := RoleTitle(role)
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{email},
		Subject: fmt.Sprintf("Your %s Login OTP", title),
		Html: fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h2>%s Login</h2>
  <p>Use the code below to sign in. It is valid for %d minutes and can be used once.</p>
  <p style="font-size: 32px; font-weight: bold; letter-spacing: 8px;">%s</p>
  <p>If you did not request this code, you can ignore this email.</p>
</div>`, title, validMinutes, code),
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		m.logger.Error("otp mail send failed", zap.String("email", email), zap.String("role", string(role)), zap.Error(err))
		return fmt.Errorf("send otp mail: %w", err)
	}

	m.logger.Info("otp mail sent", zap.String("email", email), zap.String("role", string(role)), zap.String("message_id", sent.Id))
	return nil
}
