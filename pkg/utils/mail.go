package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/lotbajar/social/pkg/logger"
	"gopkg.in/gomail.v2"
)

// EmailConfig holds SMTP and app settings, passed in from app config.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	AppURL       string
	FromEmail    string
}

// SendActivationEmail sends the account activation email with OTP and link.
func SendActivationEmail(ctx context.Context, config EmailConfig, email, username, token string, otp int64, log *logger.Logger) error {
	activationLink := fmt.Sprintf("%s/activate?token=%s", config.AppURL, token)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Welcome</title></head>
<body style="font-family: Arial, sans-serif; background:#f4f4f4; color:#333;">
  <div style="max-width:600px; margin:40px auto; background:#fff; border-radius:8px; overflow:hidden;">
    <div style="background:#2b6cb0; padding:20px; text-align:center; color:#fff;">
      <h1 style="margin:0; font-size:24px;">Welcome aboard!</h1>
    </div>
    <div style="padding:30px; line-height:1.6;">
      <p>Hello %s,</p>
      <p>Your account is almost ready. Activate it with the code below or click the link.</p>
      <div style="font-size:28px; font-weight:bold; color:#2b6cb0; text-align:center; margin:20px 0;">%d</div>
      <p style="text-align:center;">
        <a href="%s" style="display:inline-block; padding:12px 24px; background:#2b6cb0; color:#fff; text-decoration:none; border-radius:5px; font-weight:bold;">Activate Your Account</a>
      </p>
      <p>The code expires in 24 hours. If you didn't sign up, ignore this email.</p>
    </div>
    <div style="background:#f4f4f4; padding:20px; text-align:center; font-size:12px; color:#777;">
      <p>&copy; %d lotbajar</p>
    </div>
  </div>
</body>
</html>
`, username, otp, activationLink, time.Now().Year())

	textBody := fmt.Sprintf(`
Hello %s,

Your activation code is: %d

Activate your account here: %s

The code expires in 24 hours. If you didn't sign up, ignore this email.
`, username, otp, activationLink)

	msg := gomail.NewMessage()
	msg.SetHeader("From", config.FromEmail)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Activate Your Account")
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	dialer := gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUsername, config.SMTPPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		log.Warn(ctx).WithFields("email", email, "error", err.Error()).Logs("Failed to send activation email")
		return WrapError(err, ErrInternalServerError.Code, "Failed to send activation email")
	}

	log.Info(ctx).WithFields("email", email).Logs("Activation email sent")
	return nil
}

// SendInvitationEmail sends an invitation with its one-shot code. Registration
// requires a valid code, so this is the community's front door.
func SendInvitationEmail(ctx context.Context, config EmailConfig, email, inviter, code string, expiresAt time.Time, log *logger.Logger) error {
	joinLink := fmt.Sprintf("%s/register?code=%s", config.AppURL, code)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>You're invited</title></head>
<body style="font-family: Arial, sans-serif; background:#f4f4f4; color:#333;">
  <div style="max-width:600px; margin:40px auto; background:#fff; border-radius:8px; overflow:hidden;">
    <div style="background:#2b6cb0; padding:20px; text-align:center; color:#fff;">
      <h1 style="margin:0; font-size:24px;">You're invited</h1>
    </div>
    <div style="padding:30px; line-height:1.6;">
      <p>%s invited you to join the community.</p>
      <p style="text-align:center;">
        <a href="%s" style="display:inline-block; padding:12px 24px; background:#2b6cb0; color:#fff; text-decoration:none; border-radius:5px; font-weight:bold;">Accept Invitation</a>
      </p>
      <p>Or sign up with code <strong>%s</strong>. The invitation expires on %s.</p>
    </div>
    <div style="background:#f4f4f4; padding:20px; text-align:center; font-size:12px; color:#777;">
      <p>&copy; %d lotbajar</p>
    </div>
  </div>
</body>
</html>
`, inviter, joinLink, code, expiresAt.Format("Jan 2, 2006"), time.Now().Year())

	textBody := fmt.Sprintf(`
%s invited you to join the community.

Sign up here: %s
Invitation code: %s

The invitation expires on %s.
`, inviter, joinLink, code, expiresAt.Format("Jan 2, 2006"))

	msg := gomail.NewMessage()
	msg.SetHeader("From", config.FromEmail)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", fmt.Sprintf("%s invited you to join", inviter))
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	dialer := gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUsername, config.SMTPPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		log.Warn(ctx).WithFields("email", email, "error", err.Error()).Logs("Failed to send invitation email")
		return WrapError(err, ErrInternalServerError.Code, "Failed to send invitation email")
	}

	log.Info(ctx).WithFields("email", email).Logs("Invitation email sent")
	return nil
}
