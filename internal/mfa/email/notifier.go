package email

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strconv"
	"time"
)

// DefaultSubject is the subject line of OTP mail.
const DefaultSubject = "Portfolio Admin Panel - OTP Verification"

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
  <head><meta charset="utf-8"><title>OTP Verification</title></head>
  <body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Portfolio Admin Access</h1>
    <p>Use this code to complete your admin panel login:</p>
    <div style="font-size: 36px; font-weight: bold; letter-spacing: 8px; font-family: 'Courier New', monospace;">{{.Code}}</div>
    <p><strong>Security Notice:</strong> This OTP expires in {{.ExpiresIn}}. Do not share this code with anyone.</p>
    <p>If you didn't request this login, please ignore this email.</p>
  </body>
</html>
`))

// Notifier delivers an OTP code to a destination address and returns the provider message id.
type Notifier interface {
	SendOTP(ctx context.Context, code, to string) (string, error)
}

// OTPNotifier renders the OTP email and hands it to a Sender.
type OTPNotifier struct {
	sender  Sender
	from    string
	subject string
	ttl     time.Duration
	timeout time.Duration
}

// NewOTPNotifier returns a Notifier. ttl is stated in the message body; timeout bounds each send (0 means no bound
// beyond the caller's context).
func NewOTPNotifier(sender Sender, from string, ttl, timeout time.Duration) *OTPNotifier {
	return &OTPNotifier{sender: sender, from: from, subject: DefaultSubject, ttl: ttl, timeout: timeout}
}

// SendOTP renders the message and sends it. Errors are returned to the caller, never fatal.
func (n *OTPNotifier) SendOTP(ctx context.Context, code, to string) (string, error) {
	if code == "" || to == "" {
		return "", errors.New("email: code and destination are required")
	}
	html, err := RenderOTP(code, n.ttl)
	if err != nil {
		return "", err
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	return n.sender.Send(ctx, Message{
		From:    n.from,
		To:      []string{to},
		Subject: n.subject,
		HTML:    html,
	})
}

// RenderOTP returns the HTML body embedding code and a human-readable expiry notice.
func RenderOTP(code string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Code      string
		ExpiresIn string
	}{Code: code, ExpiresIn: humanDuration(ttl)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func humanDuration(d time.Duration) string {
	if d <= 0 {
		d = 10 * time.Minute
	}
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return strconv.Itoa(m) + " minutes"
	}
	s := int(d / time.Second)
	if s == 1 {
		return "1 second"
	}
	return strconv.Itoa(s) + " seconds"
}
