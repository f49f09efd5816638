// Package email provides the outbound email abstraction.
//
// The current implementation uses the Resend API. Services depend on the
// EmailSender interface, not on Resend directly, so the provider can be
// swapped without touching the notification code. Email delivery here is
// strictly best-effort: a failed send is logged by the caller and never
// surfaces to the user who posted the message.
package email

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v3"
)

// EmailSender sends transactional mail on behalf of the platform.
type EmailSender interface {
	// SendMessageNotification tells an offline recipient that a direct
	// message is waiting for them. preview is a short plain-text excerpt
	// of the message body.
	SendMessageNotification(ctx context.Context, toEmail, senderName, preview string) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewResendSender builds an EmailSender backed by the Resend API.
//
// fromEmail must belong to a domain verified in the Resend dashboard.
// appURL is the public URL of the platform, used for the inbox link.
func NewResendSender(apiKey, fromEmail, appURL string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

func (s *resendSender) SendMessageNotification(ctx context.Context, toEmail, senderName, preview string) error {
	inboxLink := fmt.Sprintf("%s/messages", s.appURL)

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f4f1ea;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#f4f1ea;padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#236383;font-size:22px;margin:0 0 8px 0;">The Sandwich Project</h1>
              <h2 style="color:#333333;font-size:17px;margin:0 0 24px 0;">New message from %s</h2>
              <p style="color:#555555;font-size:15px;line-height:1.6;margin:0 0 24px 0;">%s</p>
              <table cellpadding="0" cellspacing="0" style="margin:0 0 24px 0;">
                <tr>
                  <td style="background-color:#236383;border-radius:6px;padding:12px 32px;">
                    <a href="%s" style="color:#ffffff;text-decoration:none;font-size:15px;font-weight:600;">Open Inbox</a>
                  </td>
                </tr>
              </table>
              <p style="color:#999999;font-size:13px;line-height:1.6;margin:0;">
                You are receiving this because you have direct messages enabled on the volunteer platform.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, html.EscapeString(senderName), html.EscapeString(preview), inboxLink)

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{toEmail},
		Subject: fmt.Sprintf("New message from %s — The Sandwich Project", senderName),
		Html:    body,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send message notification email: %w", err)
	}
	return nil
}
