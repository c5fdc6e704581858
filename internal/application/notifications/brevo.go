package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clubhub-backend/internal/domain"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender `json:"sender"`
	To          []BrevoTo   `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// BrevoClient sends reservation emails via the Brevo (Sendinblue) API.
// An empty APIKey makes every send a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@clubhub.app"
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "ClubHub"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPI, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *BrevoClient) ReservationConfirmed(ctx context.Context, email string, reservation *domain.Reservation) error {
	content := fmt.Sprintf(`
    <h1>Your reservation is confirmed</h1>
    <p>Your booking from <strong>%s</strong> to <strong>%s</strong> has been confirmed.</p>
    <p>Reservation reference: %s</p>
`, reservation.StartsAt.Format(time.RFC1123), reservation.EndsAt.Format(time.RFC1123), reservation.ID)
	return c.send(ctx, email, "Reservation confirmed", emailLayout(content))
}

func (c *BrevoClient) ReservationPaymentFailed(ctx context.Context, email string, reservation *domain.Reservation) error {
	content := fmt.Sprintf(`
    <h1>We could not collect your payment</h1>
    <p>The payment for your booking from <strong>%s</strong> to <strong>%s</strong> failed. The booking is held as unpaid; please retry the payment or contact the club.</p>
    <p>Reservation reference: %s</p>
`, reservation.StartsAt.Format(time.RFC1123), reservation.EndsAt.Format(time.RFC1123), reservation.ID)
	return c.send(ctx, email, "Reservation payment failed", emailLayout(content))
}

func emailLayout(contentHTML string) string {
	year := time.Now().Year()
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"><title>ClubHub</title></head>
<body style="margin:0;padding:0;background-color:#F3F4F6;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;">
  <table role="presentation" width="100%%"><tr><td align="center" style="padding:24px;">
    <table role="presentation" width="600" style="background:#FFFFFF;border-radius:8px;padding:32px;">
      <tr><td class="content-body">%s</td></tr>
      <tr><td style="padding-top:24px;font-size:12px;color:#6B7280;">&copy; %d ClubHub</td></tr>
    </table>
  </td></tr></table>
</body>
</html>`, contentHTML, year)
}

// EscapeHTML escapes user-provided text interpolated into email HTML.
func EscapeHTML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	return r.Replace(s)
}
