// Package mailer sends the payment confirmation email. Delivery is
// best-effort: the caller logs failures and never lets them touch order or
// payment state.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"mindsupremacy-payments/internal/config"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

type ConfirmationData struct {
	OrderID   string
	PaymentID string
	Amount    int64 // paise
	Currency  string
	PaidAt    time.Time
}

type Mailer interface {
	SendPaymentConfirmation(to string, data ConfirmationData) error
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #B38D4D;">Payment Successful!</h2>
  <p>Thank you for your purchase. Your payment has been confirmed.</p>
  <div style="background: #f5f5f5; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p><strong>Order ID:</strong> {{.OrderID}}</p>
    <p><strong>Amount:</strong> &#8377;{{.DisplayAmount}}</p>
    <p><strong>Date:</strong> {{.Date}}</p>
  </div>
  <p>You can now access your course content by logging into your account.</p>
  <p>If you have any questions, please don't hesitate to contact our support team.</p>
  <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee;">
    <p style="color: #666; font-size: 12px;">This is an automated message, please do not reply.</p>
  </div>
</div>
`))

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.SMTP) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) SendPaymentConfirmation(to string, data ConfirmationData) error {
	var body bytes.Buffer
	err := confirmationTmpl.Execute(&body, struct {
		OrderID       string
		DisplayAmount string
		Date          string
	}{
		OrderID:       data.OrderID,
		DisplayAmount: decimal.New(data.Amount, -2).StringFixed(2),
		Date:          data.PaidAt.Format("02 Jan 2006 15:04 MST"),
	})
	if err != nil {
		return fmt.Errorf("render confirmation template: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Payment Confirmation - MindSupremacy")
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}
