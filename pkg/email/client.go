// Package email sends plain-text mail over SMTP.
package email

import (
	"fmt"

	"gopkg.in/mail.v2"
)

// Client sends emails through one SMTP server.
type Client struct {
	dialer *mail.Dialer
	from   string
}

// NewClient creates a Client for the SMTP server at smtpHost:smtpPort.
// Empty credentials disable authentication.
func NewClient(smtpHost string, smtpPort int, username, password, from string) *Client {
	return &Client{
		dialer: mail.NewDialer(smtpHost, smtpPort, username, password),
		from:   from,
	}
}

// Send mails body to a single recipient under the given subject.
func (c *Client) Send(to, subject, body string) error {
	message := mail.NewMessage()

	message.SetHeader("From", c.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)

	if err := c.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}
