package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	addr string
	host string
	auth smtp.Auth
	from string
	send sendFunc
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		host: host,
		auth: auth,
		from: from,
		send: smtp.SendMail,
	}
}

func (m *SMTPMailer) SendEpass(ctx context.Context, msg EpassMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.send(m.addr, m.auth, m.from, []string{msg.Email}, m.compose(msg)); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.Email, err)
	}
	return nil
}

func (m *SMTPMailer) compose(msg EpassMessage) []byte {
	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\r\n\r\n", msg.FullName)
	fmt.Fprintf(&body, "Your registration is confirmed. Your pass ID is %s.\r\n", msg.RegistrationID)
	if msg.PassURL != "" {
		fmt.Fprintf(&body, "Show this pass at the entrance: %s\r\n", msg.PassURL)
	}
	body.WriteString("\r\nSee you there!\r\n")

	headers := []string{
		"From: " + m.from,
		"To: " + msg.Email,
		"Subject: Your e-pass " + msg.RegistrationID,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body.String())
}
