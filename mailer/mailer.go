// Package mailer is the fire-and-forget notification collaborator. It is
// constructed once at startup and injected; no core operation depends on a
// send succeeding.
package mailer

import (
	"fmt"
	"net/smtp"
)

type Sender interface {
	Send(to, subject, body string) error
}

// SMTP sends plain-text mail over a single authenticated SMTP endpoint.
type SMTP struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

func NewSMTP(host, port, username, password, from string) *SMTP {
	return &SMTP{
		addr: host + ":" + port,
		from: from,
		auth: smtp.PlainAuth("", username, password, host),
	}
}

func (s *SMTP) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.from, to, subject, body)
	return smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg))
}

// Noop drops every message; used when no SMTP endpoint is configured.
type Noop struct{}

func (Noop) Send(to, subject, body string) error { return nil }
