package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/go-mail/mail/v2"
)

// SMTPConfig configures the mail channel.
type SMTPConfig struct {
	Host     string   `yaml:"host" env:"HOST"`
	Port     int      `yaml:"port" env:"PORT"`
	Username string   `yaml:"username" env:"USERNAME"`
	Password string   `yaml:"password" env:"PASSWORD"`
	From     string   `yaml:"from" env:"FROM"`
	To       []string `yaml:"to" env:"TO"`
}

// SMTP sends plain-text mail. Every network step is bounded by the
// context passed to Notify.
type SMTP struct {
	cfg  SMTPConfig
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewSMTP returns a mail notifier.
func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	var d net.Dialer
	return &SMTP{cfg: cfg, dial: d.DialContext}
}

// Notify implements Notifier.
func (s *SMTP) Notify(ctx context.Context, msg Message) error {
	sender := mail.SendFunc(func(from string, to []string, body io.WriterTo) error {
		return s.send(ctx, from, to, body)
	})
	if err := mail.Send(sender, s.compose(msg)); err != nil {
		return wrap("smtp", err)
	}
	return nil
}

func (s *SMTP) compose(msg Message) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To...)
	m.SetHeader("Subject", sanitizeHeader(msg.Subject))
	m.SetBody("text/plain", msg.Body)
	return m
}

func (s *SMTP) send(ctx context.Context, from string, to []string, body io.WriterTo) error {
	conn, err := s.dial(ctx, "tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("dialing: %w", err)
	}
	defer conn.Close()

	// Deadline covers the greeting and every later read and write.
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("reading greeting: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starting tls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := body.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing message: %w", err)
	}
	return c.Quit()
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
