// Package notify delivers alerts about high-severity complaints.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Message is one outbound alert.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier delivers a message to its configured recipients.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop drops every message.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Message) error { return nil }

// Multi fans a message out to several notifiers and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options configures the available channels. A channel with no target is
// left out.
type Options struct {
	WebhookURL string
	SMTP       SMTPConfig
	Timeout    time.Duration
}

// New builds a notifier from opts. With nothing configured it returns Nop.
func New(opts Options) Notifier {
	var m Multi
	if opts.WebhookURL != "" {
		m = append(m, NewWebhook(opts.WebhookURL, opts.Timeout))
	}
	if opts.SMTP.Host != "" && len(opts.SMTP.To) > 0 {
		m = append(m, NewSMTP(opts.SMTP))
	}
	switch len(m) {
	case 0:
		return Nop{}
	case 1:
		return m[0]
	}
	return m
}

// Async sends msg on its own goroutine with a context detached from the
// caller, so the triggering request neither waits nor cancels it. Failures
// are logged. If done is non-nil it receives the outcome once the send
// finishes.
func Async(n Notifier, msg Message, timeout time.Duration, done func(error)) {
	if n == nil {
		return
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := n.Notify(ctx, msg)
		if err != nil {
			slog.Error("notification failed", "subject", msg.Subject, "error", err)
		} else {
			slog.Info("notification sent", "subject", msg.Subject)
		}
		if done != nil {
			done(err)
		}
	}()
}

func wrap(channel string, err error) error {
	return fmt.Errorf("%s notifier: %w", channel, err)
}
