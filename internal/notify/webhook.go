package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Webhook posts messages as JSON to a fixed URL.
type Webhook struct {
	url    string
	client *resty.Client
}

// NewWebhook returns a webhook notifier with a small retry budget.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Webhook{url: url, client: client}
}

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, msg Message) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post(w.url)
	if err != nil {
		return wrap("webhook", err)
	}
	if resp.IsError() {
		return wrap("webhook", fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}
	return nil
}
