package services

import (
	"context"
	"time"

	"scholarline/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// WebhookNotifier relays engine events to an external system over HTTP.
// Delivery is fire-and-forget: failures are logged and never surface to the
// caller or unwind the primary write.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	log    *logger.Logger
}

func NewWebhookNotifier(url string, log *logger.Logger) *WebhookNotifier {
	client := resty.New()
	client.SetTimeout(5 * time.Second)
	client.SetRetryCount(1)
	return &WebhookNotifier{client: client, url: url, log: log}
}

// Notify posts the payload. Callers run it in a goroutine; the method never
// returns an error.
func (n *WebhookNotifier) Notify(event string, payload interface{}) {
	if n == nil || n.url == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"event":   event,
			"payload": payload,
		}).
		Post(n.url)
	if err != nil && n.log != nil {
		n.log.Warnf("webhook delivery failed for %s: %v", event, err)
	}
}
