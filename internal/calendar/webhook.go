package calendar

import (
	"context"
	"log/slog"
	"time"

	"onboarding-tracker/internal/workflow"
	pkghttp "onboarding-tracker/pkg/http"
)

// WebhookNotifier pushes event changes to the external calendar provider.
// Delivery is the provider's problem; this side is fire-and-forget with a
// short timeout, and failures are only logged.
type WebhookNotifier struct {
	url    string
	client *pkghttp.Client
	log    *slog.Logger
}

func NewWebhookNotifier(url string, log *slog.Logger) *WebhookNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookNotifier{
		url:    url,
		client: pkghttp.NewClient(10 * time.Second),
		log:    log,
	}
}

type webhookPayload struct {
	Action string                  `json:"action"` // create | reschedule | cancel | complete
	Event  *workflow.CalendarEvent `json:"event"`
}

func (n *WebhookNotifier) NotifyEvent(ctx context.Context, action string, ev *workflow.CalendarEvent) {
	if n.url == "" {
		return
	}
	resp, err := n.client.PostJSON(ctx, n.url, webhookPayload{Action: action, Event: ev})
	if err != nil {
		n.log.Warn("calendar webhook failed", "action", action, "event_id", ev.ID, "err", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.log.Warn("calendar webhook rejected", "action", action, "event_id", ev.ID, "status", resp.StatusCode)
	}
}
