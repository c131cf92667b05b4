package offline

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/candyland/internal/logging"
)

// defaultClickURL is the site root, used when a notification carries no url.
const defaultClickURL = "./"

// Click actions.
const (
	ClickFocus = "focus"
	ClickOpen  = "open"
)

// NotificationClick is a user interaction with a displayed notification.
type NotificationClick struct {
	Data  map[string]any
	Close func() // closes the displayed notification, may be nil
}

// TargetURL returns the url carried in the notification data, or the site root.
func (n NotificationClick) TargetURL() string {
	if n.Data != nil {
		if u, ok := n.Data["url"].(string); ok && u != "" {
			return u
		}
	}
	return defaultClickURL
}

// ClickResult tells what the worker did with a notification click.
type ClickResult struct {
	Action   string `json:"action"`
	ClientID string `json:"clientId"`
	URL      string `json:"url"`
}

// HandleNotificationClick closes the notification, then focuses the first open
// page whose URL contains the notification's target, or opens a new page there.
func (w *Worker) HandleNotificationClick(ctx context.Context, ev NotificationClick) (*ClickResult, error) {
	if ev.Close != nil {
		ev.Close()
	}
	if w.deps.Clients == nil {
		return nil, fmt.Errorf("no window clients available")
	}

	ctx = w.logContext(ctx)
	log := logging.FromContext(ctx)
	target := ev.TargetURL()

	windows, err := w.deps.Clients.MatchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("match clients: %w", err)
	}

	for _, c := range windows {
		if strings.Contains(c.URL(), target) {
			if err := c.Focus(ctx); err != nil {
				return nil, fmt.Errorf("focus client %s: %w", c.ID(), err)
			}
			log.Debug().Str("client_id", c.ID()).Str("target", target).Msg("focused existing client")
			return &ClickResult{Action: ClickFocus, ClientID: c.ID(), URL: c.URL()}, nil
		}
	}

	opened, err := w.deps.Clients.OpenWindow(ctx, w.cfg.resolve(target))
	if err != nil {
		return nil, fmt.Errorf("open window: %w", err)
	}
	log.Debug().Str("client_id", opened.ID()).Str("target", target).Msg("opened new client")
	return &ClickResult{Action: ClickOpen, ClientID: opened.ID(), URL: opened.URL()}, nil
}
