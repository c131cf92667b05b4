// Package push delivers notifications through the Web Push protocol.
package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/logging"
)

const (
	defaultTTL         = 24 * time.Hour
	defaultTimeout     = 15 * time.Second
	maxErrorBodyLength = 512
)

// Config holds the sender identity and delivery options.
type Config struct {
	Keys port.VAPIDKeys
	// Subscriber is a mailto: address or https URL the push service can use to
	// contact the sender.
	Subscriber string
	TTL        time.Duration
	Urgency    string
	HTTPClient *http.Client
}

// Sender implements port.PushSender with webpush-go.
type Sender struct {
	cfg     Config
	urgency webpush.Urgency
}

// NewSender validates cfg and creates a Sender.
func NewSender(cfg Config) (*Sender, error) {
	if cfg.Keys.PublicKey == "" || cfg.Keys.PrivateKey == "" {
		return nil, fmt.Errorf("VAPID public and private keys are required")
	}
	if cfg.Subscriber == "" {
		return nil, fmt.Errorf("VAPID subscriber is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	urgency, err := parseUrgency(cfg.Urgency)
	if err != nil {
		return nil, err
	}
	return &Sender{cfg: cfg, urgency: urgency}, nil
}

func parseUrgency(s string) (webpush.Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return webpush.UrgencyNormal, nil
	case "very-low":
		return webpush.UrgencyVeryLow, nil
	case "low":
		return webpush.UrgencyLow, nil
	case "high":
		return webpush.UrgencyHigh, nil
	default:
		return "", fmt.Errorf("unknown push urgency %q", s)
	}
}

// Send encrypts payload for sub and posts it to the subscription endpoint.
// A rejection by the push service is returned as *port.PushError.
func (s *Sender) Send(ctx context.Context, sub *entity.Subscription, payload []byte) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	log := logging.FromContext(ctx)

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      s.cfg.HTTPClient,
		Subscriber:      s.cfg.Subscriber,
		TTL:             int(s.cfg.TTL.Seconds()),
		Urgency:         s.urgency,
		VAPIDPublicKey:  s.cfg.Keys.PublicKey,
		VAPIDPrivateKey: s.cfg.Keys.PrivateKey,
	})
	if err != nil {
		return fmt.Errorf("send push to %s: %w", entity.ShortEndpoint(sub.Endpoint), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		return &port.PushError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	log.Debug().
		Str("endpoint", entity.ShortEndpoint(sub.Endpoint)).
		Int("status", resp.StatusCode).
		Msg("push delivered")
	return nil
}

// GenerateKeys creates a fresh VAPID key pair.
func GenerateKeys() (port.VAPIDKeys, error) {
	private, public, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return port.VAPIDKeys{}, fmt.Errorf("generate VAPID keys: %w", err)
	}
	return port.VAPIDKeys{PublicKey: public, PrivateKey: private}, nil
}

var _ port.PushSender = (*Sender)(nil)
