package entity

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidSubscription is returned when a push subscription has no endpoint.
var ErrInvalidSubscription = errors.New("invalid subscription")

// SubscriptionKeys holds the client keys used to encrypt push payloads.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is a browser push subscription, in the PushSubscription JSON shape.
// The endpoint uniquely identifies it.
type Subscription struct {
	Endpoint       string           `json:"endpoint"`
	ExpirationTime *int64           `json:"expirationTime"`
	Keys           SubscriptionKeys `json:"keys"`
	CreatedAt      time.Time        `json:"createdAt,omitzero"`
}

// Validate checks the subscription can be delivered to.
func (s *Subscription) Validate() error {
	if s == nil || strings.TrimSpace(s.Endpoint) == "" {
		return ErrInvalidSubscription
	}
	return nil
}

// ShortEndpoint truncates the endpoint for reports and logs.
func ShortEndpoint(endpoint string) string {
	const maxLen = 50
	if len(endpoint) <= maxLen {
		return endpoint + "..."
	}
	return endpoint[:maxLen] + "..."
}
