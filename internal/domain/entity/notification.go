package entity

import (
	"encoding/json"
	"time"
)

// Notification defaults used when a send request leaves fields empty.
const (
	DefaultNotificationTitle   = "Powers and square roots"
	DefaultNotificationMessage = "Time to practice your powers and roots!"
	DefaultNotificationURL     = "/"
)

// Notification is a push message broadcast to every subscription.
type Notification struct {
	Title     string
	Message   string
	URL       string
	Data      map[string]any
	Timestamp time.Time
}

// WithDefaults fills empty fields.
func (n Notification) WithDefaults() Notification {
	if n.Title == "" {
		n.Title = DefaultNotificationTitle
	}
	if n.Message == "" {
		n.Message = DefaultNotificationMessage
	}
	if n.URL == "" {
		n.URL = DefaultNotificationURL
	}
	if n.Data == nil {
		n.Data = map[string]any{}
	}
	return n
}

type notificationPayload struct {
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	URL       string         `json:"url"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// Payload encodes the notification as the JSON document pushed to clients.
func (n Notification) Payload() ([]byte, error) {
	ts := n.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(notificationPayload{
		Title:     n.Title,
		Message:   n.Message,
		URL:       n.URL,
		Data:      data,
		Timestamp: ts.UnixMilli(),
	})
}

// Delivery statuses.
const (
	DeliverySuccess = "success"
	DeliveryError   = "error"
)

// DeliveryResult is the outcome of pushing to one subscription.
type DeliveryResult struct {
	Endpoint string `json:"endpoint"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// BroadcastReport summarizes a broadcast to all subscriptions.
type BroadcastReport struct {
	Success            bool             `json:"success"`
	Message            string           `json:"message,omitempty"`
	Sent               int              `json:"sent"`
	Failed             int              `json:"failed"`
	TotalSubscriptions int              `json:"totalSubscriptions"`
	Results            []DeliveryResult `json:"results,omitempty"`
}

// Reminder defaults.
const (
	DefaultReminderTitle   = "Study reminder"
	DefaultReminderMessage = "Time to practice powers and square roots. Five minutes is enough!"
	DefaultReminderURL     = "/actividades.html"
)

// DefaultReminder returns the notification sent by a scheduled reminder.
func DefaultReminder() Notification {
	return Notification{
		Title:   DefaultReminderTitle,
		Message: DefaultReminderMessage,
		URL:     DefaultReminderURL,
	}
}
