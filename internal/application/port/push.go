package port

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bnema/candyland/internal/domain/entity"
)

// PushSender delivers an encrypted payload to one push subscription.
type PushSender interface {
	Send(ctx context.Context, sub *entity.Subscription, payload []byte) error
}

// PushError is returned when the push service rejects a delivery.
type PushError struct {
	StatusCode int
	Body       string
}

func (e *PushError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("push service responded %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("push service responded %d", e.StatusCode)
}

// IsGone reports whether err means the subscription no longer exists
// at the push service and should be forgotten.
func IsGone(err error) bool {
	var pushErr *PushError
	if !errors.As(err, &pushErr) {
		return false
	}
	return pushErr.StatusCode == http.StatusGone || pushErr.StatusCode == http.StatusNotFound
}

// VAPIDKeys identify the sending application to push services.
type VAPIDKeys struct {
	PublicKey  string
	PrivateKey string
}
