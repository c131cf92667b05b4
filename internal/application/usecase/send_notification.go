package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/domain/repository"
	"github.com/bnema/candyland/internal/logging"
)

// NoSubscribersMessage is the report message of a broadcast with nobody to send to.
const NoSubscribersMessage = "no subscribers"

// SendNotificationUseCase broadcasts a notification to every subscription.
type SendNotificationUseCase struct {
	repo   repository.SubscriptionRepository
	sender port.PushSender
	now    func() time.Time
}

// NewSendNotificationUseCase creates a new broadcast use case.
func NewSendNotificationUseCase(repo repository.SubscriptionRepository, sender port.PushSender) *SendNotificationUseCase {
	return &SendNotificationUseCase{repo: repo, sender: sender, now: time.Now}
}

// Broadcast encodes n once and pushes it to each subscription in turn. A failed
// delivery does not stop the broadcast. Subscriptions the push service reports
// as gone are removed.
func (uc *SendNotificationUseCase) Broadcast(ctx context.Context, n entity.Notification) (*entity.BroadcastReport, error) {
	log := logging.FromContext(ctx)

	subs, err := uc.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriptions: %w", err)
	}
	if len(subs) == 0 {
		log.Info().Msg("broadcast skipped, no subscribers")
		return &entity.BroadcastReport{Success: false, Message: NoSubscribersMessage}, nil
	}

	n = n.WithDefaults()
	if n.Timestamp.IsZero() {
		n.Timestamp = uc.now()
	}
	payload, err := n.Payload()
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification: %w", err)
	}

	report := &entity.BroadcastReport{Success: true, Results: make([]entity.DeliveryResult, 0, len(subs))}
	removed := 0

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		short := entity.ShortEndpoint(sub.Endpoint)

		sendErr := uc.sender.Send(ctx, sub, payload)
		if sendErr == nil {
			report.Sent++
			report.Results = append(report.Results, entity.DeliveryResult{Endpoint: short, Status: entity.DeliverySuccess})
			continue
		}

		report.Failed++
		report.Results = append(report.Results, entity.DeliveryResult{
			Endpoint: short,
			Status:   entity.DeliveryError,
			Error:    sendErr.Error(),
		})
		log.Warn().Err(sendErr).Str("endpoint", short).Msg("push delivery failed")

		if port.IsGone(sendErr) {
			ok, err := uc.repo.RemoveByEndpoint(ctx, sub.Endpoint)
			if err != nil {
				log.Error().Err(err).Str("endpoint", short).Msg("failed to remove gone subscription")
				continue
			}
			if ok {
				removed++
				log.Info().Str("endpoint", short).Msg("removed gone subscription")
			}
		}
	}

	report.TotalSubscriptions = len(subs) - removed
	log.Info().
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("removed", removed).
		Msg("broadcast finished")
	return report, nil
}
