package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/logging"
)

// ErrSchedulerStopped is returned when scheduling after Stop.
var ErrSchedulerStopped = errors.New("reminder scheduler stopped")

// Broadcaster sends a notification to every subscription.
type Broadcaster interface {
	Broadcast(ctx context.Context, n entity.Notification) (*entity.BroadcastReport, error)
}

type stopper interface {
	Stop() bool
}

// ScheduleReminderUseCase broadcasts a reminder after a delay. Pending
// reminders live in memory and are cancelled by Stop.
type ScheduleReminderUseCase struct {
	broadcaster Broadcaster
	reminder    entity.Notification
	maxDelay    time.Duration
	sendTimeout time.Duration

	now       func() time.Time
	afterFunc func(time.Duration, func()) stopper

	mu      sync.Mutex
	nextID  int
	pending map[int]stopper
	stopped bool
	wg      sync.WaitGroup
}

// ReminderOptions tunes the scheduler. Zero values pick defaults.
type ReminderOptions struct {
	Reminder    entity.Notification
	MaxDelay    time.Duration
	SendTimeout time.Duration
}

// NewScheduleReminderUseCase creates a reminder scheduler.
func NewScheduleReminderUseCase(b Broadcaster, opts ReminderOptions) *ScheduleReminderUseCase {
	if opts.Reminder.Title == "" && opts.Reminder.Message == "" {
		opts.Reminder = entity.DefaultReminder()
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 7 * 24 * time.Hour
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 2 * time.Minute
	}
	return &ScheduleReminderUseCase{
		broadcaster: b,
		reminder:    opts.Reminder,
		maxDelay:    opts.MaxDelay,
		sendTimeout: opts.SendTimeout,
		now:         time.Now,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		pending: make(map[int]stopper),
	}
}

// Schedule arranges for the reminder to be broadcast after delay and returns
// when it will be sent.
func (uc *ScheduleReminderUseCase) Schedule(ctx context.Context, delay time.Duration) (time.Time, error) {
	if delay < 0 {
		return time.Time{}, fmt.Errorf("reminder delay must not be negative")
	}
	if delay > uc.maxDelay {
		return time.Time{}, fmt.Errorf("reminder delay %s exceeds maximum %s", delay, uc.maxDelay)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.stopped {
		return time.Time{}, ErrSchedulerStopped
	}

	// The request that scheduled the reminder is long gone when it fires.
	fireCtx := context.WithoutCancel(ctx)
	uc.nextID++
	id := uc.nextID
	sendAt := uc.now().Add(delay)

	uc.wg.Add(1)
	uc.pending[id] = uc.afterFunc(delay, func() {
		defer uc.wg.Done()
		if !uc.take(id) {
			return
		}
		uc.fire(fireCtx)
	})

	logging.FromContext(ctx).Info().Dur("delay", delay).Time("send_at", sendAt).Msg("reminder scheduled")
	return sendAt, nil
}

// take removes id from the pending set, reporting whether it was still there.
func (uc *ScheduleReminderUseCase) take(id int) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	_, ok := uc.pending[id]
	delete(uc.pending, id)
	return ok
}

func (uc *ScheduleReminderUseCase) fire(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, uc.sendTimeout)
	defer cancel()

	log := logging.FromContext(ctx)
	log.Info().Msg("sending scheduled reminder")

	report, err := uc.broadcaster.Broadcast(ctx, uc.reminder)
	if err != nil {
		log.Error().Err(err).Msg("scheduled reminder failed")
		return
	}
	log.Info().Int("sent", report.Sent).Int("failed", report.Failed).Msg("scheduled reminder sent")
}

// Pending returns the number of reminders not yet sent.
func (uc *ScheduleReminderUseCase) Pending() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.pending)
}

// Stop cancels every pending reminder, waits for reminders already sending and
// returns how many were cancelled. Later calls to Schedule fail.
func (uc *ScheduleReminderUseCase) Stop() int {
	uc.mu.Lock()
	uc.stopped = true
	cancelled := 0
	for id, t := range uc.pending {
		if t.Stop() {
			cancelled++
			uc.wg.Done()
		}
		delete(uc.pending, id)
	}
	uc.mu.Unlock()

	uc.wg.Wait()
	return cancelled
}
