package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/candyland/internal/application/usecase"
	"github.com/bnema/candyland/internal/domain/entity"
)

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []entity.Notification
	done chan struct{}
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{done: make(chan struct{}, 8)}
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, n entity.Notification) (*entity.BroadcastReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.sent = append(b.sent, n)
	b.mu.Unlock()
	b.done <- struct{}{}
	return &entity.BroadcastReport{Success: true, Sent: 1}, nil
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

func TestScheduleReminderUseCase_FiresAfterDelay(t *testing.T) {
	b := newRecordingBroadcaster()
	uc := usecase.NewScheduleReminderUseCase(b, usecase.ReminderOptions{})
	t.Cleanup(func() { uc.Stop() })

	// The scheduling request's context is cancelled long before the reminder fires.
	ctx, cancel := context.WithCancel(testContext())
	before := time.Now()
	sendAt, err := uc.Schedule(ctx, 20*time.Millisecond)
	cancel()
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(20*time.Millisecond), sendAt, time.Second)
	assert.Equal(t, 1, uc.Pending())

	select {
	case <-b.done:
	case <-time.After(2 * time.Second):
		t.Fatal("reminder was not sent")
	}

	assert.Equal(t, entity.DefaultReminder(), b.sent[0])
	assert.Eventually(t, func() bool { return uc.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestScheduleReminderUseCase_StopCancelsPending(t *testing.T) {
	b := newRecordingBroadcaster()
	uc := usecase.NewScheduleReminderUseCase(b, usecase.ReminderOptions{})

	for range 3 {
		_, err := uc.Schedule(testContext(), time.Hour)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, uc.Pending())

	assert.Equal(t, 3, uc.Stop())
	assert.Zero(t, uc.Pending())
	assert.Zero(t, b.count())

	_, err := uc.Schedule(testContext(), time.Minute)
	assert.ErrorIs(t, err, usecase.ErrSchedulerStopped)
}

func TestScheduleReminderUseCase_RejectsBadDelay(t *testing.T) {
	uc := usecase.NewScheduleReminderUseCase(newRecordingBroadcaster(), usecase.ReminderOptions{MaxDelay: time.Hour})
	t.Cleanup(func() { uc.Stop() })

	_, err := uc.Schedule(testContext(), -time.Second)
	assert.Error(t, err)

	_, err = uc.Schedule(testContext(), 2*time.Hour)
	assert.Error(t, err)
	assert.Zero(t, uc.Pending())
}

func TestScheduleReminderUseCase_CustomReminder(t *testing.T) {
	b := newRecordingBroadcaster()
	custom := entity.Notification{Title: "Exam tomorrow", URL: "/examen.html"}
	uc := usecase.NewScheduleReminderUseCase(b, usecase.ReminderOptions{Reminder: custom})
	t.Cleanup(func() { uc.Stop() })

	_, err := uc.Schedule(testContext(), 0)
	require.NoError(t, err)

	select {
	case <-b.done:
	case <-time.After(2 * time.Second):
		t.Fatal("reminder was not sent")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, custom, b.sent[0])
}
