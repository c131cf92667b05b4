package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/candyland/internal/application/port"
	portmocks "github.com/bnema/candyland/internal/application/port/mocks"
	"github.com/bnema/candyland/internal/application/usecase"
	"github.com/bnema/candyland/internal/domain/entity"
	repomocks "github.com/bnema/candyland/internal/domain/repository/mocks"
)

func TestSendNotificationUseCase_Broadcast_NoSubscribers(t *testing.T) {
	repo := repomocks.NewMockSubscriptionRepository(t)
	sender := portmocks.NewMockPushSender(t)
	repo.EXPECT().GetAll(mock.Anything).Return(nil, nil)

	report, err := usecase.NewSendNotificationUseCase(repo, sender).Broadcast(testContext(), entity.Notification{})

	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, usecase.NoSubscribersMessage, report.Message)
	assert.Zero(t, report.Sent)
}

func TestSendNotificationUseCase_Broadcast_SendsSamePayloadToEveryone(t *testing.T) {
	repo := repomocks.NewMockSubscriptionRepository(t)
	sender := portmocks.NewMockPushSender(t)

	subs := []*entity.Subscription{
		{Endpoint: "https://push.test/1"},
		{Endpoint: "https://push.test/2"},
	}
	repo.EXPECT().GetAll(mock.Anything).Return(subs, nil)

	var payloads [][]byte
	sender.EXPECT().Send(mock.Anything, mock.Anything, mock.Anything).
		Run(func(_ context.Context, _ *entity.Subscription, payload []byte) {
			payloads = append(payloads, payload)
		}).
		Return(nil).Times(2)

	report, err := usecase.NewSendNotificationUseCase(repo, sender).Broadcast(testContext(), entity.Notification{
		Title: "Raíces",
		Data:  map[string]any{"lesson": 3},
	})

	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Sent)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 2, report.TotalSubscriptions)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "https://push.test/1...", report.Results[0].Endpoint)
	assert.Equal(t, entity.DeliverySuccess, report.Results[0].Status)

	require.Len(t, payloads, 2)
	assert.Equal(t, payloads[0], payloads[1])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payloads[0], &decoded))
	assert.Equal(t, "Raíces", decoded["title"])
	assert.Equal(t, entity.DefaultNotificationMessage, decoded["message"])
	assert.Equal(t, "/", decoded["url"])
	assert.NotZero(t, decoded["timestamp"])
	assert.Equal(t, map[string]any{"lesson": float64(3)}, decoded["data"])
}

func TestSendNotificationUseCase_Broadcast_RemovesGoneSubscriptions(t *testing.T) {
	repo := repomocks.NewMockSubscriptionRepository(t)
	sender := portmocks.NewMockPushSender(t)

	gone := &entity.Subscription{Endpoint: "https://push.test/gone"}
	missing := &entity.Subscription{Endpoint: "https://push.test/missing"}
	flaky := &entity.Subscription{Endpoint: "https://push.test/flaky"}
	ok := &entity.Subscription{Endpoint: "https://push.test/ok"}
	repo.EXPECT().GetAll(mock.Anything).Return([]*entity.Subscription{gone, missing, flaky, ok}, nil)

	sender.EXPECT().Send(mock.Anything, gone, mock.Anything).Return(&port.PushError{StatusCode: http.StatusGone})
	sender.EXPECT().Send(mock.Anything, missing, mock.Anything).Return(&port.PushError{StatusCode: http.StatusNotFound})
	sender.EXPECT().Send(mock.Anything, flaky, mock.Anything).Return(errors.New("connection reset"))
	sender.EXPECT().Send(mock.Anything, ok, mock.Anything).Return(nil)

	repo.EXPECT().RemoveByEndpoint(mock.Anything, gone.Endpoint).Return(true, nil)
	repo.EXPECT().RemoveByEndpoint(mock.Anything, missing.Endpoint).Return(true, nil)

	report, err := usecase.NewSendNotificationUseCase(repo, sender).Broadcast(testContext(), entity.Notification{})

	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, 2, report.TotalSubscriptions)
	assert.Equal(t, entity.DeliveryError, report.Results[2].Status)
	assert.Equal(t, "connection reset", report.Results[2].Error)
}

func TestSendNotificationUseCase_Broadcast_RepoFailure(t *testing.T) {
	repo := repomocks.NewMockSubscriptionRepository(t)
	sender := portmocks.NewMockPushSender(t)
	repo.EXPECT().GetAll(mock.Anything).Return(nil, errors.New("locked"))

	report, err := usecase.NewSendNotificationUseCase(repo, sender).Broadcast(testContext(), entity.Notification{})
	require.Error(t, err)
	assert.Nil(t, report)
}

func TestSendNotificationUseCase_Broadcast_StopsOnCancel(t *testing.T) {
	repo := repomocks.NewMockSubscriptionRepository(t)
	sender := portmocks.NewMockPushSender(t)
	repo.EXPECT().GetAll(mock.Anything).Return([]*entity.Subscription{{Endpoint: "https://push.test/1"}}, nil)

	ctx, cancel := context.WithCancel(testContext())
	cancel()

	_, err := usecase.NewSendNotificationUseCase(repo, sender).Broadcast(ctx, entity.Notification{})
	assert.ErrorIs(t, err, context.Canceled)
}
