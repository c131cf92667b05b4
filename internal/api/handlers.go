package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bnema/candyland/internal/application/usecase"
	"github.com/bnema/candyland/internal/domain/entity"
)

type successResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	TotalSubscriptions int    `json:"totalSubscriptions"`
}

func badRequest(c echo.Context, msg string) error {
	failed := false
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Success: &failed})
}

func (s *Server) handleVAPIDPublicKey(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"publicKey": s.deps.VAPIDPublicKey})
}

func (s *Server) handleSubscribe(c echo.Context) error {
	var sub entity.Subscription
	if err := c.Bind(&sub); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	total, err := s.deps.Subscriptions.Subscribe(c.Request().Context(), &sub)
	if errors.Is(err, entity.ErrInvalidSubscription) {
		return badRequest(c, "invalid subscription")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, successResponse{
		Success:            true,
		Message:            "subscription registered",
		TotalSubscriptions: total,
	})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (s *Server) handleUnsubscribe(c echo.Context) error {
	var req unsubscribeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if req.Endpoint == "" {
		return badRequest(c, "endpoint required")
	}

	total, err := s.deps.Subscriptions.Unsubscribe(c.Request().Context(), req.Endpoint)
	if errors.Is(err, usecase.ErrSubscriptionNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{"success": false, "message": "subscription not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{
		Success:            true,
		Message:            "subscription cancelled",
		TotalSubscriptions: total,
	})
}

type sendNotificationRequest struct {
	Title   string         `json:"title"`
	Message string         `json:"message"`
	URL     string         `json:"url"`
	Data    map[string]any `json:"data"`
}

func (s *Server) handleSendNotification(c echo.Context) error {
	var req sendNotificationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	report, err := s.deps.Notifications.Broadcast(c.Request().Context(), entity.Notification{
		Title:   req.Title,
		Message: req.Message,
		URL:     req.URL,
		Data:    req.Data,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

type scheduleReminderRequest struct {
	DelayMinutes *float64 `json:"delayMinutes"`
}

func (s *Server) handleScheduleReminder(c echo.Context) error {
	var req scheduleReminderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	delay := s.opts.DefaultReminderDelay
	if req.DelayMinutes != nil {
		if *req.DelayMinutes < 0 || math.IsNaN(*req.DelayMinutes) {
			return badRequest(c, "delayMinutes must not be negative")
		}
		delay = time.Duration(*req.DelayMinutes * float64(time.Minute))
	}

	sendAt, err := s.deps.Reminders.Schedule(c.Request().Context(), delay)
	if errors.Is(err, usecase.ErrSchedulerStopped) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "reminders are shutting down")
	}
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"message":    fmt.Sprintf("reminder scheduled in %s minutes", formatMinutes(delay)),
		"willSendAt": sendAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func formatMinutes(d time.Duration) string {
	return fmt.Sprintf("%g", d.Minutes())
}

func (s *Server) handleStats(c echo.Context) error {
	total, err := s.deps.Subscriptions.Count(c.Request().Context())
	if err != nil {
		return err
	}
	now := s.now()
	return c.JSON(http.StatusOK, map[string]any{
		"totalSubscriptions": total,
		"vapidPublicKey":     shortKey(s.deps.VAPIDPublicKey),
		"serverUptime":       now.Sub(s.startedAt).Seconds(),
		"timestamp":          now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	total, err := s.deps.Subscriptions.Count(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":            true,
		"subscriptions": total,
		"message":       "server running",
	})
}
