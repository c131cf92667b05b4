package cli

import (
	"context"

	"github.com/bnema/candyland/internal/api"
	"github.com/bnema/candyland/internal/application/usecase"
	"github.com/bnema/candyland/internal/logging"
)

// Serve runs the subscription backend and static app until ctx is cancelled.
// Pending reminders are dropped on shutdown.
func (a *App) Serve(ctx context.Context) error {
	ctx = logging.WithComponent(ctx, "serve")
	log := logging.FromContext(ctx)

	keys, err := a.VAPIDKeys()
	if err != nil {
		return err
	}
	notifications, err := a.NotificationsUC()
	if err != nil {
		return err
	}

	r := a.Config.Reminder
	reminders := usecase.NewScheduleReminderUseCase(notifications, usecase.ReminderOptions{
		Reminder:    a.Reminder(),
		MaxDelay:    r.MaxDelay,
		SendTimeout: r.SendTimeout,
	})
	defer func() {
		if n := reminders.Stop(); n > 0 {
			log.Warn().Int("count", n).Msg("dropped pending reminders")
		}
	}()

	srv := api.NewServer(api.Deps{
		Subscriptions:  a.SubscriptionsUC(),
		Notifications:  notifications,
		Reminders:      reminders,
		VAPIDPublicKey: keys.PublicKey,
	}, api.Options{
		PublicDir:            a.Config.Server.PublicDir,
		AllowOrigins:         a.Config.Server.AllowOrigins,
		DefaultReminderDelay: r.DefaultDelay,
	}, a.Logger)

	log.Info().
		Str("public_dir", a.Config.Server.PublicDir).
		Bool("ephemeral_keys", a.EphemeralKeys()).
		Msg("starting push backend")
	return srv.Run(ctx, a.Config.Server.Addr)
}
