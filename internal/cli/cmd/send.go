package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/candyland/internal/cli/styles"
	"github.com/bnema/candyland/internal/domain/entity"
)

var (
	sendTitle    string
	sendMessage  string
	sendURL      string
	sendReminder bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Broadcast a notification to every subscription",
	Long: `Push a notification to every stored subscription and print the delivery report.

Subscriptions the push service reports as gone (404/410) are removed.
Empty fields fall back to the default study notification; --reminder sends
the configured reminder instead.

Requires configured VAPID keys: subscriptions are bound to the key pair
they were created with.`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendTitle, "title", "t", "", "notification title")
	sendCmd.Flags().StringVarP(&sendMessage, "message", "m", "", "notification body")
	sendCmd.Flags().StringVarP(&sendURL, "url", "u", "", "page opened when the notification is clicked")
	sendCmd.Flags().BoolVarP(&sendReminder, "reminder", "r", false, "send the configured study reminder")
}

func runSend(cmd *cobra.Command, _ []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}
	if app.Config.Push.VAPIDPublicKey == "" {
		return fmt.Errorf("no VAPID keys configured: run 'candyland vapid --save' first")
	}

	notifications, err := app.NotificationsUC()
	if err != nil {
		return err
	}

	n := entity.Notification{Title: sendTitle, Message: sendMessage, URL: sendURL}
	if sendReminder {
		n = app.Reminder()
	}

	report, err := notifications.Broadcast(app.Ctx(), n)
	if err != nil {
		return err
	}
	printReport(app.Theme, report)
	if report.Failed > 0 && report.Sent == 0 {
		return fmt.Errorf("every delivery failed")
	}
	return nil
}

func printReport(t *styles.Theme, report *entity.BroadcastReport) {
	if report.TotalSubscriptions == 0 {
		fmt.Println(t.Subtle.Render("No subscriptions, nothing sent."))
		return
	}

	fmt.Printf("%s %s\n",
		t.Highlight.Render(styles.IconBell),
		t.Title.Render(fmt.Sprintf("Sent %d/%d", report.Sent, report.TotalSubscriptions)))
	for _, r := range report.Results {
		icon := t.SuccessStyle.Render(styles.IconCheck)
		detail := ""
		if r.Status != entity.DeliverySuccess {
			icon = t.ErrorStyle.Render(styles.IconX)
			detail = t.ErrorStyle.Render(" " + r.Error)
		}
		fmt.Printf("  %s %s%s\n", icon, t.Subtle.Render(entity.ShortEndpoint(r.Endpoint)), detail)
	}
}
