package cmd

import (
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the push backend and serve the static app",
	Long: `Serve the static app from server.public_dir together with the push API:

  GET  /vapidPublicKey     public VAPID key for PushManager.subscribe
  POST /subscribe          store a push subscription
  POST /unsubscribe        forget a subscription by endpoint
  POST /sendNotification   broadcast a notification to every subscription
  POST /scheduleReminder   broadcast the study reminder after a delay
  GET  /stats, /status     subscription count and server status

Without configured VAPID keys an ephemeral pair is generated and existing
subscriptions stop receiving pushes after a restart.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		app.Config.Server.Addr = serveAddr
	}
	return app.Serve(cmd.Context())
}
