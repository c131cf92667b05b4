package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bnema/candyland/internal/cli"
)

var (
	proxyListen string
	proxyOrigin string
	proxyWatch  bool
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Serve the app through the offline cache",
	Long: `Run the offline worker in front of worker.origin.

On start the app shell listed in worker.assets is precached into the
versioned generation. GET requests are answered cache first, filling the
dynamic generation from the network, and navigations fall back to the
offline page when the origin is unreachable. Other methods pass through.

Bump worker.version to ship new assets. With --watch the new version is
installed as soon as the config file changes; old generations are deleted
once it activates.`,
	RunE: runProxy,
}

func init() {
	rootCmd.AddCommand(proxyCmd)
	proxyCmd.Flags().StringVarP(&proxyListen, "listen", "l", "", "listen address (overrides worker.listen)")
	proxyCmd.Flags().StringVarP(&proxyOrigin, "origin", "o", "", "origin to cache (overrides worker.origin)")
	proxyCmd.Flags().BoolVarP(&proxyWatch, "watch", "w", false, "install new worker versions when the config file changes")
}

func runProxy(cmd *cobra.Command, _ []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}
	if proxyListen != "" {
		app.Config.Worker.Listen = proxyListen
	}
	if proxyOrigin != "" {
		app.Config.Worker.Origin = proxyOrigin
	}
	return app.Proxy(cmd.Context(), cli.ProxyOptions{Watch: proxyWatch})
}
