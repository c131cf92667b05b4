package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/candyland/internal/cli/styles"
	"github.com/bnema/candyland/internal/infrastructure/push"
)

var vapidSave bool

var vapidCmd = &cobra.Command{
	Use:   "vapid",
	Short: "Generate a VAPID key pair",
	Long: `Generate a P-256 VAPID key pair for Web Push.

The keys are printed as environment variables. With --save they are written
to the push section of the config file instead. Existing subscriptions are
bound to the old pair and must subscribe again.`,
	RunE: runVAPID,
}

func init() {
	rootCmd.AddCommand(vapidCmd)
	vapidCmd.Flags().BoolVarP(&vapidSave, "save", "s", false, "store the keys in the config file")
}

func runVAPID(_ *cobra.Command, _ []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}
	t := app.Theme

	keys, err := push.GenerateKeys()
	if err != nil {
		return err
	}

	if !vapidSave {
		fmt.Printf("VAPID_PUBLIC_KEY=%s\n", keys.PublicKey)
		fmt.Printf("VAPID_PRIVATE_KEY=%s\n", keys.PrivateKey)
		return nil
	}

	cfg := app.Manager.Get()
	cfg.Push.VAPIDPublicKey = keys.PublicKey
	cfg.Push.VAPIDPrivateKey = keys.PrivateKey
	if err := app.Manager.Save(cfg); err != nil {
		return err
	}
	fmt.Println(t.SuccessStyle.Render(fmt.Sprintf("%s keys saved to %s", styles.IconKey, app.Manager.GetConfigFile())))
	fmt.Println(t.Subtle.Render("public key: " + keys.PublicKey))
	return nil
}
