package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bnema/candyland/internal/cli/styles"
)

var subscriptionsCmd = &cobra.Command{
	Use:     "subscriptions",
	Aliases: []string{"subs"},
	Short:   "List and remove stored push subscriptions",
	RunE:    runSubscriptionsList,
}

var subscriptionsRemoveCmd = &cobra.Command{
	Use:   "remove <endpoint>",
	Short: "Forget the subscription with the given endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubscriptionsRemove,
}

func init() {
	rootCmd.AddCommand(subscriptionsCmd)
	subscriptionsCmd.AddCommand(subscriptionsRemoveCmd)
}

func runSubscriptionsList(_ *cobra.Command, _ []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}
	t := app.Theme

	subs, err := app.SubscriptionsUC().List(app.Ctx())
	if err != nil {
		return err
	}

	fmt.Println(t.Title.Render(fmt.Sprintf("%s %d subscription(s)", styles.IconBell, len(subs))))
	for _, s := range subs {
		added := t.MutedBadge("unknown")
		if !s.CreatedAt.IsZero() {
			added = t.TimeBadge(s.CreatedAt)
		}
		fmt.Println(lipgloss.JoinHorizontal(lipgloss.Left, "  ", t.Normal.Render(s.Endpoint), "  ", added))
	}
	return nil
}

func runSubscriptionsRemove(_ *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}
	left, err := app.SubscriptionsUC().Unsubscribe(app.Ctx(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(app.Theme.SuccessStyle.Render(fmt.Sprintf("%s removed, %d left", styles.IconCheck, left)))
	return nil
}
