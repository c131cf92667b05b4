package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/candyland/internal/cli/model"
	"github.com/bnema/candyland/internal/cli/styles"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/infrastructure/config"
)

var (
	purgeStale bool
	purgeAll   bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Browse the offline cache generations",
	Long: `Open an interactive browser over the cache generations stored by the proxy.

The current precache and dynamic generations are highlighted; anything else
is stale and safe to delete. Only meaningful with worker.storage = "sqlite".`,
	RunE: runCache,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cache generations",
	Long: `Select cache generations to delete. Stale generations are preselected.

Use --stale to delete every stale generation without prompting, or --all to
delete everything, including the current generations (the proxy reinstalls
the app shell on its next start).`,
	RunE: runCachePurge,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cachePurgeCmd.Flags().BoolVarP(&purgeStale, "stale", "s", false, "delete stale generations without prompting")
	cachePurgeCmd.Flags().BoolVarP(&purgeAll, "all", "a", false, "delete every generation without prompting")
	cachePurgeCmd.MarkFlagsMutuallyExclusive("stale", "all")
}

func requirePersistentCache(cfg *config.Config) error {
	if cfg.Worker.Storage == config.CacheDriverMemory {
		return fmt.Errorf("worker.storage is %q: nothing outlives the proxy process", cfg.Worker.Storage)
	}
	return nil
}

func runCache(_ *cobra.Command, _ []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}
	if err := requirePersistentCache(app.Config); err != nil {
		return err
	}
	uc, err := app.CacheUC(app.Ctx())
	if err != nil {
		return err
	}

	m := model.NewCacheModel(app.Ctx(), app.Theme, uc)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runCachePurge(_ *cobra.Command, _ []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}
	if err := requirePersistentCache(app.Config); err != nil {
		return err
	}
	ctx := app.Ctx()
	uc, err := app.CacheUC(ctx)
	if err != nil {
		return err
	}

	if purgeStale {
		results, err := uc.PurgeStale(ctx)
		if err != nil {
			return err
		}
		return printPurgeResults(app.Theme, results)
	}

	generations, err := uc.List(ctx)
	if err != nil {
		return err
	}
	if len(generations) == 0 {
		fmt.Println(app.Theme.Subtle.Render("No cache generations stored."))
		return nil
	}

	selected := generations
	if !purgeAll {
		final, err := tea.NewProgram(model.NewPurgeModel(app.Theme, generations)).Run()
		if err != nil {
			return err
		}
		selected = final.(model.PurgeModel).Selected()
		if len(selected) == 0 {
			fmt.Println(app.Theme.Subtle.Render("Nothing purged."))
			return nil
		}
	}
	return printPurgeResults(app.Theme, uc.Purge(ctx, selected))
}

func printPurgeResults(t *styles.Theme, results []entity.PurgeResult) error {
	if len(results) == 0 {
		fmt.Println(t.Subtle.Render("Nothing to purge."))
		return nil
	}

	var failed int
	for _, r := range results {
		if r.Success {
			fmt.Printf("  %s %s %s\n",
				t.SuccessStyle.Render(styles.IconCheck),
				t.Normal.Render(r.Generation.Name),
				t.Subtle.Render(styles.FormatSize(r.Generation.Bytes)))
			continue
		}
		failed++
		fmt.Printf("  %s %s %s\n",
			t.ErrorStyle.Render(styles.IconX),
			t.Normal.Render(r.Generation.Name),
			t.ErrorStyle.Render(r.Error.Error()))
	}
	if failed > 0 {
		return fmt.Errorf("%d generation(s) could not be purged", failed)
	}
	return nil
}
