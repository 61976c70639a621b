package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-cards/internal/domain"
	"github.com/naka-gawa/repo-cards/internal/render"
	"github.com/naka-gawa/repo-cards/internal/usecase"
)

var cardsCmd = &cobra.Command{
	Use:   "cards owner/name [owner/name...]",
	Short: "Fetches repository summaries and renders them as cards",
	Long: `Fetches summary metadata for each repository in parallel and renders the result.
Repositories are shown in the order given. If any repository fails to load,
the error is shown together with a static star badge for every repository.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		logger := newLogger(cmd)

		ids, err := domain.ParseIdentifiers(args)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		loader, kv, err := newLoader(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer kv.Close()

		component := usecase.NewRepoStats(loader, logger, usecase.WithOnChange(func(s domain.State) {
			logger.Printf("state: %s (%d repositories)", s.Status, len(s.Repos))
		}))
		component.Mount(ctx, ids)
		state := component.Wait(ctx)
		component.Unmount()
		if state.Status == domain.StatusLoading {
			return fmt.Errorf("failed to fetch repositories within %s: %w", timeout, ctx.Err())
		}

		formatter := render.NewFormatter(cfg.Locale, time.Local)
		if err := render.Write(cmd.OutOrStdout(), format, state, formatter); err != nil {
			return err
		}
		if state.Status == domain.StatusError {
			cmd.SilenceErrors = true
			return fmt.Errorf("failed to fetch repositories: %w", state.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cardsCmd)
	cardsCmd.Flags().StringP("format", "f", render.FormatText, "Output format: text, table, html or json")
	cardsCmd.Flags().Duration("timeout", 30*time.Second, "Give up waiting for GitHub after this long")
	addCacheFlags(cardsCmd)
}
