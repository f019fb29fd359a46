package main

import (
	"encoding/json"
	"os"

	"github.com/jichangyoon/samu-rewards/api"
	"github.com/jichangyoon/samu-rewards/api/models"
	"github.com/jichangyoon/samu-rewards/distribution"
	"github.com/jichangyoon/samu-rewards/rewards"
	"github.com/spf13/cobra"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (locally or inside a lambda)",
		RunE:  serveRun,
	}
}

func serveRun(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	service, err := api.NewServer(cmd.Context(), config)
	if err != nil {
		return err
	}
	return service.Start()
}

func breakdownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown <contestId>",
		Short: "Print the reward breakdown of a contest as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			stores, err := api.OpenStores(cmd.Context(), config.Storage)
			if err != nil {
				return err
			}
			if _, err := stores.Contests.Get(cmd.Context(), args[0]); err != nil {
				return err
			}

			service, err := rewards.NewService(rewards.ServiceConfig{
				Reader: rewards.NewLedgerReader(stores.Memes, stores.Votes),
				Ratios: config.Rewards.Ratios,
			})
			if err != nil {
				return err
			}
			b, err := service.Breakdown(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(models.TransformBreakdown(b))
		},
	}
}

func distributionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distributions",
		Short: "Inspect recorded sale distributions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stale",
		Short: "List distributions that have not completed within distribution.staleAfter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			stores, err := api.OpenStores(cmd.Context(), config.Storage)
			if err != nil {
				return err
			}

			sweeper, err := distribution.NewSweeper(distribution.SweeperConfig{
				Store:      stores.Distributions,
				StaleAfter: config.Distribution.StaleAfter,
			})
			if err != nil {
				return err
			}
			stale, err := sweeper.Stale(cmd.Context())
			if err != nil {
				return err
			}

			out := make([]models.DistributionResponse, 0, len(stale))
			for _, d := range stale {
				out = append(out, models.TransformDistributionFromStorage(d))
			}
			return printJSON(out)
		},
	})
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
