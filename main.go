// @title SAMU Rewards API
// @version 1.0
// @description Meme contest voting, reward breakdowns, sale distributions and wallet balances

// @securityDefinitions.apikey AdminToken
// @in header
// @name x-admin-token

// @securityDefinitions.apikey WalletSession
// @in header
// @name x-wallet-session
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/jichangyoon/samu-rewards/docs"

	"github.com/jichangyoon/samu-rewards/api"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const programName = "samu-rewards"

var configFile string

// loadConfig reads .env (if present), the yaml config and the environment,
// then bootstraps the logger from the result.
func loadConfig() (*api.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./")
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logging.Log.Warn("no config file found, using environment and defaults")
	}

	logging.BootstrapLogger(viper.GetString("logging.level"), logging.FileConfig{})
	config, err := api.ReadConfig()
	if err != nil {
		return nil, err
	}
	logging.BootstrapLogger(config.Logging.Level, config.FileLogging())
	return config, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "SAMU meme contest reward engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveRun,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default ./config.yaml)")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(breakdownCommand())
	rootCmd.AddCommand(distributionsCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
