package api

import (
	"fmt"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/rewards"
	"github.com/jichangyoon/samu-rewards/solana"
	"github.com/spf13/viper"
	"strings"
	"sync"
	"time"
)

const (
	ModeLocal  = "local"
	ModeLambda = "lambda"

	DriverDynamo   = "dynamo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server       ServerConfig
	Storage      StorageConfig
	Rewards      RewardsConfig
	Distribution DistributionConfig
	Balance      BalanceConfig
	Solana       SolanaConfig
	RateLimit    RateLimitConfig
	Logging      LoggingConfig
}

type ServerConfig struct {
	Port          int
	Mode          string
	AdminToken    string
	EnableSwagger bool
}

type StorageConfig struct {
	Driver string
	DSN    string
	// Endpoint overrides the DynamoDB endpoint, e.g. localstack.
	Endpoint               string
	TableNameContests      string
	TableNameMemes         string
	TableNameVotes         string
	TableNameDistributions string
}

type RewardsConfig struct {
	Ratios   rewards.ShareRatios
	CacheTTL time.Duration
}

type DistributionConfig struct {
	Currency         string
	CurrencyDecimals int32
	StaleAfter       time.Duration
	SweepInterval    time.Duration
}

type BalanceConfig struct {
	RefreshDelay time.Duration
	CacheTTL     time.Duration
	PollInitial  time.Duration
	PollMax      time.Duration
	SessionIdle  time.Duration
}

type SolanaConfig struct {
	RPCEndpoints []string
	SamuMint     string
	Commitment   string
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

type LoggingConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var settingsOnce sync.Once

// ReadConfig builds the Config from viper. Invalid reward ratios, an unknown
// storage driver or a malformed mint abort startup.
func ReadConfig() (*Config, error) {
	conf := &Config{
		Server: ServerConfig{
			Port:          getIntOrDefault("server.port", 8080),
			Mode:          strings.ToLower(getStringOrDefault("server.mode", ModeLocal)),
			AdminToken:    getStringOrDefault("server.adminToken", ""),
			EnableSwagger: getBoolOrDefault("server.swagger", true),
		},
		Storage: StorageConfig{
			Driver:                 strings.ToLower(getStringOrDefault("storage.driver", DriverDynamo)),
			DSN:                    getStringOrDefault("storage.dsn", ""),
			Endpoint:               getStringOrDefault("storage.endpoint", ""),
			TableNameContests:      getStringOrDefault("storage.TableNameContests", "Contests"),
			TableNameMemes:         getStringOrDefault("storage.TableNameMemes", "Memes"),
			TableNameVotes:         getStringOrDefault("storage.TableNameVotes", "Votes"),
			TableNameDistributions: getStringOrDefault("storage.TableNameDistributions", "Distributions"),
		},
		Rewards: RewardsConfig{
			CacheTTL: getDurationOrDefault("rewards.cacheTTL", 30*time.Second),
		},
		Distribution: DistributionConfig{
			Currency:         getStringOrDefault("distribution.currency", "SOL"),
			CurrencyDecimals: getInt32OrDefault("distribution.currencyDecimals", 9),
			StaleAfter:       getDurationOrDefault("distribution.staleAfter", 24*time.Hour),
			SweepInterval:    getDurationOrDefault("distribution.sweepInterval", 10*time.Minute),
		},
		Balance: BalanceConfig{
			RefreshDelay: getDurationOrDefault("balance.refreshDelay", 30*time.Second),
			CacheTTL:     getDurationOrDefault("balance.cacheTTL", time.Minute),
			PollInitial:  getDurationOrDefault("balance.pollInitial", time.Second),
			PollMax:      getDurationOrDefault("balance.pollMax", 8*time.Second),
			SessionIdle:  getDurationOrDefault("balance.sessionIdle", 24*time.Hour),
		},
		Solana: SolanaConfig{
			RPCEndpoints: getStringSliceOrDefault("solana.rpcEndpoints", []string{solana.DefaultEndpoint}),
			SamuMint:     getString("solana.samuMint"),
			Commitment:   getStringOrDefault("solana.commitment", "confirmed"),
		},
		RateLimit: RateLimitConfig{
			PerSecond: getFloatOrDefault("ratelimit.perSecond", 5),
			Burst:     getIntOrDefault("ratelimit.burst", 10),
		},
		Logging: LoggingConfig{
			Level:      getStringOrDefault("logging.level", "debug"),
			File:       getStringOrDefault("logging.file", ""),
			MaxSizeMB:  getIntOrDefault("logging.maxSizeMB", 100),
			MaxBackups: getIntOrDefault("logging.maxBackups", 5),
			MaxAgeDays: getIntOrDefault("logging.maxAgeDays", 28),
		},
	}

	ratios, err := rewards.NewShareRatios(
		getFloatOrDefault("rewards.creatorRatio", 0.45),
		getFloatOrDefault("rewards.voterRatio", 0.40),
		getFloatOrDefault("rewards.platformRatio", 0.15),
	)
	if err != nil {
		return nil, err
	}
	conf.Rewards.Ratios = ratios

	if err := conf.validate(); err != nil {
		return nil, err
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf, nil
}

func (c *Config) validate() error {
	switch c.Server.Mode {
	case ModeLocal, ModeLambda:
	default:
		return fmt.Errorf("unknown server.mode %q", c.Server.Mode)
	}
	switch c.Storage.Driver {
	case DriverDynamo:
	case DriverPostgres, DriverSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if _, err := solana.ValidateAddress(c.Solana.SamuMint); err != nil {
		return fmt.Errorf("solana.samuMint: %w", err)
	}
	if c.Distribution.CurrencyDecimals <= 0 {
		return fmt.Errorf("distribution.currencyDecimals must be positive")
	}
	if c.Server.AdminToken == "" {
		logging.Log.Warn("server.adminToken is empty, admin routes are locked")
	}
	return nil
}

func (c *Config) FileLogging() logging.FileConfig {
	return logging.FileConfig{
		Path:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
	}
}

func getString(name string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Errorf("required setting '%s' is missing", name)
	return ""
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		v := viper.GetInt(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getInt32OrDefault(name string, def int32) int32 {
	if viper.IsSet(name) {
		v := viper.GetInt32(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getFloatOrDefault(name string, def float64) float64 {
	if viper.IsSet(name) {
		v := viper.GetFloat64(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getBoolOrDefault(name string, def bool) bool {
	if viper.IsSet(name) {
		v := viper.GetBool(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getStringOrDefault(name string, def string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getDurationOrDefault(name string, def time.Duration) time.Duration {
	if viper.IsSet(name) {
		v := viper.GetDuration(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

// getStringSliceOrDefault accepts a yaml list or a comma separated env value.
func getStringSliceOrDefault(name string, def []string) []string {
	if viper.IsSet(name) {
		var out []string
		for _, v := range viper.GetStringSlice(name) {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
		if len(out) > 0 {
			logging.Log.Printf("found '%s' in viper", name)
			return out
		}
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}
