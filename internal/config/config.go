package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds the settings shared by the pool commands.
type Config struct {
	Backend           string
	StateDir          string
	PGDSN             string
	Journal           string
	LogLevel          string
	RatioToleranceBps uint16
	MaxRetries        int
	RetryBackoff      time.Duration
	MetricsFile       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"backend":             BackendFile,
		"state-dir":           "./data/pools",
		"journal":             "./data/journal.jsonl",
		"log-level":           "info",
		"ratio-tolerance-bps": 0,
		"max-retries":         3,
		"retry-backoff":       50 * time.Millisecond,
	})
	if err != nil {
		return Config{}, err
	}

	tolerance := v.GetUint("ratio-tolerance-bps")
	if tolerance > 10_000 {
		return Config{}, fmt.Errorf("ratio-tolerance-bps must be <= 10000, got %d", tolerance)
	}

	cfg := Config{
		Backend:           strings.ToLower(strings.TrimSpace(v.GetString("backend"))),
		StateDir:          v.GetString("state-dir"),
		PGDSN:             v.GetString("pg-dsn"),
		Journal:           v.GetString("journal"),
		LogLevel:          v.GetString("log-level"),
		RatioToleranceBps: uint16(tolerance),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		MetricsFile:       v.GetString("metrics-file"),
	}

	switch cfg.Backend {
	case BackendFile:
		if cfg.StateDir == "" {
			return Config{}, fmt.Errorf("state-dir is required for the file backend")
		}
	case BackendPostgres:
		if cfg.PGDSN == "" {
			return Config{}, fmt.Errorf("pg-dsn is required for the postgres backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("DEXY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
