// Package config loads application configuration from file, environment,
// and defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Environment names recognized for base-URL selection.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Internal deployment base URLs.
const (
	productionBaseURL  = "https://tuturuuu.com"
	developmentBaseURL = "http://localhost:3000"
)

// GoogleConfig holds the OAuth application credentials for the calendar
// provider.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

// Config is the top-level application configuration.
type Config struct {
	// DBPath is the SQLite database location.
	DBPath string `mapstructure:"db_path"`

	// Environment selects production vs. localhost base URLs for internal
	// calls. Read from NODE_ENV for deployment parity.
	Environment string `mapstructure:"environment"`

	// DashboardPort is the TCP port for the status dashboard.
	DashboardPort int `mapstructure:"dashboard_port"`

	// IncrementalCron and ScheduleCron are standard 5-field cron
	// expressions for the two periodic fan-outs.
	IncrementalCron string `mapstructure:"incremental_cron"`
	ScheduleCron    string `mapstructure:"schedule_cron"`

	// LogFile enables rotating file logging when non-empty.
	LogFile string `mapstructure:"log_file"`

	// InternalTriggerSecret authenticates calls to the scheduling
	// endpoint. Read from INTERNAL_TRIGGER_SECRET_KEY.
	InternalTriggerSecret string `mapstructure:"internal_trigger_secret"`

	Google GoogleConfig `mapstructure:"google"`
}

// Load reads configuration from the given file path (optional) plus
// environment variables, applying defaults for anything unset.
//
// Environment bindings follow the deployment's variable names:
// GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, GOOGLE_REDIRECT_URI,
// INTERNAL_TRIGGER_SECRET_KEY, NODE_ENV. All other keys are also reachable
// as CALSYNC_<KEY> (dots replaced by underscores).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", ".calsync/calsync.db")
	v.SetDefault("environment", EnvDevelopment)
	v.SetDefault("dashboard_port", 8080)
	v.SetDefault("incremental_cron", "* * * * *")
	v.SetDefault("schedule_cron", "0 * * * *")
	v.SetDefault("log_file", "")

	v.SetEnvPrefix("CALSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Deployment-parity variable names.
	_ = v.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
	_ = v.BindEnv("google.redirect_uri", "GOOGLE_REDIRECT_URI")
	_ = v.BindEnv("internal_trigger_secret", "INTERNAL_TRIGGER_SECRET_KEY")
	_ = v.BindEnv("environment", "NODE_ENV")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Watch reloads the config file on change and invokes onChange with the
// fresh configuration. Reload failures are reported through onError and
// the previous configuration stays in effect.
func Watch(path string, onChange func(*Config), onError func(error)) error {
	if path == "" {
		return fmt.Errorf("config path is required for watching")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Load(path)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("failed to reload config after %s: %w", e.Name, err))
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()

	return nil
}

// InternalBaseURL returns the deployment root for internal endpoint calls.
func (c *Config) InternalBaseURL() string {
	if c.Environment == EnvProduction {
		return productionBaseURL
	}
	return developmentBaseURL
}
