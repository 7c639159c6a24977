package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultConnectTimeout = 10000
	defaultVersion        = "0720"
	defaultConfigFile     = "appsettings.json"
)

type Config struct {
	RIS           RIS           `mapstructure:"ris"`
	PaymentsFraud PaymentsFraud `mapstructure:"payments_fraud"`
	Log           Log           `mapstructure:"log"`
	AppEnv        string        `mapstructure:"app_env"`
}

type RIS struct {
	MerchantID         string  `mapstructure:"merchant_id"`
	URL                string  `mapstructure:"url"`
	ConfigKey          string  `mapstructure:"config_key"`
	RawConfigKey       bool    `mapstructure:"raw_config_key"`
	ConnectTimeout     int     `mapstructure:"connect_timeout"`
	Version            string  `mapstructure:"version"`
	APIKey             string  `mapstructure:"api_key"`
	CertificateFile    string  `mapstructure:"certificate_file"`
	PrivateKeyPassword string  `mapstructure:"private_key_password"`
	RateLimit          float64 `mapstructure:"rate_limit"`
}

type PaymentsFraud struct {
	ClientID            string `mapstructure:"client_id"`
	APIKey              string `mapstructure:"api_key"`
	APIURL              string `mapstructure:"api_url"`
	AuthURL             string `mapstructure:"auth_url"`
	EnableMigrationMode string `mapstructure:"enable_migration_mode"`
}

type Log struct {
	SimpleElapsed string `mapstructure:"simple_elapsed"`
}

var keys = []string{
	"ris.merchant_id",
	"ris.url",
	"ris.config_key",
	"ris.raw_config_key",
	"ris.connect_timeout",
	"ris.version",
	"ris.api_key",
	"ris.certificate_file",
	"ris.private_key_password",
	"ris.rate_limit",
	"payments_fraud.client_id",
	"payments_fraud.api_key",
	"payments_fraud.api_url",
	"payments_fraud.auth_url",
	"payments_fraud.enable_migration_mode",
	"log.simple_elapsed",
	"app_env",
}

// LoadConfig reads .env, an optional appsettings.json and the environment.
// Environment variables win; RIS_MERCHANT_ID overrides ris.merchant_id.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("ris.connect_timeout", defaultConnectTimeout)
	v.SetDefault("ris.version", defaultVersion)
	for _, k := range keys {
		// AutomaticEnv only resolves keys viper already knows about
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", k, err)
		}
	}

	file := os.Getenv("RIS_CONFIG_FILE")
	if file == "" {
		file = defaultConfigFile
	}
	if _, err := os.Stat(file); err == nil {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// MigrationModeEnabled reports whether requests authenticate with a bearer
// token against the payments fraud endpoints.
func (c *Config) MigrationModeEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(c.PaymentsFraud.EnableMigrationMode), "true")
}

func (c *Config) LogElapsed() bool {
	return strings.EqualFold(strings.TrimSpace(c.Log.SimpleElapsed), "on")
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RIS.ConnectTimeout) * time.Millisecond
}

// Validate checks the settings every request needs.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"ris.merchant_id", c.RIS.MerchantID},
		{"ris.url", c.RIS.URL},
		{"ris.config_key", c.RIS.ConfigKey},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ConfigurationError{Setting: r.name}
		}
	}
	if c.RIS.ConnectTimeout <= 0 {
		return &ConfigurationError{Setting: "ris.connect_timeout", Reason: "must be positive"}
	}

	if c.MigrationModeEnabled() {
		if c.PaymentsFraud.AuthURL == "" {
			return &ConfigurationError{Setting: "payments_fraud.auth_url"}
		}
		if c.PaymentsFraud.APIURL == "" {
			return &ConfigurationError{Setting: "payments_fraud.api_url"}
		}
		if c.PaymentsFraud.APIKey == "" {
			return &ConfigurationError{Setting: "payments_fraud.api_key"}
		}
		return nil
	}

	if c.RIS.APIKey == "" {
		if c.RIS.CertificateFile == "" {
			return &ConfigurationError{Setting: "ris.certificate_file", Reason: "required without ris.api_key"}
		}
		if c.RIS.PrivateKeyPassword == "" {
			return &ConfigurationError{Setting: "ris.private_key_password", Reason: "required without ris.api_key"}
		}
	}
	return nil
}
