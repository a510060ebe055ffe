package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	// Provider selects the weather backend: "weatherstack" or "weatherapi".
	Provider            string `validate:"oneof=weatherstack weatherapi"`
	WeatherstackAPIKey  string
	WeatherstackBaseURL string `validate:"omitempty,url"`
	WeatherAPIKey       string
	WeatherAPIBaseURL   string `validate:"omitempty,url"`

	// Initial widget attributes. Interval is in minutes; empty disables polling.
	City       string
	Background string
	Interval   string `validate:"omitempty,numeric"`
	Sequenced  bool

	HTTPTimeout        time.Duration `validate:"gt=0"`
	FetchTimeout       time.Duration `validate:"gt=0"`
	ProviderMaxRetries int           `validate:"gte=0"`

	// Display/event store.
	StoreBackend    string        `validate:"oneof=memory redis"`
	StoreMaxHistory int           // max number of events kept (0 = unlimited)
	StoreMaxAge     time.Duration // max age of events (0 = unlimited)
	RedisAddr       string        `validate:"required_if=StoreBackend redis"`

	Port           string  `validate:"required,numeric"`
	LogLevel       string  `validate:"oneof=debug info warn error"`
	AttributeRate  float64 `validate:"gt=0"`
	AttributeBurst int     `validate:"gt=0"`
}

var validate = validator.New()

// Load reads configuration from the environment and an optional
// weather-box.yaml found in paths (default: the working directory).
func Load(paths ...string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("weather-box")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &AppConfig{
		Provider:            strings.ToLower(v.GetString("weather.provider")),
		WeatherstackAPIKey:  v.GetString("weatherstack.api_key"),
		WeatherstackBaseURL: v.GetString("weatherstack.base_url"),
		WeatherAPIKey:       v.GetString("weatherapi.api_key"),
		WeatherAPIBaseURL:   v.GetString("weatherapi.base_url"),
		City:                v.GetString("widget.city"),
		Background:          v.GetString("widget.background"),
		Interval:            strings.TrimSpace(v.GetString("widget.interval")),
		Sequenced:           v.GetBool("widget.sequenced"),
		ProviderMaxRetries:  v.GetInt("provider.max_retries"),
		StoreBackend:        strings.ToLower(v.GetString("store.backend")),
		StoreMaxHistory:     v.GetInt("store.max_history"),
		RedisAddr:           v.GetString("redis.addr"),
		Port:                v.GetString("port"),
		LogLevel:            strings.ToLower(v.GetString("log.level")),
		AttributeRate:       v.GetFloat64("attribute.rate"),
		AttributeBurst:      v.GetInt("attribute.burst"),
	}

	var err error
	if cfg.HTTPTimeout, err = duration(v, "http.timeout"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = duration(v, "fetch.timeout"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = duration(v, "store.max_age"); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.APIKey() == "" {
		return nil, fmt.Errorf("invalid configuration: no API key set for provider %q", cfg.Provider)
	}

	return cfg, nil
}

// APIKey returns the access key of the selected provider.
func (c *AppConfig) APIKey() string {
	if c.Provider == "weatherapi" {
		return c.WeatherAPIKey
	}
	return c.WeatherstackAPIKey
}

// BaseURL returns the endpoint override of the selected provider, if any.
func (c *AppConfig) BaseURL() string {
	if c.Provider == "weatherapi" {
		return c.WeatherAPIBaseURL
	}
	return c.WeatherstackBaseURL
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("weather.provider", "weatherstack")
	v.SetDefault("weatherstack.api_key", "")
	v.SetDefault("weatherstack.base_url", "")
	v.SetDefault("weatherapi.api_key", "")
	v.SetDefault("weatherapi.base_url", "")
	v.SetDefault("widget.city", "")
	v.SetDefault("widget.background", "")
	v.SetDefault("widget.interval", "")
	v.SetDefault("widget.sequenced", false)
	v.SetDefault("http.timeout", "10s")
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("provider.max_retries", 0)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.max_history", 96) // a day of 15-minute polls
	v.SetDefault("store.max_age", "24h")
	v.SetDefault("redis.addr", "")
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("attribute.rate", 1.0)
	v.SetDefault("attribute.burst", 5)
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	s := v.GetString(key)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		return 0, fmt.Errorf("invalid %s: %w", envKey, err)
	}
	return d, nil
}

// NewLogger builds the process logger at the given level.
func NewLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
