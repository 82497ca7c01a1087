package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix namespaces all environment variables read by the application,
// e.g. DECKHAND_SERVER_PORT or DECKHAND_GENERATION_GEMINI_API_KEY.
const envPrefix = "DECKHAND"

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory. Absence is fine;
	// everything can come from the environment.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables: DECKHAND_ prefix, dots become underscores
	// (server.port -> DECKHAND_SERVER_PORT).
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface nested keys during Unmarshal
	// unless each key is registered.
	for _, key := range configKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %q: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil, fmt.Errorf("config validation setup failed: %w", err)
		}
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for settings that have a sensible
// out-of-the-box value. Secrets and connection strings have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	v.SetDefault("generation.provider", "gemini")
	v.SetDefault("generation.model_name", "gemini-2.0-flash")
	v.SetDefault("generation.request_timeout_seconds", 60)
	v.SetDefault("generation.daily_card_limit", 50)
	v.SetDefault("generation.max_cards_per_request", 50)
	v.SetDefault("generation.min_source_text_length", 20)
	v.SetDefault("generation.max_source_text_length", 10000)

	v.SetDefault("study.max_cards_per_session", 0)
}

// configKeys lists every key that may be set through the environment.
func configKeys() []string {
	return []string{
		"server.port",
		"server.log_level",
		"server.shutdown_timeout_seconds",
		"database.url",
		"auth.jwt_secret",
		"generation.provider",
		"generation.gemini_api_key",
		"generation.openai_api_key",
		"generation.model_name",
		"generation.request_timeout_seconds",
		"generation.daily_card_limit",
		"generation.max_cards_per_request",
		"generation.min_source_text_length",
		"generation.max_source_text_length",
		"study.max_cards_per_session",
		"srs.min_ease_factor",
		"srs.max_ease_factor",
		"srs.hard_interval_multiplier",
		"srs.easy_interval_bonus",
	}
}
