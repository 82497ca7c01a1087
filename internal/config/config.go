package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Study      StudyConfig      `mapstructure:"study"`
	SRS        SRSConfig        `mapstructure:"srs"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ShutdownTimeoutSeconds bounds graceful shutdown before in-flight
	// requests are abandoned.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=0,lte=300"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// GenerationConfig contains all AI card generation settings: provider
// selection, credentials, model, request bounds, and the per-user daily
// quota.
type GenerationConfig struct {
	// Provider selects the model backend. "gemini" is the default;
	// "openai" is available as a fallback provider.
	Provider     string `mapstructure:"provider"       validate:"required,oneof=gemini openai"`
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required_if=Provider gemini"`
	OpenAIAPIKey string `mapstructure:"openai_api_key" validate:"required_if=Provider openai"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`

	// RequestTimeoutSeconds bounds a single model call. Generation is not
	// retried; a timeout surfaces to the caller as a service error.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"required,gt=0,lte=600"`

	// DailyCardLimit is the per-user cap on AI-generated cards per UTC day.
	DailyCardLimit int `mapstructure:"daily_card_limit" validate:"required,gt=0"`

	// MaxCardsPerRequest caps the requested count of a single generation call.
	MaxCardsPerRequest int `mapstructure:"max_cards_per_request" validate:"required,gt=0"`

	// Source text length bounds, in characters.
	MinSourceTextLength int `mapstructure:"min_source_text_length" validate:"required,gt=0"`
	MaxSourceTextLength int `mapstructure:"max_source_text_length" validate:"required,gtfield=MinSourceTextLength"`
}

// StudyConfig contains study session settings.
type StudyConfig struct {
	// MaxCardsPerSession caps how many due cards a session serves. Zero
	// means no cap.
	MaxCardsPerSession int `mapstructure:"max_cards_per_session" validate:"gte=0"`
}

// SRSConfig contains optional overrides for the spaced repetition
// parameters. Zero values mean "use the built-in default".
type SRSConfig struct {
	MinEaseFactor          float64 `mapstructure:"min_ease_factor"          validate:"gte=0"`
	MaxEaseFactor          float64 `mapstructure:"max_ease_factor"          validate:"gte=0"`
	HardIntervalMultiplier float64 `mapstructure:"hard_interval_multiplier" validate:"gte=0"`
	EasyIntervalBonus      float64 `mapstructure:"easy_interval_bonus"      validate:"gte=0"`
}
