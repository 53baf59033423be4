package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine"   validate:"required"`
	Review   ReviewConfig   `mapstructure:"review"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost           int    `mapstructure:"bcrypt_cost"            validate:"omitempty,gte=4,lte=31"`
}

// EngineConfig contains the adaptive engine's tunables: the IRT model
// variant, selection strategy, estimation bounds and session termination
// rules. These are deployment configuration with documented defaults;
// hard-coding them would silently bias results across item banks.
type EngineConfig struct {
	Model                 string  `mapstructure:"model"                   validate:"required,oneof=rasch 2pl 3pl"`
	Strategy              string  `mapstructure:"strategy"                validate:"required,oneof=max_information bayesian weighted"`
	ThetaMin              float64 `mapstructure:"theta_min"               validate:"required"`
	ThetaMax              float64 `mapstructure:"theta_max"               validate:"required,gtfield=ThetaMin"`
	StandardErrorFloor    float64 `mapstructure:"standard_error_floor"    validate:"required,gt=0"`
	InitialStandardError  float64 `mapstructure:"initial_standard_error"  validate:"required,gt=0"`
	InformationEpsilon    float64 `mapstructure:"information_epsilon"     validate:"required,gt=0"`
	MinQuestions          int     `mapstructure:"min_questions"           validate:"required,gte=1"`
	MaxQuestions          int     `mapstructure:"max_questions"           validate:"required,gtefield=MinQuestions"`
	PrecisionThreshold    float64 `mapstructure:"precision_threshold"     validate:"required,gt=0"`
	StartingAbility       float64 `mapstructure:"starting_ability"`
	ExposureTopK          int     `mapstructure:"exposure_top_k"          validate:"required,gte=1"`
	PosteriorPoints       int     `mapstructure:"posterior_points"        validate:"required,gte=1"`
	GradingTimeoutSeconds int     `mapstructure:"grading_timeout_seconds" validate:"required,gt=0"`
	GradingMaxRetries     int     `mapstructure:"grading_max_retries"     validate:"gte=0"`
}

// ReviewConfig contains the spaced-repetition scheduler's tunables.
type ReviewConfig struct {
	MinEaseFactor            float64 `mapstructure:"min_ease_factor"             validate:"required,gte=1"`
	InitialEaseFactor        float64 `mapstructure:"initial_ease_factor"         validate:"required,gtefield=MinEaseFactor"`
	SecondsPerDifficultyUnit float64 `mapstructure:"seconds_per_difficulty_unit" validate:"required,gt=0"`
	MinExpectedSeconds       float64 `mapstructure:"min_expected_seconds"        validate:"required,gt=0"`
	SlowIncorrectSeconds     float64 `mapstructure:"slow_incorrect_seconds"      validate:"required,gt=0"`
	FirstIntervalDays        int     `mapstructure:"first_interval_days"         validate:"required,gte=1"`
	SecondIntervalDays       int     `mapstructure:"second_interval_days"        validate:"required,gte=1"`
	SessionSize              int     `mapstructure:"session_size"                validate:"required,gte=1"`
}
