package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables (prefix ADAPT_, nested keys joined
// with underscores, e.g. ADAPT_ENGINE_MAX_QUESTIONS) take precedence
// over values from the file; both override the documented defaults.
// Returns a populated Config struct or an error if loading or validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/adapt-api")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment and defaults
		// cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("ADAPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a registered default are invisible to Unmarshal unless
	// bound explicitly.
	for _, key := range []string{"database.url", "auth.jwt_secret"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the documented default values for every tunable.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("engine.model", "2pl")
	v.SetDefault("engine.strategy", "max_information")
	v.SetDefault("engine.theta_min", -4.0)
	v.SetDefault("engine.theta_max", 4.0)
	v.SetDefault("engine.standard_error_floor", 0.1)
	v.SetDefault("engine.initial_standard_error", 1.0)
	v.SetDefault("engine.information_epsilon", 1e-6)
	v.SetDefault("engine.min_questions", 5)
	v.SetDefault("engine.max_questions", 20)
	v.SetDefault("engine.precision_threshold", 0.3)
	v.SetDefault("engine.starting_ability", 0.0)
	v.SetDefault("engine.exposure_top_k", 5)
	v.SetDefault("engine.posterior_points", 21)
	v.SetDefault("engine.grading_timeout_seconds", 10)
	v.SetDefault("engine.grading_max_retries", 2)

	v.SetDefault("review.min_ease_factor", 1.3)
	v.SetDefault("review.initial_ease_factor", 2.5)
	v.SetDefault("review.seconds_per_difficulty_unit", 10.0)
	v.SetDefault("review.min_expected_seconds", 5.0)
	v.SetDefault("review.slow_incorrect_seconds", 30.0)
	v.SetDefault("review.first_interval_days", 1)
	v.SetDefault("review.second_interval_days", 6)
	v.SetDefault("review.session_size", 20)
}
