// Package config loads and validates application settings from environment
// variables and optional config files. Engine tunables (ability bounds,
// precision thresholds, question limits) and review scheduling parameters
// are deployment configuration with documented defaults, not constants, so
// they can be adjusted per item bank without a rebuild.
package config
