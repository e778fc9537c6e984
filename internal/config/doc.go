// Package config provides environment-based configuration.
//
// Loads from .env file (godotenv) and the process environment, validates
// required fields and numeric ranges. The loaded value is immutable for
// the lifetime of a run.
package config
