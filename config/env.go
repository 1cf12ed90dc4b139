package config

import (
	"os"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment.
// CI is detected automatically; otherwise RECIPESHARE_ENV, then ENV, is consulted.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	env := os.Getenv("RECIPESHARE_ENV")
	if env == "" {
		env = os.Getenv("ENV")
	}
	return ParseEnvironment(env)
}

// ParseEnvironment maps a name to an Environment, defaulting to Development
func ParseEnvironment(name string) Environment {
	switch Environment(name) {
	case Production, Test, CI:
		return Environment(name)
	default:
		return Development
	}
}

// IsProduction returns true if the config was loaded for production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsDevelopment returns true if the config was loaded for development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}
