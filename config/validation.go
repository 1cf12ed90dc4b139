package config

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	databaseDrivers  = []string{"sqlite", "postgres"}
	sessionStores    = []string{"database", "redis"}
	storageProviders = []string{"local", "s3"}
	logFormats       = []string{"json", "console"}
)

// ValidateConfig checks ranges and enumerations, and refuses the default
// session secret in production.
func ValidateConfig(cfg *Config) error {
	var errs []ValidationError

	check := func(ok bool, field, msg string) {
		if !ok {
			errs = append(errs, ValidationError{Field: field, Message: msg})
		}
	}

	check(cfg.Server.Port > 0 && cfg.Server.Port <= 65535, "server.port", "must be between 1 and 65535")
	check(oneOf(cfg.Database.Driver, databaseDrivers), "database.driver", "must be one of "+strings.Join(databaseDrivers, ", "))
	if cfg.Database.Driver == "sqlite" {
		check(cfg.Database.Path != "", "database.path", "is required for sqlite")
	}
	if cfg.Database.Driver == "postgres" {
		check(cfg.Database.Host != "", "database.host", "is required for postgres")
		check(cfg.Database.Name != "", "database.name", "is required for postgres")
	}

	check(oneOf(cfg.Session.Store, sessionStores), "session.store", "must be one of "+strings.Join(sessionStores, ", "))
	check(cfg.Session.CookieName != "", "session.cookie_name", "is required")
	check(cfg.Session.Secret != "", "session.secret", "is required")
	check(cfg.Session.Lifetime > 0, "session.lifetime", "must be positive")
	if cfg.Environment == Production {
		check(cfg.Session.Secret != DefaultSessionSecret, "session.secret", "must be changed in production")
	}

	check(oneOf(cfg.Storage.Provider, storageProviders), "storage.provider", "must be one of "+strings.Join(storageProviders, ", "))
	check(cfg.Storage.MaxUploadBytes > 0, "storage.max_upload_bytes", "must be positive")
	if cfg.Storage.Provider == "local" {
		check(cfg.Storage.LocalDir != "", "storage.local_dir", "is required for local storage")
	}
	if cfg.Storage.Provider == "s3" {
		check(cfg.Storage.S3.Bucket != "", "storage.s3.bucket", "is required for s3 storage")
	}

	check(cfg.Auth.BcryptCost >= bcrypt.MinCost && cfg.Auth.BcryptCost <= bcrypt.MaxCost,
		"auth.bcrypt_cost", fmt.Sprintf("must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	check(oneOf(cfg.Log.Format, logFormats), "log.format", "must be one of "+strings.Join(logFormats, ", "))

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
