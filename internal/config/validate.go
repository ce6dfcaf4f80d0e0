package config

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

const maxConcurrency = 16

// Validate checks the settings every stage depends on and reports all
// problems at once.
func (c *Config) Validate() error {
	var errs []string

	if !isMajor(c.Upgrade.TargetMajor) {
		errs = append(errs, "upgrade.target_major must be a whole number")
	}
	if !isMajor(c.Upgrade.ReferenceMajor) {
		errs = append(errs, "upgrade.reference_major must be a whole number")
	}
	if c.Upgrade.TargetMajor != "" && c.Upgrade.TargetMajor == c.Upgrade.ReferenceMajor {
		errs = append(errs, "upgrade.target_major and upgrade.reference_major must differ")
	}

	if len(c.Platform.Roles) == 0 {
		errs = append(errs, "platform.roles must list at least one role")
	}
	for _, r := range c.Platform.Roles {
		if strings.TrimSpace(r) == "" || strings.ContainsAny(r, `/\`) {
			errs = append(errs, "platform.roles contains an invalid role name: "+strconv.Quote(r))
		}
	}

	if c.Splunkbase.RequestsPerSecond <= 0 {
		errs = append(errs, "splunkbase.requests_per_second must be greater than 0")
	}
	if c.Splunkbase.TimeoutSecs <= 0 {
		errs = append(errs, "splunkbase.timeout_secs must be greater than 0")
	}
	if c.Splunkbase.MaxRetries < 0 {
		errs = append(errs, "splunkbase.max_retries must not be negative")
	}

	if c.Enrich.Concurrency < 1 || c.Enrich.Concurrency > maxConcurrency {
		errs = append(errs, "enrich.concurrency must be between 1 and 16")
	}
	if c.Download.Concurrency < 1 || c.Download.Concurrency > maxConcurrency {
		errs = append(errs, "download.concurrency must be between 1 and 16")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func isMajor(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0
}
