package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// normalizeConfig lowercases enum values and replaces unknown ones with defaults.
func normalizeConfig(config *Config) {
	switch Urgency(strings.ToLower(string(config.Push.Urgency))) {
	case UrgencyVeryLow, UrgencyLow, UrgencyNormal, UrgencyHigh:
		config.Push.Urgency = Urgency(strings.ToLower(string(config.Push.Urgency)))
	default:
		config.Push.Urgency = UrgencyNormal
	}

	switch StorageDriver(strings.ToLower(string(config.Storage.Driver))) {
	case "", StorageDriverSQLite:
		config.Storage.Driver = StorageDriverSQLite
	case StorageDriverFile:
		config.Storage.Driver = StorageDriverFile
	}

	switch CacheDriver(strings.ToLower(string(config.Worker.Storage))) {
	case "", CacheDriverSQLite:
		config.Worker.Storage = CacheDriverSQLite
	case CacheDriverMemory:
		config.Worker.Storage = CacheDriverMemory
	}

	config.Logging.Level = strings.ToLower(strings.TrimSpace(config.Logging.Level))
	switch strings.ToLower(config.Logging.Format) {
	case "json":
		config.Logging.Format = "json"
	default:
		config.Logging.Format = "console"
	}

	if config.Worker.Origin != "" && !strings.HasSuffix(config.Worker.Origin, "/") {
		config.Worker.Origin += "/"
	}
}

// validateConfig performs comprehensive validation of configuration values
func validateConfig(config *Config) error {
	var validationErrors []string

	validationErrors = append(validationErrors, validateServer(config)...)
	validationErrors = append(validationErrors, validatePush(config)...)
	validationErrors = append(validationErrors, validateStorage(config)...)
	validationErrors = append(validationErrors, validateWorker(config)...)
	validationErrors = append(validationErrors, validateReminder(config)...)
	validationErrors = append(validationErrors, validateLogging(config)...)

	if len(validationErrors) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(validationErrors, "\n  - "))
	}
	return nil
}

func validateAddr(key, addr string) []string {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return []string{fmt.Sprintf("%s must be host:port (got %q)", key, addr)}
	}
	return nil
}

func validateServer(config *Config) []string {
	return validateAddr("server.addr", config.Server.Addr)
}

func validatePush(config *Config) []string {
	var validationErrors []string
	p := config.Push
	if (p.VAPIDPublicKey == "") != (p.VAPIDPrivateKey == "") {
		validationErrors = append(validationErrors, "push.vapid_public_key and push.vapid_private_key must be set together")
	}
	if !strings.HasPrefix(p.Subscriber, "mailto:") && !strings.HasPrefix(p.Subscriber, "https://") {
		validationErrors = append(validationErrors, "push.subscriber must be a mailto: or https:// URL")
	}
	if p.TTL < 0 {
		validationErrors = append(validationErrors, "push.ttl must be non-negative")
	}
	if p.Timeout < 0 {
		validationErrors = append(validationErrors, "push.timeout must be non-negative")
	}
	return validationErrors
}

func validateStorage(config *Config) []string {
	switch config.Storage.Driver {
	case StorageDriverSQLite, StorageDriverFile:
		return nil
	default:
		return []string{fmt.Sprintf("storage.driver must be one of: sqlite, file (got %q)", config.Storage.Driver)}
	}
}

func validateWorker(config *Config) []string {
	var validationErrors []string
	w := config.Worker

	u, err := url.Parse(w.Origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		validationErrors = append(validationErrors, fmt.Sprintf("worker.origin must be an absolute http(s) URL (got %q)", w.Origin))
	}
	validationErrors = append(validationErrors, validateAddr("worker.listen", w.Listen)...)

	if strings.TrimSpace(w.Version) == "" {
		validationErrors = append(validationErrors, "worker.version must not be empty")
	}
	if strings.TrimSpace(w.CachePrefix) == "" {
		validationErrors = append(validationErrors, "worker.cache_prefix must not be empty")
	}
	if strings.TrimSpace(w.DynamicCache) == "" {
		validationErrors = append(validationErrors, "worker.dynamic_cache must not be empty")
	} else if w.DynamicCache == w.CachePrefix+"-"+w.Version {
		validationErrors = append(validationErrors, "worker.dynamic_cache must differ from the precache name")
	}
	if len(w.Assets) == 0 {
		validationErrors = append(validationErrors, "worker.assets must list at least one asset")
	}
	if w.OfflinePage == "" {
		validationErrors = append(validationErrors, "worker.offline_page must not be empty")
	} else if !containsString(w.Assets, w.OfflinePage) {
		validationErrors = append(validationErrors, "worker.offline_page must be listed in worker.assets")
	}
	if w.FetchTimeout < 0 {
		validationErrors = append(validationErrors, "worker.fetch_timeout must be non-negative")
	}
	if w.InstallConcurrency < 1 {
		validationErrors = append(validationErrors, "worker.install_concurrency must be at least 1")
	}
	switch w.Storage {
	case CacheDriverSQLite, CacheDriverMemory:
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("worker.storage must be one of: sqlite, memory (got %q)", w.Storage))
	}
	if w.DynamicCapacity < 0 {
		validationErrors = append(validationErrors, "worker.dynamic_capacity must be non-negative")
	}
	if w.ClientIdleTTL < 0 {
		validationErrors = append(validationErrors, "worker.client_idle_ttl must be non-negative")
	}
	return validationErrors
}

func validateReminder(config *Config) []string {
	var validationErrors []string
	r := config.Reminder
	if r.DefaultDelay < 0 {
		validationErrors = append(validationErrors, "reminder.default_delay must be non-negative")
	}
	if r.MaxDelay <= 0 {
		validationErrors = append(validationErrors, "reminder.max_delay must be positive")
	} else if r.DefaultDelay > r.MaxDelay {
		validationErrors = append(validationErrors, "reminder.default_delay must not exceed reminder.max_delay")
	}
	if r.SendTimeout <= 0 {
		validationErrors = append(validationErrors, "reminder.send_timeout must be positive")
	}
	return validationErrors
}

func validateLogging(config *Config) []string {
	var validationErrors []string
	switch config.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		validationErrors = append(validationErrors,
			fmt.Sprintf("logging.level must be one of: trace, debug, info, warn, error, disabled (got %q)", config.Logging.Level))
	}
	if config.Logging.EnableFileLog {
		if config.Logging.MaxSizeMB < 1 {
			validationErrors = append(validationErrors, "logging.max_size_mb must be at least 1")
		}
		if config.Logging.MaxBackups < 0 {
			validationErrors = append(validationErrors, "logging.max_backups must be non-negative")
		}
		if config.Logging.MaxAgeDays < 0 {
			validationErrors = append(validationErrors, "logging.max_age_days must be non-negative")
		}
	}
	return validationErrors
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
