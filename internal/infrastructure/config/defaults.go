package config

import (
	"time"

	"github.com/bnema/candyland/internal/domain/entity"
)

// Default configuration constants
const (
	defaultServerAddr = ":3000"
	defaultProxyAddr  = ":8080"
	defaultOrigin     = "http://localhost:3000/"
	defaultSubscriber = "mailto:admin@localhost"

	defaultPushTTL     = 24 * time.Hour
	defaultPushTimeout = 15 * time.Second

	defaultInstallConcurrency = 6
	defaultDynamicCapacity    = 500 // entries
	defaultClientIdleTTL      = 30 * time.Minute

	defaultReminderDelay       = 5 * time.Minute
	defaultReminderMaxDelay    = 7 * 24 * time.Hour
	defaultReminderSendTimeout = 2 * time.Minute

	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAgeDays = 7 // days
)

// DefaultConfig returns the default configuration. Paths that depend on the
// environment are left empty and resolved at load time.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         defaultServerAddr,
			PublicDir:    "public",
			AllowOrigins: []string{},
		},
		Push: PushConfig{
			Subscriber: defaultSubscriber,
			TTL:        defaultPushTTL,
			Urgency:    UrgencyNormal,
			Timeout:    defaultPushTimeout,
		},
		Storage: StorageConfig{
			Driver: StorageDriverSQLite,
		},
		Worker: WorkerConfig{
			Origin:             defaultOrigin,
			Listen:             defaultProxyAddr,
			Version:            entity.DefaultCacheVersion,
			CachePrefix:        entity.DefaultCachePrefix,
			DynamicCache:       entity.DefaultDynamicCache,
			OfflinePage:        entity.DefaultOfflinePage,
			Assets:             entity.DefaultManifest(),
			SkipWaiting:        true,
			InstallConcurrency: defaultInstallConcurrency,
			Storage:            CacheDriverSQLite,
			DynamicCapacity:    defaultDynamicCapacity,
			ClientIdleTTL:      defaultClientIdleTTL,
		},
		Reminder: ReminderConfig{
			DefaultDelay: defaultReminderDelay,
			MaxDelay:     defaultReminderMaxDelay,
			SendTimeout:  defaultReminderSendTimeout,
			Title:        entity.DefaultReminderTitle,
			Message:      entity.DefaultReminderMessage,
			URL:          entity.DefaultReminderURL,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
			Compress:   true,
		},
	}
}

// setDefaults sets default configuration values in Viper.
func (m *Manager) setDefaults() {
	defaults := DefaultConfig()

	m.setServerDefaults(defaults)
	m.setPushDefaults(defaults)
	m.setStorageDefaults(defaults)
	m.setWorkerDefaults(defaults)
	m.setReminderDefaults(defaults)
	m.setLoggingDefaults(defaults)
}

func (m *Manager) setServerDefaults(defaults *Config) {
	m.viper.SetDefault("server.addr", defaults.Server.Addr)
	m.viper.SetDefault("server.public_dir", defaults.Server.PublicDir)
	m.viper.SetDefault("server.allow_origins", defaults.Server.AllowOrigins)
}

func (m *Manager) setPushDefaults(defaults *Config) {
	m.viper.SetDefault("push.vapid_public_key", "")
	m.viper.SetDefault("push.vapid_private_key", "")
	m.viper.SetDefault("push.subscriber", defaults.Push.Subscriber)
	m.viper.SetDefault("push.ttl", defaults.Push.TTL)
	m.viper.SetDefault("push.urgency", string(defaults.Push.Urgency))
	m.viper.SetDefault("push.timeout", defaults.Push.Timeout)
}

func (m *Manager) setStorageDefaults(defaults *Config) {
	m.viper.SetDefault("storage.driver", string(defaults.Storage.Driver))
	m.viper.SetDefault("storage.database_path", "")
	m.viper.SetDefault("storage.subscriptions_file", "")
}

func (m *Manager) setWorkerDefaults(defaults *Config) {
	w := defaults.Worker
	m.viper.SetDefault("worker.origin", w.Origin)
	m.viper.SetDefault("worker.listen", w.Listen)
	m.viper.SetDefault("worker.version", w.Version)
	m.viper.SetDefault("worker.cache_prefix", w.CachePrefix)
	m.viper.SetDefault("worker.dynamic_cache", w.DynamicCache)
	m.viper.SetDefault("worker.offline_page", w.OfflinePage)
	m.viper.SetDefault("worker.assets", w.Assets)
	m.viper.SetDefault("worker.skip_waiting", w.SkipWaiting)
	m.viper.SetDefault("worker.fetch_timeout", w.FetchTimeout)
	m.viper.SetDefault("worker.install_concurrency", w.InstallConcurrency)
	m.viper.SetDefault("worker.storage", string(w.Storage))
	m.viper.SetDefault("worker.dynamic_capacity", w.DynamicCapacity)
	m.viper.SetDefault("worker.client_idle_ttl", w.ClientIdleTTL)
}

func (m *Manager) setReminderDefaults(defaults *Config) {
	r := defaults.Reminder
	m.viper.SetDefault("reminder.default_delay", r.DefaultDelay)
	m.viper.SetDefault("reminder.max_delay", r.MaxDelay)
	m.viper.SetDefault("reminder.send_timeout", r.SendTimeout)
	m.viper.SetDefault("reminder.title", r.Title)
	m.viper.SetDefault("reminder.message", r.Message)
	m.viper.SetDefault("reminder.url", r.URL)
}

func (m *Manager) setLoggingDefaults(defaults *Config) {
	l := defaults.Logging
	m.viper.SetDefault("logging.level", l.Level)
	m.viper.SetDefault("logging.format", l.Format)
	m.viper.SetDefault("logging.enable_file_log", l.EnableFileLog)
	m.viper.SetDefault("logging.log_dir", "")
	m.viper.SetDefault("logging.max_size_mb", l.MaxSizeMB)
	m.viper.SetDefault("logging.max_backups", l.MaxBackups)
	m.viper.SetDefault("logging.max_age_days", l.MaxAgeDays)
	m.viper.SetDefault("logging.compress", l.Compress)
}
