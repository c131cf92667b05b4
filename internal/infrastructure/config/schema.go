package config

import "time"

// Config represents the complete configuration for candyland.
type Config struct {
	// Server configures the subscription backend and static app host.
	Server ServerConfig `mapstructure:"server" toml:"server" json:"server"`
	// Push holds the VAPID identity used to sign push deliveries.
	Push PushConfig `mapstructure:"push" toml:"push" json:"push"`
	// Storage selects where push subscriptions are persisted.
	Storage StorageConfig `mapstructure:"storage" toml:"storage" json:"storage"`
	// Worker configures the offline cache worker behind the proxy.
	Worker WorkerConfig `mapstructure:"worker" toml:"worker" json:"worker"`
	// Reminder configures scheduled study reminders.
	Reminder ReminderConfig `mapstructure:"reminder" toml:"reminder" json:"reminder"`
	Logging  LoggingConfig  `mapstructure:"logging" toml:"logging" json:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address of the backend (host:port).
	Addr string `mapstructure:"addr" toml:"addr" json:"addr" jsonschema:"default=:3000"`
	// PublicDir is the static app directory. Empty disables static serving.
	PublicDir string `mapstructure:"public_dir" toml:"public_dir" json:"public_dir"`
	// AllowOrigins lists CORS origins. Empty allows any origin.
	AllowOrigins []string `mapstructure:"allow_origins" toml:"allow_origins" json:"allow_origins"`
}

// Urgency is the Web Push urgency hint.
type Urgency string

const (
	UrgencyVeryLow Urgency = "very-low"
	UrgencyLow     Urgency = "low"
	UrgencyNormal  Urgency = "normal"
	UrgencyHigh    Urgency = "high"
)

// PushConfig holds Web Push delivery settings.
type PushConfig struct {
	// VAPIDPublicKey and VAPIDPrivateKey are URL-safe base64 keys. When either
	// is empty, ephemeral keys are generated at startup.
	VAPIDPublicKey  string `mapstructure:"vapid_public_key" toml:"vapid_public_key" json:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key" toml:"vapid_private_key" json:"vapid_private_key"`
	// Subscriber is the contact sent to push services (mailto: or https: URL).
	Subscriber string        `mapstructure:"subscriber" toml:"subscriber" json:"subscriber"`
	TTL        time.Duration `mapstructure:"ttl" toml:"ttl" json:"ttl" jsonschema:"type=string"`
	Urgency    Urgency       `mapstructure:"urgency" toml:"urgency" json:"urgency" jsonschema:"enum=very-low,enum=low,enum=normal,enum=high"`
	Timeout    time.Duration `mapstructure:"timeout" toml:"timeout" json:"timeout" jsonschema:"type=string"`
}

// StorageDriver selects the subscription store.
type StorageDriver string

const (
	StorageDriverSQLite StorageDriver = "sqlite"
	StorageDriverFile   StorageDriver = "file"
)

// StorageConfig holds subscription persistence settings.
type StorageConfig struct {
	Driver StorageDriver `mapstructure:"driver" toml:"driver" json:"driver" jsonschema:"enum=sqlite,enum=file"`
	// DatabasePath is the SQLite file shared by subscriptions and the sqlite
	// cache storage. Defaults to the XDG data directory.
	DatabasePath string `mapstructure:"database_path" toml:"database_path" json:"database_path"`
	// SubscriptionsFile is the JSON array used by the file driver.
	SubscriptionsFile string `mapstructure:"subscriptions_file" toml:"subscriptions_file" json:"subscriptions_file"`
}

// CacheDriver selects where cache generations live.
type CacheDriver string

const (
	CacheDriverSQLite CacheDriver = "sqlite"
	CacheDriverMemory CacheDriver = "memory"
)

// WorkerConfig configures the offline worker and the proxy in front of it.
type WorkerConfig struct {
	// Origin is the absolute URL of the app being made offline-capable.
	Origin string `mapstructure:"origin" toml:"origin" json:"origin"`
	// Listen is the proxy listen address.
	Listen string `mapstructure:"listen" toml:"listen" json:"listen"`
	// Version names the precache generation. Bump it on every asset change.
	Version      string   `mapstructure:"version" toml:"version" json:"version"`
	CachePrefix  string   `mapstructure:"cache_prefix" toml:"cache_prefix" json:"cache_prefix"`
	DynamicCache string   `mapstructure:"dynamic_cache" toml:"dynamic_cache" json:"dynamic_cache"`
	OfflinePage  string   `mapstructure:"offline_page" toml:"offline_page" json:"offline_page"`
	Assets       []string `mapstructure:"assets" toml:"assets" json:"assets"`
	SkipWaiting  bool     `mapstructure:"skip_waiting" toml:"skip_waiting" json:"skip_waiting"`
	// FetchTimeout bounds network fetches on cache miss. Zero disables it.
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout" toml:"fetch_timeout" json:"fetch_timeout" jsonschema:"type=string"`
	InstallConcurrency int           `mapstructure:"install_concurrency" toml:"install_concurrency" json:"install_concurrency"`
	Storage            CacheDriver   `mapstructure:"storage" toml:"storage" json:"storage" jsonschema:"enum=sqlite,enum=memory"`
	// DynamicCapacity bounds the in-memory dynamic generation (memory storage only).
	DynamicCapacity int `mapstructure:"dynamic_capacity" toml:"dynamic_capacity" json:"dynamic_capacity"`
	// ClientIdleTTL is how long an unseen page session stays in the client list.
	ClientIdleTTL time.Duration `mapstructure:"client_idle_ttl" toml:"client_idle_ttl" json:"client_idle_ttl" jsonschema:"type=string"`
}

// ReminderConfig holds reminder scheduling settings.
type ReminderConfig struct {
	DefaultDelay time.Duration `mapstructure:"default_delay" toml:"default_delay" json:"default_delay" jsonschema:"type=string"`
	MaxDelay     time.Duration `mapstructure:"max_delay" toml:"max_delay" json:"max_delay" jsonschema:"type=string"`
	SendTimeout  time.Duration `mapstructure:"send_timeout" toml:"send_timeout" json:"send_timeout" jsonschema:"type=string"`
	Title        string        `mapstructure:"title" toml:"title" json:"title"`
	Message      string        `mapstructure:"message" toml:"message" json:"message"`
	URL          string        `mapstructure:"url" toml:"url" json:"url"`
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level" json:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error,enum=disabled"`
	Format string `mapstructure:"format" toml:"format" json:"format" jsonschema:"enum=console,enum=json"`
	// EnableFileLog also writes JSON logs to a rotated file in LogDir.
	EnableFileLog bool   `mapstructure:"enable_file_log" toml:"enable_file_log" json:"enable_file_log"`
	LogDir        string `mapstructure:"log_dir" toml:"log_dir" json:"log_dir"`
	MaxSizeMB     int    `mapstructure:"max_size_mb" toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups    int    `mapstructure:"max_backups" toml:"max_backups" json:"max_backups"`
	MaxAgeDays    int    `mapstructure:"max_age_days" toml:"max_age_days" json:"max_age_days"`
	Compress      bool   `mapstructure:"compress" toml:"compress" json:"compress"`
}
