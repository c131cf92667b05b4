package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config     *Config
	viper      *viper.Viper
	configFile string
	mu         sync.RWMutex
	callbacks  []func(*Config)
	watching   bool
}

// Option customizes a Manager.
type Option func(*Manager)

// WithConfigFile loads from path instead of the XDG config file.
func WithConfigFile(path string) Option {
	return func(m *Manager) { m.configFile = path }
}

// NewManager creates a new configuration manager.
func NewManager(opts ...Option) (*Manager, error) {
	v := viper.New()
	m := &Manager{viper: v, callbacks: make([]func(*Config), 0)}
	for _, opt := range opts {
		opt(m)
	}

	if m.configFile == "" {
		path, err := GetConfigFile()
		if err != nil {
			return nil, fmt.Errorf("failed to determine config directory: %w\nCheck XDG_CONFIG_HOME environment variable or HOME directory", err)
		}
		m.configFile = path
	}
	v.SetConfigFile(m.configFile)
	v.SetConfigType("toml")

	// CANDYLAND_SERVER_ADDR, CANDYLAND_WORKER_ORIGIN, ...
	v.SetEnvPrefix("CANDYLAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"logging.level":          {"CANDYLAND_LOG_LEVEL"},
		"logging.format":         {"CANDYLAND_LOG_FORMAT"},
		"push.vapid_public_key":  {"CANDYLAND_PUSH_VAPID_PUBLIC_KEY", "VAPID_PUBLIC_KEY"},
		"push.vapid_private_key": {"CANDYLAND_PUSH_VAPID_PRIVATE_KEY", "VAPID_PRIVATE_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", strings.Join(envs, ", "), err)
		}
	}

	return m, nil
}

// Load loads the configuration from file and environment variables. A missing
// config file is created with defaults.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setDefaults()

	if err := m.readConfigFile(); err != nil {
		return err
	}

	config, err := m.unmarshalConfig()
	if err != nil {
		return err
	}
	if err := resolvePaths(config); err != nil {
		return err
	}
	normalizeConfig(config)

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) readConfigFile() error {
	err := m.viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config file at %s: %w\nCheck the file format (must be valid TOML) and permissions", m.configFile, err)
	}

	if createErr := m.createDefaultConfig(); createErr != nil {
		return fmt.Errorf(
			"failed to create default config at %s: %w\nTry creating the directory manually or check permissions",
			m.configFile,
			createErr,
		)
	}
	if rereadErr := m.viper.ReadInConfig(); rereadErr != nil {
		return fmt.Errorf(
			"failed to read newly created config file: %w\nThe config file was created but couldn't be read. Please check the file format",
			rereadErr,
		)
	}
	return nil
}

func (m *Manager) unmarshalConfig() (*Config, error) {
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf(
			"failed to parse config file at %s: %w\nCheck for syntax errors, invalid values, or type mismatches",
			m.configFile,
			err,
		)
	}
	return config, nil
}

// resolvePaths fills environment dependent paths left empty in the file.
func resolvePaths(config *Config) error {
	if config.Storage.DatabasePath == "" {
		path, err := GetDatabaseFile()
		if err != nil {
			return fmt.Errorf("failed to get database path: %w", err)
		}
		config.Storage.DatabasePath = path
	}
	if config.Storage.SubscriptionsFile == "" {
		path, err := GetSubscriptionsFile()
		if err != nil {
			return fmt.Errorf("failed to get subscriptions file path: %w", err)
		}
		config.Storage.SubscriptionsFile = path
	}
	if config.Logging.LogDir == "" {
		dir, err := GetLogDir()
		if err != nil {
			return fmt.Errorf("failed to get log directory: %w", err)
		}
		config.Logging.LogDir = dir
	}
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return DefaultConfig()
	}
	configCopy := *m.config
	configCopy.Server.AllowOrigins = append([]string(nil), m.config.Server.AllowOrigins...)
	configCopy.Worker.Assets = append([]string(nil), m.config.Worker.Assets...)
	return &configCopy
}

// Save validates cfg and writes it to the config file.
func (m *Manager) Save(cfg *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := WriteConfigOrdered(cfg, m.configFile); err != nil {
		return err
	}

	// With Watch active the fsnotify callback reloads.
	if !m.watching {
		return m.reload()
	}
	return nil
}

// GetConfigFile returns the path to the configuration file being used.
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// createDefaultConfig writes the defaults to the config file and the JSON
// schema next to it.
func (m *Manager) createDefaultConfig() error {
	if err := os.MkdirAll(filepath.Dir(m.configFile), dirPerm); err != nil {
		return err
	}
	if err := WriteConfigOrdered(DefaultConfig(), m.configFile); err != nil {
		return err
	}
	schemaFile := filepath.Join(filepath.Dir(m.configFile), schemaFileName)
	if err := WriteSchemaFile(schemaFile); err != nil {
		return err
	}
	return nil
}
