package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	envPrefix  = "PM"
	stateDir   = ".propman"

	KeyBaseURL       = "api.base_url"
	KeyTimeout       = "api.timeout"
	KeySettleDelay   = "sync.settle_delay"
	KeyMaxRetries    = "sync.max_retries"
	KeyProbeInterval = "connectivity.probe_interval"
	KeyQueuePath     = "queue.path"
	KeyCachePath     = "cache.path"
	KeySecretsDir    = "secrets.dir"
	KeySecretsStore  = "secrets.backend"
	KeyLogLevel      = "log.level"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Secret backends: chain tries pass(1) first and falls back to files.
const (
	SecretsChain = "chain"
	SecretsPass  = "pass"
	SecretsFile  = "file"
)

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	SettleDelay   time.Duration
	MaxRetries    int
	ProbeInterval time.Duration
	QueuePath     string
	CachePath     string
	SecretsDir    string
	SecretsStore  string
	LogLevel      zerolog.Level
}

// Load reads ~/.propman/config.toml (or the file already set on v) and PM_*
// environment overrides on top of the defaults. A missing config file is fine.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, stateDir)

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(baseDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBaseURL, "http://127.0.0.1:8080")
	v.SetDefault(KeyTimeout, 10*time.Second)
	v.SetDefault(KeySettleDelay, time.Second)
	v.SetDefault(KeyMaxRetries, 3)
	v.SetDefault(KeyProbeInterval, 5*time.Second)
	v.SetDefault(KeyQueuePath, filepath.Join(baseDir, "pending_actions.toml"))
	v.SetDefault(KeyCachePath, filepath.Join(baseDir, "query_cache.toml"))
	v.SetDefault(KeySecretsDir, filepath.Join(baseDir, "secrets"))
	v.SetDefault(KeySecretsStore, SecretsChain)
	v.SetDefault(KeyLogLevel, "warn")

	explicitFile := v.ConfigFileUsed() != ""
	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if explicitFile || !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, KeyLogLevel, err)
	}

	cfg := Config{
		BaseURL:       strings.TrimSpace(v.GetString(KeyBaseURL)),
		Timeout:       v.GetDuration(KeyTimeout),
		SettleDelay:   v.GetDuration(KeySettleDelay),
		MaxRetries:    v.GetInt(KeyMaxRetries),
		ProbeInterval: v.GetDuration(KeyProbeInterval),
		QueuePath:     expandHome(v.GetString(KeyQueuePath), homeDir),
		CachePath:     expandHome(v.GetString(KeyCachePath), homeDir),
		SecretsDir:    expandHome(v.GetString(KeySecretsDir), homeDir),
		SecretsStore:  strings.ToLower(strings.TrimSpace(v.GetString(KeySecretsStore))),
		LogLevel:      level,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http or https url, got %q", ErrInvalidConfig, KeyBaseURL, c.BaseURL)
	}

	switch {
	case c.Timeout <= 0:
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyTimeout)
	case c.SettleDelay < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, KeySettleDelay)
	case c.MaxRetries < 1:
		return fmt.Errorf("%w: %s must be at least 1", ErrInvalidConfig, KeyMaxRetries)
	case c.ProbeInterval <= 0:
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyProbeInterval)
	case strings.TrimSpace(c.QueuePath) == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, KeyQueuePath)
	case strings.TrimSpace(c.CachePath) == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, KeyCachePath)
	case strings.TrimSpace(c.SecretsDir) == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, KeySecretsDir)
	}

	switch c.SecretsStore {
	case SecretsChain, SecretsPass, SecretsFile:
	default:
		return fmt.Errorf("%w: %s must be one of chain, pass, file, got %q", ErrInvalidConfig, KeySecretsStore, c.SecretsStore)
	}

	return nil
}

func expandHome(path, homeDir string) string {
	path = strings.TrimSpace(path)
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
