// Package config loads the service configuration from environment variables
// and an optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/gramboard/instagram-insights/common"
)

const envPrefix = "IGDASH"

// Load resolves the configuration. Precedence, highest first: environment
// variables (IGDASH_*), the config file at path (YAML, optional), defaults.
// An empty path means env-and-defaults only.
func Load(path string) (common.Config, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_base_url", "")
	v.SetDefault("api_version", "")
	v.SetDefault("media_limit", common.DefaultMediaLimit)
	v.SetDefault("insights_limit", common.DefaultInsightsLimit)
	v.SetDefault("batch_size", common.DefaultBatchSize)
	v.SetDefault("request_timeout", common.DefaultTimeout)
	v.SetDefault("listen_addr", common.DefaultListenAddr)
	v.SetDefault("storage_root", "./data")
	v.SetDefault("state_store_name", "statestore")
	v.SetDefault("use_dapr", false)
	v.SetDefault("log_level", "info")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return common.Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := common.Config{
		AccessToken:    v.GetString("access_token"),
		UserID:         v.GetString("user_id"),
		APIBaseURL:     v.GetString("api_base_url"),
		APIVersion:     v.GetString("api_version"),
		MediaLimit:     v.GetInt("media_limit"),
		InsightsLimit:  v.GetInt("insights_limit"),
		BatchSize:      v.GetInt("batch_size"),
		RequestTimeout: v.GetDuration("request_timeout"),
		ListenAddr:     v.GetString("listen_addr"),
		StorageRoot:    v.GetString("storage_root"),
		StateStoreName: v.GetString("state_store_name"),
		UseDapr:        v.GetBool("use_dapr"),
		LogLevel:       v.GetString("log_level"),
	}
	cfg.ApplyDefaults()

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = common.DefaultTimeout
	}
	if cfg.InsightsLimit > cfg.MediaLimit {
		cfg.InsightsLimit = cfg.MediaLimit
	}

	return cfg, nil
}

// ParseLogLevel maps a config string onto a zerolog-compatible level name,
// defaulting to info for unknown values.
func ParseLogLevel(level string) string {
	switch strings.ToLower(level) {
	case "trace", "debug", "info", "warn", "error":
		return strings.ToLower(level)
	default:
		return "info"
	}
}
