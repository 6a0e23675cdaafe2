// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port    int `mapstructure:"port"`
	Backend struct {
		BaseURL           string        `mapstructure:"base_url"`
		BrowsePath        string        `mapstructure:"browse_path"`
		GenresPath        string        `mapstructure:"genres_path"`
		ProfilesPath      string        `mapstructure:"profiles_path"`
		RequestTimeout    time.Duration `mapstructure:"request_timeout"`
		RequestsPerSecond float64       `mapstructure:"requests_per_second"`
		Burst             int           `mapstructure:"burst"`
	} `mapstructure:"backend"`
	Browse struct {
		DebounceInterval time.Duration `mapstructure:"debounce_interval"`
		MinSearchLength  int           `mapstructure:"min_search_length"`
		PageSize         int           `mapstructure:"page_size"`
	} `mapstructure:"browse"`
	Genres struct {
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
		// RefreshInterval is in minutes; 0 disables the scheduled refresh.
		RefreshInterval int `mapstructure:"refresh_interval"`
	} `mapstructure:"genres"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// e.g., MANGO_BACKEND_BASE_URL will override the `backend.base_url` key.
	viper.SetEnvPrefix("MANGO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	return unmarshal()
}

// Watch reloads the configuration whenever config.yml changes on disk and
// hands the new values to onChange. It is a no-op when no file was loaded.
func Watch(onChange func(*Config)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.WithField("file", e.Name).Info("Configuration file changed, reloading")
		cfg, err := unmarshal()
		if err != nil {
			log.Warnf("Ignoring invalid configuration: %v", err)
			return
		}
		onChange(cfg)
	})
	viper.WatchConfig()
}

func setDefaults() {
	viper.SetDefault("port", 8080)
	viper.SetDefault("backend.base_url", "http://127.0.0.1:8000")
	viper.SetDefault("backend.browse_path", "/centralized_API_backend/api/all-novels/browse/")
	viper.SetDefault("backend.genres_path", "/centralized_API_backend/api/all-novels/genres/")
	viper.SetDefault("backend.profiles_path", "/centralized_API_backend/api/profiles/")
	viper.SetDefault("backend.request_timeout", 10*time.Second)
	viper.SetDefault("backend.requests_per_second", 0)
	viper.SetDefault("backend.burst", 1)
	viper.SetDefault("browse.debounce_interval", 300*time.Millisecond)
	viper.SetDefault("browse.min_search_length", 2)
	viper.SetDefault("browse.page_size", 0)
	viper.SetDefault("genres.cache_ttl", time.Hour)
	viper.SetDefault("genres.refresh_interval", 60)
	viper.SetDefault("database.path", "./mango-tracker.db")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

func unmarshal() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// SetupLogging applies the log level and format to the global logger.
func SetupLogging(cfg *Config) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
