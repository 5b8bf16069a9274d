package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Download DownloadConfig `mapstructure:"download"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"` // json or sqlite
	Dir     string `mapstructure:"dir"`
}

type DownloadConfig struct {
	Dir                  string        `mapstructure:"dir"`
	MaxConcurrent        int           `mapstructure:"max_concurrent"`
	StuckTimeout         time.Duration `mapstructure:"stuck_timeout"`
	MonitorInterval      time.Duration `mapstructure:"monitor_interval"`
	RetireAfter          time.Duration `mapstructure:"retire_after"`
	HistoryRetentionDays int           `mapstructure:"history_retention_days"`
	OutputTemplate       string        `mapstructure:"output_template"`
}

type EngineConfig struct {
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load reads configuration from defaults, an optional config file, a
// .env file and VIDSNATCH_* environment variables, in rising priority.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDataDir())
	}

	v.SetEnvPrefix("VIDSNATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// legacy variable understood by earlier installs
	v.BindEnv("download.dir", "VIDSNATCH_DOWNLOAD_DIR", "DOWNLOAD_LOCATION")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Dir = ExpandHome(cfg.Storage.Dir)
	cfg.Download.Dir = ExpandHome(cfg.Download.Dir)
	cfg.Log.File = ExpandHome(cfg.Log.File)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8765)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("storage.backend", "json")
	v.SetDefault("storage.dir", DefaultDataDir())
	v.SetDefault("download.dir", DefaultDownloadDir())
	v.SetDefault("download.max_concurrent", 4)
	v.SetDefault("download.stuck_timeout", 30*time.Second)
	v.SetDefault("download.monitor_interval", 30*time.Second)
	v.SetDefault("download.retire_after", 5*time.Minute)
	v.SetDefault("download.history_retention_days", 7)
	v.SetDefault("download.output_template", "%(title)s.%(ext)s")
	v.SetDefault("engine.progress_interval", 500*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 5)
	v.SetDefault("log.max_backups", 3)
}

// Default returns the configuration with only defaults applied
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
