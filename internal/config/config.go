package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	OutputDir           string  `mapstructure:"output_dir" yaml:"output_dir"`
	IntervalMs          int     `mapstructure:"interval_ms" yaml:"interval_ms"`
	Codec               string  `mapstructure:"codec" yaml:"codec"`
	Quality             int     `mapstructure:"quality" yaml:"quality"`
	MinWidth            int     `mapstructure:"min_width" yaml:"min_width"`
	WidthDivisor        float64 `mapstructure:"width_divisor" yaml:"width_divisor"`
	Displays            []int   `mapstructure:"displays" yaml:"displays,omitempty"`
	DrainTimeoutSeconds int     `mapstructure:"drain_timeout_seconds" yaml:"drain_timeout_seconds"`
	DatabaseURL         string  `mapstructure:"database_url" yaml:"database_url,omitempty"`
	LogLevel            string  `mapstructure:"log_level" yaml:"log_level"`
	LogFormat           string  `mapstructure:"log_format" yaml:"log_format"`
	LogFile             string  `mapstructure:"log_file" yaml:"log_file,omitempty"`
	LogMaxSizeMB        int     `mapstructure:"log_max_size_mb" yaml:"log_max_size_mb"`
	LogMaxBackups       int     `mapstructure:"log_max_backups" yaml:"log_max_backups"`
}

func Default() *Config {
	return &Config{
		OutputDir:           "target",
		IntervalMs:          2000,
		Codec:               "jpeg",
		Quality:             90,
		MinWidth:            1080,
		WidthDivisor:        1.7,
		DrainTimeoutSeconds: 10,
		LogLevel:            "info",
		LogFormat:           "text",
		LogMaxSizeMB:        50,
		LogMaxBackups:       3,
	}
}

// Interval is the scheduler tick period.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// DrainTimeout bounds how long shutdown waits for in-flight cycles.
func (c *Config) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutSeconds) * time.Second
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()
	v := newViper(cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("recorder")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BREEZE_RECORDER")
	v.AutomaticEnv()
	// The bootstrap collaborator has always read the plain DATABASE_URL.
	_ = v.BindEnv("database_url", "BREEZE_RECORDER_DATABASE_URL", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newViper registers every key with its default so AutomaticEnv can
// resolve keys that never appear in a config file.
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("interval_ms", cfg.IntervalMs)
	v.SetDefault("codec", cfg.Codec)
	v.SetDefault("quality", cfg.Quality)
	v.SetDefault("min_width", cfg.MinWidth)
	v.SetDefault("width_divisor", cfg.WidthDivisor)
	v.SetDefault("displays", cfg.Displays)
	v.SetDefault("drain_timeout_seconds", cfg.DrainTimeoutSeconds)
	v.SetDefault("database_url", cfg.DatabaseURL)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("log_max_size_mb", cfg.LogMaxSizeMB)
	v.SetDefault("log_max_backups", cfg.LogMaxBackups)
	return v
}

func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

func SaveTo(cfg *Config, cfgFile string) error {
	v := newViper(cfg)
	v.Set("output_dir", cfg.OutputDir)
	v.Set("interval_ms", cfg.IntervalMs)
	v.Set("codec", cfg.Codec)
	v.Set("quality", cfg.Quality)
	v.Set("min_width", cfg.MinWidth)
	v.Set("width_divisor", cfg.WidthDivisor)
	v.Set("displays", cfg.Displays)
	v.Set("drain_timeout_seconds", cfg.DrainTimeoutSeconds)
	v.Set("database_url", cfg.DatabaseURL)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_format", cfg.LogFormat)
	v.Set("log_file", cfg.LogFile)
	v.Set("log_max_size_mb", cfg.LogMaxSizeMB)
	v.Set("log_max_backups", cfg.LogMaxBackups)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = DefaultPath()
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := v.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	// database_url may embed credentials
	return os.Chmod(cfgPath, 0600)
}

// DefaultPath is where Save writes and Load looks first.
func DefaultPath() string {
	return filepath.Join(configDir(), "recorder.yaml")
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "Breeze")
	case "darwin":
		return "/Library/Application Support/Breeze"
	default:
		return "/etc/breeze"
	}
}
