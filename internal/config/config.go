package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Transform TransformConfig `yaml:"transform" mapstructure:"transform"`
	Check     CheckConfig     `yaml:"check" mapstructure:"check"`
	Ledger    LedgerConfig    `yaml:"ledger" mapstructure:"ledger"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
}

// TransformConfig configures the archive to dataset transform.
type TransformConfig struct {
	OutDir    string   `yaml:"out_dir" mapstructure:"out_dir"`
	Report    string   `yaml:"report" mapstructure:"report"`
	Processes int      `yaml:"processes" mapstructure:"processes"`
	Regions   []string `yaml:"regions" mapstructure:"regions"`
	KeepGoing bool     `yaml:"keep_going" mapstructure:"keep_going"`
}

// CheckConfig configures the consistency check.
type CheckConfig struct {
	Report    string `yaml:"report" mapstructure:"report"`
	Processes int    `yaml:"processes" mapstructure:"processes"`
	KeepGoing bool   `yaml:"keep_going" mapstructure:"keep_going"`
}

// LedgerConfig points at the run ledger database. An empty path disables it.
type LedgerConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// MetricsConfig configures the node-exporter textfile. Empty disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from meshclimate.yaml, env vars, and defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("meshclimate")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MESHCLIMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("transform.out_dir", "out")
	v.SetDefault("transform.report", "overwritten.log")
	v.SetDefault("transform.processes", 0)
	v.SetDefault("transform.regions", []string{})
	v.SetDefault("transform.keep_going", false)
	v.SetDefault("check.report", "check_differences.csv")
	v.SetDefault("check.processes", 0)
	v.SetDefault("check.keep_going", false)
	v.SetDefault("ledger.path", "meshclimate.db")
	v.SetDefault("metrics.textfile", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks values that cannot be fixed up later.
func (c *Config) Validate() error {
	var errs []string
	if c.Transform.Processes < 0 {
		errs = append(errs, "transform.processes must be >= 0")
	}
	if c.Check.Processes < 0 {
		errs = append(errs, "check.processes must be >= 0")
	}
	if c.Transform.OutDir == "" {
		errs = append(errs, "transform.out_dir is required")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, "log.format must be json or console")
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
