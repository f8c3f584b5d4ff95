package engine

import (
	"time"

	"github.com/dump-dvb/lofi/pkg"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/util"
	"github.com/spf13/viper"
)

type Config struct {
	CorrelationWindow int64                   `mapstructure:"correlation_window" validate:"min=1,max=60"`
	Region            int64                   `mapstructure:"region" validate:"min=0"`
	Interpolation     string                  `mapstructure:"interpolation" validate:"oneof=sum difference"`
	Averaging         string                  `mapstructure:"averaging" validate:"oneof=pairwise mean"`
	Regions           map[int64]da.RegionMeta `mapstructure:"regions"`
	SQLitePath        string                  `mapstructure:"sqlite_path"`
	APIPort           int                     `mapstructure:"api_port" validate:"min=1,max=65535"`
	APITimeout        time.Duration           `mapstructure:"api_timeout"`
	RateLimit         float64                 `mapstructure:"rate_limit" validate:"min=0"`
	TrustedProxies    []string                `mapstructure:"trusted_proxies"`
}

func setDefaults() {
	viper.SetDefault("correlation_window", pkg.DEFAULT_CORRELATION_WINDOW_SECOND)
	viper.SetDefault("region", 0)
	viper.SetDefault("interpolation", "sum")
	viper.SetDefault("averaging", "pairwise")
	viper.SetDefault("sqlite_path", "")
	viper.SetDefault("api_port", 6060)
	viper.SetDefault("api_timeout", "30s")
	viper.SetDefault("rate_limit", 0)
}

// LoadConfig reads config.yaml from configDir (see util.ReadConfig) and validates it.
func LoadConfig(configDir string) (Config, error) {
	setDefaults()
	if err := util.ReadConfig(configDir); err != nil {
		return Config{}, util.WrapErrorf(err, util.ErrBadParamInput, "read config")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, util.WrapErrorf(err, util.ErrBadParamInput, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return util.ValidateStruct(c)
}

// DefaultConfig. the values LoadConfig falls back to without config file.
func DefaultConfig() Config {
	return Config{
		CorrelationWindow: pkg.DEFAULT_CORRELATION_WINDOW_SECOND,
		Interpolation:     "sum",
		Averaging:         "pairwise",
		Regions:           make(map[int64]da.RegionMeta),
		APIPort:           6060,
		APITimeout:        30 * time.Second,
	}
}
