package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ReadConfig. reads config.yaml from configDir (./data/ when empty). A missing file is not
// an error, defaults and LOFI_* environment variables still apply.
func ReadConfig(configDir string) error {
	if configDir == "" {
		configDir = "./data/"
	}
	viper.SetConfigName("config")
	viper.AddConfigPath(configDir)
	viper.SetEnvPrefix("lofi")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}
