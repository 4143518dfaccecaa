// Package config loads client settings with viper: defaults, an optional
// YAML config file, STOCKLIVE_* environment variables, then flags bound by
// the CLI layer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds runtime settings for the stocklive client.
//
// Fields:
//   - ServerURL: base URL of the backend HTTP endpoint.
//   - DataDir: directory for the local credential cache database.
type Config struct {
	ServerURL string `mapstructure:"server_url"`
	DataDir   string `mapstructure:"data_dir"`
}

// Load builds a Config. The config file is searched in dir (when given)
// and in $HOME/.stocklive; a missing file is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server_url", "http://127.0.0.1:8780")
	v.SetDefault("data_dir", defaultDataDir())

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".stocklive"))
	}

	v.SetEnvPrefix("STOCKLIVE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".stocklive")
	}
	return ".stocklive"
}
