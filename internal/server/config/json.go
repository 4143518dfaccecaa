package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/msavelyev/stocklive/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// are plain integers in minutes so a config file needs no custom types.
type JsonConfig struct {
	EndpointAddr                string `json:"endpoint_addr"`
	DatabaseDSN                 string `json:"database_dsn"`
	SecretKey                   string `json:"secret_key"`
	AccessTokenValidityMinutes  int    `json:"access_token_validity_minutes"`
	RefreshTokenValidityMinutes int    `json:"refresh_token_validity_minutes"`
}

// parseJson overlays Config with values loaded from a JSON file given via
// -c/-config. Missing flag means no JSON stage. Empty fields in the file
// leave the current value untouched. Read or unmarshal errors panic; the
// server cannot run on a half-applied config.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.EndpointAddr != "" {
		cfg.EndpointAddr = jc.EndpointAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.SecretKey != "" {
		cfg.SecretKey = jc.SecretKey
	}
	if jc.AccessTokenValidityMinutes > 0 {
		cfg.AccessTokenValidityDuration = time.Duration(jc.AccessTokenValidityMinutes) * time.Minute
	}
	if jc.RefreshTokenValidityMinutes > 0 {
		cfg.RefreshTokenValidityDuration = time.Duration(jc.RefreshTokenValidityMinutes) * time.Minute
	}
}
