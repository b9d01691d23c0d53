// Package conf loads process configuration via viper, the way the
// original configuration loader did: environment overrides plus a yaml
// file, unmarshaled into a plain struct.
package conf

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the handful of settings the index process needs: where to
// keep its on-disk store, how noisy to log, and how much cache to give
// the leveldb handle.
type Config struct {
	DataDir     string `mapstructure:"datadir"`
	LogLevel    string `mapstructure:"loglevel"`
	DBCacheSize int    `mapstructure:"dbcachesize"`
	RegTest     bool   `mapstructure:"regtest"`
}

const (
	defaultDataDir     = "./data"
	defaultLogLevel    = "info"
	defaultDBCacheSize = 1 << 20
)

// LoadConfig reads settings from the yaml file at path, falling back to
// defaults for anything unset. A missing file is not an error; an
// unparsable one is.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("blockidx")
	v.AutomaticEnv()

	v.SetDefault("datadir", defaultDataDir)
	v.SetDefault("loglevel", defaultLogLevel)
	v.SetDefault("dbcachesize", defaultDBCacheSize)
	v.SetDefault("regtest", false)

	if path != "" {
		v.SetConfigFile(path)
		if ext := filepath.Ext(path); len(ext) > 1 {
			v.SetConfigType(ext[1:])
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
