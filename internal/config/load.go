package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the given file path, layered over
// Defaults and under CLILM_* environment variables. An empty path uses
// the default location; a missing file at the default location is not
// an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLILM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	explicit := path != ""
	if !explicit {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		// A missing file at the default location just means defaults.
		if explicit || !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers Defaults with viper so partial config files
// inherit the missing values.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("provider", d.Provider)
	v.SetDefault("generations", d.Generations)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("telemetry.exporter", d.Telemetry.Exporter)
}
