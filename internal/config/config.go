// Package config loads the tool configuration: registry backend selection,
// port preferences, and logging. File format is TOML, overridable through
// RDEBUG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/loykin/rdebug/internal/cluster"
	"github.com/loykin/rdebug/internal/logger"
	"github.com/loykin/rdebug/internal/registry"
)

type Config struct {
	Registry registry.Config `mapstructure:"registry"`
	Log      logger.Config   `mapstructure:"log"`
	// DebugPort is the preferred listener port; a busy port falls back to an
	// ephemeral one.
	DebugPort int `mapstructure:"debug_port"`
	// LocalPort is the local end of the suggested SSH tunnel.
	LocalPort int `mapstructure:"local_port"`
}

// StateDir is where the default registry database and logs live. Shared
// home filesystems on clusters make this visible from every node.
func StateDir() string {
	if d := os.Getenv("RDEBUG_STATE_DIR"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rdebug"
	}
	return filepath.Join(home, ".rdebug")
}

// Load reads the config file at path, or the default location when path is
// empty. A missing default file is not an error; defaults apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RDEBUG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	state := StateDir()
	v.SetDefault("registry.type", "sqlite")
	v.SetDefault("registry.path", filepath.Join(state, "registry.db"))
	v.SetDefault("log.dir", filepath.Join(state, "logs"))
	v.SetDefault("log.level", "info")
	v.SetDefault("debug_port", cluster.DefaultDebugPort)
	v.SetDefault("local_port", cluster.DefaultLocalPort)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(state)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
