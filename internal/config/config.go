package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. POCKET_PLACEHOLDERS_SERVER_PORT.
const EnvPrefix = "POCKET_PLACEHOLDERS"

// Config holds application configuration.
type Config struct {
	RootDir     string       `mapstructure:"root_dir"`
	DefaultUser string       `mapstructure:"default_user"`
	Server      ServerConfig `mapstructure:"server"`
	UI          UIConfig     `mapstructure:"ui"`
	Packs       PacksConfig  `mapstructure:"packs"`

	// ConfigFile is the file the settings were read from, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port      int     `mapstructure:"port"`
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Tour     bool `mapstructure:"tour"`
	WordWrap int  `mapstructure:"word_wrap"`
}

// PacksConfig controls extension pack loading.
type PacksConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultPath returns the config file looked up when no explicit path is given.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "pocket-placeholders", "config.yaml")
}

// Load reads configuration from file and env. path wins over $POCKET_PLACEHOLDERS_CONFIG,
// which wins over the default location. A missing default file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("root_dir", "")
	v.SetDefault("default_user", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.burst", 40)
	v.SetDefault("ui.tour", true)
	v.SetDefault("ui.word_wrap", 80)
	v.SetDefault("packs.enabled", true)

	v.SetConfigType("yaml")

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "_CONFIG")
		explicit = path != ""
	}
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case explicit:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		case !errors.As(err, &notFound):
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.ConfigFile = v.ConfigFileUsed()
	c.RootDir = expandHome(c.RootDir)

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return Config{}, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return Config{}, fmt.Errorf("server.rate_limit must not be negative")
	}
	return c, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
