package config

import (
	"fmt"
	"strings"

	cascader "github.com/goliatone/go-cascader"
	"github.com/goliatone/go-cascader/internal/hydrate"
	"github.com/goliatone/go-cascader/pkg/rules"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CASCADER_LOG_LEVEL.
const EnvPrefix = "CASCADER"

// Config holds everything the cascader command needs
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	View   ViewConfig   `mapstructure:"view"`
	Engine EngineConfig `mapstructure:"engine"`
	Rules  []rules.Rule `mapstructure:"rules"`

	// Tree is decoded separately through hydrate, keyed by its json tags.
	Tree []cascader.Option[string] `mapstructure:"-"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ViewConfig holds the initial view state
type ViewConfig struct {
	ID          string   `mapstructure:"id"`
	Path        []string `mapstructure:"path"`
	Placeholder string   `mapstructure:"placeholder"`
}

// EngineConfig selects and parameterises the rule engine
type EngineConfig struct {
	Name string         `mapstructure:"name"`
	Args map[string]any `mapstructure:"args"`
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"path":        "view.path",
	"view-id":     "view.id",
	"placeholder": "view.placeholder",
	"engine":      "engine.name",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

// Load reads the config file at path (YAML, JSON or TOML by extension),
// applies CASCADER_* environment overrides and any changed flags, then
// decodes the option tree. An empty path skips the file; the tree is then
// empty.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("error binding flag %q: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if v.IsSet(hydrate.DefaultSection) {
		tree, err := hydrate.Tree[string](
			hydrate.Context{Source: path},
			v.AllSettings(),
			hydrate.WithWeaklyTypedInput[hydrate.TreeDocument[string]](),
		)
		if err != nil {
			return nil, err
		}
		cfg.Tree = tree
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("view.placeholder", "Select")

	v.SetDefault("engine.name", "expr")
}
