package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/aish/pkg/dotdir"
)

// EnvPrefix is the prefix of environment variables read by InitViper.
const EnvPrefix = "AISH"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the AISH_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (AISH_API_KEY, AISH_API_ENDPOINT, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes the effective configuration from v.
func FromViper(v *viper.Viper) *Config {
	explain := v.GetBool("prompt.explain")

	// Unset stays nil so the result compares equal to the defaults.
	var exclusions []string
	if s := v.GetStringSlice("stream.exclusions"); len(s) > 0 {
		exclusions = s
	}

	return &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			Endpoint: v.GetString("api.endpoint"),
			Key:      v.GetString("api.key"),
			User:     v.GetString("api.user"),
			Timeout:  v.GetString("api.timeout"),
		},
		Stream: StreamConfig{
			Framing:    v.GetString("stream.framing"),
			CancelKeys: v.GetString("stream.cancel_keys"),
			Exclusions: exclusions,
		},
		Prompt: PromptConfig{
			Language: v.GetString("prompt.language"),
			Explain:  &explain,
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// API
	v.SetDefault("api.endpoint", d.API.Endpoint)
	v.SetDefault("api.key", d.API.Key)
	v.SetDefault("api.user", d.API.User)
	v.SetDefault("api.timeout", d.API.Timeout)

	// Stream
	v.SetDefault("stream.framing", d.Stream.Framing)
	v.SetDefault("stream.cancel_keys", d.Stream.CancelKeys)
	v.SetDefault("stream.exclusions", d.Stream.Exclusions)

	// Prompt
	v.SetDefault("prompt.language", d.Prompt.Language)
	v.SetDefault("prompt.explain", d.Prompt.ExplainEnabled())
}
