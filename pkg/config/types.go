package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/papercomputeco/aish/pkg/strip"
)

// Config represents the persistent aish configuration stored as config.toml
// in the .aish/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	API     APIConfig    `toml:"api"`
	Stream  StreamConfig `toml:"stream"`
	Prompt  PromptConfig `toml:"prompt"`
}

// APIConfig holds settings for the completion API the CLI talks to.
type APIConfig struct {
	// Endpoint is the API base URL; requests go to {Endpoint}/completion-messages.
	Endpoint string `toml:"endpoint,omitempty"`

	// Key is the bearer token sent with every request.
	Key string `toml:"key,omitempty"`

	// User identifies this installation to the API. Generated by "aish init".
	User string `toml:"user,omitempty"`

	// Timeout bounds a single streamed completion, as a Go duration string.
	Timeout string `toml:"timeout,omitempty"`
}

// StreamConfig holds stream decoding settings.
type StreamConfig struct {
	// Framing is "record" (blank-line separated) or "line".
	Framing string `toml:"framing,omitempty"`

	// CancelKeys is a comma separated list of keys that stop a stream.
	CancelKeys string `toml:"cancel_keys,omitempty"`

	// Exclusions are extra patterns removed from every streamed answer.
	// Entries written as /expr/flags are regular expressions, anything else
	// is matched literally.
	Exclusions []string `toml:"exclusions,omitempty"`
}

// PromptConfig holds prompt template settings.
type PromptConfig struct {
	Language string `toml:"language,omitempty"`
	Explain  *bool  `toml:"explain,omitempty"`
}

// ExplainEnabled reports whether explanations are streamed after a command.
// Unset means enabled.
func (p PromptConfig) ExplainEnabled() bool {
	return p.Explain == nil || *p.Explain
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.endpoint": {
		get: func(c *Config) string { return c.API.Endpoint },
		set: func(c *Config, v string) error { c.API.Endpoint = v; return nil },
	},
	"api.key": {
		get: func(c *Config) string { return c.API.Key },
		set: func(c *Config, v string) error { c.API.Key = v; return nil },
	},
	"api.user": {
		get: func(c *Config) string { return c.API.User },
		set: func(c *Config, v string) error { c.API.User = v; return nil },
	},
	"api.timeout": {
		get: func(c *Config) string { return c.API.Timeout },
		set: func(c *Config, v string) error {
			if _, err := ParseTimeout(v); err != nil {
				return fmt.Errorf("invalid value for api.timeout: %w", err)
			}
			c.API.Timeout = v
			return nil
		},
	},
	"stream.framing": {
		get: func(c *Config) string { return c.Stream.Framing },
		set: func(c *Config, v string) error {
			if !isValidFraming(v) {
				return fmt.Errorf("invalid value for stream.framing: %q (available: record, line)", v)
			}
			c.Stream.Framing = v
			return nil
		},
	},
	"stream.cancel_keys": {
		get: func(c *Config) string { return c.Stream.CancelKeys },
		set: func(c *Config, v string) error { c.Stream.CancelKeys = v; return nil },
	},
	"stream.exclusions": {
		get: func(c *Config) string { return strings.Join(c.Stream.Exclusions, ",") },
		set: func(c *Config, v string) error {
			patterns, err := parseExclusions(v)
			if err != nil {
				return err
			}
			c.Stream.Exclusions = patterns
			return nil
		},
	},
	"prompt.language": {
		get: func(c *Config) string { return c.Prompt.Language },
		set: func(c *Config, v string) error { c.Prompt.Language = v; return nil },
	},
	"prompt.explain": {
		get: func(c *Config) string {
			if c.Prompt.Explain == nil {
				return ""
			}
			return strconv.FormatBool(*c.Prompt.Explain)
		},
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for prompt.explain: %w", err)
			}
			c.Prompt.Explain = &b
			return nil
		},
	},
}

// parseExclusions splits a comma separated pattern list. Patterns that contain
// a comma can only be written as a TOML array in config.toml.
func parseExclusions(v string) ([]string, error) {
	var patterns []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strip.Parse(p).Valid() {
			return nil, fmt.Errorf("invalid value for stream.exclusions: %q is not a valid regular expression", p)
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// isValidFraming mirrors sse.ParseFraming without importing the stream
// packages into config.
func isValidFraming(v string) bool {
	switch v {
	case "record", "line":
		return true
	default:
		return false
	}
}
