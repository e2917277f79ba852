package config

import (
	"fmt"
	"time"
)

const (
	defaultEndpoint   = "https://api.dify.ai/v1"
	defaultTimeout    = "60s"
	defaultFraming    = "record"
	defaultCancelKeys = "q,escape"
	defaultLanguage   = "en"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	explain := true
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Endpoint: defaultEndpoint,
			Timeout:  defaultTimeout,
		},
		Stream: StreamConfig{
			Framing:    defaultFraming,
			CancelKeys: defaultCancelKeys,
		},
		Prompt: PromptConfig{
			Language: defaultLanguage,
			Explain:  &explain,
		},
	}
}

// ParseTimeout parses a timeout setting. An empty string or "0" disables the
// timeout and returns zero.
func ParseTimeout(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %s", s)
	}
	return d, nil
}
