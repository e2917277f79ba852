package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --endpoint
// on "aish ask", "aish explain" and "aish revise").
type Flag struct {
	// Name is the long flag name (e.g. "endpoint").
	Name string

	// Shorthand is the one-letter short flag (e.g. "e"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.endpoint").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag and BindRegisteredFlags
// to avoid typos or drift from one command to another.
const (
	FlagEndpoint   = "endpoint"
	FlagKey        = "key"
	FlagUser       = "user"
	FlagTimeout    = "timeout"
	FlagFraming    = "framing"
	FlagCancelKeys = "cancel-keys"
	FlagLanguage   = "language"
)

// StreamFlags are the flags shared by every command that streams a completion.
var StreamFlags = FlagSet{
	FlagEndpoint: {
		Name:        "endpoint",
		Shorthand:   "e",
		ViperKey:    "api.endpoint",
		Description: "Completion API base URL",
	},
	FlagKey: {
		Name:        "key",
		Shorthand:   "k",
		ViperKey:    "api.key",
		Description: "Completion API key",
	},
	FlagUser: {
		Name:        "user",
		ViperKey:    "api.user",
		Description: "User identifier sent with each request",
	},
	FlagTimeout: {
		Name:        "timeout",
		Shorthand:   "t",
		ViperKey:    "api.timeout",
		Description: "Maximum duration of one streamed completion (0 disables)",
	},
	FlagFraming: {
		Name:        "framing",
		ViperKey:    "stream.framing",
		Description: "Stream record framing (record, line)",
	},
	FlagCancelKeys: {
		Name:        "cancel-keys",
		ViperKey:    "stream.cancel_keys",
		Description: "Comma separated keys that stop a stream (q, escape, ctrl+c)",
	},
	FlagLanguage: {
		Name:        "language",
		Shorthand:   "l",
		ViperKey:    "prompt.language",
		Description: "Language explanations are written in",
	},
}

// StreamFlagKeys lists the registry keys of StreamFlags in help order.
var StreamFlagKeys = []string{
	FlagEndpoint,
	FlagKey,
	FlagUser,
	FlagTimeout,
	FlagFraming,
	FlagCancelKeys,
	FlagLanguage,
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}
