package config_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/aish/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeConfig := func(data string) {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads a valid config file", func() {
			writeConfig(`version = 0

[api]
endpoint = "https://example.test/v1"
key = "app-123"
user = "u-1"
timeout = "30s"

[stream]
framing = "line"
cancel_keys = "q"

[prompt]
language = "fr"
explain = false
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.API.Endpoint).To(Equal("https://example.test/v1"))
			Expect(cfg.API.Key).To(Equal("app-123"))
			Expect(cfg.API.User).To(Equal("u-1"))
			Expect(cfg.API.Timeout).To(Equal("30s"))
			Expect(cfg.Stream.Framing).To(Equal("line"))
			Expect(cfg.Stream.CancelKeys).To(Equal("q"))
			Expect(cfg.Prompt.Language).To(Equal("fr"))
			Expect(cfg.Prompt.ExplainEnabled()).To(BeFalse())
		})

		It("fills in defaults for unset fields in a partial config", func() {
			writeConfig(`[api]
key = "app-123"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.API.Key).To(Equal("app-123"))
			Expect(cfg.API.Endpoint).To(Equal(defaults.API.Endpoint))
			Expect(cfg.API.Timeout).To(Equal(defaults.API.Timeout))
			Expect(cfg.Stream.Framing).To(Equal(defaults.Stream.Framing))
			Expect(cfg.Stream.CancelKeys).To(Equal(defaults.Stream.CancelKeys))
			Expect(cfg.Prompt.Language).To(Equal(defaults.Prompt.Language))
			Expect(cfg.Prompt.ExplainEnabled()).To(BeTrue())
		})

		It("returns error for malformed TOML", func() {
			writeConfig("this is not valid toml [[[")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing config TOML"))
		})

		It("returns error for unsupported config version", func() {
			writeConfig("version = 99\n")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version 99"))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk with owner-only permissions", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.API.Key = "app-secret"
			Expect(c.SaveConfig(cfg)).To(Succeed())

			info, err := os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SaveConfig(nil)
			Expect(err).To(MatchError("cannot save nil config"))
		})
	})

	Describe("SetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets a string config key", func() {
			Expect(c.SetConfigValue("api.endpoint", "http://localhost/v1")).To(Succeed())

			v, err := c.GetConfigValue("api.endpoint")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("http://localhost/v1"))
		})

		It("sets a bool config key", func() {
			Expect(c.SetConfigValue("prompt.explain", "false")).To(Succeed())

			v, err := c.GetConfigValue("prompt.explain")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("false"))
		})

		It("preserves existing values when setting a new key", func() {
			Expect(c.SetConfigValue("api.key", "app-1")).To(Succeed())
			Expect(c.SetConfigValue("prompt.language", "de")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.API.Key).To(Equal("app-1"))
			Expect(cfg.Prompt.Language).To(Equal("de"))
		})

		It("returns error for unknown key", func() {
			err := c.SetConfigValue("proxy.upstream", "x")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		DescribeTable("rejects invalid values",
			func(key, value, msg string) {
				err := c.SetConfigValue(key, value)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring(msg))
			},
			Entry("bad bool", "prompt.explain", "maybe", "invalid value for prompt.explain"),
			Entry("bad duration", "api.timeout", "soon", "invalid value for api.timeout"),
			Entry("negative duration", "api.timeout", "-1s", "invalid value for api.timeout"),
			Entry("unknown framing", "stream.framing", "chunk", "invalid value for stream.framing"),
			Entry("bad exclusion regexp", "stream.exclusions", "Note:,/([a-z/", "invalid value for stream.exclusions"),
		)

		It("sets a comma separated exclusion list", func() {
			Expect(c.SetConfigValue("stream.exclusions", "Note: , /todo/i,")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Stream.Exclusions).To(Equal([]string{"Note:", "/todo/i"}))

			v, err := c.GetConfigValue("stream.exclusions")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("Note:,/todo/i"))
		})

		It("clears the exclusion list with an empty value", func() {
			Expect(c.SetConfigValue("stream.exclusions", "Note:")).To(Succeed())
			Expect(c.SetConfigValue("stream.exclusions", "")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Stream.Exclusions).To(BeEmpty())
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			v, err := c.GetConfigValue("stream.cancel_keys")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("q,escape"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			v, err := c.GetConfigValue("api.key")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeEmpty())
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("returns all keys in section order", func() {
		Expect(config.ValidConfigKeys()).To(Equal([]string{
			"api.endpoint",
			"api.key",
			"api.user",
			"api.timeout",
			"stream.framing",
			"stream.cancel_keys",
			"stream.exclusions",
			"prompt.language",
			"prompt.explain",
		}))
	})

	It("agrees with IsValidConfigKey", func() {
		for _, k := range config.ValidConfigKeys() {
			Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
		}
		Expect(config.IsValidConfigKey("api.listen")).To(BeFalse())
	})
})

var _ = Describe("PresetConfig", func() {
	It("returns the dify preset", func() {
		cfg, err := config.PresetConfig("dify")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Endpoint).To(Equal("https://api.dify.ai/v1"))
		Expect(cfg.Stream.Framing).To(Equal("record"))
	})

	It("returns the local preset with a longer timeout", func() {
		cfg, err := config.PresetConfig("LOCAL")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Endpoint).To(Equal("http://localhost/v1"))
		Expect(cfg.API.Timeout).To(Equal("5m"))
	})

	It("returns error for unknown preset", func() {
		_, err := config.PresetConfig("openai")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unknown preset"))
	})

	It("lists the preset names", func() {
		Expect(config.ValidPresetNames()).To(ConsistOf("dify", "local"))
	})
})

var _ = Describe("ParseTimeout", func() {
	It("disables the timeout for empty and zero values", func() {
		for _, s := range []string{"", "0"} {
			d, err := config.ParseTimeout(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(BeZero())
		}
	})

	It("parses Go durations", func() {
		d, err := config.ParseTimeout("1m30s")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(90 * time.Second))
	})
})

var _ = Describe("NewUserID", func() {
	It("returns distinct UUIDs", func() {
		a, b := config.NewUserID(), config.NewUserID()
		Expect(a).NotTo(Equal(b))
		_, err := uuid.Parse(a)
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.FromViper(v)).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		data := `[api]
endpoint = "http://localhost/v1"

[prompt]
explain = false
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.FromViper(v)
		Expect(cfg.API.Endpoint).To(Equal("http://localhost/v1"))
		Expect(cfg.Prompt.ExplainEnabled()).To(BeFalse())
		Expect(cfg.API.Timeout).To(Equal(config.NewDefaultConfig().API.Timeout))
	})

	It("reads the exclusion list as a TOML array", func() {
		data := `[stream]
exclusions = ["/a{1,2}/", "Note:"]
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.FromViper(v).Stream.Exclusions).To(Equal([]string{"/a{1,2}/", "Note:"}))
	})

	It("env vars take precedence over config file values", func() {
		data := `[api]
key = "from-file"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		os.Setenv("AISH_API_KEY", "from-env")
		defer os.Unsetenv("AISH_API_KEY")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("api.key")).To(Equal("from-env"))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var endpoint string
		config.AddStringFlag(cmd, config.StreamFlags, config.FlagEndpoint, &endpoint)

		Expect(cmd.Flags().Set("endpoint", "http://flag.test/v1")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.StreamFlags, []string{config.FlagEndpoint})

		Expect(v.GetString("api.endpoint")).To(Equal("http://flag.test/v1"))
	})

	It("falls through to config when flag not set", func() {
		data := `[stream]
framing = "line"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var framing string
		config.AddStringFlag(cmd, config.StreamFlags, config.FlagFraming, &framing)
		config.BindRegisteredFlags(v, cmd, config.StreamFlags, []string{config.FlagFraming})

		Expect(v.GetString("stream.framing")).To(Equal("line"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.StreamFlags, []string{"nonexistent", config.FlagKey})

		Expect(v.GetString("api.endpoint")).To(Equal(config.NewDefaultConfig().API.Endpoint))
	})

	It("AddStringFlag pulls name, shorthand, default, and description from FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var timeout string
		config.AddStringFlag(cmd, config.StreamFlags, config.FlagTimeout, &timeout)

		f := cmd.Flags().Lookup("timeout")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("t"))
		Expect(f.Usage).To(Equal(config.StreamFlags[config.FlagTimeout].Description))
		Expect(f.DefValue).To(Equal("60s"))
	})

	It("registers every stream flag", func() {
		cmd := &cobra.Command{Use: "test"}
		targets := make([]string, len(config.StreamFlagKeys))
		for i, k := range config.StreamFlagKeys {
			config.AddStringFlag(cmd, config.StreamFlags, k, &targets[i])
		}
		for _, k := range config.StreamFlagKeys {
			Expect(cmd.Flags().Lookup(config.StreamFlags[k].Name)).NotTo(BeNil(), k)
		}
	})
})
