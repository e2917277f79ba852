package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/aish/cmd/aish/init"
	"github.com/papercomputeco/aish/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("accepts zero arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has --preset and --key flags", func() {
		cmd := initcmder.NewInitCmd()
		for _, name := range []string{"preset", "key"} {
			f := cmd.Flags().Lookup(name)
			Expect(f).NotTo(BeNil())
			Expect(f.DefValue).To(Equal(""))
		}
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "aish-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		out.Reset()
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	It("creates a .aish directory in the current directory", func() {
		Expect(execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".aish"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
		Expect(out.String()).To(ContainSubstring("Initialized"))
	})

	It("creates a config.toml with default values and a user id", func() {
		Expect(execute()).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.API.Endpoint).To(Equal("https://api.dify.ai/v1"))
		Expect(cfg.API.Timeout).To(Equal("60s"))
		Expect(cfg.Stream.Framing).To(Equal("record"))

		_, err := uuid.Parse(cfg.API.User)
		Expect(err).NotTo(HaveOccurred())
	})

	It("writes the config owner-only", func() {
		Expect(execute("--key", "app-secret")).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".aish", "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		Expect(loadConfig(tmpDir).API.Key).To(Equal("app-secret"))
	})

	It("keeps an existing config and user id when re-run without a preset", func() {
		Expect(execute("--key", "first")).To(Succeed())
		before := loadConfig(tmpDir)

		Expect(execute()).To(Succeed())
		after := loadConfig(tmpDir)

		Expect(after.API.Key).To(Equal("first"))
		Expect(after.API.User).To(Equal(before.API.User))
	})

	It("does not remove other files when already initialized", func() {
		aishDir := filepath.Join(tmpDir, ".aish")
		Expect(os.MkdirAll(aishDir, 0o755)).To(Succeed())

		testFile := filepath.Join(aishDir, "notes.txt")
		Expect(os.WriteFile(testFile, []byte("keep me"), 0o644)).To(Succeed())

		Expect(execute()).To(Succeed())

		data, err := os.ReadFile(testFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("keep me"))
	})

	Describe("--preset with named presets", func() {
		It("creates config.toml with the local preset", func() {
			Expect(execute("--preset", "local")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.API.Endpoint).To(Equal("http://localhost/v1"))
			Expect(cfg.API.Timeout).To(Equal("5m"))
		})

		It("creates config.toml with the dify preset", func() {
			Expect(execute("--preset", "dify")).To(Succeed())
			Expect(loadConfig(tmpDir).API.Endpoint).To(Equal("https://api.dify.ai/v1"))
		})

		It("rejects unknown preset names", func() {
			err := execute("--preset", "invalid-provider")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))
		})

		It("overwrites an existing config", func() {
			Expect(execute("--preset", "local")).To(Succeed())
			Expect(execute("--preset", "dify")).To(Succeed())
			Expect(loadConfig(tmpDir).API.Endpoint).To(Equal("https://api.dify.ai/v1"))
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes remote config.toml", func() {
			remoteCfg := `version = 0

[api]
endpoint = "https://llm.internal.example/v1"
timeout = "2m"

[prompt]
language = "ja"
`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				fmt.Fprint(w, remoteCfg)
			}))
			defer server.Close()

			Expect(execute("--preset", server.URL, "--key", "team-key")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.API.Endpoint).To(Equal("https://llm.internal.example/v1"))
			Expect(cfg.API.Timeout).To(Equal("2m"))
			Expect(cfg.API.Key).To(Equal("team-key"))
			Expect(cfg.API.User).NotTo(BeEmpty())
			Expect(cfg.Prompt.Language).To(Equal("ja"))
		})

		It("returns error for non-200 HTTP response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			err := execute("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("HTTP 404")))
		})

		It("returns error for invalid TOML from URL", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			err := execute("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("parsing")))
		})

		It("returns error for unreachable URL", func() {
			err := execute("--preset", "http://127.0.0.1:1")
			Expect(err).To(MatchError(ContainSubstring("fetching remote config")))
		})
	})
})

// loadConfig is a test helper that reads and parses the config.toml from the
// .aish directory within the given base directory.
func loadConfig(baseDir string) *config.Config {
	configPath := filepath.Join(baseDir, ".aish", "config.toml")
	data, err := os.ReadFile(configPath)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	err = toml.Unmarshal(data, cfg)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return cfg
}
