// Package initcmder provides the init command for initializing a local .aish
// directory in the current working directory.
package initcmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aish/pkg/cliui"
	"github.com/papercomputeco/aish/pkg/config"
	"github.com/papercomputeco/aish/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .aish/ directory in the current working directory.

Creates a local .aish/ directory holding a config.toml. The local directory
takes precedence over the default ~/.aish/ directory, which is useful for
pinning a different endpoint or API key per project.

A random api.user identifier is generated when none is set.

Use --preset to start from a known configuration. The value is either a
preset name (dify, local) or an http(s) URL serving a config.toml.
An existing config.toml is only replaced when --preset is given.

Examples:
  aish init
  aish init --preset local --key app-xxxxxxxx
  aish init --preset https://example.com/team/aish.toml`

const initShortDesc string = "Initialize a local .aish/ directory"

const remoteConfigLimit = 1 << 20

type initCommander struct {
	preset string
	key    string

	httpClient *http.Client
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Preset name (%s) or URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))
	cmd.Flags().StringVar(&cmder.key, "key", "", "API key to store in the new config")

	return cmd
}

func (c *initCommander) run(ctx context.Context, w io.Writer) error {
	dir, err := dotdir.NewManager().Local()
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var cfg *config.Config
	if c.preset != "" {
		cfg, err = c.resolvePreset(ctx)
	} else {
		cfg, err = cfger.LoadConfig()
	}
	if err != nil {
		return err
	}

	if c.key != "" {
		cfg.API.Key = c.key
	}
	if cfg.API.User == "" {
		cfg.API.User = config.NewUserID()
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Initialized %s\n", cliui.SuccessMark, cliui.ValueStyle.Render(dir))
	fmt.Fprintf(w, "    %s %s\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(filepath.Join(dir, "config.toml")))
	if cfg.API.Key == "" {
		fmt.Fprintf(w, "    %s\n", cliui.DimStyle.Render("Set your API key with: aish config set api.key <key>"))
	}
	return nil
}

func (c *initCommander) resolvePreset(ctx context.Context) (*config.Config, error) {
	if strings.HasPrefix(c.preset, "http://") || strings.HasPrefix(c.preset, "https://") {
		return c.fetchPreset(ctx, c.preset)
	}
	return config.PresetConfig(c.preset)
}

// fetchPreset downloads a config.toml and validates it before it is written.
func (c *initCommander) fetchPreset(ctx context.Context, url string) (*config.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, remoteConfigLimit))
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	cfg, err := config.ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
