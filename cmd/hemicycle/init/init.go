// Package initcmder provides the init command for initializing a local
// .hemicycle directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openhemicycle/hemicycle/pkg/config"
)

const (
	dirName = ".hemicycle"
)

const initLongDesc string = `Initialize a new .hemicycle/ directory in the current working directory.

Creates a local .hemicycle/ directory that takes precedence over the default
~/.hemicycle/ directory for the SQLite database, configuration, and other
hemicycle operations.

This is useful for maintaining separate databases per parliamentary term
or per project.

With --preset, writes a config.toml seeded for the named classifier
provider (openai, anthropic, ollama).

Examples:
  hemicycle init
  hemicycle init --preset anthropic`

const initShortDesc string = "Initialize a local .hemicycle/ directory"

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Seed config.toml for a classifier provider (openai, anthropic, ollama)")

	return cmd
}

func (c *initCommander) run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, statErr := os.Stat(dir)
	if statErr == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .hemicycle directory: %w", err)
		}
		fmt.Printf("Initialized .hemicycle directory: %s\n", dir)
	}

	if c.preset == "" {
		return nil
	}

	cfg, err := config.PresetConfig(c.preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("Wrote %s preset config: %s\n", c.preset, cfger.GetTarget())
	return nil
}
