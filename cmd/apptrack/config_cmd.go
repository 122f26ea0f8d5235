package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"apptrack/internal/platform/config"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Inspect or change the config document"}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v (showing defaults)\n", err)
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), cfg)
			}
			for _, key := range config.Keys() {
				value, _ := cfg.Get(key)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one option and rewrite the document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadForWrite(flags.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Save(flags.configPath); err != nil {
				return err
			}
			value, _ := cfg.Get(args[0])
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config document location",
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := filepath.Abs(flags.configPath)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), abs)
			return nil
		},
	})
	return cfgCmd
}

// loadForWrite reads the document without environment overrides so that
// Save does not persist them. A document that exists but cannot be parsed
// is left alone.
func loadForWrite(path string) (config.Config, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		return config.Config{}, fmt.Errorf("refusing to rewrite %s: %w", path, err)
	}
	return cfg, nil
}
