package main

import (
	"github.com/refnotify/refnotify/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.FromContext(cmd.Context())
		if cfg == nil {
			return config.ErrNilConfig
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close() // nolint: errcheck
		return enc.Encode(cfg)
	},
}
