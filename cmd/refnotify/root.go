package main

import (
	"os"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/refnotify/refnotify/pkg/config"
	rlog "github.com/refnotify/refnotify/pkg/log"
	"github.com/refnotify/refnotify/pkg/version"
	"github.com/spf13/cobra"
)

var (
	repoPath string
	dryRun   bool
	logFile  *os.File

	rootCmd = &cobra.Command{
		Use:          "refnotify",
		Short:        "Mail and feed notifications for git ref updates",
		Long:         "refnotify is a git server-side hook that turns ref updates into mailing list and aggregator-feed notifications.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfig()
			if repoPath != "" {
				cfg.RepoPath = repoPath
			}
			if err := cfg.Parse(); err != nil {
				return err
			}

			logger, f, err := rlog.NewLogger(cfg)
			if err != nil {
				return err
			}
			logFile = f

			ctx := cmd.Context()
			ctx = config.WithContext(ctx, cfg)
			ctx = log.WithContext(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&repoPath, "repo", "r", "", "path to the git repository (defaults to the current directory)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "write notices to stdout instead of delivering them")
	rootCmd.AddCommand(
		hookCmd,
		configCmd,
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.Version = version.Version
	if rootCmd.Version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
			rootCmd.Version = info.Main.Version
		} else {
			rootCmd.Version = "unknown (built from source)"
		}
	}
	if len(version.CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + version.CommitSHA[0:7] + ")\n")
	}
}
