package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/refnotify/refnotify/pkg/config"
	"github.com/refnotify/refnotify/pkg/deliver"
	"github.com/refnotify/refnotify/pkg/git"
	"github.com/refnotify/refnotify/pkg/notify"
	"github.com/refnotify/refnotify/pkg/store"
	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Run as a git server-side hook",
}

var postReceiveCmd = &cobra.Command{
	Use:   "post-receive",
	Short: "Process `old new ref` triples from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		n, cleanup, err := newNotifier(ctx, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer cleanup()
		return n.HandleStdin(ctx, cmd.InOrStdin())
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <ref> <old> <new>",
	Short: "Process a single ref update from hook arguments",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		// git invokes the update hook as: update <ref> <old> <new>
		u, err := notify.NewRefUpdate(args[1], args[2], args[0])
		if err != nil {
			return err
		}
		n, cleanup, err := newNotifier(ctx, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer cleanup()
		return n.HandleUpdate(ctx, u)
	},
}

func init() {
	hookCmd.AddCommand(postReceiveCmd, updateCmd)
}

// newNotifier wires the backend, the dedup store and the delivery channels
// from the effective configuration. The returned cleanup closes the store.
func newNotifier(ctx context.Context, stdout io.Writer) (*notify.Notifier, func(), error) {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, nil, config.ErrNilConfig
	}
	logger := log.FromContext(ctx)

	backend, err := git.Open(cfg.RepoPath)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var st notify.Store
	if cfg.Store.Path != "" {
		s, needsSeed, err := store.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if needsSeed {
			// First store for this repository: record the whole known
			// history so only subsequent pushes generate notifications.
			ids, err := backend.AllIDs()
			if err != nil {
				_ = s.Close()
				return nil, nil, err
			}
			if err := s.Seed(ctx, ids); err != nil {
				_ = s.Close()
				return nil, nil, err
			}
		}
		st = s
		cleanup = func() { _ = s.Close() }
	}

	sinks, err := newSinks(cfg, stdout)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	n, err := notify.New(cfg, backend, st, sinks, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return n, cleanup, nil
}

func newSinks(cfg *config.Config, stdout io.Writer) ([]notify.Sink, error) {
	if dryRun {
		return []notify.Sink{deliver.NewWriterSink(stdout)}, nil
	}

	var sinks []notify.Sink
	mailer := deliver.NewMailer(cfg.Mail.SendmailPath, cfg.Mail.From)
	if cfg.Mail.To != "" {
		sinks = append(sinks, deliver.NewMailSink(mailer, cfg.Mail.To))
	}
	if cfg.Mail.Feed != "" {
		sinks = append(sinks, deliver.NewFeedSink(mailer, cfg.Mail.Feed))
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("no delivery address configured; set mail.to or mail.feed, or pass --dry-run")
	}
	return sinks, nil
}
