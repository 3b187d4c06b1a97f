package notify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"
	"github.com/refnotify/refnotify/pkg/config"
	"github.com/refnotify/refnotify/pkg/git"
)

// Sink is a delivery channel. Delivery is fire-and-forget: a failed send is
// logged and does not abort the run.
type Sink interface {
	Send(ctx context.Context, n Notice) error
}

// Notifier is the dispatch loop: it filters, classifies and resolves each
// incoming ref update and forwards the composed notices to every sink.
type Notifier struct {
	cfg      *config.Config
	backend  git.Backend
	resolver *Resolver
	composer *Composer
	sinks    []Sink
	include  []glob.Glob
	logger   *log.Logger
}

// New returns a Notifier wired to the given backend, store and sinks. The
// store may be nil to disable deduplication.
func New(cfg *config.Config, backend git.Backend, store Store, sinks []Sink, logger *log.Logger) (*Notifier, error) {
	if cfg == nil {
		return nil, config.ErrNilConfig
	}

	include := make([]glob.Glob, 0, len(cfg.IncludeRefs))
	for _, pattern := range cfg.IncludeRefs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile include pattern %q: %w", pattern, err)
		}
		include = append(include, g)
	}

	var exclude []string
	if len(cfg.ExcludeRefs) > 0 {
		refs, err := backend.ListRefs(cfg.ExcludeRefs...)
		if err != nil {
			return nil, fmt.Errorf("expand excluded refs: %w", err)
		}
		exclude = refs
	}

	return &Notifier{
		cfg:      cfg,
		backend:  backend,
		resolver: NewResolver(backend, store, exclude, cfg.NoMerges),
		composer: NewComposer(cfg, backend),
		sinks:    sinks,
		include:  include,
		logger:   logger,
	}, nil
}

// HandleStdin processes `old new ref` triples from a post-receive stream,
// one update per line, stopping at the first fatal error.
func (n *Notifier) HandleStdin(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return fmt.Errorf("invalid hook input line %q", line)
		}
		u, err := NewRefUpdate(fields[0], fields[1], fields[2])
		if err != nil {
			return err
		}
		if err := n.HandleUpdate(ctx, u); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read hook input: %w", err)
	}
	return nil
}

// HandleUpdate processes a single ref update end to end.
func (n *Notifier) HandleUpdate(ctx context.Context, u RefUpdate) error {
	logger := n.logger.With("ref", u.RefName)

	if strings.HasPrefix(u.RefName, git.RefsRemotes) {
		logger.Debug("skipping remote-tracking ref")
		return nil
	}
	if len(n.include) > 0 && !n.matchesInclude(u.RefName) {
		logger.Debug("skipping ref outside allow-list")
		return nil
	}

	kind, action, err := Classify(n.backend, u)
	if err != nil {
		return err
	}
	logger.Debug("classified update", "kind", kind.String(), "action", action.Verb())

	switch {
	case action == ActionRemoved:
		return n.sendRefNotice(ctx, u, kind, action)

	case action == ActionCreated && kind == KindAnnotatedTag:
		// Annotated tag creation is a single tag notice, never decomposed
		// into constituent commits.
		notice, err := n.composer.TagNotice(u, u.NewID)
		if err != nil {
			return err
		}
		n.send(ctx, *notice)
		return nil

	case action == ActionUpdated && kind.IsTag():
		return n.sendRefNotice(ctx, u, kind, action)
	}

	// Branch created/updated/rewritten, or lightweight tag created: resolve
	// the new commits.
	ids, err := n.resolver.Resolve(ctx, u)
	if err != nil {
		return err
	}

	if action == ActionUpdated && len(ids) == 0 {
		return n.sendRefNotice(ctx, u, kind, ActionModifiedNoNewCommits)
	}

	if action == ActionCreated || action == ActionRewritten {
		if err := n.sendRefNotice(ctx, u, kind, action); err != nil {
			return err
		}
	}

	if len(ids) > n.cfg.MaxNotices {
		logger.Debug("collapsing range", "commits", len(ids), "max", n.cfg.MaxNotices)
		notice, err := n.composer.GlobalNotice(u, kind, ids)
		if err != nil {
			return err
		}
		n.send(ctx, *notice)
		return nil
	}

	for _, id := range ids {
		notice, err := n.composer.CommitNotice(u, kind, id)
		if err != nil {
			return err
		}
		n.send(ctx, *notice)
	}
	return nil
}

func (n *Notifier) sendRefNotice(ctx context.Context, u RefUpdate, kind RefKind, action UpdateAction) error {
	notice, err := n.composer.RefNotice(u, kind, action)
	if err != nil {
		return err
	}
	n.send(ctx, *notice)
	return nil
}

// send forwards a notice to every sink. Delivery failures degrade to a
// warning; they never abort processing of subsequent notices.
func (n *Notifier) send(ctx context.Context, notice Notice) {
	for _, sink := range n.sinks {
		if err := sink.Send(ctx, notice); err != nil {
			n.logger.Warn("delivery failed", "subject", notice.Subject, "err", err)
		}
	}
}

func (n *Notifier) matchesInclude(ref string) bool {
	for _, g := range n.include {
		if g.Match(ref) {
			return true
		}
	}
	return false
}
