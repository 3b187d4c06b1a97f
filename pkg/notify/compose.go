package notify

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/refnotify/refnotify/pkg/config"
	"github.com/refnotify/refnotify/pkg/git"
)

// Composer turns classified actions and resolved commits into notices.
type Composer struct {
	cfg     *config.Config
	backend git.Backend
}

// NewComposer returns a Composer.
func NewComposer(cfg *config.Config, backend git.Backend) *Composer {
	return &Composer{cfg: cfg, backend: backend}
}

// link renders the browse URL for a commit, or "" when no base URL is
// configured.
func (c *Composer) link(id git.Hash) (string, error) {
	base := c.cfg.Link.BaseURL
	if base == "" {
		return "", nil
	}
	sha := id.String()
	if c.cfg.Link.Abbreviate {
		short, err := c.backend.ShortID(id)
		if err != nil {
			return "", err
		}
		sha = short
	}
	if c.cfg.Link.SourceForge {
		return fmt.Sprintf("%s/ci/%s/", base, sha), nil
	}
	return fmt.Sprintf("%s/%s", base, sha), nil
}

func refKindKey(kind RefKind) string {
	if kind == KindBranch {
		return "Branch"
	}
	return "Tag"
}

// RefNotice composes the ref-level notice for creations, removals, rewrites
// and updates that introduced no new commits.
func (c *Composer) RefNotice(u RefUpdate, kind RefKind, action UpdateAction) (*Notice, error) {
	url := ""
	if !u.NewID.IsZero() {
		var err error
		url, err = c.link(u.NewID)
		if err != nil {
			return nil, err
		}
	}

	var t table
	t.add("Module", c.cfg.RepoName)
	t.add(refKindKey(kind), u.ShortName())
	t.add("Old id", u.OldID.String())
	t.add("New id", u.NewID.String())
	t.addIf(url != "", "URL", url)
	t.addRaw("")
	t.addRaw(fmt.Sprintf("The %q %s has been %s.", u.ShortName(), kind, action.Verb()))

	return &Notice{
		Kind:        NoticeRef,
		Subject:     fmt.Sprintf("%s: %s %s %s", c.cfg.RepoName, kind, u.ShortName(), action.Verb()),
		ContentType: ContentTypePlain,
		Lines:       t.lines(),
		Repo:        c.cfg.RepoName,
		Ref:         u.RefName,
	}, nil
}

// CommitNotice composes the notice for a single newly introduced commit.
func (c *Composer) CommitNotice(u RefUpdate, kind RefKind, id git.Hash) (*Notice, error) {
	info, err := c.backend.ObjectInfo(id)
	if err != nil {
		return nil, err
	}
	if info.Author == nil || info.Committer == nil {
		return nil, fmt.Errorf("%w: commit %s has no author", git.ErrInvalidObject, id)
	}

	url, err := c.link(id)
	if err != nil {
		return nil, err
	}

	sameIdentity := info.Committer.Name == info.Author.Name &&
		info.Committer.Email == info.Author.Email

	var t table
	t.add("Module", c.cfg.RepoName)
	t.add(refKindKey(kind), u.ShortName())
	t.add("Commit", id.String())
	t.addIf(url != "", "URL", url)
	t.add("Author", info.Author.String())
	t.addIf(c.cfg.ShowCommitter && !sameIdentity, "Committer", info.Committer.String())
	t.add("Date", info.Author.Date())

	lines := t.lines()
	lines = append(lines, "")
	lines = append(lines, info.Message...)
	lines = append(lines, "", "---")

	stat, err := c.backend.DiffStat(id)
	if err != nil {
		return nil, err
	}
	lines = append(lines, splitLines(stat)...)

	diffLines, err := c.diff(id, url)
	if err != nil {
		return nil, err
	}
	lines = append(lines, diffLines...)

	changes, err := c.backend.NameStatus(id)
	if err != nil {
		return nil, err
	}
	files := make([]string, len(changes))
	for i, ch := range changes {
		files[i] = ch.Path
	}

	subject := truncateSubject(info.Summary())
	if !c.cfg.OmitAuthor {
		subject = fmt.Sprintf("%s: %s", info.Author.Name, truncateSubject(info.Summary()))
	}

	return &Notice{
		Kind:        NoticeCommit,
		Subject:     subject,
		ContentType: ContentTypePlain,
		Lines:       lines,
		Repo:        c.cfg.RepoName,
		Ref:         u.RefName,
		CommitID:    id,
		Author:      info.Author.Name,
		Files:       files,
	}, nil
}

// diff returns the unified diff lines for a commit, or a substitution line
// when the diff exceeds the configured ceiling.
func (c *Composer) diff(id git.Hash, url string) ([]string, error) {
	patch, err := c.backend.DiffPatch(id)
	if err != nil {
		return nil, err
	}
	limit := c.cfg.MaxDiffBytes
	if limit != config.NoDiffSizeLimit && int64(len(patch)) > limit {
		size := humanize.Bytes(uint64(len(patch)))
		if url != "" {
			return []string{"", fmt.Sprintf("The diff has been omitted (%s); see %s", size, url)}, nil
		}
		return []string{"", fmt.Sprintf("The diff has been omitted (%s).", size)}, nil
	}
	return append([]string{""}, splitLines(patch)...), nil
}

// TagNotice composes the notice for an annotated tag object. It carries the
// tagger identity and message and never includes a diff or stat.
func (c *Composer) TagNotice(u RefUpdate, id git.Hash) (*Notice, error) {
	info, err := c.backend.ObjectInfo(id)
	if err != nil {
		return nil, err
	}
	if info.Type != git.ObjectTag || info.Tagger == nil {
		return nil, fmt.Errorf("%w: %s is not an annotated tag", git.ErrInvalidObject, id)
	}

	name := info.TagName
	if name == "" {
		name = u.ShortName()
	}

	url, err := c.link(id)
	if err != nil {
		return nil, err
	}

	var t table
	t.add("Module", c.cfg.RepoName)
	t.add("Tag", name)
	t.add("Tag id", id.String())
	t.addIf(url != "", "URL", url)
	t.add("Tagger", info.Tagger.String())
	t.add("Date", info.Tagger.Date())

	lines := t.lines()
	if len(info.Message) > 0 {
		lines = append(lines, "")
		lines = append(lines, info.Message...)
	}

	subject := strings.TrimSpace(fmt.Sprintf("Tag %s: %s", name, truncateSubject(info.Summary())))

	return &Notice{
		Kind:        NoticeTag,
		Subject:     subject,
		ContentType: ContentTypePlain,
		Lines:       lines,
		Repo:        c.cfg.RepoName,
		Ref:         u.RefName,
		CommitID:    id,
		Author:      info.Tagger.Name,
	}, nil
}

// GlobalNotice collapses a whole resolved range into one summary notice
// listing a one-line log entry per commit.
func (c *Composer) GlobalNotice(u RefUpdate, kind RefKind, ids []git.Hash) (*Notice, error) {
	var t table
	t.add("Module", c.cfg.RepoName)
	t.add(refKindKey(kind), u.ShortName())
	t.addRaw("")

	for _, id := range ids {
		info, err := c.backend.ObjectInfo(id)
		if err != nil {
			return nil, err
		}
		short, err := c.backend.ShortID(id)
		if err != nil {
			return nil, err
		}
		entry := fmt.Sprintf("%s %s", short, info.Summary())
		url, err := c.link(id)
		if err != nil {
			return nil, err
		}
		if url != "" {
			entry = fmt.Sprintf("%s  %s", entry, url)
		}
		t.addRaw(entry)
	}

	return &Notice{
		Kind:        NoticeGlobal,
		Subject:     fmt.Sprintf("%s: %d new commits in %s %s", c.cfg.RepoName, len(ids), kind, u.ShortName()),
		ContentType: ContentTypePlain,
		Lines:       t.lines(),
		Repo:        c.cfg.RepoName,
		Ref:         u.RefName,
	}, nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
