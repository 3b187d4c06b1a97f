package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/refnotify/refnotify/pkg/config"
	"github.com/refnotify/refnotify/pkg/git"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.RepoName = "widgets"
	return cfg
}

func testIdentity(name, email string) *git.Identity {
	return &git.Identity{
		Name:  name,
		Email: email,
		When:  time.Unix(1234567890, 0).In(time.FixedZone("+0200", 2*3600)),
	}
}

func TestRefNoticeRemoved(t *testing.T) {
	is := is.New(t)
	c := NewComposer(testConfig(), &fakeBackend{})
	u := RefUpdate{OldID: hashN(0), NewID: git.ZeroHash, RefName: "refs/heads/main"}

	n, err := c.RefNotice(u, KindBranch, ActionRemoved)
	is.NoErr(err)
	is.Equal(n.Kind, NoticeRef)
	is.Equal(n.Lines, []string{
		"Module: widgets",
		"Branch: main",
		"Old id: " + hashN(0).String(),
		"New id: " + git.ZeroHash.String(),
		"",
		`The "main" branch has been removed.`,
	})
	is.Equal(n.Subject, "widgets: branch main removed")
}

func TestRefNoticeModified(t *testing.T) {
	is := is.New(t)
	c := NewComposer(testConfig(), &fakeBackend{})
	u := RefUpdate{OldID: hashN(0), NewID: hashN(0), RefName: "refs/heads/main"}

	n, err := c.RefNotice(u, KindBranch, ActionModifiedNoNewCommits)
	is.NoErr(err)
	is.True(contains(n.Lines, `The "main" branch has been modified.`))
	is.True(contains(n.Lines, "Old id: "+hashN(0).String()))
	is.True(contains(n.Lines, "New id: "+hashN(0).String()))
}

func TestCommitNotice(t *testing.T) {
	is := is.New(t)
	id := hashN(0)
	info := &git.CommitInfo{
		Type:      git.ObjectCommit,
		Author:    testIdentity("Jane Doe", "jane@example.com"),
		Committer: testIdentity("Jane Doe", "jane@example.com"),
		Message:   []string{"Fix the frobnicator", "", "More detail."},
	}
	b := &fakeBackend{
		infos:   map[git.Hash]*git.CommitInfo{id: info},
		stats:   map[git.Hash]string{id: " widget.go | 2 +-\n 1 file changed\n"},
		patches: map[git.Hash]string{id: "diff --git a/widget.go b/widget.go\n"},
		changes: map[git.Hash][]git.FileChange{id: {{Kind: git.ChangeModified, Path: "widget.go"}}},
	}
	c := NewComposer(testConfig(), b)
	u := RefUpdate{OldID: git.ZeroHash, NewID: id, RefName: "refs/heads/main"}

	n, err := c.CommitNotice(u, KindBranch, id)
	is.NoErr(err)
	is.Equal(n.Kind, NoticeCommit)
	is.Equal(n.Subject, "Jane Doe: Fix the frobnicator")
	is.Equal(n.Lines, []string{
		"Module: widgets",
		"Branch: main",
		"Commit: " + id.String(),
		"Author: Jane Doe <jane@example.com>",
		"Date:   Sat Feb 14 01:31:30 2009 +0200",
		"",
		"Fix the frobnicator",
		"",
		"More detail.",
		"",
		"---",
		" widget.go | 2 +-",
		" 1 file changed",
		"",
		"diff --git a/widget.go b/widget.go",
	})
	is.Equal(n.Files, []string{"widget.go"})
	is.Equal(n.Author, "Jane Doe")
}

func TestCommitNoticeCommitterShownWhenDifferent(t *testing.T) {
	is := is.New(t)
	id := hashN(0)
	info := &git.CommitInfo{
		Type:      git.ObjectCommit,
		Author:    testIdentity("Jane Doe", "jane@example.com"),
		Committer: testIdentity("Bob", "bob@example.com"),
		Message:   []string{"Fix the frobnicator"},
	}
	b := &fakeBackend{infos: map[git.Hash]*git.CommitInfo{id: info}}
	c := NewComposer(testConfig(), b)
	u := RefUpdate{OldID: git.ZeroHash, NewID: id, RefName: "refs/heads/main"}

	n, err := c.CommitNotice(u, KindBranch, id)
	is.NoErr(err)
	is.True(contains(n.Lines, "Committer: Bob <bob@example.com>"))
}

func TestCommitNoticeSubjectOmitsAuthor(t *testing.T) {
	is := is.New(t)
	id := hashN(0)
	cfg := testConfig()
	cfg.OmitAuthor = true
	b := &fakeBackend{infos: map[git.Hash]*git.CommitInfo{id: commitInfo("Fix the frobnicator")}}
	c := NewComposer(cfg, b)
	u := RefUpdate{OldID: git.ZeroHash, NewID: id, RefName: "refs/heads/main"}

	n, err := c.CommitNotice(u, KindBranch, id)
	is.NoErr(err)
	is.Equal(n.Subject, "Fix the frobnicator")
}

func TestCommitNoticeDiffCeiling(t *testing.T) {
	is := is.New(t)
	id := hashN(0)
	cfg := testConfig()
	cfg.MaxDiffBytes = 10
	b := &fakeBackend{
		infos:   map[git.Hash]*git.CommitInfo{id: commitInfo("big change")},
		patches: map[git.Hash]string{id: strings.Repeat("-", 50)},
	}
	c := NewComposer(cfg, b)
	u := RefUpdate{OldID: git.ZeroHash, NewID: id, RefName: "refs/heads/main"}

	n, err := c.CommitNotice(u, KindBranch, id)
	is.NoErr(err)
	is.True(contains(n.Lines, "The diff has been omitted (50 B)."))

	cfg.Link.BaseURL = "https://example.com/r"
	n, err = c.CommitNotice(u, KindBranch, id)
	is.NoErr(err)
	is.True(contains(n.Lines, "The diff has been omitted (50 B); see https://example.com/r/"+id.String()))

	cfg.MaxDiffBytes = config.NoDiffSizeLimit
	n, err = c.CommitNotice(u, KindBranch, id)
	is.NoErr(err)
	is.True(contains(n.Lines, strings.Repeat("-", 50)))
}

func TestCommitNoticeLinks(t *testing.T) {
	is := is.New(t)
	id := hashN(0)
	cfg := testConfig()
	cfg.Link.BaseURL = "https://example.com/r"
	b := &fakeBackend{infos: map[git.Hash]*git.CommitInfo{id: commitInfo("change")}}
	c := NewComposer(cfg, b)
	u := RefUpdate{OldID: git.ZeroHash, NewID: id, RefName: "refs/heads/main"}

	n, err := c.CommitNotice(u, KindBranch, id)
	is.NoErr(err)
	is.True(contains(n.Lines, "URL:    https://example.com/r/"+id.String()))

	cfg.Link.Abbreviate = true
	n, err = c.CommitNotice(u, KindBranch, id)
	is.NoErr(err)
	is.True(contains(n.Lines, "URL:    https://example.com/r/"+string(id[:7])))

	cfg.Link.SourceForge = true
	n, err = c.CommitNotice(u, KindBranch, id)
	is.NoErr(err)
	is.True(contains(n.Lines, "URL:    https://example.com/r/ci/"+string(id[:7])+"/"))
}

func TestTagNotice(t *testing.T) {
	is := is.New(t)
	id := hashN(0)
	info := &git.CommitInfo{
		Type:    git.ObjectTag,
		Tagger:  testIdentity("Jane Doe", "jane@example.com"),
		TagName: "v1.0",
		Message: []string{"Release v1.0"},
	}
	b := &fakeBackend{infos: map[git.Hash]*git.CommitInfo{id: info}}
	c := NewComposer(testConfig(), b)
	u := RefUpdate{OldID: git.ZeroHash, NewID: id, RefName: "refs/tags/v1.0"}

	n, err := c.TagNotice(u, id)
	is.NoErr(err)
	is.Equal(n.Kind, NoticeTag)
	is.Equal(n.Subject, "Tag v1.0: Release v1.0")
	is.Equal(n.Lines, []string{
		"Module: widgets",
		"Tag:    v1.0",
		"Tag id: " + id.String(),
		"Tagger: Jane Doe <jane@example.com>",
		"Date:   Sat Feb 14 01:31:30 2009 +0200",
		"",
		"Release v1.0",
	})
}

func TestTagNoticeRejectsCommit(t *testing.T) {
	is := is.New(t)
	id := hashN(0)
	b := &fakeBackend{infos: map[git.Hash]*git.CommitInfo{id: commitInfo("not a tag")}}
	c := NewComposer(testConfig(), b)
	u := RefUpdate{OldID: git.ZeroHash, NewID: id, RefName: "refs/tags/v1.0"}

	_, err := c.TagNotice(u, id)
	is.True(err != nil)
}

func TestGlobalNotice(t *testing.T) {
	is := is.New(t)
	ids := hashes(2)
	b := &fakeBackend{infos: map[git.Hash]*git.CommitInfo{
		ids[0]: commitInfo("first change"),
		ids[1]: commitInfo("second change"),
	}}
	c := NewComposer(testConfig(), b)
	u := RefUpdate{OldID: hashN(5), NewID: ids[1], RefName: "refs/heads/main"}

	n, err := c.GlobalNotice(u, KindBranch, ids)
	is.NoErr(err)
	is.Equal(n.Kind, NoticeGlobal)
	is.Equal(n.Subject, "widgets: 2 new commits in branch main")
	is.Equal(n.Lines, []string{
		"Module: widgets",
		"Branch: main",
		"",
		string(ids[0][:7]) + " first change",
		string(ids[1][:7]) + " second change",
	})
}

func contains(lines []string, want string) bool {
	for _, line := range lines {
		if line == want {
			return true
		}
	}
	return false
}
