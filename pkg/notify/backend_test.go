package notify

import (
	"context"
	"fmt"

	"github.com/refnotify/refnotify/pkg/git"
)

// fakeBackend is an in-memory git.Backend for engine tests.
type fakeBackend struct {
	rangeIDs []git.Hash
	allIDs   []git.Hash
	types    map[string]git.ObjectType
	infos    map[git.Hash]*git.CommitInfo
	ancestor bool
	stats    map[git.Hash]string
	patches  map[git.Hash]string
	changes  map[git.Hash][]git.FileChange
	refs     []string

	gotOld  git.Hash
	gotNew  git.Hash
	gotOpts git.RangeOptions
}

var _ git.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) ResolveRange(oldID, newID git.Hash, opts git.RangeOptions) ([]git.Hash, error) {
	f.gotOld, f.gotNew, f.gotOpts = oldID, newID, opts
	return f.rangeIDs, nil
}

func (f *fakeBackend) AllIDs() ([]git.Hash, error) {
	return f.allIDs, nil
}

func (f *fakeBackend) ObjectType(rev string) (git.ObjectType, error) {
	if typ, ok := f.types[rev]; ok {
		return typ, nil
	}
	return git.ObjectCommit, nil
}

func (f *fakeBackend) ObjectInfo(id git.Hash) (*git.CommitInfo, error) {
	if info, ok := f.infos[id]; ok {
		return info, nil
	}
	return commitInfo(fmt.Sprintf("commit %s", id[:7])), nil
}

func (f *fakeBackend) IsAncestor(_, _ git.Hash) (bool, error) {
	return f.ancestor, nil
}

func (f *fakeBackend) DiffStat(id git.Hash) (string, error) {
	return f.stats[id], nil
}

func (f *fakeBackend) DiffPatch(id git.Hash) (string, error) {
	return f.patches[id], nil
}

func (f *fakeBackend) NameStatus(id git.Hash) ([]git.FileChange, error) {
	return f.changes[id], nil
}

func (f *fakeBackend) ShortID(id git.Hash) (string, error) {
	return string(id[:7]), nil
}

func (f *fakeBackend) ListRefs(...string) ([]string, error) {
	return f.refs, nil
}

// fakeStore mirrors the real store semantics: record everything, return what
// was fresh.
type fakeStore struct {
	seen map[git.Hash]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[git.Hash]bool)}
}

func (s *fakeStore) FilterAndRecord(_ context.Context, ids []git.Hash) ([]git.Hash, error) {
	var fresh []git.Hash
	for _, id := range ids {
		if !s.seen[id] {
			fresh = append(fresh, id)
		}
		s.seen[id] = true
	}
	return fresh, nil
}

// fakeSink collects every notice it receives.
type fakeSink struct {
	notices []Notice
	err     error
}

func (s *fakeSink) Send(_ context.Context, n Notice) error {
	if s.err != nil {
		return s.err
	}
	s.notices = append(s.notices, n)
	return nil
}

// hashN returns a deterministic valid hash for a test index.
func hashN(i int) git.Hash {
	return git.Hash(fmt.Sprintf("%040x", i+1))
}

func hashes(n int) []git.Hash {
	ids := make([]git.Hash, n)
	for i := range ids {
		ids[i] = hashN(i)
	}
	return ids
}

func commitInfo(summary string, body ...string) *git.CommitInfo {
	ident := &git.Identity{Name: "Jane Doe", Email: "jane@example.com"}
	return &git.CommitInfo{
		Type:      git.ObjectCommit,
		Author:    ident,
		Committer: ident,
		Message:   append([]string{summary}, body...),
	}
}
