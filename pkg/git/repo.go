package git

import (
	"errors"
	"fmt"
	"strings"

	gitm "github.com/aymanbagabas/git-module"
)

// Repository is the git-backed Backend implementation. Every query is a
// blocking subprocess call run inside the repository directory.
type Repository struct {
	repo *gitm.Repository
	path string
}

var _ Backend = (*Repository)(nil)

// Open opens the git repository at the given path.
func Open(path string) (*Repository, error) {
	repo, err := gitm.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAGitRepository, path)
	}
	return &Repository{repo: repo, path: path}, nil
}

// Path returns the repository path.
func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) run(args ...string) (string, error) {
	out, err := gitm.NewCommand(args...).RunInDir(r.path)
	if err != nil {
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}

func parseHashLines(out string) ([]Hash, error) {
	var ids []Hash
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id := Hash(line)
		if err := id.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %q", err, line)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ResolveRange implements Backend.
func (r *Repository) ResolveRange(oldID, newID Hash, opts RangeOptions) ([]Hash, error) {
	args := []string{"rev-list", "--reverse"}
	if opts.NoMerges {
		args = append(args, "--no-merges")
	}
	args = append(args, newID.String())
	if !oldID.IsZero() {
		args = append(args, "^"+oldID.String())
	}
	for _, ref := range opts.Exclude {
		args = append(args, "^"+ref)
	}
	out, err := r.run(args...)
	if err != nil {
		return nil, err
	}
	return parseHashLines(out)
}

// AllIDs implements Backend.
func (r *Repository) AllIDs() ([]Hash, error) {
	out, err := r.run("rev-list", "--all")
	if err != nil {
		return nil, err
	}
	return parseHashLines(out)
}

// ObjectType implements Backend.
func (r *Repository) ObjectType(rev string) (ObjectType, error) {
	out, err := r.run("cat-file", "-t", rev)
	if err != nil {
		return "", err
	}
	return ObjectType(strings.TrimSpace(out)), nil
}

// ObjectInfo implements Backend.
func (r *Repository) ObjectInfo(id Hash) (*CommitInfo, error) {
	typ, err := r.ObjectType(id.String())
	if err != nil {
		return nil, err
	}
	if typ != ObjectCommit && typ != ObjectTag {
		return nil, fmt.Errorf("%w: %s is a %s", ErrInvalidObject, id, typ)
	}
	out, err := r.run("cat-file", string(typ), id.String())
	if err != nil {
		return nil, err
	}
	return ParseObject(typ, []byte(out))
}

// IsAncestor implements Backend.
func (r *Repository) IsAncestor(a, b Hash) (bool, error) {
	base, err := r.repo.MergeBase(a.String(), b.String())
	if err != nil {
		if errors.Is(err, gitm.ErrNoMergeBase) {
			return false, nil
		}
		return false, fmt.Errorf("git merge-base: %w", err)
	}
	return base == a.String(), nil
}

// DiffStat implements Backend.
func (r *Repository) DiffStat(id Hash) (string, error) {
	return r.run("diff-tree", "--root", "--no-commit-id", "--find-renames", "--stat", "--no-color", id.String())
}

// DiffPatch implements Backend.
func (r *Repository) DiffPatch(id Hash) (string, error) {
	return r.run("diff-tree", "--root", "--no-commit-id", "--find-renames", "-p", "--no-color", id.String())
}

// NameStatus implements Backend.
func (r *Repository) NameStatus(id Hash) ([]FileChange, error) {
	out, err := r.run("diff-tree", "--root", "--no-commit-id", "--find-renames", "-r", "--name-status", id.String())
	if err != nil {
		return nil, err
	}
	var changes []FileChange
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: name-status line %q", ErrInvalidObject, line)
		}
		ch := FileChange{Kind: ChangeKind(fields[0][0])}
		switch ch.Kind {
		case ChangeRenamed:
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: rename line %q", ErrInvalidObject, line)
			}
			ch.OldPath = fields[1]
			ch.Path = fields[2]
		case ChangeAdded, ChangeModified, ChangeDeleted:
			ch.Path = fields[1]
		default:
			ch.Kind = ChangeModified
			ch.Path = fields[len(fields)-1]
		}
		changes = append(changes, ch)
	}
	return changes, nil
}

// ShortID implements Backend.
func (r *Repository) ShortID(id Hash) (string, error) {
	out, err := r.run("rev-parse", "--short", id.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ListRefs implements Backend.
func (r *Repository) ListRefs(patterns ...string) ([]string, error) {
	args := append([]string{"for-each-ref", "--format=%(refname)"}, patterns...)
	out, err := r.run(args...)
	if err != nil {
		return nil, err
	}
	var refs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			refs = append(refs, line)
		}
	}
	return refs, nil
}
