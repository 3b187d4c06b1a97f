package notify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/refnotify/refnotify/pkg/git"
)

// ErrUnknownRefNamespace is returned when a ref outside refs/heads/ and
// refs/tags/ reaches the classifier. The dispatch loop filters
// remote-tracking refs before classification, so this always indicates a
// misconfigured hook.
var ErrUnknownRefNamespace = errors.New("unknown ref namespace")

// Classify determines the kind of ref an update addresses and the semantic
// action it performs. It has no side effects.
//
// The ActionUpdated result is provisional for branches: the dispatch loop
// downgrades it to ActionModifiedNoNewCommits when range resolution yields
// nothing new.
func Classify(b git.Backend, u RefUpdate) (RefKind, UpdateAction, error) {
	kind, err := classifyKind(b, u)
	if err != nil {
		return 0, 0, err
	}

	switch {
	case u.NewID.IsZero():
		return kind, ActionRemoved, nil
	case u.OldID.IsZero():
		return kind, ActionCreated, nil
	case kind.IsTag():
		// tags are never diffed commit by commit
		return kind, ActionUpdated, nil
	}

	ancestor, err := b.IsAncestor(u.OldID, u.NewID)
	if err != nil {
		return 0, 0, fmt.Errorf("ancestry of %s..%s: %w", u.OldID, u.NewID, err)
	}
	if !ancestor {
		return kind, ActionRewritten, nil
	}
	return kind, ActionUpdated, nil
}

func classifyKind(b git.Backend, u RefUpdate) (RefKind, error) {
	switch {
	case strings.HasPrefix(u.RefName, git.RefsHeads):
		return KindBranch, nil
	case strings.HasPrefix(u.RefName, git.RefsTags):
		// On removal only the old id still addresses an object.
		rev := u.NewID
		if rev.IsZero() {
			rev = u.OldID
		}
		typ, err := b.ObjectType(rev.String())
		if err != nil {
			return 0, fmt.Errorf("object type of %s: %w", rev, err)
		}
		if typ == git.ObjectTag {
			return KindAnnotatedTag, nil
		}
		return KindLightweightTag, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownRefNamespace, u.RefName)
}
