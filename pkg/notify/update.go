// Package notify implements the update classification and deduplication
// engine: it turns ref update triples into notices, guaranteeing each commit
// is reported at most once across invocations.
package notify

import (
	"fmt"
	"strings"

	"github.com/refnotify/refnotify/pkg/git"
)

// RefUpdate is a single ref transition as handed to a git hook.
type RefUpdate struct {
	OldID   git.Hash
	NewID   git.Hash
	RefName string
}

// NewRefUpdate builds a RefUpdate from raw hook fields, validating the id
// format invariant.
func NewRefUpdate(oldID, newID, refName string) (RefUpdate, error) {
	u := RefUpdate{
		OldID:   git.Hash(oldID),
		NewID:   git.Hash(newID),
		RefName: refName,
	}
	if err := u.OldID.Validate(); err != nil {
		return RefUpdate{}, fmt.Errorf("old id %q: %w", oldID, err)
	}
	if err := u.NewID.Validate(); err != nil {
		return RefUpdate{}, fmt.Errorf("new id %q: %w", newID, err)
	}
	return u, nil
}

// ShortName returns the ref name without its namespace prefix.
func (u RefUpdate) ShortName() string {
	for _, prefix := range []string{git.RefsHeads, git.RefsTags} {
		if strings.HasPrefix(u.RefName, prefix) {
			return strings.TrimPrefix(u.RefName, prefix)
		}
	}
	return u.RefName
}

// RefKind is the kind of ref an update addresses.
type RefKind int

// Ref kinds.
const (
	KindBranch RefKind = iota
	KindLightweightTag
	KindAnnotatedTag
)

// String implements fmt.Stringer.
func (k RefKind) String() string {
	switch k {
	case KindBranch:
		return "branch"
	case KindLightweightTag:
		return "tag"
	case KindAnnotatedTag:
		return "annotated tag"
	}
	return "unknown"
}

// IsTag returns whether the kind is a tag kind.
func (k RefKind) IsTag() bool {
	return k == KindLightweightTag || k == KindAnnotatedTag
}

// UpdateAction is the semantic action a ref update performs. Exactly one
// action applies per update.
type UpdateAction int

// Update actions.
const (
	ActionCreated UpdateAction = iota
	ActionRemoved
	ActionUpdated
	ActionRewritten
	ActionModifiedNoNewCommits
)

// Verb returns the action as the past-tense verb used in notices.
func (a UpdateAction) Verb() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionRemoved:
		return "removed"
	case ActionUpdated:
		return "updated"
	case ActionRewritten:
		return "rewritten"
	case ActionModifiedNoNewCommits:
		return "modified"
	}
	return "unknown"
}
