// Package git implements the version-control backend consumed by the
// notification engine. All repository access goes through the narrow Backend
// interface so the engine can be tested against an in-memory fake.
package git

import (
	gitm "github.com/aymanbagabas/git-module"
)

// ZeroHash is the all-zero object id denoting a nonexistent ref endpoint.
const ZeroHash Hash = gitm.EmptyID

// Hash is the canonical 40-character hexadecimal form of a git object id.
type Hash string

// String returns the string representation of a hash as a string.
func (h Hash) String() string {
	return string(h)
}

// IsZero returns whether the hash is the all-zero id.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Validate checks the hash format invariant: exactly 40 lowercase
// hexadecimal characters. Anything else is a data-integrity error.
func (h Hash) Validate() error {
	if len(h) != 40 {
		return ErrInvalidHash
	}
	for _, c := range h {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return ErrInvalidHash
		}
	}
	return nil
}

// ObjectType is the type of a git object.
type ObjectType string

// Git object types.
const (
	ObjectCommit ObjectType = "commit"
	ObjectTree   ObjectType = "tree"
	ObjectBlob   ObjectType = "blob"
	ObjectTag    ObjectType = "tag"
)

// Ref namespaces.
const (
	RefsHeads   = gitm.RefsHeads
	RefsTags    = gitm.RefsTags
	RefsRemotes = "refs/remotes/"
)
