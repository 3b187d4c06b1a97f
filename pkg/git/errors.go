package git

import "errors"

var (
	// ErrInvalidHash is returned when an object id is not 40 lowercase hex
	// characters.
	ErrInvalidHash = errors.New("invalid object id")
	// ErrNotAGitRepository is returned when a path is not a git repository.
	ErrNotAGitRepository = errors.New("not a git repository")
	// ErrInvalidIdentity is returned when an author, committer or tagger
	// line cannot be parsed.
	ErrInvalidIdentity = errors.New("invalid identity line")
	// ErrInvalidObject is returned when an object body cannot be parsed.
	ErrInvalidObject = errors.New("invalid object")
)
