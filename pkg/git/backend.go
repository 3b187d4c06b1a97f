package git

// ChangeKind is the kind of change a commit applies to a path.
type ChangeKind byte

// Change kinds reported by name-status listings.
const (
	ChangeAdded    ChangeKind = 'A'
	ChangeModified ChangeKind = 'M'
	ChangeDeleted  ChangeKind = 'D'
	ChangeRenamed  ChangeKind = 'R'
)

// FileChange is a single entry of a commit's name-status listing.
type FileChange struct {
	Kind ChangeKind
	Path string
	// OldPath is the pre-rename path for ChangeRenamed entries.
	OldPath string
}

// RangeOptions control commit range resolution.
type RangeOptions struct {
	// Exclude lists refs whose reachable commits are removed from the
	// range.
	Exclude []string
	// NoMerges drops merge commits from the resolved list. Reachability is
	// unaffected.
	NoMerges bool
}

// Backend is the version-control collaborator the engine depends on. The
// production implementation shells out to git; tests substitute a fake.
type Backend interface {
	// ResolveRange returns the ids reachable from new but not from old nor
	// from any excluded ref, oldest first. A zero old id yields the entire
	// history reachable from new minus exclusions.
	ResolveRange(oldID, newID Hash, opts RangeOptions) ([]Hash, error)

	// AllIDs returns every commit id reachable from any ref.
	AllIDs() ([]Hash, error)

	// ObjectType returns the type of the object addressed by a ref or id.
	ObjectType(rev string) (ObjectType, error)

	// ObjectInfo reads and parses a commit or tag object.
	ObjectInfo(id Hash) (*CommitInfo, error)

	// IsAncestor reports whether a is reachable from b.
	IsAncestor(a, b Hash) (bool, error)

	// DiffStat returns the file-change summary for a commit.
	DiffStat(id Hash) (string, error)

	// DiffPatch returns the unified diff for a commit.
	DiffPatch(id Hash) (string, error)

	// NameStatus returns the ordered name-status listing for a commit.
	NameStatus(id Hash) ([]FileChange, error)

	// ShortID returns the abbreviated form of an id.
	ShortID(id Hash) (string, error)

	// ListRefs returns the full ref names matching the given patterns.
	ListRefs(patterns ...string) ([]string, error)
}
