package notify

import (
	"fmt"
	"strings"

	"github.com/refnotify/refnotify/pkg/git"
)

// Notice content types.
const (
	ContentTypePlain = "text/plain"
	ContentTypeXML   = "text/xml"
)

// NoticeKind distinguishes the shapes of notices the composer produces.
type NoticeKind int

// Notice kinds.
const (
	// NoticeRef announces a ref-level event: creation, removal, rewrite or
	// an update that introduced no new commits.
	NoticeRef NoticeKind = iota
	// NoticeCommit describes a single newly introduced commit.
	NoticeCommit
	// NoticeTag describes an annotated tag object.
	NoticeTag
	// NoticeGlobal collapses a whole range into one summary.
	NoticeGlobal
)

// Notice is an immutable composed notification. The dispatch loop owns it
// until it is handed to a delivery channel.
type Notice struct {
	Kind        NoticeKind
	Subject     string
	ContentType string
	Lines       []string

	// Metadata for machine-readable channels.
	Repo     string
	Ref      string
	CommitID git.Hash
	Author   string
	Files    []string
}

// subjectLimit is the column at which subject lines are truncated.
const subjectLimit = 50

// truncateSubject shortens a subject line to subjectLimit characters,
// breaking at the last whitespace inside the cut and appending an ellipsis
// marker. A cut with no whitespace is kept whole. The limit counts runes, so
// multibyte text is never split mid-character.
func truncateSubject(s string) string {
	runes := []rune(s)
	if len(runes) <= subjectLimit {
		return s
	}
	cut := string(runes[:subjectLimit])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = strings.TrimRight(cut[:idx], " ")
	}
	return cut + "..."
}

// tableRow is a single line of a key/value notice table.
type tableRow struct {
	key   string
	value string
	raw   bool
	omit  bool
}

// table renders an aligned key/value block. The key column is right-padded
// to the longest key across all non-omitted keyed rows; rows marked raw pass
// through unchanged.
type table struct {
	rows []tableRow
}

func (t *table) add(key, value string) {
	t.rows = append(t.rows, tableRow{key: key, value: value})
}

// addIf adds a keyed row that is dropped, before width computation, unless
// cond holds.
func (t *table) addIf(cond bool, key, value string) {
	t.rows = append(t.rows, tableRow{key: key, value: value, omit: !cond})
}

func (t *table) addRaw(line string) {
	t.rows = append(t.rows, tableRow{value: line, raw: true})
}

func (t *table) lines() []string {
	width := 0
	for _, row := range t.rows {
		if row.raw || row.omit {
			continue
		}
		if len(row.key) > width {
			width = len(row.key)
		}
	}

	var out []string
	for _, row := range t.rows {
		switch {
		case row.omit:
		case row.raw:
			out = append(out, row.value)
		default:
			out = append(out, fmt.Sprintf("%-*s %s", width+1, row.key+":", row.value))
		}
	}
	return out
}
