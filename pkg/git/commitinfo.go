package git

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/ianaindex"
)

// signatureMarker terminates a message body carrying a detached signature.
const signatureMarker = "-----BEGIN PGP SIGNATURE-----"

// Identity is a name/email pair with the moment it acted, carrying the
// original UTC offset.
type Identity struct {
	Name  string
	Email string
	When  time.Time
}

// String returns the identity in "Name <email>" form.
func (i Identity) String() string {
	return fmt.Sprintf("%s <%s>", i.Name, i.Email)
}

// Date returns the identity's timestamp as civil time in its own UTC offset.
func (i Identity) Date() string {
	return i.When.Format("Mon Jan 2 15:04:05 2006 -0700")
}

// CommitInfo is the parsed metadata of a commit or tag object.
type CommitInfo struct {
	Type      ObjectType
	Author    *Identity
	Committer *Identity
	Tagger    *Identity
	TagName   string
	Encoding  string
	// Message is the object message, one line per entry, stopping at a
	// detached-signature marker.
	Message []string
}

// Summary returns the first line of the message.
func (ci *CommitInfo) Summary() string {
	if len(ci.Message) == 0 {
		return ""
	}
	return ci.Message[0]
}

// ParseObject parses the raw cat-file output of a commit or tag object into
// a CommitInfo. Header continuation lines (gpgsig and friends) are folded
// into the preceding header and dropped.
func ParseObject(typ ObjectType, raw []byte) (*CommitInfo, error) {
	if typ != ObjectCommit && typ != ObjectTag {
		return nil, fmt.Errorf("%w: unexpected type %q", ErrInvalidObject, typ)
	}

	ci := &CommitInfo{Type: typ}
	lines := strings.Split(string(raw), "\n")

	i := 0
	for ; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			i++
			break
		}
		if strings.HasPrefix(line, " ") {
			// continuation of the previous header
			continue
		}
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: header line %q", ErrInvalidObject, line)
		}
		switch key {
		case "author", "committer", "tagger":
			id, err := parseIdentity(value)
			if err != nil {
				return nil, err
			}
			switch key {
			case "author":
				ci.Author = id
			case "committer":
				ci.Committer = id
			case "tagger":
				ci.Tagger = id
			}
		case "tag":
			ci.TagName = value
		case "encoding":
			ci.Encoding = value
		}
	}

	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == signatureMarker {
			break
		}
		ci.Message = append(ci.Message, lines[i])
	}
	// cat-file output ends with a newline; drop the resulting empty tail
	for len(ci.Message) > 0 && ci.Message[len(ci.Message)-1] == "" {
		ci.Message = ci.Message[:len(ci.Message)-1]
	}

	ci.Message = decodeLines(ci.Message, ci.Encoding)

	return ci, nil
}

// parseIdentity parses a "Name <email> epoch ±hhmm" identity value.
func parseIdentity(value string) (*Identity, error) {
	open := strings.LastIndex(value, " <")
	close_ := strings.LastIndex(value, "> ")
	if open < 0 || close_ < open {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentity, value)
	}

	id := &Identity{
		Name:  strings.TrimSpace(value[:open]),
		Email: value[open+2 : close_],
	}

	rest := strings.Fields(value[close_+2:])
	if len(rest) != 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentity, value)
	}
	epoch, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp in %q", ErrInvalidIdentity, value)
	}
	offset, err := parseOffset(rest[1])
	if err != nil {
		return nil, fmt.Errorf("%w: offset in %q", ErrInvalidIdentity, value)
	}

	id.When = time.Unix(epoch, 0).In(time.FixedZone(rest[1], offset))
	return id, nil
}

// parseOffset converts a ±hhmm UTC offset to seconds.
func parseOffset(s string) (int, error) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return 0, ErrInvalidIdentity
	}
	hours, err := strconv.Atoi(s[1:3])
	if err != nil {
		return 0, err
	}
	mins, err := strconv.Atoi(s[3:5])
	if err != nil {
		return 0, err
	}
	offset := hours*3600 + mins*60
	if s[0] == '-' {
		offset = -offset
	}
	return offset, nil
}

// decodeLines reinterprets message lines declared in a non-UTF-8 encoding.
// Unknown encodings and decode failures fall back to the raw text; a bad
// declared encoding must never abort a notification run.
func decodeLines(lines []string, name string) []string {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return lines
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return lines
	}
	dec := enc.NewDecoder()
	out := make([]string, len(lines))
	for i, line := range lines {
		decoded, err := dec.String(line)
		if err != nil {
			out[i] = line
			continue
		}
		out[i] = decoded
	}
	return out
}
