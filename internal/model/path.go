package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned when a Path is constructed from an empty id
// sequence, or from one that contains the root sentinel or a blank id.
var ErrInvalidPath = errors.New("invalid path")

// hashSep never occurs inside generated or sentinel ids.
const hashSep = "\x1f"

// Path is an ordered sequence of thought ids from (but excluding) the root
// to a target thought.
//
// The zero value is the null Path, which stands for the root / "no cursor".
// A non-null Path always holds at least one id and never holds RootID.
type Path struct {
	ids []string
}

// NewPath validates ids and returns a Path. An empty sequence is rejected:
// callers that mean "root" use the zero Path instead.
func NewPath(ids ...string) (Path, error) {
	if len(ids) == 0 {
		return Path{}, fmt.Errorf("%w: empty id sequence", ErrInvalidPath)
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		switch {
		case strings.TrimSpace(id) == "":
			return Path{}, fmt.Errorf("%w: blank id at %d", ErrInvalidPath, i)
		case strings.TrimSpace(id) != id:
			return Path{}, fmt.Errorf("%w: id %q has surrounding whitespace", ErrInvalidPath, id)
		case id == RootID:
			return Path{}, fmt.Errorf("%w: root sentinel at %d", ErrInvalidPath, i)
		case strings.Contains(id, hashSep):
			return Path{}, fmt.Errorf("%w: id %q contains a reserved separator", ErrInvalidPath, id)
		}
		out[i] = id
	}
	return Path{ids: out}, nil
}

// MustPath is NewPath for literals in tests and fixtures.
func MustPath(ids ...string) Path {
	p, err := NewPath(ids...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) IsNull() bool { return len(p.ids) == 0 }
func (p Path) Len() int     { return len(p.ids) }

// IDs returns a copy of the id sequence (nil for the null Path).
func (p Path) IDs() []string {
	if p.IsNull() {
		return nil
	}
	return append([]string(nil), p.ids...)
}

// At returns the id at depth i (0-based).
func (p Path) At(i int) string {
	if i < 0 || i >= len(p.ids) {
		return ""
	}
	return p.ids[i]
}

// Head returns the target (last) id, or RootID for the null Path.
func (p Path) Head() string {
	if p.IsNull() {
		return RootID
	}
	return p.ids[len(p.ids)-1]
}

// Parent returns the path without its last id. The parent of a top-level
// thought is the null Path.
func (p Path) Parent() Path {
	if len(p.ids) <= 1 {
		return Path{}
	}
	return Path{ids: p.ids[:len(p.ids)-1]}
}

// Prefix returns the first n ids as a Path.
func (p Path) Prefix(n int) Path {
	if n <= 0 {
		return Path{}
	}
	if n >= len(p.ids) {
		return p
	}
	return Path{ids: p.ids[:n]}
}

// Append returns a new Path with ids appended. Appending to the null Path
// starts a new top-level path.
func (p Path) Append(ids ...string) (Path, error) {
	return NewPath(append(p.IDs(), ids...)...)
}

func (p Path) Equal(o Path) bool {
	if len(p.ids) != len(o.ids) {
		return false
	}
	for i := range p.ids {
		if p.ids[i] != o.ids[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether o is a (non-strict) prefix of p. The null Path
// is a prefix of every path.
func (p Path) HasPrefix(o Path) bool {
	if len(o.ids) > len(p.ids) {
		return false
	}
	for i := range o.ids {
		if p.ids[i] != o.ids[i] {
			return false
		}
	}
	return true
}

// IsDescendantOf reports whether p lies strictly below o.
func (p Path) IsDescendantOf(o Path) bool {
	return len(p.ids) > len(o.ids) && p.HasPrefix(o)
}

// Hash is a structural key: two paths share a hash iff they are equal.
func (p Path) Hash() string {
	if p.IsNull() {
		return ""
	}
	return strings.Join(p.ids, hashSep)
}

// PathFromHash reverses Hash.
func PathFromHash(h string) (Path, error) {
	if h == "" {
		return Path{}, nil
	}
	return NewPath(strings.Split(h, hashSep)...)
}

func (p Path) String() string {
	if p.IsNull() {
		return "/"
	}
	return "/" + strings.Join(p.ids, "/")
}

func (p Path) MarshalJSON() ([]byte, error) {
	if p.IsNull() {
		return []byte("null"), nil
	}
	return json.Marshal(p.ids)
}

func (p *Path) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	if ids == nil {
		*p = Path{}
		return nil
	}
	np, err := NewPath(ids...)
	if err != nil {
		return err
	}
	*p = np
	return nil
}
