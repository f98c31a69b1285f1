package model

import (
	"strings"
	"time"
)

// RootID is the sentinel id of the invisible root thought.
// It never appears inside a Path.
const RootID = "__ROOT__"

// MetaPrefix marks meta attribute values (e.g. "=pin").
const MetaPrefix = "="

type Thought struct {
	ID       string `json:"id"`
	Value    string `json:"value"`
	Rank     string `json:"rank"`
	ParentID string `json:"parentId,omitempty"`

	// Children maps a child key to the child's id. See ChildKey.
	Children map[string]string `json:"children,omitempty"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// Clone returns a deep copy. Thoughts held by the graph store are never
// mutated in place; writers clone, modify, then replace.
func (t *Thought) Clone() *Thought {
	if t == nil {
		return nil
	}
	c := *t
	if t.Children != nil {
		c.Children = make(map[string]string, len(t.Children))
		for k, v := range t.Children {
			c.Children[k] = v
		}
	}
	return &c
}

// IsMeta reports whether the thought holds a meta attribute.
func (t *Thought) IsMeta() bool {
	return t != nil && IsMetaValue(t.Value)
}

func IsMetaValue(v string) bool {
	return strings.HasPrefix(v, MetaPrefix)
}

// ChildKey returns the key under which a child is stored in its parent's
// Children map. Meta attributes are keyed by value so a parent holds at most
// one of each; everything else is keyed by id so duplicate values can coexist.
func ChildKey(value, id string) string {
	if IsMetaValue(value) {
		return value
	}
	return id
}

type Lexeme struct {
	Value    string   `json:"value"`
	Contexts []string `json:"contexts"`

	LastUpdated time.Time `json:"lastUpdated"`
}

func (l *Lexeme) Clone() *Lexeme {
	if l == nil {
		return nil
	}
	c := *l
	c.Contexts = append([]string(nil), l.Contexts...)
	return &c
}

func (l *Lexeme) HasContext(id string) bool {
	if l == nil {
		return false
	}
	for _, c := range l.Contexts {
		if c == id {
			return true
		}
	}
	return false
}
