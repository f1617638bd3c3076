// Package treepath addresses values inside JSON-shaped trees (maps, slices
// and scalars as produced by encoding/json) and edits them without mutating
// shared structure.
//
// On the wire a path is a dot-delimited string such as
// "root.container.children.0.input". The leading "root" segment is a
// convention of the action protocol and is stripped by Parse; in memory a
// path is an ordered list of typed segments.
package treepath

import (
	"strconv"
	"strings"
)

// RootSegment prefixes every wire path.
const RootSegment = "root"

// Segment is one step of a path: a field name or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Field returns a field-name segment.
func Field(key string) Segment { return Segment{Key: key} }

// Index returns an array-index segment.
func Index(i int) Segment { return Segment{Key: strconv.Itoa(i), Index: i, IsIndex: true} }

func (s Segment) String() string { return s.Key }

// Path is an ordered list of segments relative to a tree root.
type Path []Segment

// Parse splits a dot-delimited path. A leading "root" segment is dropped, and
// segments that are non-negative integers become index segments. The empty
// string and "root" both parse to the empty path, which addresses the whole
// tree.
func Parse(s string) Path {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}
	}
	parts := strings.Split(s, ".")
	if parts[0] == RootSegment {
		parts = parts[1:]
	}
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		p = append(p, parseSegment(part))
	}
	return p
}

func parseSegment(part string) Segment {
	if i, err := strconv.Atoi(part); err == nil && i >= 0 && strconv.Itoa(i) == part {
		return Index(i)
	}
	return Field(part)
}

// String is the canonical form without the root prefix.
func (p Path) String() string { return strings.Join(p.Keys(), ".") }

// Wire is the form exchanged with interactive components: "root" followed by
// the segments.
func (p Path) Wire() string {
	if len(p) == 0 {
		return RootSegment
	}
	return RootSegment + "." + p.String()
}

// Child returns a new path extended by a field segment.
func (p Path) Child(key string) Path { return p.extend(Field(key)) }

// At returns a new path extended by an index segment.
func (p Path) At(i int) Path { return p.extend(Index(i)) }

func (p Path) extend(seg Segment) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = seg
	return out
}

// HasPrefix reports whether q is a segment-wise prefix of p.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i].Key != q[i].Key {
			return false
		}
	}
	return true
}

// Equal reports segment-wise equality.
func (p Path) Equal(q Path) bool {
	return len(p) == len(q) && p.HasPrefix(q)
}

// IsRoot reports whether the path addresses the whole tree.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Strip removes the "root." prefix of a wire path. "root" alone becomes the
// empty string.
func Strip(wire string) string {
	if wire == RootSegment {
		return ""
	}
	return strings.TrimPrefix(wire, RootSegment+".")
}
