package treepath

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldOnSlice is returned when a field segment addresses a slice.
	ErrFieldOnSlice = errors.New("field segment on an array")
	// ErrIndexOutOfRange is returned when an index lies past the end of a
	// slice. Appending at len is allowed.
	ErrIndexOutOfRange = errors.New("index past the end of the array")
)

// Get walks p from tree. It reports false as soon as an intermediate value is
// missing, null or not a container.
func Get(tree any, p Path) (any, bool) {
	cur := tree
	for _, seg := range p {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg.Key]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if !seg.IsIndex || seg.Index >= len(c) {
				return nil, false
			}
			cur = c[seg.Index]
		default:
			return nil, false
		}
	}
	return cur, true
}

// GetString is Get for a wire path.
func GetString(tree any, path string) (any, bool) {
	return Get(tree, Parse(path))
}

// Set returns a new tree in which the value at p is v. Only the spine from
// the root to the target is copied; every other subtree keeps its identity.
// Missing intermediates are created: a slice when the next segment is an
// index, a map otherwise. The empty path replaces the whole tree.
//
// When p cannot be honored (see TrySet) the original tree is returned
// unchanged.
func Set(tree any, p Path, v any) any {
	out, err := TrySet(tree, p, v)
	if err != nil {
		return tree
	}
	return out
}

// SetString is Set for a wire path.
func SetString(tree any, path string, v any) any {
	return Set(tree, Parse(path), v)
}

// TrySet is Set reporting why a path was refused: ErrFieldOnSlice for a
// field segment applied to a slice, ErrIndexOutOfRange for an index past the
// end of a slice. Slices only grow by appending one element, so a path can
// never force a large allocation.
func TrySet(tree any, p Path, v any) (any, error) {
	return set(tree, p, v)
}

func set(node any, p Path, v any) (any, error) {
	if len(p) == 0 {
		return v, nil
	}
	seg, rest := p[0], p[1:]

	switch c := node.(type) {
	case map[string]any:
		child, err := set(c[seg.Key], rest, v)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(c)+1)
		for k, val := range c {
			out[k] = val
		}
		out[seg.Key] = child
		return out, nil
	case []any:
		if !seg.IsIndex {
			return nil, fmt.Errorf("%w: %q", ErrFieldOnSlice, seg.Key)
		}
		if seg.Index > len(c) {
			return nil, fmt.Errorf("%w: %d, length %d", ErrIndexOutOfRange, seg.Index, len(c))
		}
		var cur any
		if seg.Index < len(c) {
			cur = c[seg.Index]
		}
		child, err := set(cur, rest, v)
		if err != nil {
			return nil, err
		}
		out := make([]any, max(len(c), seg.Index+1))
		copy(out, c)
		out[seg.Index] = child
		return out, nil
	default:
		// auto-vivify
		if seg.IsIndex {
			return set([]any{}, p, v)
		}
		return set(map[string]any{}, p, v)
	}
}

// Merge is the read-merge-write used by state patches: when both the current
// value at p and patch are objects, patch keys are laid over the current
// ones; otherwise patch replaces the value. Refused paths leave tree as is.
func Merge(tree any, p Path, patch any) any {
	out, err := TryMerge(tree, p, patch)
	if err != nil {
		return tree
	}
	return out
}

// TryMerge is Merge with the TrySet errors.
func TryMerge(tree any, p Path, patch any) (any, error) {
	cur, _ := Get(tree, p)
	cm, ok1 := cur.(map[string]any)
	pm, ok2 := patch.(map[string]any)
	if !ok1 || !ok2 {
		return TrySet(tree, p, patch)
	}
	merged := make(map[string]any, len(cm)+len(pm))
	for k, val := range cm {
		merged[k] = val
	}
	for k, val := range pm {
		merged[k] = val
	}
	return TrySet(tree, p, merged)
}

// Keys lists the segments of p as strings, the form used in log lines.
func (p Path) Keys() []string {
	out := make([]string, len(p))
	for i, seg := range p {
		out[i] = seg.Key
	}
	return out
}

// Depth of p.
func (p Path) Depth() int { return len(p) }

// Last returns the final segment, or the zero segment for the root.
func (p Path) Last() Segment {
	if len(p) == 0 {
		return Segment{}
	}
	return p[len(p)-1]
}

// Parent drops the final segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return append(Path(nil), p[:len(p)-1]...)
}
