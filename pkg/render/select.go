package render

import "github.com/aretw0/genui/pkg/treepath"

// Find returns the element rendered at the given node path.
func Find(root *Element, path string) *Element {
	want := treepath.Parse(path)
	var found *Element
	Walk(root, func(e *Element) {
		if found == nil && treepath.Parse(e.Path).Equal(want) {
			found = e
		}
	})
	return found
}

// Hit resolves a pointer target to the innermost element containing it. The
// target may address a node or any property inside one, such as
// "root.card.children.0.button.label".
func Hit(root *Element, target string) *Element {
	want := treepath.Parse(target)
	var best *Element
	bestDepth := -1
	Walk(root, func(e *Element) {
		p := treepath.Parse(e.Path)
		if want.HasPrefix(p) && len(p) > bestDepth {
			best, bestDepth = e, len(p)
		}
	})
	return best
}
