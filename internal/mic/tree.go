// Package mic finds the processes currently capturing audio by walking a
// platform capture store: the ALSA procfs tree on Linux and the capability
// consent store in the registry on Windows.
package mic

// Node is one key of a hierarchical key/value store.
type Node interface {
	Name() string
	Path() string
	// Value returns a named value of this key.
	Value(name string) (string, bool)
	// Children lists the subkeys. Keys can disappear while the tree is
	// being walked, so callers must tolerate errors here.
	Children() ([]Node, error)
}

// MatchFunc selects nodes during a walk.
type MatchFunc func(Node) bool

// ValueEquals matches nodes whose value name equals want.
func ValueEquals(name, want string) MatchFunc {
	return func(n Node) bool {
		v, ok := n.Value(name)
		return ok && v == want
	}
}

// Walk visits root and every descendant depth-first in pre-order and returns
// the matching nodes. Only a failure to list root is returned; subtrees that
// cannot be listed are skipped.
func Walk(root Node, match MatchFunc) ([]Node, error) {
	var matched []Node
	if match(root) {
		matched = append(matched, root)
	}

	children, err := root.Children()
	if err != nil {
		return nil, err
	}

	stack := make([]Node, 0, len(children))
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, children[i])
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if match(n) {
			matched = append(matched, n)
		}

		kids, err := n.Children()
		if err != nil {
			continue
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return matched, nil
}
