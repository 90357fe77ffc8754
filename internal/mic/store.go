package mic

import "errors"

// ErrUnsupported is returned where no capture store exists.
var ErrUnsupported = errors.New("capture store not supported on this platform")

// Store is a capture store: a tree, the rule marking an active capture and
// the mapping from an active node to a user name.
type Store interface {
	Root() (Node, error)
	Match(n Node) bool
	User(n Node) string
}

// NewPlatformStore returns the capture store of the running OS.
func NewPlatformStore() (Store, error) {
	return newPlatformStore()
}
