//go:build windows

package mic

import (
	"strconv"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// ConsentStoreKey is the per-user microphone consent store. Packaged apps
// are direct children; desktop apps live under NonPackaged.
const ConsentStoreKey = `Software\Microsoft\Windows\CurrentVersion\CapabilityAccessManager\ConsentStore\microphone`

func newPlatformStore() (Store, error) {
	return NewRegistryStore(ConsentStoreKey), nil
}

// RegistryStore walks the consent store under HKEY_CURRENT_USER. An app is
// capturing while its LastUsedTimeStop is zero.
type RegistryStore struct {
	root  string
	match MatchFunc
}

// NewRegistryStore creates a store rooted at path under HKCU.
func NewRegistryStore(path string) *RegistryStore {
	return &RegistryStore{root: path, match: ValueEquals(LastUsedStop, "0")}
}

// Root opens the consent store key.
func (s *RegistryStore) Root() (Node, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, s.root, registry.READ)
	if err != nil {
		return nil, err
	}
	k.Close()
	return &regNode{path: s.root}, nil
}

// Match implements Store.
func (s *RegistryStore) Match(n Node) bool { return s.match(n) }

// User implements Store.
func (s *RegistryStore) User(n Node) string {
	return ConsentUser(n.Name())
}

// regNode opens its key on every access; keys are deleted while apps exit.
type regNode struct {
	path string
}

func (n *regNode) Name() string {
	if i := strings.LastIndex(n.path, `\`); i >= 0 {
		return n.path[i+1:]
	}
	return n.path
}

func (n *regNode) Path() string { return n.path }

func (n *regNode) Value(name string) (string, bool) {
	k, err := registry.OpenKey(registry.CURRENT_USER, n.path, registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer k.Close()

	v, _, err := k.GetIntegerValue(name)
	if err != nil {
		return "", false
	}
	return strconv.FormatUint(v, 10), true
}

func (n *regNode) Children() ([]Node, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, n.path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, err
	}
	defer k.Close()

	names, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, &regNode{path: n.path + `\` + name})
	}
	return nodes, nil
}
