package mic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memNode is an in-memory key for walk tests.
type memNode struct {
	name     string
	path     string
	values   map[string]string
	children []*memNode
	err      error
}

func (n *memNode) Name() string { return n.name }
func (n *memNode) Path() string { return n.path }

func (n *memNode) Value(name string) (string, bool) {
	v, ok := n.values[name]
	return v, ok
}

func (n *memNode) Children() ([]Node, error) {
	if n.err != nil {
		return nil, n.err
	}
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}

func key(name string, values map[string]string, children ...*memNode) *memNode {
	n := &memNode{name: name, path: name, values: values, children: children}
	for _, c := range children {
		c.prefix(name)
	}
	return n
}

func (n *memNode) prefix(p string) {
	n.path = p + `\` + n.path
	for _, c := range n.children {
		c.prefix(p)
	}
}

func stop(v string) map[string]string {
	return map[string]string{LastUsedStop: v}
}

func consentTree() *memNode {
	return key("microphone", nil,
		key("Microsoft.WindowsSoundRecorder_8wekyb3d8bbwe", stop("0")),
		key("Microsoft.SkypeApp_kzf8qxf38zg5c", stop("133512345678901234")),
		key("NonPackaged", nil,
			key("C:#Program Files#Zoom#bin#Zoom.exe", stop("0")),
			key("C:#Windows#System32#mmsys.exe", stop("133512345678000000")),
		),
	)
}

func names(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func TestWalk_FindsActiveConsentKeys(t *testing.T) {
	nodes, err := Walk(consentTree(), ValueEquals(LastUsedStop, "0"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Microsoft.WindowsSoundRecorder_8wekyb3d8bbwe",
		"C:#Program Files#Zoom#bin#Zoom.exe",
	}, names(nodes))
	assert.Equal(t, `microphone\NonPackaged\C:#Program Files#Zoom#bin#Zoom.exe`, nodes[1].Path())
}

func TestWalk_PreOrder(t *testing.T) {
	tree := key("a", nil,
		key("b", nil, key("c", nil)),
		key("d", nil),
	)

	var visited []string
	_, err := Walk(tree, func(n Node) bool {
		visited = append(visited, n.Name())
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, visited)
}

func TestWalk_MatchedNodesAreDescended(t *testing.T) {
	tree := key("root", nil,
		key("outer", stop("0"),
			key("inner", stop("0")),
		),
	)

	nodes, err := Walk(tree, ValueEquals(LastUsedStop, "0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, names(nodes))
}

func TestWalk_RootIsTested(t *testing.T) {
	nodes, err := Walk(key("solo", stop("0")), ValueEquals(LastUsedStop, "0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, names(nodes))
}

func TestWalk_SkipsVanishedSubtrees(t *testing.T) {
	gone := key("gone", stop("0"))
	gone.err = errors.New("key deleted")
	tree := key("root", nil, gone, key("alive", stop("0")))

	nodes, err := Walk(tree, ValueEquals(LastUsedStop, "0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"gone", "alive"}, names(nodes))
}

func TestWalk_RootError(t *testing.T) {
	root := key("root", nil)
	root.err = errors.New("access denied")

	_, err := Walk(root, ValueEquals(LastUsedStop, "0"))
	assert.Error(t, err)
}

func TestConsentUser(t *testing.T) {
	assert.Equal(t, `C:\Program Files\Zoom\bin\Zoom.exe`, ConsentUser("C:#Program Files#Zoom#bin#Zoom.exe"))
	assert.Equal(t, "Microsoft.WindowsSoundRecorder_8wekyb3d8bbwe", ConsentUser("Microsoft.WindowsSoundRecorder_8wekyb3d8bbwe"))
}
