package mic

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bluele/gcache"
)

const (
	asoundPath = "/proc/asound"
	procPath   = "/proc"

	commCacheSize = 128
	commCacheTTL  = 30 * time.Second
)

// Capture substreams live at cardN/pcmMc/subK. Playback (pcmMp) is skipped.
var alsaLevels = []*regexp.Regexp{
	regexp.MustCompile(`^card[0-9]+$`),
	regexp.MustCompile(`^pcm[0-9]+c$`),
	regexp.MustCompile(`^sub[0-9]+$`),
}

// ALSAStore walks the ALSA procfs tree. A capture substream is active while
// its status file reports "state: RUNNING".
type ALSAStore struct {
	root  string
	proc  string
	match MatchFunc
	comm  gcache.Cache
}

// NewALSAStore creates a store over asoundRoot, resolving owner PIDs under
// procRoot. Empty paths select the live /proc tree.
func NewALSAStore(asoundRoot, procRoot string) *ALSAStore {
	if asoundRoot == "" {
		asoundRoot = asoundPath
	}
	if procRoot == "" {
		procRoot = procPath
	}

	s := &ALSAStore{
		root:  asoundRoot,
		proc:  procRoot,
		match: ValueEquals("state", "RUNNING"),
	}
	s.comm = gcache.New(commCacheSize).
		LRU().
		Expiration(commCacheTTL).
		LoaderFunc(func(key any) (any, error) {
			pid, _, _ := strings.Cut(key.(string), "@")
			return s.readComm(pid)
		}).
		Build()
	return s
}

// Root implements Store.
func (s *ALSAStore) Root() (Node, error) {
	if _, err := os.Stat(s.root); err != nil {
		return nil, fmt.Errorf("open capture store: %w", err)
	}
	return &alsaNode{path: s.root, depth: 0}, nil
}

// Match implements Store.
func (s *ALSAStore) Match(n Node) bool { return s.match(n) }

// User returns the process name of the stream owner, or the substream path
// when the owner is gone. Names are cached per process start time so a
// reused PID is not reported under its previous owner's name.
func (s *ALSAStore) User(n Node) string {
	pid, ok := n.Value("owner_pid")
	if !ok || pid == "" {
		return n.Path()
	}

	start, ok := s.startTime(pid)
	if !ok {
		name, err := s.readComm(pid)
		if err != nil {
			return n.Path()
		}
		return name
	}

	v, err := s.comm.Get(pid + "@" + start)
	if err != nil {
		return n.Path()
	}
	return v.(string)
}

func (s *ALSAStore) readComm(pid string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.proc, pid, "comm"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// startTime returns field 22 of /proc/PID/stat. The command name in field 2
// may hold spaces and parentheses, so fields are counted from its closing
// parenthesis.
func (s *ALSAStore) startTime(pid string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(s.proc, pid, "stat"))
	if err != nil {
		return "", false
	}
	i := bytes.LastIndexByte(data, ')')
	if i < 0 {
		return "", false
	}
	fields := strings.Fields(string(data[i+1:]))
	if len(fields) < 20 {
		return "", false
	}
	return fields[19], true
}

type alsaNode struct {
	path  string
	depth int

	status map[string]string
	loaded bool
}

func (n *alsaNode) Name() string { return filepath.Base(n.path) }

func (n *alsaNode) Path() string { return n.path }

func (n *alsaNode) Value(name string) (string, bool) {
	if n.depth != len(alsaLevels) {
		return "", false
	}
	if !n.loaded {
		n.status = readStatus(filepath.Join(n.path, "status"))
		n.loaded = true
	}
	v, ok := n.status[name]
	return v, ok
}

func (n *alsaNode) Children() ([]Node, error) {
	if n.depth >= len(alsaLevels) {
		return nil, nil
	}
	entries, err := os.ReadDir(n.path)
	if err != nil {
		return nil, err
	}

	pattern := alsaLevels[n.depth]
	var nodes []Node
	for _, e := range entries {
		if !e.IsDir() || !pattern.MatchString(e.Name()) {
			continue
		}
		nodes = append(nodes, &alsaNode{path: filepath.Join(n.path, e.Name()), depth: n.depth + 1})
	}
	return nodes, nil
}

// readStatus parses "key: value" lines. A closed substream has the single
// line "closed" and yields no values.
func readStatus(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	values := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return values
}
