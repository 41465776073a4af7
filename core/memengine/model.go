package memengine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mdlkit/mdlkit/core/engine"
)

// model is one resident model: a named root container.
type model struct {
	name string
	root *container
}

// container holds blocks in declaration order plus the lines drawn
// between their ports. Models, subsystems, and variant alternatives are
// all containers.
type container struct {
	blocks []*node
	lines  []line
}

func (c *container) find(name string) *node {
	for _, b := range c.blocks {
		if b.name == name {
			return b
		}
	}
	return nil
}

// node is a single block. Exactly one of content/variants/target/library
// is meaningful, depending on kind.
type node struct {
	name    string
	kind    engine.BlockKind
	pos     engine.Rect
	in, out int

	content  *container // subsystem
	variants []*variant // variant subsystem
	active   string     // currently active variant choice
	target   string     // model reference
	library  string     // reference subsystem definition path
}

type variant struct {
	name    string
	content *container
}

func (n *node) variantNamed(name string) *variant {
	for _, v := range n.variants {
		if v.name == name {
			return v
		}
	}
	return nil
}

// line connects two ports of blocks in the same container. Endpoints are
// local: block name, direction, 1-based index.
type line struct {
	from, to endpoint
}

type endpoint struct {
	block string
	dir   engine.PortDir
	index int
}

func (e endpoint) String() string {
	return fmt.Sprintf("%s/%s%d", e.block, e.dir, e.index)
}

// parseEndpoint parses "gain1/out2" or "plant/in1".
func parseEndpoint(s string) (endpoint, error) {
	slash := strings.LastIndex(s, "/")
	if slash <= 0 || slash == len(s)-1 {
		return endpoint{}, fmt.Errorf("malformed line endpoint %q", s)
	}
	block, port := s[:slash], s[slash+1:]

	var dir engine.PortDir
	switch {
	case strings.HasPrefix(port, "out"):
		dir = engine.Out
		port = strings.TrimPrefix(port, "out")
	case strings.HasPrefix(port, "in"):
		dir = engine.In
		port = strings.TrimPrefix(port, "in")
	default:
		return endpoint{}, fmt.Errorf("endpoint %q: port must be inN or outN", s)
	}

	index, err := strconv.Atoi(port)
	if err != nil || index < 1 {
		return endpoint{}, fmt.Errorf("endpoint %q: bad port index", s)
	}
	return endpoint{block: block, dir: dir, index: index}, nil
}

// touches reports whether the line has an endpoint on the given port.
func (l line) touches(block string, dir engine.PortDir, index int) bool {
	for _, e := range []endpoint{l.from, l.to} {
		if e.block == block && e.dir == dir && e.index == index {
			return true
		}
	}
	return false
}

// containerAt resolves a container path down from the model root and
// returns the container plus the path prefix its children carry.
//
// A variant subsystem segment may be followed by a choice segment
// ("model/ctrl/pid"); without one the active choice is entered, and the
// returned prefix always spells the choice out.
func (m *model) containerAt(path string) (*container, string, error) {
	segments := strings.Split(path, "/")
	if segments[0] != m.name {
		return nil, "", fmt.Errorf("path %q is not inside model %q", path, m.name)
	}

	c := m.root
	prefix := m.name
	for i := 1; i < len(segments); i++ {
		s := segments[i]
		n := c.find(s)
		if n == nil {
			return nil, "", fmt.Errorf("block %q not found in %q", s, prefix)
		}

		switch n.kind {
		case engine.KindSubsystem:
			c = n.content
			prefix += "/" + s

		case engine.KindVariantSubsystem:
			choice := n.active
			if i+1 < len(segments) {
				next := segments[i+1]
				if n.variantNamed(next) == nil {
					return nil, "", fmt.Errorf("variant subsystem %q has no choice %q", prefix+"/"+s, next)
				}
				choice = next
				i++
			}
			if choice == "" {
				return nil, "", fmt.Errorf("variant subsystem %q has no active choice", prefix+"/"+s)
			}
			v := n.variantNamed(choice)
			if v == nil {
				return nil, "", fmt.Errorf("variant subsystem %q: choice %q missing", prefix+"/"+s, choice)
			}
			c = v.content
			prefix += "/" + s + "/" + choice

		default:
			return nil, "", fmt.Errorf("block %q in %q is not a container", s, prefix)
		}
	}
	return c, prefix, nil
}

// locate resolves a block path: every segment but the last navigates
// containers, the last names a block. The containing container is
// returned alongside the node.
func (m *model) locate(blockPath string) (*node, *container, error) {
	slash := strings.LastIndex(blockPath, "/")
	if slash < 0 {
		return nil, nil, fmt.Errorf("path %q names a model, not a block", blockPath)
	}
	parent, name := blockPath[:slash], blockPath[slash+1:]

	c, prefix, err := m.containerAt(parent)
	if err != nil {
		return nil, nil, err
	}
	n := c.find(name)
	if n == nil {
		return nil, nil, fmt.Errorf("block %q not found in %q", name, prefix)
	}
	return n, c, nil
}

// connected reports whether any line in the container touches the port.
func (c *container) connected(block string, dir engine.PortDir, index int) bool {
	for _, l := range c.lines {
		if l.touches(block, dir, index) {
			return true
		}
	}
	return false
}

// portCounts resolves a node's port counts, deriving them for plain
// subsystems from inport/outport children when not set explicitly.
func (n *node) portCounts() (int, int) {
	if n.in != 0 || n.out != 0 {
		return n.in, n.out
	}
	if n.kind == engine.KindSubsystem && n.content != nil {
		in, out := 0, 0
		for _, b := range n.content.blocks {
			switch b.kind {
			case engine.KindInport:
				in++
			case engine.KindOutport:
				out++
			}
		}
		return in, out
	}
	return n.in, n.out
}

// defaultPorts is the per-kind port signature used when a model file
// does not spell counts out. Tag blocks expose their single relevant
// port; basic blocks default to one of each.
func defaultPorts(kind engine.BlockKind) (in, out int) {
	switch kind {
	case engine.KindBasic:
		return 1, 1
	case engine.KindInport, engine.KindFrom, engine.KindGround:
		return 0, 1
	case engine.KindOutport, engine.KindGoto, engine.KindTerminator:
		return 1, 0
	case engine.KindScope, engine.KindDisplay, engine.KindDataLog:
		return 1, 0
	default:
		return 0, 0
	}
}
