package memengine

import (
	"fmt"
	"strings"

	"github.com/mdlkit/mdlkit/core/engine"
	"github.com/mdlkit/mdlkit/core/locator"
	"github.com/mdlkit/mdlkit/core/logger"
)

// MemEngine is the file-backed reference implementation of
// engine.Engine. Models load from YAML model files resolved through a
// locator and stay resident until unloaded. All access is synchronous
// and single-threaded, matching the traversal tools' call discipline.
type MemEngine struct {
	locator *locator.Locator
	models  map[string]*model
}

var _ engine.Engine = (*MemEngine)(nil)

func New(loc *locator.Locator) *MemEngine {
	return &MemEngine{
		locator: loc,
		models:  make(map[string]*model),
	}
}

// Register makes a pre-built model resident without touching the
// filesystem. Tests and programmatic callers use it.
func (me *MemEngine) Register(data []byte, name string) error {
	m, err := parseModel(data, name)
	if err != nil {
		return err
	}
	me.models[m.name] = m
	return nil
}

func (me *MemEngine) LoadModel(nameOrPath string) error {
	if isFilePath(nameOrPath) {
		m, err := parseModelFile(nameOrPath)
		if err != nil {
			return err
		}
		if _, resident := me.models[m.name]; resident {
			logger.Debug("Model %s already resident, load is a no-op", m.name)
			return nil
		}
		me.models[m.name] = m
		logger.Debug("Loaded model %s from %s", m.name, nameOrPath)
		return nil
	}

	if _, resident := me.models[nameOrPath]; resident {
		logger.Debug("Model %s already resident, load is a no-op", nameOrPath)
		return nil
	}

	path, err := me.locator.Resolve(nameOrPath)
	if err != nil {
		return fmt.Errorf("failed to locate model %s: %w", nameOrPath, err)
	}
	m, err := parseModelFile(path)
	if err != nil {
		return err
	}
	// A file declaring a different name would poison later lookups.
	if m.name != nameOrPath {
		return fmt.Errorf("model file %s declares name %q, expected %q", path, m.name, nameOrPath)
	}
	me.models[m.name] = m
	logger.Debug("Loaded model %s from %s", m.name, path)
	return nil
}

func (me *MemEngine) ModelLoaded(name string) bool {
	_, resident := me.models[name]
	return resident
}

func (me *MemEngine) UnloadModel(name string) error {
	if _, resident := me.models[name]; !resident {
		return fmt.Errorf("model %s is not loaded", name)
	}
	delete(me.models, name)
	logger.Debug("Unloaded model %s", name)
	return nil
}

// modelFor maps a hierarchical path to its resident model via the first
// path segment.
func (me *MemEngine) modelFor(path string) (*model, error) {
	name := path
	if slash := strings.IndexRune(path, '/'); slash >= 0 {
		name = path[:slash]
	}
	m, resident := me.models[name]
	if !resident {
		return nil, fmt.Errorf("model %s is not loaded", name)
	}
	return m, nil
}

func (me *MemEngine) Children(containerPath string) ([]engine.Block, error) {
	m, err := me.modelFor(containerPath)
	if err != nil {
		return nil, err
	}
	c, prefix, err := m.containerAt(containerPath)
	if err != nil {
		return nil, err
	}

	children := make([]engine.Block, 0, len(c.blocks))
	for _, b := range c.blocks {
		children = append(children, engine.Block{
			Name: b.name,
			Path: prefix + "/" + b.name,
			Kind: b.kind,
		})
	}
	return children, nil
}

func (me *MemEngine) node(blockPath string) (*node, *container, error) {
	m, err := me.modelFor(blockPath)
	if err != nil {
		return nil, nil, err
	}
	return m.locate(blockPath)
}

func (me *MemEngine) ReferencedModel(blockPath string) (string, error) {
	n, _, err := me.node(blockPath)
	if err != nil {
		return "", err
	}
	if n.kind != engine.KindModelReference {
		return "", fmt.Errorf("block %s is not a model reference", blockPath)
	}
	return n.target, nil
}

func (me *MemEngine) LibraryRef(blockPath string) (string, error) {
	n, _, err := me.node(blockPath)
	if err != nil {
		return "", err
	}
	if n.kind != engine.KindReferenceSubsystem {
		return "", fmt.Errorf("block %s is not a reference subsystem", blockPath)
	}
	return n.library, nil
}

func (me *MemEngine) VariantChoices(blockPath string) ([]string, error) {
	n, _, err := me.node(blockPath)
	if err != nil {
		return nil, err
	}
	if n.kind != engine.KindVariantSubsystem {
		return nil, fmt.Errorf("block %s is not a variant subsystem", blockPath)
	}
	choices := make([]string, 0, len(n.variants))
	for _, v := range n.variants {
		choices = append(choices, v.name)
	}
	return choices, nil
}

func (me *MemEngine) ActivateVariant(blockPath, choice string) error {
	n, _, err := me.node(blockPath)
	if err != nil {
		return err
	}
	if n.kind != engine.KindVariantSubsystem {
		return fmt.Errorf("block %s is not a variant subsystem", blockPath)
	}
	if n.variantNamed(choice) == nil {
		return fmt.Errorf("variant subsystem %s has no choice %q", blockPath, choice)
	}
	n.active = choice
	logger.Debug("Activated variant %s on %s", choice, blockPath)
	return nil
}

func (me *MemEngine) PortCounts(blockPath string) (int, int, error) {
	n, _, err := me.node(blockPath)
	if err != nil {
		return 0, 0, err
	}
	in, out := n.portCounts()
	return in, out, nil
}

func (me *MemEngine) Connected(port engine.PortRef) (bool, error) {
	n, parent, err := me.node(port.Block)
	if err != nil {
		return false, err
	}

	in, out := n.portCounts()
	if port.Index < 1 ||
		(port.Dir == engine.In && port.Index > in) ||
		(port.Dir == engine.Out && port.Index > out) {
		return false, fmt.Errorf("block %s has no %s port %d", port.Block, port.Dir, port.Index)
	}

	return parent.connected(n.name, port.Dir, port.Index), nil
}

func (me *MemEngine) AddBlock(kind engine.BlockKind, path string) error {
	m, err := me.modelFor(path)
	if err != nil {
		return err
	}

	slash := strings.LastIndex(path, "/")
	if slash < 0 {
		return fmt.Errorf("block path %q has no parent container", path)
	}
	parentPath, name := path[:slash], path[slash+1:]

	c, _, err := m.containerAt(parentPath)
	if err != nil {
		return err
	}
	if c.find(name) != nil {
		return fmt.Errorf("block %q already exists in %s", name, parentPath)
	}

	n := &node{name: name, kind: kind}
	n.in, n.out = defaultPorts(kind)
	c.blocks = append(c.blocks, n)
	logger.Debug("Created %s block %s", kind, path)
	return nil
}

func (me *MemEngine) Position(blockPath string) (engine.Rect, error) {
	n, _, err := me.node(blockPath)
	if err != nil {
		return engine.Rect{}, err
	}
	return n.pos, nil
}

func (me *MemEngine) SetPosition(blockPath string, r engine.Rect) error {
	n, _, err := me.node(blockPath)
	if err != nil {
		return err
	}
	n.pos = r
	return nil
}

func (me *MemEngine) AddLine(containerPath string, src, dst engine.PortRef) error {
	m, err := me.modelFor(containerPath)
	if err != nil {
		return err
	}
	c, prefix, err := m.containerAt(containerPath)
	if err != nil {
		return err
	}

	from, err := me.localEndpoint(c, prefix, src)
	if err != nil {
		return err
	}
	to, err := me.localEndpoint(c, prefix, dst)
	if err != nil {
		return err
	}
	if from.dir != engine.Out || to.dir != engine.In {
		return fmt.Errorf("line must run out -> in, got %s -> %s", from, to)
	}

	c.lines = append(c.lines, line{from: from, to: to})
	logger.Debug("Connected %s -> %s in %s", from, to, containerPath)
	return nil
}

// localEndpoint converts a full-path PortRef into a container-local line
// endpoint, verifying the block lives directly in the container.
func (me *MemEngine) localEndpoint(c *container, prefix string, port engine.PortRef) (endpoint, error) {
	if !strings.HasPrefix(port.Block, prefix+"/") {
		return endpoint{}, fmt.Errorf("block %s is not inside container %s", port.Block, prefix)
	}
	name := strings.TrimPrefix(port.Block, prefix+"/")
	if strings.ContainsRune(name, '/') {
		return endpoint{}, fmt.Errorf("block %s is not an immediate child of %s", port.Block, prefix)
	}
	if c.find(name) == nil {
		return endpoint{}, fmt.Errorf("block %q not found in container %s", name, prefix)
	}
	return endpoint{block: name, dir: port.Dir, index: port.Index}, nil
}
