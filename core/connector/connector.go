package connector

import (
	"fmt"
	"strings"

	"github.com/mdlkit/mdlkit/core/config"
	"github.com/mdlkit/mdlkit/core/engine"
	"github.com/mdlkit/mdlkit/core/logger"
)

// Report is the outcome of one connector run. Unconnected counts are
// incremented at detection; ConnectionsMade only on successful repair,
// so ConnectionsMade <= UnconnectedInputs + UnconnectedOutputs with
// equality unless a repair attempt failed.
type Report struct {
	UnconnectedInputs  int
	UnconnectedOutputs int
	ConnectionsMade    int
}

func (r Report) String() string {
	return fmt.Sprintf("unconnected inputs: %d, unconnected outputs: %d, connections made: %d",
		r.UnconnectedInputs, r.UnconnectedOutputs, r.ConnectionsMade)
}

// Connector walks a model's full hierarchy and wires every unconnected
// port to a stub: ground for input-side ports, terminator for
// output-side ports.
type Connector struct {
	engine engine.Engine
	stub   config.Stub
}

func New(eng engine.Engine, stub config.Stub) *Connector {
	return &Connector{engine: eng, stub: stub}
}

// runContext is the state of one Run invocation, threaded through the
// whole recursion: the shared visited set for models and library
// definitions, plus the report accumulators.
type runContext struct {
	visited map[string]bool
	report  Report
}

// Run repairs every unconnected port reachable from the root model and
// returns the counters. The mutated models stay resident in the engine;
// persisting them is the host's save operation, not Run's.
func (c *Connector) Run(root string) (Report, error) {
	if err := c.engine.LoadModel(root); err != nil {
		return Report{}, fmt.Errorf("failed to load root model %s: %w", root, err)
	}

	run := &runContext{visited: make(map[string]bool)}
	run.visited[root] = true
	logger.Info("Connecting unconnected ports in model %s", root)
	c.walkContainer(root, run)

	return run.report, nil
}

// walkContainer visits every child of a container. Each child is
// independently guarded: a failure affects only that block's subtree.
func (c *Connector) walkContainer(path string, run *runContext) {
	children, err := c.engine.Children(path)
	if err != nil {
		logger.Error("Cannot list children of %s: %v", path, err)
		return
	}
	for _, b := range children {
		c.visitBlock(b, run)
	}
}

// visitBlock classifies one block and dispatches on its kind. The rule
// order matters: skip-list first, containers next, tag blocks, then the
// plain-block default.
func (c *Connector) visitBlock(b engine.Block, run *runContext) {
	logger.Debug("Visiting %s (%s)", b.Path, b.Kind)

	switch {
	case b.Kind.NeedsNoConnection():
		logger.Debug("Skipping %s: %s needs no connection", b.Path, b.Kind)

	case b.Kind == engine.KindVariantSubsystem:
		c.visitVariant(b, run)

	case b.Kind == engine.KindReferenceSubsystem:
		c.visitReference(b, run)

	case b.Kind == engine.KindSubsystem:
		c.walkContainer(b.Path, run)

	case b.Kind == engine.KindModelReference:
		c.visitModelReference(b, run)

	case b.Kind == engine.KindInport || b.Kind == engine.KindFrom:
		// Inbound tag blocks carry a single output-side port.
		c.inspectPort(b, engine.PortRef{Block: b.Path, Dir: engine.Out, Index: 1}, 1, run)

	case b.Kind == engine.KindOutport || b.Kind == engine.KindGoto:
		// Outbound tag blocks carry a single input-side port.
		c.inspectPort(b, engine.PortRef{Block: b.Path, Dir: engine.In, Index: 1}, 1, run)

	default:
		c.visitBasic(b, run)
	}
}

// visitVariant activates every alternative in declaration order and
// repairs each one, not just the alternative active at invocation time.
func (c *Connector) visitVariant(b engine.Block, run *runContext) {
	choices, err := c.engine.VariantChoices(b.Path)
	if err != nil {
		logger.Error("Cannot list variants of %s: %v", b.Path, err)
		return
	}
	for _, choice := range choices {
		if err := c.engine.ActivateVariant(b.Path, choice); err != nil {
			logger.Error("Cannot activate variant %s on %s: %v", choice, b.Path, err)
			continue
		}
		logger.Info("Entering variant %s/%s", b.Path, choice)
		c.walkContainer(b.Path, run)
	}
}

// visitReference recurses into a reference subsystem's shared library
// definition. The definition path is the visited-set key, so a
// definition instantiated many times is repaired exactly once.
func (c *Connector) visitReference(b engine.Block, run *runContext) {
	ref, err := c.engine.LibraryRef(b.Path)
	if err != nil {
		logger.Error("Cannot read library reference of %s: %v", b.Path, err)
		return
	}
	if run.visited[ref] {
		logger.Debug("Library definition %s already repaired, skipping", ref)
		return
	}
	run.visited[ref] = true

	library := ref
	if slash := strings.IndexRune(ref, '/'); slash >= 0 {
		library = ref[:slash]
	}
	if !c.engine.ModelLoaded(library) {
		if err := c.engine.LoadModel(library); err != nil {
			logger.Error("Cannot load library %s for %s: %v", library, b.Path, err)
			return
		}
	}

	logger.Info("Entering library definition %s", ref)
	c.walkContainer(ref, run)
}

// visitModelReference recurses into the referenced model as a new
// traversal root sharing the same visited set and report.
func (c *Connector) visitModelReference(b engine.Block, run *runContext) {
	target, err := c.engine.ReferencedModel(b.Path)
	if err != nil {
		logger.Error("Cannot read reference target of %s: %v", b.Path, err)
		return
	}
	if run.visited[target] {
		logger.Debug("Model %s already repaired, skipping", target)
		return
	}
	run.visited[target] = true

	if !c.engine.ModelLoaded(target) {
		if err := c.engine.LoadModel(target); err != nil {
			logger.Error("Cannot load referenced model %s: %v", target, err)
			return
		}
	}

	logger.Info("Entering referenced model %s", target)
	c.walkContainer(target, run)
}

// visitBasic inspects every port of a plain block; each unconnected one
// is repaired independently.
func (c *Connector) visitBasic(b engine.Block, run *runContext) {
	in, out, err := c.engine.PortCounts(b.Path)
	if err != nil {
		logger.Error("Cannot read ports of %s: %v", b.Path, err)
		return
	}
	for i := 1; i <= in; i++ {
		c.inspectPort(b, engine.PortRef{Block: b.Path, Dir: engine.In, Index: i}, in, run)
	}
	for i := 1; i <= out; i++ {
		c.inspectPort(b, engine.PortRef{Block: b.Path, Dir: engine.Out, Index: i}, out, run)
	}
}

// inspectPort checks one port and repairs it when unconnected. total is
// the block's port count in the port's direction, for stub placement.
func (c *Connector) inspectPort(b engine.Block, port engine.PortRef, total int, run *runContext) {
	connected, err := c.engine.Connected(port)
	if err != nil {
		logger.Error("Cannot inspect port %s: %v", port, err)
		return
	}
	if connected {
		return
	}

	if port.Dir == engine.In {
		run.report.UnconnectedInputs++
		logger.Info("Unconnected input port %s", port)
	} else {
		run.report.UnconnectedOutputs++
		logger.Info("Unconnected output port %s", port)
	}

	if c.repair(b, port, total) {
		run.report.ConnectionsMade++
	}
}
