package engine

import "fmt"

// BlockKind tags every block in a model. The traversal tools dispatch on
// it exhaustively; anything not listed here behaves as KindBasic.
type BlockKind int

const (
	// KindBasic is an ordinary computational block.
	KindBasic BlockKind = iota

	// Containers.
	KindSubsystem
	KindVariantSubsystem
	KindReferenceSubsystem // contents defined by a shared library block
	KindModelReference     // embeds a separate model as a black box

	// Directional tag blocks. Inport/Outport cross the boundary of the
	// enclosing container; From/Goto are the named-channel pair.
	KindInport
	KindOutport
	KindFrom
	KindGoto

	// Stubs created by the connector.
	KindGround
	KindTerminator

	// Sink-style blocks that never need a connection made for them.
	KindScope
	KindDisplay
	KindDataLog
)

var kindNames = map[BlockKind]string{
	KindBasic:              "basic",
	KindSubsystem:          "subsystem",
	KindVariantSubsystem:   "variant_subsystem",
	KindReferenceSubsystem: "reference_subsystem",
	KindModelReference:     "model_reference",
	KindInport:             "inport",
	KindOutport:            "outport",
	KindFrom:               "from",
	KindGoto:               "goto",
	KindGround:             "ground",
	KindTerminator:         "terminator",
	KindScope:              "scope",
	KindDisplay:            "display",
	KindDataLog:            "data_log",
}

func (k BlockKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "basic"
}

// KindFromString maps a model-file tag back to a BlockKind. Unknown tags
// fall through to KindBasic, keeping the kind set open on the wire.
func KindFromString(s string) BlockKind {
	for kind, name := range kindNames {
		if name == s {
			return kind
		}
	}
	return KindBasic
}

// NeedsNoConnection reports whether the connector skips this kind
// entirely: its ports are never inspected and never counted.
func (k BlockKind) NeedsNoConnection() bool {
	switch k {
	case KindGround, KindTerminator, KindScope, KindDisplay, KindDataLog:
		return true
	}
	return false
}

// PortDir is the direction of a port relative to its block.
type PortDir int

const (
	In PortDir = iota
	Out
)

func (d PortDir) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// Block is one entry in a container, as returned by Children.
type Block struct {
	Name string
	Path string // hierarchical path, e.g. "plant/controller/gain1"
	Kind BlockKind
}

// PortRef addresses a single port: block path, direction, and the
// 1-based index within that direction.
type PortRef struct {
	Block string
	Dir   PortDir
	Index int
}

func (p PortRef) String() string {
	return fmt.Sprintf("%s/%s%d", p.Block, p.Dir, p.Index)
}

// Rect is a block's placement: top-left corner plus extent.
type Rect struct {
	X, Y, W, H int
}

// Engine is the host modeling engine the traversal tools run against.
// Implementations own all model state; the tools hold none of their own
// beyond run-scoped accumulators.
type Engine interface {
	// LoadModel makes the named model resident, resolving a bare name or
	// an explicit file path. Loading an already-resident model is a no-op.
	LoadModel(nameOrPath string) error
	// ModelLoaded reports whether the named model is resident.
	ModelLoaded(name string) bool
	// UnloadModel drops a resident model, discarding unsaved mutations.
	UnloadModel(name string) error

	// Children lists the immediate children of a container path (a model
	// name or a subsystem path) in declaration order. For a variant
	// subsystem the children are the active alternative's content.
	Children(containerPath string) ([]Block, error)

	// ReferencedModel returns the target model name of a model-reference
	// block.
	ReferencedModel(blockPath string) (string, error)
	// LibraryRef returns the shared definition path of a reference
	// subsystem, e.g. "libfilters/iir".
	LibraryRef(blockPath string) (string, error)
	// VariantChoices lists a variant subsystem's alternatives in
	// declaration order.
	VariantChoices(blockPath string) ([]string, error)
	// ActivateVariant materializes the named alternative as the variant
	// subsystem's content.
	ActivateVariant(blockPath, choice string) error

	// PortCounts returns the number of input and output ports on a block.
	PortCounts(blockPath string) (in, out int, err error)
	// Connected reports whether a line is attached to the port.
	Connected(port PortRef) (bool, error)

	// AddBlock creates a block of the given kind at path; the parent
	// container must exist.
	AddBlock(kind BlockKind, path string) error
	// Position returns a block's placement.
	Position(blockPath string) (Rect, error)
	// SetPosition moves a block.
	SetPosition(blockPath string, r Rect) error
	// AddLine connects src to dst inside the given container.
	AddLine(containerPath string, src, dst PortRef) error
}
