package connector

import (
	"fmt"
	"strings"

	"github.com/mdlkit/mdlkit/core/engine"
	"github.com/mdlkit/mdlkit/core/logger"
	"github.com/mdlkit/mdlkit/core/shared"
)

// repair attaches the opposite-polarity stub to an unconnected port:
// ground feeding an input-side port, terminator consuming an
// output-side port. Exactly one line runs between stub and port.
// Returns true when the stub and its line both landed.
func (c *Connector) repair(b engine.Block, port engine.PortRef, total int) bool {
	containerPath := parentContainer(b.Path)
	if containerPath == "" {
		logger.Error("Cannot repair %s: block has no parent container", b.Path)
		return false
	}

	kind := engine.KindTerminator
	if port.Dir == engine.In {
		kind = engine.KindGround
	}

	stubPath := containerPath + "/" + stubName(b.Name, kind, port.Index)
	if err := c.engine.AddBlock(kind, stubPath); err != nil {
		logger.Error("Cannot create %s for %s: %v", kind, port, err)
		return false
	}

	if err := c.engine.SetPosition(stubPath, c.placement(b, port, total)); err != nil {
		// Placement is cosmetic; the repair still counts if the line lands.
		logger.Warn("Cannot place %s: %v", stubPath, err)
	}

	src := engine.PortRef{Block: stubPath, Dir: engine.Out, Index: 1}
	dst := port
	if port.Dir == engine.Out {
		src = port
		dst = engine.PortRef{Block: stubPath, Dir: engine.In, Index: 1}
	}
	if err := c.engine.AddLine(containerPath, src, dst); err != nil {
		logger.Error("Cannot connect %s to %s: %v", stubPath, port, err)
		return false
	}

	logger.Info("Connected %s stub %s to %s", kind, stubPath, port)
	return true
}

// placement puts the stub beside the repaired block, opposite the
// port's flow direction, with the vertical offset spreading stubs over
// the block's height by port index.
func (c *Connector) placement(b engine.Block, port engine.PortRef, total int) engine.Rect {
	pos, err := c.engine.Position(b.Path)
	if err != nil {
		logger.Debug("No position for %s, placing stub at origin: %v", b.Path, err)
		pos = engine.Rect{}
	}

	x := pos.X + pos.W + c.stub.Gap
	if port.Dir == engine.In {
		x = pos.X - c.stub.Gap - c.stub.Width
	}

	y := pos.Y
	if total > 1 {
		y += pos.H * (port.Index - 1) / (total - 1)
	}

	return engine.Rect{X: x, Y: y, W: c.stub.Width, H: c.stub.Height}
}

// stubName derives the deterministic stub block name from the host
// block's name and the port index.
func stubName(blockName string, kind engine.BlockKind, index int) string {
	suffix := "term"
	if kind == engine.KindGround {
		suffix = "gnd"
	}
	return fmt.Sprintf("%s_%s%d", shared.SanitizeName(blockName), suffix, index)
}

// parentContainer strips the last path segment; an empty result means
// the path was a bare model name.
func parentContainer(path string) string {
	slash := strings.LastIndex(path, "/")
	if slash < 0 {
		return ""
	}
	return path[:slash]
}
