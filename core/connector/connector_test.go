package connector

import (
	"io"
	"os"
	"testing"

	"github.com/mdlkit/mdlkit/core/config"
	"github.com/mdlkit/mdlkit/core/engine"
	"github.com/mdlkit/mdlkit/core/locator"
	"github.com/mdlkit/mdlkit/core/logger"
	"github.com/mdlkit/mdlkit/core/memengine"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

var testStub = config.Stub{Width: 20, Height: 20, Gap: 60}

func newConnector(t *testing.T, models map[string]string) (*Connector, *memengine.MemEngine) {
	t.Helper()
	eng := memengine.New(locator.New([]string{t.TempDir()}))
	for name, src := range models {
		if err := eng.Register([]byte(src), name); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}
	return New(eng, testStub), eng
}

func runOn(t *testing.T, c *Connector, root string) Report {
	t.Helper()
	report, err := c.Run(root)
	if err != nil {
		t.Fatalf("Run(%s): %v", root, err)
	}
	return report
}

func assertConnected(t *testing.T, eng *memengine.MemEngine, port engine.PortRef) {
	t.Helper()
	connected, err := eng.Connected(port)
	if err != nil {
		t.Fatalf("Connected(%s): %v", port, err)
	}
	if !connected {
		t.Errorf("port %s still unconnected after run", port)
	}
}

func TestBasicBlockGetsBothStubs(t *testing.T) {
	c, eng := newConnector(t, map[string]string{
		"m": `
blocks:
  - name: gain
    position: {x: 100, y: 40, w: 30, h: 30}
`,
	})

	report := runOn(t, c, "m")
	if (report != Report{UnconnectedInputs: 1, UnconnectedOutputs: 1, ConnectionsMade: 2}) {
		t.Fatalf("report = %+v, want {1 1 2}", report)
	}

	assertConnected(t, eng, engine.PortRef{Block: "m/gain", Dir: engine.In, Index: 1})
	assertConnected(t, eng, engine.PortRef{Block: "m/gain", Dir: engine.Out, Index: 1})

	// Ground sits left of the block, terminator right, both gap-separated.
	ground, err := eng.Position("m/gain_gnd1")
	if err != nil {
		t.Fatalf("Position(m/gain_gnd1): %v", err)
	}
	if want := (engine.Rect{X: 20, Y: 40, W: 20, H: 20}); ground != want {
		t.Errorf("ground position = %+v, want %+v", ground, want)
	}
	term, err := eng.Position("m/gain_term1")
	if err != nil {
		t.Fatalf("Position(m/gain_term1): %v", err)
	}
	if want := (engine.Rect{X: 190, Y: 40, W: 20, H: 20}); term != want {
		t.Errorf("terminator position = %+v, want %+v", term, want)
	}
}

func TestTagBlockPolarity(t *testing.T) {
	// Inbound tags (inport, from) feed the container, so their dangling
	// side is an output port and the stub is a terminator. Outbound tags
	// (outport, goto) drain it, so they get a ground.
	c, eng := newConnector(t, map[string]string{
		"m": `
blocks:
  - name: src
    kind: inport
  - name: tagf
    kind: from
  - name: sink
    kind: outport
  - name: tagg
    kind: goto
`,
	})

	report := runOn(t, c, "m")
	if (report != Report{UnconnectedInputs: 2, UnconnectedOutputs: 2, ConnectionsMade: 4}) {
		t.Fatalf("report = %+v, want {2 2 4}", report)
	}

	children, err := eng.Children("m")
	if err != nil {
		t.Fatalf("Children(m): %v", err)
	}
	kinds := make(map[string]engine.BlockKind, len(children))
	for _, b := range children {
		kinds[b.Name] = b.Kind
	}
	for name, want := range map[string]engine.BlockKind{
		"src_term1":  engine.KindTerminator,
		"tagf_term1": engine.KindTerminator,
		"sink_gnd1":  engine.KindGround,
		"tagg_gnd1":  engine.KindGround,
	} {
		if got, ok := kinds[name]; !ok || got != want {
			t.Errorf("stub %s = %v (present: %v), want %v", name, got, ok, want)
		}
	}
}

func TestSinkKindsAreSkipped(t *testing.T) {
	c, eng := newConnector(t, map[string]string{
		"m": `
blocks:
  - name: g
    kind: ground
  - name: t
    kind: terminator
  - name: sc
    kind: scope
  - name: d
    kind: display
  - name: dl
    kind: data_log
`,
	})

	report := runOn(t, c, "m")
	if (report != Report{}) {
		t.Fatalf("report = %+v, want all zero", report)
	}
	if names := childNames(t, eng, "m"); len(names) != 5 {
		t.Errorf("children after run = %v, want the original five", names)
	}
}

func TestConnectedPortsLeftAlone(t *testing.T) {
	c, _ := newConnector(t, map[string]string{
		"m": `
blocks:
  - name: src
    kind: inport
  - name: gain
lines:
  - {from: src/out1, to: gain/in1}
`,
	})

	report := runOn(t, c, "m")
	if (report != Report{UnconnectedOutputs: 1, ConnectionsMade: 1}) {
		t.Fatalf("report = %+v, want {0 1 1}", report)
	}
}

func TestSubsystemContentsRepairedInPlace(t *testing.T) {
	c, eng := newConnector(t, map[string]string{
		"m": `
blocks:
  - name: plant
    kind: subsystem
    blocks:
      - name: core
`,
	})

	report := runOn(t, c, "m")
	if (report != Report{UnconnectedInputs: 1, UnconnectedOutputs: 1, ConnectionsMade: 2}) {
		t.Fatalf("report = %+v, want {1 1 2}", report)
	}
	// Stubs land inside the subsystem, next to the block they feed.
	assertConnected(t, eng, engine.PortRef{Block: "m/plant/core", Dir: engine.In, Index: 1})
	assertConnected(t, eng, engine.PortRef{Block: "m/plant/core", Dir: engine.Out, Index: 1})
}

func TestEveryVariantAlternativeRepaired(t *testing.T) {
	c, eng := newConnector(t, map[string]string{
		"m": `
blocks:
  - name: mode
    kind: variant_subsystem
    variants:
      - name: fast
        blocks:
          - name: f
      - name: slow
        blocks:
          - name: s
`,
	})

	report := runOn(t, c, "m")
	if (report != Report{UnconnectedInputs: 2, UnconnectedOutputs: 2, ConnectionsMade: 4}) {
		t.Fatalf("report = %+v, want {2 2 4}", report)
	}
	// The inactive alternative was repaired too, addressable through the
	// explicit choice segment.
	assertConnected(t, eng, engine.PortRef{Block: "m/mode/fast/f", Dir: engine.In, Index: 1})
	assertConnected(t, eng, engine.PortRef{Block: "m/mode/slow/s", Dir: engine.In, Index: 1})
	assertConnected(t, eng, engine.PortRef{Block: "m/mode/slow/s", Dir: engine.Out, Index: 1})
}

func TestSharedLibraryDefinitionRepairedOnce(t *testing.T) {
	// Two instances point at the same library definition; the definition
	// is shared, so its ports are counted and repaired a single time.
	c, eng := newConnector(t, map[string]string{
		"m": `
blocks:
  - name: r1
    kind: reference_subsystem
    library: libf/flt
  - name: r2
    kind: reference_subsystem
    library: libf/flt
`,
		"libf": `
blocks:
  - name: flt
    kind: subsystem
    blocks:
      - name: b1
`,
	})

	report := runOn(t, c, "m")
	if (report != Report{UnconnectedInputs: 1, UnconnectedOutputs: 1, ConnectionsMade: 2}) {
		t.Fatalf("report = %+v, want {1 1 2}", report)
	}
	assertConnected(t, eng, engine.PortRef{Block: "libf/flt/b1", Dir: engine.In, Index: 1})
}

func TestModelReferenceCycleTerminates(t *testing.T) {
	c, _ := newConnector(t, map[string]string{
		"m": `
blocks:
  - name: blk
  - name: r
    kind: model_reference
    target: m2
`,
		"m2": `
blocks:
  - name: blk
  - name: back
    kind: model_reference
    target: m
`,
	})

	report := runOn(t, c, "m")
	if (report != Report{UnconnectedInputs: 2, UnconnectedOutputs: 2, ConnectionsMade: 4}) {
		t.Fatalf("report = %+v, want {2 2 4}", report)
	}
}

func TestMissingReferenceTargetIsNotFatal(t *testing.T) {
	c, _ := newConnector(t, map[string]string{
		"m": `
blocks:
  - name: r
    kind: model_reference
    target: ghost
  - name: blk
`,
	})

	// ghost cannot be loaded; the sibling is still repaired.
	report := runOn(t, c, "m")
	if (report != Report{UnconnectedInputs: 1, UnconnectedOutputs: 1, ConnectionsMade: 2}) {
		t.Fatalf("report = %+v, want {1 1 2}", report)
	}
}

func TestFailedRepairCountsDetectionOnly(t *testing.T) {
	// A block already occupies the stub's deterministic name, so the
	// repair fails. The unconnected port is still counted.
	c, _ := newConnector(t, map[string]string{
		"m": `
blocks:
  - name: blk
    inputs: 1
    outputs: 0
  - name: blk_gnd1
    kind: ground
`,
	})

	report := runOn(t, c, "m")
	if (report != Report{UnconnectedInputs: 1}) {
		t.Fatalf("report = %+v, want {1 0 0}", report)
	}
}

func TestStubsSpreadOverBlockHeight(t *testing.T) {
	c, eng := newConnector(t, map[string]string{
		"m": `
blocks:
  - name: mix
    inputs: 3
    outputs: 0
    position: {x: 100, y: 60, w: 30, h: 60}
`,
	})

	report := runOn(t, c, "m")
	if (report != Report{UnconnectedInputs: 3, ConnectionsMade: 3}) {
		t.Fatalf("report = %+v, want {3 0 3}", report)
	}

	wantY := map[string]int{"m/mix_gnd1": 60, "m/mix_gnd2": 90, "m/mix_gnd3": 120}
	for path, y := range wantY {
		pos, err := eng.Position(path)
		if err != nil {
			t.Fatalf("Position(%s): %v", path, err)
		}
		if pos.X != 20 || pos.Y != y {
			t.Errorf("%s at (%d, %d), want (20, %d)", path, pos.X, pos.Y, y)
		}
	}
}

func TestRunFailsOnUnloadableRoot(t *testing.T) {
	c, _ := newConnector(t, nil)
	if _, err := c.Run("nope"); err == nil {
		t.Error("Run on unloadable root succeeded, want error")
	}
}

func TestStubName(t *testing.T) {
	tests := []struct {
		block string
		kind  engine.BlockKind
		index int
		want  string
	}{
		{"gain", engine.KindGround, 1, "gain_gnd1"},
		{"gain", engine.KindTerminator, 2, "gain_term2"},
		{"My Block-2", engine.KindGround, 1, "My_Block_2_gnd1"},
	}
	for _, tc := range tests {
		if got := stubName(tc.block, tc.kind, tc.index); got != tc.want {
			t.Errorf("stubName(%q, %v, %d) = %q, want %q", tc.block, tc.kind, tc.index, got, tc.want)
		}
	}
}

func TestParentContainer(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"m/gain", "m"},
		{"m/plant/core", "m/plant"},
		{"m", ""},
	}
	for _, tc := range tests {
		if got := parentContainer(tc.path); got != tc.want {
			t.Errorf("parentContainer(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func childNames(t *testing.T, eng *memengine.MemEngine, path string) []string {
	t.Helper()
	children, err := eng.Children(path)
	if err != nil {
		t.Fatalf("Children(%s): %v", path, err)
	}
	names := make([]string, len(children))
	for i, b := range children {
		names[i] = b.Name
	}
	return names
}
