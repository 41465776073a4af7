package memengine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdlkit/mdlkit/core/engine"
	"github.com/mdlkit/mdlkit/core/locator"
	"gopkg.in/yaml.v3"
)

// Model file schema. A model is a tree of block specs; subsystems and
// variant alternatives nest their own blocks and lines.
type modelFile struct {
	Name   string      `yaml:"name"`
	Blocks []blockSpec `yaml:"blocks"`
	Lines  []lineSpec  `yaml:"lines"`
}

type blockSpec struct {
	Name     string        `yaml:"name"`
	Kind     string        `yaml:"kind"`
	Inputs   *int          `yaml:"inputs"`
	Outputs  *int          `yaml:"outputs"`
	Position *rectSpec     `yaml:"position"`
	Target   string        `yaml:"target"`  // model_reference
	Library  string        `yaml:"library"` // reference_subsystem
	Active   string        `yaml:"active"`  // variant_subsystem
	Blocks   []blockSpec   `yaml:"blocks"`
	Lines    []lineSpec    `yaml:"lines"`
	Variants []variantSpec `yaml:"variants"`
}

type variantSpec struct {
	Name   string      `yaml:"name"`
	Blocks []blockSpec `yaml:"blocks"`
	Lines  []lineSpec  `yaml:"lines"`
}

type lineSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type rectSpec struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// parseModelFile reads and validates one model file from disk.
func parseModelFile(path string) (*model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return parseModel(data, name)
}

// parseModel builds a model from YAML bytes. fallbackName is used when
// the file carries no name of its own.
func parseModel(data []byte, fallbackName string) (*model, error) {
	var mf modelFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse model yaml: %w", err)
	}

	name := mf.Name
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		return nil, fmt.Errorf("model has no name")
	}

	root, err := buildContainer(mf.Blocks, mf.Lines)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	return &model{name: name, root: root}, nil
}

func buildContainer(blocks []blockSpec, lines []lineSpec) (*container, error) {
	c := &container{}
	for _, bs := range blocks {
		n, err := buildNode(bs)
		if err != nil {
			return nil, err
		}
		if c.find(n.name) != nil {
			return nil, fmt.Errorf("duplicate block name %q", n.name)
		}
		c.blocks = append(c.blocks, n)
	}
	for _, ls := range lines {
		l, err := buildLine(ls)
		if err != nil {
			return nil, err
		}
		c.lines = append(c.lines, l)
	}
	return c, nil
}

func buildNode(bs blockSpec) (*node, error) {
	if bs.Name == "" {
		return nil, fmt.Errorf("block with empty name")
	}

	n := &node{
		name: bs.Name,
		kind: engine.KindFromString(bs.Kind),
	}
	if bs.Position != nil {
		n.pos = engine.Rect{X: bs.Position.X, Y: bs.Position.Y, W: bs.Position.W, H: bs.Position.H}
	}

	n.in, n.out = defaultPorts(n.kind)
	if bs.Inputs != nil {
		n.in = *bs.Inputs
	}
	if bs.Outputs != nil {
		n.out = *bs.Outputs
	}

	switch n.kind {
	case engine.KindSubsystem:
		content, err := buildContainer(bs.Blocks, bs.Lines)
		if err != nil {
			return nil, fmt.Errorf("subsystem %q: %w", bs.Name, err)
		}
		n.content = content
		// Derived counts unless spelled out.
		if bs.Inputs == nil && bs.Outputs == nil {
			n.in, n.out = 0, 0
		}

	case engine.KindVariantSubsystem:
		if len(bs.Variants) == 0 {
			return nil, fmt.Errorf("variant subsystem %q has no variants", bs.Name)
		}
		for _, vs := range bs.Variants {
			if vs.Name == "" {
				return nil, fmt.Errorf("variant subsystem %q: variant with empty name", bs.Name)
			}
			content, err := buildContainer(vs.Blocks, vs.Lines)
			if err != nil {
				return nil, fmt.Errorf("variant %q/%q: %w", bs.Name, vs.Name, err)
			}
			n.variants = append(n.variants, &variant{name: vs.Name, content: content})
		}
		n.active = bs.Active
		if n.active == "" {
			n.active = n.variants[0].name
		}
		if n.variantNamed(n.active) == nil {
			return nil, fmt.Errorf("variant subsystem %q: unknown active choice %q", bs.Name, n.active)
		}

	case engine.KindModelReference:
		if bs.Target == "" {
			return nil, fmt.Errorf("model reference %q has no target", bs.Name)
		}
		n.target = bs.Target

	case engine.KindReferenceSubsystem:
		if bs.Library == "" {
			return nil, fmt.Errorf("reference subsystem %q has no library", bs.Name)
		}
		n.library = bs.Library
	}

	return n, nil
}

func buildLine(ls lineSpec) (line, error) {
	from, err := parseEndpoint(ls.From)
	if err != nil {
		return line{}, err
	}
	to, err := parseEndpoint(ls.To)
	if err != nil {
		return line{}, err
	}
	return line{from: from, to: to}, nil
}

// isFilePath distinguishes an explicit model file path from a bare model
// name: anything with a path separator or a recognized extension is a
// path.
func isFilePath(nameOrPath string) bool {
	if strings.ContainsRune(nameOrPath, os.PathSeparator) || strings.ContainsRune(nameOrPath, '/') {
		return true
	}
	return locator.IsModelFile(nameOrPath)
}
