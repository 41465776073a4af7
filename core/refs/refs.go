package refs

import (
	"fmt"

	"github.com/mdlkit/mdlkit/core/engine"
	"github.com/mdlkit/mdlkit/core/locator"
	"github.com/mdlkit/mdlkit/core/logger"
)

// Finder enumerates every model reachable from a root model through
// model-reference blocks.
type Finder struct {
	engine  engine.Engine
	locator *locator.Locator
}

func NewFinder(eng engine.Engine, loc *locator.Locator) *Finder {
	return &Finder{engine: eng, locator: loc}
}

// findRun is the state of one Find invocation: the cycle guard and the
// insertion-ordered accumulation list. Nothing survives across runs.
type findRun struct {
	visited map[string]bool
	seen    map[string]bool
	found   []string
}

// Find returns the ordered, duplicate-free list of models referenced
// from root, directly or transitively. The root itself is excluded.
// Every listed model the walk could load is resident when Find returns.
func (f *Finder) Find(root string) ([]string, error) {
	if err := f.engine.LoadModel(root); err != nil {
		return nil, fmt.Errorf("failed to load root model %s: %w", root, err)
	}

	run := &findRun{
		visited: make(map[string]bool),
		seen:    make(map[string]bool),
	}
	// The root is never part of its own result, even when a reference
	// cycle leads back to it.
	run.seen[root] = true
	f.walk(root, run)
	f.resolveMissing(run)

	return run.found, nil
}

// walk expands one model: collect its reference edges in declaration
// order, record each new target, and recurse into it before moving to
// the next sibling edge. The visited set guards cycles and diamonds.
func (f *Finder) walk(name string, run *findRun) {
	if run.visited[name] {
		logger.Debug("Model %s already visited, skipping", name)
		return
	}
	run.visited[name] = true

	if !f.engine.ModelLoaded(name) {
		if err := f.engine.LoadModel(name); err != nil {
			logger.Warn("Cannot load model %s: %v", name, err)
			return
		}
	}
	logger.Info("Scanning model %s", name)

	targets := f.referenceEdges(name)
	for _, target := range targets {
		if !run.seen[target] {
			run.seen[target] = true
			run.found = append(run.found, target)
			logger.Info("Found referenced model %s (via %s)", target, name)
		}
		f.walk(target, run)
	}
}

// referenceEdges lists the targets of every model-reference block inside
// the named model, in declaration order, without crossing into other
// models. Subsystems are descended directly; variant subsystems have
// every alternative activated in turn so references in inactive
// alternatives are not missed.
func (f *Finder) referenceEdges(model string) []string {
	var targets []string
	f.collectEdges(model, &targets)
	return targets
}

func (f *Finder) collectEdges(containerPath string, targets *[]string) {
	children, err := f.engine.Children(containerPath)
	if err != nil {
		logger.Warn("Cannot list children of %s: %v", containerPath, err)
		return
	}

	for _, b := range children {
		switch b.Kind {
		case engine.KindModelReference:
			target, err := f.engine.ReferencedModel(b.Path)
			if err != nil {
				logger.Warn("Cannot read reference target of %s: %v", b.Path, err)
				continue
			}
			*targets = append(*targets, target)

		case engine.KindSubsystem:
			f.collectEdges(b.Path, targets)

		case engine.KindVariantSubsystem:
			choices, err := f.engine.VariantChoices(b.Path)
			if err != nil {
				logger.Warn("Cannot list variants of %s: %v", b.Path, err)
				continue
			}
			for _, choice := range choices {
				if err := f.engine.ActivateVariant(b.Path, choice); err != nil {
					logger.Warn("Cannot activate variant %s on %s: %v", choice, b.Path, err)
					continue
				}
				f.collectEdges(b.Path, targets)
			}
		}
	}
}

// resolveMissing is the best-effort second pass: any recorded model the
// walk failed to load is probed on the filesystem through the locator's
// extension candidates. Failures stay in the result list regardless.
func (f *Finder) resolveMissing(run *findRun) {
	for _, name := range run.found {
		if f.engine.ModelLoaded(name) {
			continue
		}
		path, err := f.locator.Resolve(name)
		if err != nil {
			logger.Warn("Referenced model %s not found on disk: %v", name, err)
			continue
		}
		if err := f.engine.LoadModel(path); err != nil {
			logger.Warn("Failed to load %s from %s: %v", name, path, err)
			continue
		}
		logger.Info("Resolved missing model %s from %s", name, path)
	}
}
