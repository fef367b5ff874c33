package pipeline

import "sync"

// DebugInfo accumulates per-stage telemetry during one enrichment request:
// how long each stage took, how many AI attempts it needed, which model
// answered, and stage-specific dumps like the retrieved question list. It is
// surfaced to operators; nothing in the pipeline reads it back.
//
// All methods are safe for concurrent use and are no-ops on a nil receiver,
// so callers that don't want telemetry can pass nil.
type DebugInfo struct {
	mu     sync.Mutex
	stages map[string]map[string]any
}

// NewDebugInfo creates an empty accumulator.
func NewDebugInfo() *DebugInfo {
	return &DebugInfo{stages: make(map[string]map[string]any)}
}

// Set records one value under a stage.
func (d *DebugInfo) Set(stage, key string, value any) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stages[stage] == nil {
		d.stages[stage] = make(map[string]any)
	}
	d.stages[stage][key] = value
}

// Stage returns a copy of one stage's recorded values.
func (d *DebugInfo) Stage(stage string) map[string]any {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	src := d.stages[stage]
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Snapshot returns a copy of everything recorded so far.
func (d *DebugInfo) Snapshot() map[string]map[string]any {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]map[string]any, len(d.stages))
	for stage, values := range d.stages {
		cp := make(map[string]any, len(values))
		for k, v := range values {
			cp[k] = v
		}
		out[stage] = cp
	}
	return out
}
