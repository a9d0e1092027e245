// Package wizard runs multi-stage guided tasks (the scan flow, the job
// matcher flow) as small state machines. Stages declare dependencies; a
// stage can only run once everything it depends on has completed, at most
// one stage is in flight at a time, and a quota refusal parks the wizard on
// an upsell interstitial without discarding completed stage outputs.
package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rezzy/internal/errors"

	"github.com/google/uuid"
)

// StageID names a stage within a flow.
type StageID string

// Outputs exposes completed stage results to later stages.
type Outputs interface {
	// Get returns the output of a completed stage.
	Get(id StageID) (any, bool)
}

// RunFunc executes one stage. input is the caller-supplied payload for this
// stage; prior holds the outputs of completed upstream stages.
type RunFunc func(ctx context.Context, input any, prior Outputs) (any, error)

// Stage is one step of a flow.
type Stage struct {
	ID        StageID
	Title     string
	DependsOn []StageID
	Run       RunFunc
}

// MetricsRecorder receives stage duration measurements. May be nil.
type MetricsRecorder interface {
	RecordStageDuration(ctx context.Context, flow, stage, outcome string, elapsed time.Duration)
}

// Wizard drives one instance of a flow. Safe for concurrent use.
type Wizard struct {
	mu sync.Mutex

	id     string
	flow   string
	stages []Stage
	index  map[StageID]int

	outputs   map[StageID]any
	completed map[StageID]bool
	inFlight  StageID
	upsell    bool

	metrics MetricsRecorder
	logger  *errors.Logger
	clock   func() time.Time
}

// New creates a wizard instance for the given stages. Stage dependencies
// must reference stages defined earlier in the slice.
func New(flow string, stages []Stage, metrics MetricsRecorder, logger *errors.Logger) (*Wizard, error) {
	index := make(map[StageID]int, len(stages))
	for i, st := range stages {
		if _, dup := index[st.ID]; dup {
			return nil, fmt.Errorf("duplicate stage %q in flow %q", st.ID, flow)
		}
		for _, dep := range st.DependsOn {
			if _, ok := index[dep]; !ok {
				return nil, fmt.Errorf("stage %q depends on undefined or later stage %q", st.ID, dep)
			}
		}
		index[st.ID] = i
	}

	return &Wizard{
		id:        uuid.NewString(),
		flow:      flow,
		stages:    stages,
		index:     index,
		outputs:   make(map[StageID]any),
		completed: make(map[StageID]bool),
		metrics:   metrics,
		logger:    logger,
		clock:     time.Now,
	}, nil
}

// ID returns the unique id of this wizard instance.
func (w *Wizard) ID() string { return w.id }

// Flow returns the flow name.
func (w *Wizard) Flow() string { return w.flow }

// Stages returns the stage definitions in order.
func (w *Wizard) Stages() []Stage { return w.stages }

// IsReachable reports whether every dependency of the stage has completed.
func (w *Wizard) IsReachable(id StageID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isReachableLocked(id)
}

func (w *Wizard) isReachableLocked(id StageID) bool {
	i, ok := w.index[id]
	if !ok {
		return false
	}
	for _, dep := range w.stages[i].DependsOn {
		if !w.completed[dep] {
			return false
		}
	}
	return true
}

// Completed reports whether the stage has run successfully.
func (w *Wizard) Completed(id StageID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completed[id]
}

// Output returns the result of a completed stage.
func (w *Wizard) Output(id StageID) (any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out, ok := w.outputs[id]
	return out, ok
}

// Upselling reports whether the wizard is parked on the upgrade
// interstitial after a quota refusal.
func (w *Wizard) Upselling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.upsell
}

// DismissUpsell clears the interstitial. Completed stage outputs were never
// discarded; the blocked stage may be advanced again (after an upgrade, or
// in a new month).
func (w *Wizard) DismissUpsell() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.upsell = false
}

// outputsView is a read-only snapshot handed to RunFuncs so stage code
// never touches wizard internals under its own lock.
type outputsView map[StageID]any

func (v outputsView) Get(id StageID) (any, bool) {
	out, ok := v[id]
	return out, ok
}

// Advance runs one stage. It fails without side effects when the stage is
// unknown, unreachable, or another stage is already in flight. A
// quota-exceeded failure additionally parks the wizard on the upsell
// interstitial; every completed output survives.
func (w *Wizard) Advance(ctx context.Context, id StageID, input any) (any, error) {
	w.mu.Lock()
	i, ok := w.index[id]
	if !ok {
		w.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeStageNotReachable,
			fmt.Sprintf("unknown stage %q in flow %q", id, w.flow), nil)
	}
	if w.inFlight != "" {
		inFlight := w.inFlight
		w.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeStageNotReachable,
			fmt.Sprintf("stage %q is already in flight", inFlight), nil)
	}
	if !w.isReachableLocked(id) {
		w.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeStageNotReachable,
			fmt.Sprintf("stage %q has incomplete dependencies", id), nil)
	}
	stage := w.stages[i]
	prior := make(outputsView, len(w.outputs))
	for k, v := range w.outputs {
		prior[k] = v
	}
	w.inFlight = id
	w.mu.Unlock()

	start := w.clock()
	out, err := stage.Run(ctx, input, prior)
	elapsed := w.clock().Sub(start)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = ""

	if err != nil {
		outcome := "error"
		if errors.IsQuotaExceeded(err) {
			// Park on the upsell interstitial. Upstream outputs stay put so
			// the user resumes exactly here after upgrading.
			w.upsell = true
			outcome = "quota_denied"
			w.logger.Info("Stage blocked by plan quota",
				"flow", w.flow,
				"stage", string(id),
				"wizard_id", w.id)
		}
		w.recordStage(ctx, string(id), outcome, elapsed)
		return nil, err
	}

	w.completed[id] = true
	w.outputs[id] = out
	w.recordStage(ctx, string(id), "completed", elapsed)
	w.logger.Debug("Stage completed",
		"flow", w.flow,
		"stage", string(id),
		"elapsed", elapsed)
	return out, nil
}

// Reset clears a stage and, transitively, every stage that depends on it.
// Resetting also clears the upsell interstitial.
func (w *Wizard) Reset(id StageID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.index[id]; !ok {
		return errors.NewValidationError(errors.ErrCodeStageNotReachable,
			fmt.Sprintf("unknown stage %q in flow %q", id, w.flow), nil)
	}
	if w.inFlight != "" {
		return errors.NewValidationError(errors.ErrCodeStageNotReachable,
			fmt.Sprintf("cannot reset while stage %q is in flight", w.inFlight), nil)
	}

	cleared := map[StageID]bool{id: true}
	// Stages are ordered after their dependencies, so one forward pass
	// finds the full dependent closure.
	for _, st := range w.stages {
		for _, dep := range st.DependsOn {
			if cleared[dep] {
				cleared[st.ID] = true
				break
			}
		}
	}

	for sid := range cleared {
		delete(w.completed, sid)
		delete(w.outputs, sid)
	}
	w.upsell = false

	w.logger.Debug("Stage reset", "flow", w.flow, "stage", string(id), "cleared", len(cleared))
	return nil
}

// Done reports whether every stage has completed.
func (w *Wizard) Done() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, st := range w.stages {
		if !w.completed[st.ID] {
			return false
		}
	}
	return true
}

func (w *Wizard) recordStage(ctx context.Context, stage, outcome string, elapsed time.Duration) {
	if w.metrics != nil {
		w.metrics.RecordStageDuration(ctx, w.flow, stage, outcome, elapsed)
	}
}
