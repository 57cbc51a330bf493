// Package runner launches descent runs on background goroutines and
// exposes the poll/stop protocol the interactive caller drives.
package runner

import (
	"github.com/gradientlab/descent/internal/expr"
	"github.com/gradientlab/descent/internal/optimization"
	"github.com/gradientlab/descent/internal/optimization/descent"
)

// Outcome is the terminal value of a run: the result record, plus the
// loop-fatal error when the run ended because the objective became
// unevaluable at the current point. Exactly one Outcome is sent per run.
type Outcome struct {
	Result *optimization.Result
	Err    error
}

// Run is the handle to one in-flight optimization. It owns the stop token
// and the receive side of a capacity-1 result channel; the worker goroutine
// owns the send side and everything it captured at launch.
type Run struct {
	token   *optimization.Token
	results chan Outcome
}

// Start validates params synchronously and, if they are sound, launches the
// descent loop on its own goroutine.
//
// Parse errors, invalid expressions, a start point of the wrong arity, and
// out-of-range scalar parameters are all reported here, before any
// background work begins. The worker receives the parsed function, the
// start point, and the scalar options by value; after Start returns, the
// only shared state between caller and worker is the token and the channel.
func Start(params optimization.Params) (*Run, error) {
	if err := validate(params); err != nil {
		return nil, err
	}

	fn, err := expr.Parse(params.Formula, params.NumVars)
	if err != nil {
		return nil, err
	}

	start, err := optimization.ParsePoint(params.StartPoint, params.NumVars)
	if err != nil {
		return nil, err
	}

	opts := descent.Options{
		InitialStep:   params.InitialStep,
		StepDecay:     params.StepDecay,
		StepIncrease:  params.StepIncrease,
		Tolerance:     params.Tolerance,
		MaxIterations: params.MaxIterations,
	}

	run := &Run{
		token:   optimization.NewToken(),
		results: make(chan Outcome, 1),
	}

	go func() {
		result, err := descent.Minimize(fn.Evaluate, start, opts, run.token)
		run.results <- Outcome{Result: result, Err: err}
	}()

	return run, nil
}

// RequestStop asks the worker to terminate at its next iteration boundary.
// Non-blocking and idempotent; a no-op once the run has terminated.
func (r *Run) RequestStop() {
	r.token.Stop()
}

// Poll performs a non-blocking check for the run's outcome. It returns the
// outcome and true exactly once; before termination, and on every call
// after the successful one, it returns nil and false.
func (r *Run) Poll() (*Outcome, bool) {
	select {
	case out := <-r.results:
		return &out, true
	default:
		return nil, false
	}
}

func validate(params optimization.Params) error {
	switch {
	case params.NumVars < 1:
		return optimization.NewErrorf(optimization.KindDimension, "variable count must be at least 1, got %d", params.NumVars)
	case params.InitialStep <= 0:
		return optimization.NewErrorf(optimization.KindParams, "initial step must be positive, got %v", params.InitialStep)
	case params.StepDecay <= 0 || params.StepDecay >= 1:
		return optimization.NewErrorf(optimization.KindParams, "step decay must be in (0, 1), got %v", params.StepDecay)
	case params.StepIncrease <= 0:
		return optimization.NewErrorf(optimization.KindParams, "step increase must be positive, got %v", params.StepIncrease)
	case params.Tolerance <= 0:
		return optimization.NewErrorf(optimization.KindParams, "tolerance must be positive, got %v", params.Tolerance)
	case params.MaxIterations < 0:
		return optimization.NewErrorf(optimization.KindParams, "iteration cap must not be negative, got %d", params.MaxIterations)
	}
	return nil
}
