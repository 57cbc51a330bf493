// Package descent implements adaptive-step steepest descent with a
// forward-difference gradient estimate.
package descent

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gradientlab/descent/internal/optimization"
)

const (
	// DefaultEpsilon is the finite-difference perturbation used by the loop.
	DefaultEpsilon = 1e-6

	// maxBacktracks bounds the step-size search within one iteration.
	maxBacktracks = 20

	// maxStepSize clamps the persisted step after growth, so a run of easy
	// acceptances cannot build a step that overshoots everything afterwards.
	maxStepSize = 1.0
)

// Options holds the step-control parameters of a run.
type Options struct {
	// InitialStep is the first trial step size.
	InitialStep float64
	// StepDecay shrinks a rejected trial step, in (0, 1).
	StepDecay float64
	// StepIncrease grows the persisted step after an acceptance.
	StepIncrease float64
	// Tolerance is the gradient-norm convergence threshold.
	Tolerance float64
	// MaxIterations caps the number of accepted steps.
	MaxIterations int
}

// Gradient estimates the gradient of f at x by one-sided finite differences
// with perturbation eps. It evaluates f exactly len(x)+1 times: once at the
// base point, reused for every coordinate, plus one perturbed evaluation per
// coordinate. Evaluation errors propagate unchanged.
func Gradient(f optimization.Objective, x []float64, eps float64) ([]float64, error) {
	if eps <= 0 {
		return nil, optimization.NewErrorf(optimization.KindEval, "perturbation must be positive, got %v", eps)
	}

	base, err := f(x)
	if err != nil {
		return nil, err
	}

	grad := make([]float64, len(x))
	perturbed := make([]float64, len(x))
	for i := range x {
		copy(perturbed, x)
		perturbed[i] += eps
		fi, err := f(perturbed)
		if err != nil {
			return nil, err
		}
		grad[i] = (fi - base) / eps
	}
	return grad, nil
}

// Minimize runs the adaptive descent loop from start until convergence,
// stall, iteration exhaustion, or a stop request on the token.
//
// The persisted step size carries across iterations: it grows by
// opts.StepIncrease (clamped to 1.0) on every acceptance and each rejected
// trial shrinks the current trial by opts.StepDecay, with at most 20 trials
// per iteration. An evaluation error at a trial point counts as one more
// rejected trial; an error evaluating the current point (the start, or any
// gradient computation) is fatal and is returned alongside the partial
// result accumulated so far.
func Minimize(f optimization.Objective, start []float64, opts Options, stop *optimization.Token) (*optimization.Result, error) {
	x := append([]float64(nil), start...)
	fX, err := f(x)
	if err != nil {
		return nil, optimization.WrapError(err, optimization.ErrorKind(err), "objective is undefined at the start point")
	}

	history := []optimization.Snapshot{optimization.NewSnapshot(x, fX)}
	step := opts.InitialStep
	iter := 0

	result := func(early bool) *optimization.Result {
		return &optimization.Result{
			Point:           x,
			Value:           fX,
			Iterations:      iter,
			History:         history,
			TerminatedEarly: early,
		}
	}

	for iter < opts.MaxIterations {
		if stop.Stopped() {
			return result(true), nil
		}

		grad, err := Gradient(f, x, DefaultEpsilon)
		if err != nil {
			return result(false), err
		}

		if floats.Norm(grad, 2) < opts.Tolerance {
			break
		}

		direction := make([]float64, len(grad))
		for i, g := range grad {
			direction[i] = -g
		}

		trial := step
		candidate := make([]float64, len(x))
		accepted := false
		for t := 0; t < maxBacktracks; t++ {
			floats.AddScaledTo(candidate, x, trial, direction)
			fTrial, err := f(candidate)
			if err == nil && fTrial < fX {
				x = append([]float64(nil), candidate...)
				fX = fTrial
				step = math.Min(opts.StepIncrease*trial, maxStepSize)
				accepted = true
				break
			}
			// A failed or non-improving trial shrinks the step and retries
			// from the same base point.
			trial *= opts.StepDecay
		}

		if !accepted {
			// No improving step in maxBacktracks trials: stalled.
			break
		}

		iter++
		history = append(history, optimization.NewSnapshot(x, fX))
	}

	return result(false), nil
}
