package optimization

import (
	"strconv"
	"strings"
)

// Objective is the scalar function being minimized. Implementations must be
// pure: the same point always yields the same value.
type Objective func(x []float64) (float64, error)

// Snapshot records one accepted step of the trajectory: the first two
// coordinates of the point and the objective value there. For
// one-dimensional problems X1 is zero so the shape stays uniform for
// plotting consumers.
type Snapshot struct {
	X0    float64 `json:"x0"`
	X1    float64 `json:"x1"`
	Value float64 `json:"value"`
}

// Result is the terminal record of a run. It is created exactly once, at
// loop exit, and is immutable thereafter.
type Result struct {
	// Point is the final point reached.
	Point []float64 `json:"point"`
	// Value is the objective value at Point.
	Value float64 `json:"value"`
	// Iterations is the number of accepted steps actually performed.
	Iterations int `json:"iterations"`
	// History holds the initial snapshot plus one snapshot per accepted
	// iteration, so len(History) == Iterations+1.
	History []Snapshot `json:"history"`
	// TerminatedEarly is true when the run ended due to a user stop
	// request, false for convergence, stall, or iteration exhaustion.
	TerminatedEarly bool `json:"terminatedEarly"`
}

// Params are the inputs an external caller supplies to start a run.
type Params struct {
	// Formula is the objective function text over variables x1..xn.
	Formula string `json:"formula"`
	// NumVars is the declared dimensionality n, at least 1.
	NumVars int `json:"numVars"`
	// StartPoint is the comma-separated list of n starting coordinates.
	StartPoint string `json:"startPoint"`
	// InitialStep is the step size the backtracking search begins with.
	InitialStep float64 `json:"initialStep"`
	// StepDecay multiplies a rejected trial step, in (0, 1).
	StepDecay float64 `json:"stepDecay"`
	// StepIncrease multiplies the persisted step after an accepted trial;
	// the grown step is clamped to 1.0.
	StepIncrease float64 `json:"stepIncrease"`
	// Tolerance is the gradient-norm convergence threshold.
	Tolerance float64 `json:"tolerance"`
	// MaxIterations caps the number of accepted steps.
	MaxIterations int `json:"maxIterations"`
}

// ParsePoint parses a comma-separated list of reals and checks it has
// exactly n entries.
func ParsePoint(text string, n int) ([]float64, error) {
	parts := strings.Split(text, ",")
	point := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, WrapError(err, KindDimension, "start point is not a list of numbers")
		}
		point = append(point, v)
	}
	if len(point) != n {
		return nil, NewErrorf(KindDimension, "start point has %d coordinates, expected %d", len(point), n)
	}
	return point, nil
}

// NewSnapshot builds a trajectory snapshot from a point and its value.
func NewSnapshot(x []float64, value float64) Snapshot {
	s := Snapshot{X0: x[0], Value: value}
	if len(x) > 1 {
		s.X1 = x[1]
	}
	return s
}
