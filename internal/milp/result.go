package milp

import (
	"fmt"
	"math"
)

// SolveStatus reports where a SolveResult's values came from.
type SolveStatus int

const (
	// SolutionOptimal means branch-and-bound proved no better integer
	// solution exists.
	SolutionOptimal SolveStatus = iota
	// SolutionSuboptimal means a feasible integer solution was found but
	// the search was cut short (node cap, context cancellation) before
	// optimality could be proven.
	SolutionSuboptimal
)

// SolveError is returned by Solve/SolveWithContext when no usable solution
// could be produced at all.
type SolveError int

const (
	// ErrModelInfeasible means the LP relaxation of the root node has no
	// feasible point: the constraints themselves contradict each other.
	ErrModelInfeasible SolveError = iota
	// ErrModelUnbounded means the objective can be improved without limit.
	ErrModelUnbounded
	// ErrNoFeasibleFound means the root relaxation is feasible but no
	// branch produced an integer-feasible point (e.g. the node cap was
	// hit before finding one).
	ErrNoFeasibleFound
	// ErrNumericalFailure means the simplex tableau became degenerate in a
	// way the solver could not recover from (e.g. cycling past the
	// iteration cap).
	ErrNumericalFailure
)

func (e SolveError) Error() string {
	switch e {
	case ErrModelInfeasible:
		return "model is infeasible"
	case ErrModelUnbounded:
		return "model is unbounded"
	case ErrNoFeasibleFound:
		return "no integer-feasible solution found"
	case ErrNumericalFailure:
		return "numerical failure while solving"
	default:
		return fmt.Sprintf("milp: unrecognized solve error %d", int(e))
	}
}

// SolveResult holds a solution's variable assignment, objective value and
// status.
type SolveResult struct {
	model  *Model
	status SolveStatus
	values []float64 // indexed like model.vars
	obj    float64
}

// Status reports whether the solution is proven optimal or merely feasible.
func (res *SolveResult) Status() SolveStatus {
	return res.status
}

// Value returns the solved value of v, rounded to the nearest integer for
// Integer/BinaryVariable. Simplex arithmetic leaves these at floats near
// 0 or 1 rather than exact integers, so callers must not compare them
// for equality without this rounding.
func (res *SolveResult) Value(v *Variable) float64 {
	val := res.values[v.index]
	if v.varType != ContinuousVariable {
		return math.Round(val)
	}
	return val
}

// BoolValue is a convenience for binary decision variables: Value rounded
// and compared to 1.
func (res *SolveResult) BoolValue(v *Variable) bool {
	return res.Value(v) == 1
}

// ObjectiveValue returns the objective function's value at the solution.
// This is only a proven optimum if Status() == SolutionOptimal.
func (res *SolveResult) ObjectiveValue() float64 {
	return res.obj
}
