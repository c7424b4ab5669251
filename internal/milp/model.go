package milp

import (
	"context"
	"fmt"
	"math"
)

// Direction is the optimization sense of a Model.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// Model is a mixed-integer linear program: a set of Variables, named
// Constraints and a linear objective, solved by branch-and-bound over an
// LP relaxation (see branchbound.go).
type Model struct {
	name      string
	direction Direction

	vars        []*Variable
	varsByName  map[string]int
	constraints []constraint
	constraintsByName map[string]int

	logger   Logger
	maxNodes int
}

// NewModel instantiates an empty model with the given name (purely
// informational, for logging and error messages) and optimization direction.
func NewModel(name string, dir Direction, opts ...Option) (*Model, error) {
	model := &Model{
		name:              name,
		direction:         dir,
		varsByName:        make(map[string]int),
		constraintsByName: make(map[string]int),
		logger:            noopLogger{},
	}

	for _, opt := range opts {
		if err := opt(model); err != nil {
			return nil, fmt.Errorf("milp: applying option: %w", err)
		}
	}

	return model, nil
}

// Name returns the model's name.
func (model *Model) Name() string {
	return model.name
}

// SetDirection changes the model's optimization direction.
func (model *Model) SetDirection(dir Direction) {
	model.direction = dir
}

// Direction returns the model's current optimization direction.
func (model *Model) Direction() Direction {
	return model.direction
}

// VariableCount returns the number of variables declared on the model.
func (model *Model) VariableCount() int {
	return len(model.vars)
}

// Variables returns the model's variables in declaration order. The
// returned slice is a copy of the internal bookkeeping slice header; the
// *Variable values themselves are still shared with the model.
func (model *Model) Variables() []*Variable {
	out := make([]*Variable, len(model.vars))
	copy(out, model.vars)
	return out
}

// AddVariable adds an unbounded continuous variable with objective
// coefficient 1.
func (model *Model) AddVariable(name string) (*Variable, error) {
	return model.AddDefinedVariable(name, ContinuousVariable, 1, math.Inf(-1), math.Inf(1))
}

// AddBinaryVariable adds a {0,1} variable with objective coefficient 1.
func (model *Model) AddBinaryVariable(name string) (*Variable, error) {
	return model.AddDefinedVariable(name, BinaryVariable, 1, 0, 1)
}

// AddIntegerVariable adds an unbounded integer variable with objective
// coefficient 1.
func (model *Model) AddIntegerVariable(name string) (*Variable, error) {
	return model.AddDefinedVariable(name, IntegerVariable, 1, math.Inf(-1), math.Inf(1))
}

// AddDefinedVariable adds a variable with every attribute given explicitly.
// If varType is BinaryVariable, lowerBound/upperBound are ignored in favor
// of [0, 1]. Names must be unique and non-empty, so that constraint rows
// and solver diagnostics can always name a variable deterministically;
// empty names are rejected rather than silently replaced.
func (model *Model) AddDefinedVariable(name string, varType VariableType, coefficient, lowerBound, upperBound float64) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("milp: variable name must not be empty")
	}
	if _, exists := model.varsByName[name]; exists {
		return nil, fmt.Errorf("milp: variable name %q already used", name)
	}

	v := &Variable{
		model:   model,
		index:   len(model.vars),
		name:    name,
		varType: varType,
		lower:   lowerBound,
		upper:   upperBound,
		objCoef: coefficient,
	}
	if varType == BinaryVariable {
		v.lower, v.upper = 0, 1
	}

	model.vars = append(model.vars, v)
	model.varsByName[name] = v.index

	return v, nil
}

// SetObjectiveFunction sets the coefficients of vars in the objective
// function in one call.
func (model *Model) SetObjectiveFunction(coefs []float64, vars []*Variable) error {
	if len(coefs) != len(vars) {
		return fmt.Errorf("milp: inconsistent number of variables and coefficients: %d != %d", len(vars), len(coefs))
	}
	for i, v := range vars {
		v.SetObjectiveCoefficient(coefs[i])
	}
	return nil
}

// Solve attempts to find an optimal solution to the model and blocks until
// branch-and-bound either proves optimality, exhausts the search space
// without a feasible integer solution, or hits the node cap set via
// WithMaxNodes.
func (model *Model) Solve() (*SolveResult, error) {
	return model.SolveWithContext(context.Background())
}

// SolveWithContext wraps Solve with a context: if ctx is cancelled or times
// out mid-search, the branch-and-bound loop stops at the next node boundary
// and returns ctx.Err(), along with the best incumbent found so far (if
// any) as res.
func (model *Model) SolveWithContext(ctx context.Context) (*SolveResult, error) {
	return model.branchAndBound(ctx)
}
