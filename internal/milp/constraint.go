package milp

import "fmt"

// constraint is a row of the model: lower <= sum(coef_i * x_i) <= upper,
// either bound may be +/-Inf.
type constraint struct {
	name   string
	lower  float64
	upper  float64
	coefs  map[int]float64 // variable index -> coefficient
}

// Constraint is an opaque handle to a previously added constraint, returned
// so callers can refer back to it (e.g. for logging) without re-deriving
// its name.
type Constraint struct {
	model *Model
	index int
}

// Name returns the constraint's name.
func (c *Constraint) Name() string {
	return c.model.constraints[c.index].name
}

// AddConstraint adds a named linear constraint `lower <= sum(coefs[i]*vars[i]) <= upper`
// to the model. Passing math.Inf(-1) for lower or math.Inf(1) for upper drops
// that side. A name is required and must be unique within the model so that
// solver diagnostics remain attributable (spec: "Name the ... constraints
// deterministically").
func (model *Model) AddConstraint(name string, lower, upper float64, vars []*Variable, coefs []float64) (*Constraint, error) {
	if len(vars) != len(coefs) {
		return nil, fmt.Errorf("milp: inconsistent number of variables and coefficients: %d != %d", len(vars), len(coefs))
	}
	if name == "" {
		return nil, fmt.Errorf("milp: constraint name must not be empty")
	}
	if _, exists := model.constraintsByName[name]; exists {
		return nil, fmt.Errorf("milp: constraint name %q already used", name)
	}

	row := constraint{
		name:  name,
		lower: lower,
		upper: upper,
		coefs: make(map[int]float64, len(vars)),
	}
	for i, v := range vars {
		if v.model != model {
			return nil, fmt.Errorf("milp: variable %q does not belong to this model", v.name)
		}
		row.coefs[v.index] += coefs[i]
	}

	idx := len(model.constraints)
	model.constraints = append(model.constraints, row)
	model.constraintsByName[name] = idx

	return &Constraint{model: model, index: idx}, nil
}

// ConstraintCount returns the number of constraints added to the model.
func (model *Model) ConstraintCount() int {
	return len(model.constraints)
}
