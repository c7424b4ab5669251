package milp

import (
	"context"
	"math"
)

// integralityEps is how close a relaxed value must be to an integer to be
// accepted as integral without branching further.
const integralityEps = 1e-6

// node is one entry of the branch-and-bound stack: a set of variable bound
// overrides tightened relative to the model's own declared bounds.
type node struct {
	over map[int]bounds
}

// branchAndBound is the solving strategy behind Solve/SolveWithContext: a
// depth-first branch-and-bound search over the variables marked Integer or
// BinaryVariable, using the tableau simplex in simplex.go to solve each
// node's LP relaxation. Branching always splits on the first (lowest
// variable-index) fractional integrality-constrained variable, and always
// explores the floor branch before the ceiling branch, so two runs over an
// unchanged model produce byte-identical results (spec: reproducibility).
func (model *Model) branchAndBound(ctx context.Context) (*SolveResult, error) {
	stack := []node{{over: map[int]bounds{}}}

	var incumbent *SolveResult
	var incumbentReal float64

	nodesExplored := 0
	isRoot := true

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			if incumbent != nil {
				incumbent.status = SolutionSuboptimal
				return incumbent, err
			}
			return nil, err
		}
		if model.maxNodes > 0 && nodesExplored >= model.maxNodes {
			break
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodesExplored++

		relax := model.buildRelaxation(n.over)
		form := relax.toStandardForm()
		y, _, status := form.solve()

		switch status {
		case simplexInfeasible:
			if isRoot {
				return nil, ErrModelInfeasible
			}
			isRoot = false
			continue
		case simplexUnbounded:
			return nil, ErrModelUnbounded
		case simplexNumericalFailure:
			return nil, ErrNumericalFailure
		}
		isRoot = false

		values := relax.variableValues(y)
		realObj := model.realObjective(values)

		if incumbent != nil && !model.improves(realObj, incumbentReal) {
			continue // bounded: this subtree cannot beat the incumbent
		}

		branchVar, branchVal, fractional := model.firstFractional(values)
		if !fractional {
			model.logger.Print("milp: integer-feasible node, objective=", realObj)
			incumbent = &SolveResult{model: model, status: SolutionOptimal, values: values, obj: realObj}
			incumbentReal = realObj
			continue
		}

		floor := math.Floor(branchVal)
		ceil := math.Ceil(branchVal)
		lo, hi := model.vars[branchVar].boundsOrOverride(n.over, branchVar)

		ceilOver := cloneBounds(n.over)
		ceilOver[branchVar] = bounds{lower: ceil, upper: hi}

		floorOver := cloneBounds(n.over)
		floorOver[branchVar] = bounds{lower: lo, upper: floor}

		// push ceil first so floor is explored first (LIFO stack)
		stack = append(stack, node{over: ceilOver}, node{over: floorOver})
	}

	if incumbent == nil {
		return nil, ErrNoFeasibleFound
	}
	if model.maxNodes > 0 && nodesExplored >= model.maxNodes {
		incumbent.status = SolutionSuboptimal
	}
	return incumbent, nil
}

// improves reports whether candidate is a strict improvement over
// incumbent, honoring the model's optimization direction.
func (model *Model) improves(candidate, incumbent float64) bool {
	if model.direction == Maximize {
		return candidate > incumbent+simplexEps
	}
	return candidate < incumbent-simplexEps
}

func (model *Model) realObjective(values []float64) float64 {
	total := 0.0
	for j, v := range model.vars {
		total += v.objCoef * values[j]
	}
	return total
}

// firstFractional returns the lowest-index Integer/BinaryVariable whose
// relaxed value is not within integralityEps of an integer.
func (model *Model) firstFractional(values []float64) (idx int, val float64, found bool) {
	for j, v := range model.vars {
		if v.varType == ContinuousVariable {
			continue
		}
		rounded := math.Round(values[j])
		if math.Abs(values[j]-rounded) > integralityEps {
			return j, values[j], true
		}
	}
	return 0, 0, false
}

func (v *Variable) boundsOrOverride(over map[int]bounds, idx int) (lo, hi float64) {
	if b, ok := over[idx]; ok {
		return b.lower, b.upper
	}
	return v.lower, v.upper
}

func cloneBounds(in map[int]bounds) map[int]bounds {
	out := make(map[int]bounds, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
