package milp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveContinuousLP(t *testing.T) {
	model, err := NewModel("bounded-sum", Maximize)
	require.NoError(t, err)

	x, err := model.AddDefinedVariable("x", ContinuousVariable, 1, 0, 3)
	require.NoError(t, err)
	y, err := model.AddDefinedVariable("y", ContinuousVariable, 1, 0, 3)
	require.NoError(t, err)

	_, err = model.AddConstraint("capacity", 0, 4, []*Variable{x, y}, []float64{1, 1})
	require.NoError(t, err)

	res, err := model.Solve()
	require.NoError(t, err)

	assert.Equal(t, SolutionOptimal, res.Status())
	assert.InDelta(t, 4.0, res.ObjectiveValue(), 1e-6)
}

func TestSolveBinaryKnapsack(t *testing.T) {
	model, err := NewModel("pick-two", Maximize)
	require.NoError(t, err)

	x1, err := model.AddDefinedVariable("x1", BinaryVariable, 5, 0, 1)
	require.NoError(t, err)
	x2, err := model.AddDefinedVariable("x2", BinaryVariable, 4, 0, 1)
	require.NoError(t, err)
	x3, err := model.AddDefinedVariable("x3", BinaryVariable, 3, 0, 1)
	require.NoError(t, err)

	_, err = model.AddConstraint("capacity", 0, 2, []*Variable{x1, x2, x3}, []float64{1, 1, 1})
	require.NoError(t, err)

	res, err := model.Solve()
	require.NoError(t, err)

	assert.Equal(t, SolutionOptimal, res.Status())
	assert.InDelta(t, 9.0, res.ObjectiveValue(), 1e-6)
	assert.True(t, res.BoolValue(x1))
	assert.True(t, res.BoolValue(x2))
	assert.False(t, res.BoolValue(x3))
}

func TestSolveInfeasibleCohortSplit(t *testing.T) {
	model, err := NewModel("cohort", Maximize)
	require.NoError(t, err)

	x1, err := model.AddBinaryVariable("x1")
	require.NoError(t, err)
	x2, err := model.AddBinaryVariable("x2")
	require.NoError(t, err)

	// cohort must stay together: x1 == x2 ...
	_, err = model.AddConstraint("stay-together", 0, 0, []*Variable{x1, x2}, []float64{1, -1})
	require.NoError(t, err)
	// ... but exactly one of them must be placed: impossible if they're equal.
	// The root relaxation is still feasible (x1 = x2 = 0.5), so the failure
	// surfaces only after both branches are exhausted.
	_, err = model.AddConstraint("exactly-one", 1, 1, []*Variable{x1, x2}, []float64{1, 1})
	require.NoError(t, err)

	_, err = model.Solve()
	require.ErrorIs(t, err, ErrNoFeasibleFound)
}

func TestSolveBudgetLimitsOpenClasses(t *testing.T) {
	model, err := NewModel("budget", Maximize)
	require.NoError(t, err)

	y1, err := model.AddBinaryVariable("class_1")
	require.NoError(t, err)
	y2, err := model.AddBinaryVariable("class_2")
	require.NoError(t, err)

	_, err = model.AddConstraint("budget", 0, 150, []*Variable{y1, y2}, []float64{100, 100})
	require.NoError(t, err)

	res, err := model.Solve()
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.ObjectiveValue(), 1e-6)
	opened := 0
	for _, v := range []*Variable{y1, y2} {
		if res.BoolValue(v) {
			opened++
		}
	}
	assert.Equal(t, 1, opened)
}

func TestSolveWithContextCancelled(t *testing.T) {
	model, err := NewModel("cancel", Maximize)
	require.NoError(t, err)
	_, err = model.AddBinaryVariable("x")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = model.SolveWithContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAddConstraintRejectsDuplicateName(t *testing.T) {
	model, err := NewModel("dup", Maximize)
	require.NoError(t, err)
	x, err := model.AddBinaryVariable("x")
	require.NoError(t, err)

	_, err = model.AddConstraint("same-name", 0, 1, []*Variable{x}, []float64{1})
	require.NoError(t, err)

	_, err = model.AddConstraint("same-name", 0, 1, []*Variable{x}, []float64{1})
	assert.Error(t, err)
}
