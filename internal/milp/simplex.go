package milp

import "gonum.org/v1/gonum/mat"

// simplexEps is the numerical tolerance used throughout the tableau
// simplex: reduced costs / tableau entries smaller than this in magnitude
// are treated as zero.
const simplexEps = 1e-9

// simplexStatus reports the outcome of a two-phase simplex solve.
type simplexStatus int

const (
	simplexOptimal simplexStatus = iota
	simplexInfeasible
	simplexUnbounded
	simplexNumericalFailure
)

// standardForm is a linear program in equality form, ready for the tableau
// simplex: minimize cost^T y subject to A y = b, y >= 0. artificialCols
// marks which columns are artificial (phase-1 only, cost 1 there, excluded
// from entering in phase 2).
type standardForm struct {
	a             *mat.Dense
	b             []float64
	cost          []float64
	artificialCols []int
}

// solve runs the two-phase simplex on the form and returns the column
// values y (len == number of columns) and the objective value measured
// against the caller's real cost vector (cost, with artificial entries
// ignored in phase 2).
func (f *standardForm) solve() (y []float64, obj float64, status simplexStatus) {
	rows, cols := f.a.Dims()
	if rows == 0 {
		// no constraints at all: trivially feasible at y=0.
		return make([]float64, cols), 0, simplexOptimal
	}

	tab := mat.DenseCopyOf(f.a)
	rhs := append([]float64(nil), f.b...)
	basis := make([]int, rows)

	// Phase 1: minimize the sum of artificial variables. The artificial
	// columns were appended last, one per row, each forming an identity
	// sub-matrix, so the initial basis is exactly the artificial columns.
	phase1Cost := make([]float64, cols)
	artificialSet := make(map[int]bool, len(f.artificialCols))
	for i, col := range f.artificialCols {
		phase1Cost[col] = 1
		basis[i] = col
		artificialSet[col] = true
	}

	maxIterations := 200 + 50*(rows+cols)

	st := pivotToOptimal(tab, rhs, basis, phase1Cost, nil, maxIterations)
	if st == simplexNumericalFailure {
		return nil, 0, simplexNumericalFailure
	}

	phase1Obj := objectiveValue(rhs, basis, phase1Cost)
	if phase1Obj > 1e-6 {
		return nil, 0, simplexInfeasible
	}

	// Drive any artificial variable still in the basis (at value ~0, since
	// phase 1 achieved cost 0) out, if a non-artificial pivot is available
	// in its row. If every entry in that row is ~0 outside the artificial
	// column, the row is redundant and is simply left alone.
	for i, bcol := range basis {
		if !artificialSet[bcol] {
			continue
		}
		for j := 0; j < cols; j++ {
			if artificialSet[j] {
				continue
			}
			if abs(tab.At(i, j)) > simplexEps {
				pivot(tab, rhs, basis, i, j)
				break
			}
		}
	}

	// Phase 2: minimize the real cost, forbidding artificial columns from
	// re-entering the basis.
	st = pivotToOptimal(tab, rhs, basis, f.cost, artificialSet, maxIterations)
	if st != simplexOptimal {
		return nil, 0, st
	}

	y = make([]float64, cols)
	for i, col := range basis {
		y[col] = rhs[i]
	}
	obj = objectiveValue(rhs, basis, f.cost)

	return y, obj, simplexOptimal
}

// pivotToOptimal runs simplex pivots (Bland's rule, to guarantee
// termination) against cost until no improving column remains, forbidding
// entry of any column in forbidden.
func pivotToOptimal(tab *mat.Dense, rhs []float64, basis []int, cost []float64, forbidden map[int]bool, maxIterations int) simplexStatus {
	rows, cols := tab.Dims()

	for iter := 0; iter < maxIterations; iter++ {
		cb := make([]float64, rows)
		for i, bcol := range basis {
			cb[i] = cost[bcol]
		}

		entering := -1
		for j := 0; j < cols; j++ {
			if forbidden != nil && forbidden[j] {
				continue
			}
			z := 0.0
			for i := 0; i < rows; i++ {
				z += cb[i] * tab.At(i, j)
			}
			reduced := cost[j] - z
			if reduced < -simplexEps {
				entering = j
				break // Bland's rule: first eligible column, not steepest
			}
		}
		if entering == -1 {
			return simplexOptimal
		}

		leaving := -1
		bestRatio := 0.0
		for i := 0; i < rows; i++ {
			a := tab.At(i, entering)
			if a <= simplexEps {
				continue
			}
			ratio := rhs[i] / a
			if leaving == -1 || ratio < bestRatio-simplexEps ||
				(ratio < bestRatio+simplexEps && basis[i] < basis[leaving]) {
				leaving = i
				bestRatio = ratio
			}
		}
		if leaving == -1 {
			return simplexUnbounded
		}

		pivot(tab, rhs, basis, leaving, entering)
	}

	return simplexNumericalFailure
}

// pivot performs Gauss-Jordan elimination to bring column `col` into the
// basis at row `row`.
func pivot(tab *mat.Dense, rhs []float64, basis []int, row, col int) {
	rows, cols := tab.Dims()

	pivotVal := tab.At(row, col)
	for j := 0; j < cols; j++ {
		tab.Set(row, j, tab.At(row, j)/pivotVal)
	}
	rhs[row] /= pivotVal

	for i := 0; i < rows; i++ {
		if i == row {
			continue
		}
		factor := tab.At(i, col)
		if abs(factor) < simplexEps {
			continue
		}
		for j := 0; j < cols; j++ {
			tab.Set(i, j, tab.At(i, j)-factor*tab.At(row, j))
		}
		rhs[i] -= factor * rhs[row]
	}

	basis[row] = col
}

func objectiveValue(rhs []float64, basis []int, cost []float64) float64 {
	total := 0.0
	for i, col := range basis {
		total += cost[col] * rhs[i]
	}
	return total
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
