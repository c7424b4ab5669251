package milp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// bounds overrides a variable's [lower, upper] bounds for one branch-and-
// bound node, without mutating the shared Model.
type bounds struct {
	lower, upper float64
}

// colKind describes how an original variable was substituted into the
// nonnegative y-columns the simplex tableau operates on.
type colKind int

const (
	colShiftPos colKind = iota // x = offset + y,  y >= 0   (lower bound finite)
	colShiftNeg                // x = offset - y,  y >= 0   (only upper bound finite)
	colSplit                   // x = yplus - yminus, both >= 0 (unbounded both sides)
)

type varColumn struct {
	kind   colKind
	offset float64
	y1     int // structural column for y / yplus
	y2     int // structural column for yminus, only used when kind == colSplit
}

// subrowKind is the relational operator a standardized row enforces.
type subrowKind int

const (
	subrowLE subrowKind = iota
	subrowGE
	subrowEQ
)

type subrow struct {
	coefs  []float64 // over structural y-columns, length nStruct
	kind   subrowKind
	target float64
}

// relaxation is the LP relaxation of model at one branch-and-bound node,
// given per-variable bound overrides.
type relaxation struct {
	model   *Model
	over    map[int]bounds
	varCols []varColumn
	nStruct int
}

func (model *Model) buildRelaxation(over map[int]bounds) *relaxation {
	r := &relaxation{model: model, over: over}
	r.varCols = make([]varColumn, len(model.vars))

	next := 0
	for j, v := range model.vars {
		lo, hi := r.boundsFor(j, v)
		switch {
		case math.IsInf(lo, -1) && math.IsInf(hi, 1):
			r.varCols[j] = varColumn{kind: colSplit, y1: next, y2: next + 1}
			next += 2
		case math.IsInf(lo, -1):
			r.varCols[j] = varColumn{kind: colShiftNeg, offset: hi, y1: next}
			next++
		default:
			r.varCols[j] = varColumn{kind: colShiftPos, offset: lo, y1: next}
			next++
		}
	}
	r.nStruct = next

	return r
}

func (r *relaxation) boundsFor(j int, v *Variable) (lo, hi float64) {
	if b, ok := r.over[j]; ok {
		return b.lower, b.upper
	}
	return v.lower, v.upper
}

// subrows returns every standardized row the node's LP must satisfy: the
// model's own constraints (rewritten in y-space) plus one upper-bound cap
// row per variable whose upper bound is finite and whose lower bound isn't
// already absorbed into the substitution (colShiftPos needs a cap row when
// it has a finite upper bound; colShiftNeg/colSplit never need one, since
// their substitution already encodes the single finite bound or has none).
func (r *relaxation) subrows() []subrow {
	var rows []subrow

	for _, c := range r.model.constraints {
		coefs := make([]float64, r.nStruct)
		constant := 0.0
		for j, a := range c.coefs {
			col := r.varCols[j]
			switch col.kind {
			case colShiftPos:
				coefs[col.y1] += a
				constant += a * col.offset
			case colShiftNeg:
				coefs[col.y1] -= a
				constant += a * col.offset
			case colSplit:
				coefs[col.y1] += a
				coefs[col.y2] -= a
			}
		}

		lower, upper := c.lower, c.upper
		if !math.IsInf(lower, -1) {
			lower -= constant
		}
		if !math.IsInf(upper, 1) {
			upper -= constant
		}
		rows = append(rows, toSubrows(coefs, lower, upper)...)
	}

	for j, v := range r.model.vars {
		lo, hi := r.boundsFor(j, v)
		col := r.varCols[j]
		if col.kind == colShiftPos && !math.IsInf(hi, 1) {
			coefs := make([]float64, r.nStruct)
			coefs[col.y1] = 1
			rows = append(rows, subrow{coefs: coefs, kind: subrowLE, target: hi - lo})
		}
	}

	return rows
}

// toSubrows turns one (possibly double-bounded) constraint into one or two
// single-sided rows.
func toSubrows(coefs []float64, lower, upper float64) []subrow {
	var out []subrow
	switch {
	case math.IsInf(lower, -1) && math.IsInf(upper, 1):
		// no-op constraint
	case lower == upper:
		out = append(out, subrow{coefs: coefs, kind: subrowEQ, target: upper})
	case math.IsInf(lower, -1):
		out = append(out, subrow{coefs: coefs, kind: subrowLE, target: upper})
	case math.IsInf(upper, 1):
		out = append(out, subrow{coefs: coefs, kind: subrowGE, target: lower})
	default:
		out = append(out, subrow{coefs: coefs, kind: subrowLE, target: upper})
		out = append(out, subrow{coefs: coefs, kind: subrowGE, target: lower})
	}
	return out
}

// toStandardForm assembles the full A y = b, y >= 0 system (structural +
// slack/surplus + artificial columns) from the node's subrows, and the
// internal (minimization-oriented) cost vector for the structural columns.
func (r *relaxation) toStandardForm() *standardForm {
	rows := r.subrows()

	nStruct := r.nStruct
	total := nStruct
	for _, row := range rows {
		if row.kind != subrowEQ {
			total++ // slack or surplus
		}
		total++ // artificial, always
	}

	a := mat.NewDense(len(rows), total, nil)
	b := make([]float64, len(rows))
	artificialCols := make([]int, len(rows))

	next := nStruct
	for i, row := range rows {
		for j, coef := range row.coefs {
			a.Set(i, j, coef)
		}

		target := row.target
		auxCoef := 0.0
		auxCol := -1
		if row.kind == subrowLE {
			auxCol = next
			next++
			auxCoef = 1
		} else if row.kind == subrowGE {
			auxCol = next
			next++
			auxCoef = -1
		}

		if target < 0 {
			for j := 0; j < nStruct; j++ {
				a.Set(i, j, -a.At(i, j))
			}
			auxCoef = -auxCoef
			target = -target
		}

		if auxCol != -1 {
			a.Set(i, auxCol, auxCoef)
		}

		artCol := next
		next++
		a.Set(i, artCol, 1)
		artificialCols[i] = artCol

		b[i] = target
	}

	cost := make([]float64, total)
	sign := 1.0
	if r.model.direction == Maximize {
		sign = -1
	}
	for j, v := range r.model.vars {
		c := v.objCoef * sign
		col := r.varCols[j]
		switch col.kind {
		case colShiftPos:
			cost[col.y1] += c
		case colShiftNeg:
			cost[col.y1] -= c
		case colSplit:
			cost[col.y1] += c
			cost[col.y2] -= c
		}
	}

	return &standardForm{a: a, b: b, cost: cost, artificialCols: artificialCols}
}

// variableValues reconstructs each original variable's value from a solved
// y vector.
func (r *relaxation) variableValues(y []float64) []float64 {
	out := make([]float64, len(r.model.vars))
	for j := range r.model.vars {
		col := r.varCols[j]
		switch col.kind {
		case colShiftPos:
			out[j] = col.offset + y[col.y1]
		case colShiftNeg:
			out[j] = col.offset - y[col.y1]
		case colSplit:
			out[j] = y[col.y1] - y[col.y2]
		}
	}
	return out
}
