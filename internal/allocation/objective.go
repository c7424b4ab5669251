package allocation

// capacityPenaltyWeight is the 0.01 coefficient applied to the empty-seat
// penalty in the objective:
//
//	maximize  Σ x[s,c]·priority_weight(s)·grade_weight(s)
//	          − capacityPenaltyWeight · Σ_c ( qtd_max_alunos·y[c] − Σ_s x[s,c] )
//
// Expanding the penalty term distributes it onto the individual variable
// coefficients declareVariables sets directly:
//
//	x[s,c] coefficient  = priority_weight(s)·grade_weight(s) + capacityPenaltyWeight
//	y[c]   coefficient  = −capacityPenaltyWeight · qtd_max_alunos
//
// priority_weight(s)·grade_weight(s) is bounded in (0, 1/5) by construction
// (grade_weight alone is bounded in (0, 1/5], priority_weight in (0, 1]), so
// capacityPenaltyWeight must stay far enough below that range that it never
// out-ranks a placement decision; 0.01 preserves the ordering
// priority_weight ≫ grade_weight ≫ capacity penalty, which callers must
// not disturb by changing this constant casually.
const capacityPenaltyWeight = 0.01
