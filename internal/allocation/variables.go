package allocation

import (
	"fmt"
	"sort"

	"github.com/matmov/alocador/internal/domain"
	"github.com/matmov/alocador/internal/milp"
)

type pairKey struct {
	schoolID, gradeID int
}

// variables is the model's bookkeeping: every declared y[c] and x[s,c],
// plus the indexes constraint construction needs.
type variables struct {
	model *milp.Model

	classVar  map[int]*milp.Variable // class_id -> y[c]
	xVar      map[domain.StudentCod]map[int]*milp.Variable
	byClass   map[int][]domain.StudentCod    // class_id -> students with an x var for it, declaration order
	byCluster map[int][]domain.StudentCod    // cluster -> enrolled students, declaration order
	compat    map[pairKey][]int              // (school,grade) -> class ids compatible, ascending
}

// maxGradeID returns the highest GradeID among classes, needed by
// gradeWeight. Classes is assumed non-empty by the caller (empty-domain is
// handled before this is called).
func maxGradeID(classes []domain.CandidateClass) int {
	max := classes[0].GradeID
	for _, c := range classes[1:] {
		if c.GradeID > max {
			max = c.GradeID
		}
	}
	return max
}

// gradeWeight favors lower-numbered grades in the objective.
func gradeWeight(gradeID, maxGrade int) float64 {
	return float64(maxGrade+1-gradeID) / (5 * float64(maxGrade+1))
}

// declareVariables creates one y[c] per class and one x[s,c] per
// (student, compatible class) pair, in a deterministic order (classes
// ascending by class_id, students in the order passed, which callers must
// already have sorted by (population_tag, id)) so that variable indices
// and constraint rows are reproducible across runs.
//
// Objective coefficients are set here rather than in a later pass: y[c]'s
// coefficient folds in the capacity-penalty term (-0.01*qtd_max_alunos) and
// x[s,c]'s coefficient folds in the +0.01 the penalty's algebraic expansion
// contributes, alongside priority_weight(s)*grade_weight(s). See
// objective.go for the derivation.
func declareVariables(model *milp.Model, students []domain.Student, classes []domain.CandidateClass, qtdMaxAlunos int) (*variables, error) {
	vs := &variables{
		model:     model,
		classVar:  make(map[int]*milp.Variable, len(classes)),
		xVar:      make(map[domain.StudentCod]map[int]*milp.Variable, len(students)),
		byClass:   make(map[int][]domain.StudentCod),
		byCluster: make(map[int][]domain.StudentCod),
		compat:    make(map[pairKey][]int),
	}

	capacityCoef := -capacityPenaltyWeight * float64(qtdMaxAlunos)
	for _, c := range classes {
		v, err := model.AddDefinedVariable(fmt.Sprintf("class_%d", c.ClassID), milp.BinaryVariable, capacityCoef, 0, 1)
		if err != nil {
			return nil, fmt.Errorf("allocation: declaring y[%d]: %w", c.ClassID, err)
		}
		vs.classVar[c.ClassID] = v
		key := pairKey{c.SchoolID, c.GradeID}
		vs.compat[key] = append(vs.compat[key], c.ClassID)
	}
	for _, ids := range vs.compat {
		sort.Ints(ids)
	}

	maxGrade := maxGradeID(classes)

	for _, s := range students {
		key := pairKey{s.SchoolID, s.NewGradeID}
		classIDs := vs.compat[key]
		if len(classIDs) == 0 {
			continue // no compatible class: C1 is still declared with zero terms (infeasible for an enrolled student); C2 is skipped
		}

		gw := gradeWeight(s.NewGradeID, maxGrade)
		coef := s.PriorityWeight*gw + capacityPenaltyWeight

		for _, classID := range classIDs {
			name := fmt.Sprintf("student_%s_%d_%d", s.Cod.Population.Tag(), s.Cod.ID, classID)
			v, err := model.AddDefinedVariable(name, milp.BinaryVariable, coef, 0, 1)
			if err != nil {
				return nil, fmt.Errorf("allocation: declaring x[%s,%d]: %w", s.Cod, classID, err)
			}
			if vs.xVar[s.Cod] == nil {
				vs.xVar[s.Cod] = make(map[int]*milp.Variable, len(classIDs))
			}
			vs.xVar[s.Cod][classID] = v
			vs.byClass[classID] = append(vs.byClass[classID], s.Cod)
		}
		if s.IsEnrolled() && s.Cluster > 0 {
			vs.byCluster[s.Cluster] = append(vs.byCluster[s.Cluster], s.Cod)
		}
	}

	return vs, nil
}

// compatibleClasses returns the class ids a student could be placed in,
// ascending, or nil if none exist.
func (vs *variables) compatibleClasses(s domain.Student) []int {
	return vs.compat[pairKey{s.SchoolID, s.NewGradeID}]
}
