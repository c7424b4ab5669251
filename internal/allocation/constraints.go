package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/matmov/alocador/internal/domain"
	"github.com/matmov/alocador/internal/milp"
)

// cohortBigM is the big-M constant the C3 aggregation form uses. Asserted
// at construction time (addCohortConstraints) to exceed the largest cluster
// size actually seen, so the aggregation stays a valid relaxation of the
// equality it replaces.
const cohortBigM = 1000

// pairwiseClusterThreshold is the cluster-size cutoff at or below which C3
// uses the pairwise-equality formulation (O(n²) constraints, easier to read
// in a solver trace) and above which it switches to the big-M aggregation
// (O(n) constraints).
const pairwiseClusterThreshold = 8

// addConstraints declares C1 through C5 on model, in that order, against
// the students/classes already run through declareVariables.
func addConstraints(model *milp.Model, vs *variables, enrolled, waitlisted []domain.Student, params domain.Parameters) error {
	if err := addEnrolledMustBePlaced(model, vs, enrolled); err != nil {
		return err
	}
	if err := addWaitlistedAtMostOne(model, vs, waitlisted); err != nil {
		return err
	}
	if err := addCohortConstraints(model, vs, enrolled); err != nil {
		return err
	}
	if err := addCapacityConstraints(model, vs, params); err != nil {
		return err
	}
	if err := addBudgetConstraint(model, vs, enrolled, waitlisted, params); err != nil {
		return err
	}
	return nil
}

// addEnrolledMustBePlaced is C1: Σ_c x[s,c] = 1 for every enrolled student.
// A student with zero compatible classes yields an empty sum forced to 1,
// a constraint the solver reports as infeasible rather than silently
// dropping the student.
func addEnrolledMustBePlaced(model *milp.Model, vs *variables, enrolled []domain.Student) error {
	for _, s := range enrolled {
		vars, coefs := xRow(vs, s)
		name := fmt.Sprintf("enrolled-must-be-placed_%s", s.Cod)
		if _, err := model.AddConstraint(name, 1, 1, vars, coefs); err != nil {
			return fmt.Errorf("allocation: C1 for %s: %w", s.Cod, err)
		}
	}
	return nil
}

// addWaitlistedAtMostOne is C2: Σ_c x[s,c] ≤ 1 for every waitlisted student.
func addWaitlistedAtMostOne(model *milp.Model, vs *variables, waitlisted []domain.Student) error {
	for _, s := range waitlisted {
		vars, coefs := xRow(vs, s)
		if len(vars) == 0 {
			continue // no compatible class: trivially satisfied, nothing to place
		}
		name := fmt.Sprintf("waitlisted-at-most-one_%s", s.Cod)
		if _, err := model.AddConstraint(name, math.Inf(-1), 1, vars, coefs); err != nil {
			return fmt.Errorf("allocation: C2 for %s: %w", s.Cod, err)
		}
	}
	return nil
}

// addCohortConstraints is C3: every enrolled cluster's students get
// identical x[s,c] for every class c compatible with the cluster. Clusters
// with at most pairwiseClusterThreshold members use the pairwise-equality
// form; larger ones use the big-M aggregation. The choice is a pure
// function of cluster size, so it is deterministic across runs.
func addCohortConstraints(model *milp.Model, vs *variables, enrolled []domain.Student) error {
	clusters := make([]int, 0, len(vs.byCluster))
	for cluster := range vs.byCluster {
		clusters = append(clusters, cluster)
	}
	sort.Ints(clusters)

	for _, cluster := range clusters {
		members := vs.byCluster[cluster]
		if cohortBigM <= len(members) {
			return fmt.Errorf("allocation: cluster %d has %d members, exceeding the big-M constant %d", cluster, len(members), cohortBigM)
		}
		if len(members) < 2 {
			continue // singleton cohort: nothing to keep together
		}

		first := members[0]
		classIDs := make([]int, 0, len(vs.xVar[first]))
		for classID := range vs.xVar[first] {
			classIDs = append(classIDs, classID)
		}
		sort.Ints(classIDs)

		for _, classID := range classIDs {
			if len(members) <= pairwiseClusterThreshold {
				if err := addPairwiseCohort(model, vs, cluster, classID, members); err != nil {
					return err
				}
			} else {
				if err := addBigMCohort(model, vs, cluster, classID, members); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func addPairwiseCohort(model *milp.Model, vs *variables, cluster, classID int, members []domain.StudentCod) error {
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			vi := vs.xVar[members[i]][classID]
			vj := vs.xVar[members[j]][classID]
			name := fmt.Sprintf("cohort-stays-together_%d_%d_%d_%d", cluster, classID, i, j)
			if _, err := model.AddConstraint(name, 0, 0, []*milp.Variable{vi, vj}, []float64{1, -1}); err != nil {
				return fmt.Errorf("allocation: C3 (pairwise) for cluster %d class %d: %w", cluster, classID, err)
			}
		}
	}
	return nil
}

func addBigMCohort(model *milp.Model, vs *variables, cluster, classID int, members []domain.StudentCod) error {
	vars := make([]*milp.Variable, 0, len(members))
	for _, m := range members {
		vars = append(vars, vs.xVar[m][classID])
	}

	for i, anchor := range members {
		coefs := make([]float64, len(vars))
		for j := range vars {
			coefs[j] = 1
		}
		coefs[i] -= cohortBigM
		name := fmt.Sprintf("cohort-stays-together_%d_%d_anchor_%d", cluster, classID, i)
		if _, err := model.AddConstraint(name, math.Inf(-1), 0, vars, coefs); err != nil {
			return fmt.Errorf("allocation: C3 (big-M) for cluster %d class %d anchor %s: %w", cluster, classID, anchor, err)
		}
	}
	return nil
}

// addCapacityConstraints is C4: Σ_s x[s,c] ≤ qtd_max_alunos · y[c], for
// every class with at least one declared x variable (classes with none
// never need the cut: their sum is always 0).
func addCapacityConstraints(model *milp.Model, vs *variables, params domain.Parameters) error {
	qtdMax := float64(params.Int("qtd_max_alunos", 0))

	classIDs := make([]int, 0, len(vs.byClass))
	for classID := range vs.byClass {
		classIDs = append(classIDs, classID)
	}
	sort.Ints(classIDs)

	for _, classID := range classIDs {
		students := vs.byClass[classID]
		y := vs.classVar[classID]
		vars := make([]*milp.Variable, 0, len(students)+1)
		coefs := make([]float64, 0, len(students)+1)
		for _, cod := range students {
			vars = append(vars, vs.xVar[cod][classID])
			coefs = append(coefs, 1)
		}
		vars = append(vars, y)
		coefs = append(coefs, -qtdMax)

		name := fmt.Sprintf("capacity-gated-by-open_%d", classID)
		if _, err := model.AddConstraint(name, math.Inf(-1), 0, vars, coefs); err != nil {
			return fmt.Errorf("allocation: C4 for class %d: %w", classID, err)
		}
	}
	return nil
}

// addBudgetConstraint is C5: the single global cost ceiling.
func addBudgetConstraint(model *milp.Model, vs *variables, enrolled, waitlisted []domain.Student, params domain.Parameters) error {
	custoAluno := float64(params.Int("custo_aluno", 0))
	custoProfessor := float64(params.Int("custo_professor", 0))
	staffPerClass := float64(params.Int("qtd_professores_acd", 0) + params.Int("qtd_professores_pedagogico", 0))
	limite := float64(params.Int("limite_custo", 0))

	var vars []*milp.Variable
	var coefs []float64

	for _, students := range [][]domain.Student{enrolled, waitlisted} {
		for _, s := range students {
			for _, v := range vs.xVar[s.Cod] {
				vars = append(vars, v)
				coefs = append(coefs, custoAluno)
			}
		}
	}
	for _, y := range vs.classVar {
		vars = append(vars, y)
		coefs = append(coefs, staffPerClass*custoProfessor)
	}

	if _, err := model.AddConstraint("budget", math.Inf(-1), limite, vars, coefs); err != nil {
		return fmt.Errorf("allocation: C5: %w", err)
	}
	return nil
}

// xRow returns s's x[s,c] variables and unit coefficients, in ascending
// class_id order.
func xRow(vs *variables, s domain.Student) ([]*milp.Variable, []float64) {
	classIDs := vs.compatibleClasses(s)
	vars := make([]*milp.Variable, 0, len(classIDs))
	coefs := make([]float64, 0, len(classIDs))
	for _, classID := range classIDs {
		vars = append(vars, vs.xVar[s.Cod][classID])
		coefs = append(coefs, 1)
	}
	return vars, coefs
}
