package allocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"k8s.io/klog/v2"

	"github.com/matmov/alocador/internal/domain"
	"github.com/matmov/alocador/internal/milp"
)

// enrollmentDateLayout is the dd/mm/yyyy format formulario_inscricao.data_inscricao
// is stored in.
const enrollmentDateLayout = "02/01/2006"

// Run builds the student-to-class assignment MILP from already-loaded and
// already-built inputs, solves it, and projects the result back onto the
// student/class records. enrolled and waitlisted must already be sorted by
// (population_tag, id) and classes by ascending class_id — internal/loader
// sorts the students, and internal/builder emits classes in ascending
// class_id (Branch A assigns them in order; Branch B keeps the order of
// store.SQL.Classes, which reads turma ORDER BY id); Run does not re-sort, since
// doing so here would hide an ordering bug in an upstream package instead
// of surfacing it.
func Run(ctx context.Context, params domain.Parameters, enrolled, waitlisted []domain.Student, classes []domain.CandidateClass, opts ...milp.Option) (Solution, error) {
	logger := klog.FromContext(ctx).WithValues("students_enrolled", len(enrolled), "students_waitlisted", len(waitlisted), "candidate_classes", len(classes))

	if len(classes) == 0 || (len(enrolled) == 0 && len(waitlisted) == 0) {
		logger.Info("empty domain, nothing to allocate")
		return Solution{Feasible: true}, ErrEmptyDomain
	}

	model, err := milp.NewModel("alocacao", milp.Maximize, opts...)
	if err != nil {
		return Solution{}, fmt.Errorf("allocation: building model: %w", err)
	}

	vs, err := declareVariables(model, allStudentsInOrder(enrolled, waitlisted), classes, params.Int("qtd_max_alunos", 0))
	if err != nil {
		return Solution{}, err
	}

	if err := addConstraints(model, vs, enrolled, waitlisted, params); err != nil {
		return Solution{}, err
	}

	res, err := model.SolveWithContext(ctx)
	if err != nil {
		if errors.Is(err, milp.ErrModelInfeasible) || errors.Is(err, milp.ErrNoFeasibleFound) {
			logger.Info("solver reported no feasible solution")
			return Solution{Feasible: false}, ErrInfeasible
		}
		return Solution{}, fmt.Errorf("allocation: solving: %w", err)
	}

	sol := projectSolution(res, vs, enrolled, waitlisted, classes, params)
	logger.Info("solve complete", "objective_value", sol.ObjectiveValue, "students_placed", len(sol.EnrolledPlaced)+len(sol.WaitlistPlaced), "classes_opened", len(sol.OpenedClasses))

	return sol, nil
}

func parseEnrollmentDate(s string) (time.Time, bool) {
	t, err := time.Parse(enrollmentDateLayout, s)
	return t, err == nil
}

// allStudentsInOrder concatenates the two populations for variable
// declaration, enrolled first: PopulationEnrolled < PopulationWaitlisted,
// so this is already the (population_tag, id) order the solver needs for
// deterministic variable indices, given each slice is internally sorted
// by id.
func allStudentsInOrder(enrolled, waitlisted []domain.Student) []domain.Student {
	out := make([]domain.Student, 0, len(enrolled)+len(waitlisted))
	out = append(out, enrolled...)
	out = append(out, waitlisted...)
	return out
}

// projectSolution reads SolveResult.Value for every declared variable and
// builds the Solution the output tables need: student_assigned[s] = OR
// over c of x[s,c], class_opened[c] = y[c].
func projectSolution(res *milp.SolveResult, vs *variables, enrolled, waitlisted []domain.Student, classes []domain.CandidateClass, params domain.Parameters) Solution {
	sol := Solution{
		Feasible:                 true,
		ObjectiveValue:           res.ObjectiveValue(),
		QtdMaxAlunos:             params.Int("qtd_max_alunos", 0),
		QtdProfessoresAcd:        params.Int("qtd_professores_acd", 0),
		QtdProfessoresPedagogico: params.Int("qtd_professores_pedagogico", 0),
	}

	placedClassOf := func(s domain.Student) (int, bool) {
		classIDs := vs.compatibleClasses(s)
		for _, classID := range classIDs {
			if v, ok := vs.xVar[s.Cod][classID]; ok && res.BoolValue(v) {
				return classID, true
			}
		}
		return 0, false
	}

	for _, s := range enrolled {
		if classID, ok := placedClassOf(s); ok {
			sol.EnrolledPlaced = append(sol.EnrolledPlaced, StudentPlacement{Student: s, ClassID: classID})
		}
	}

	waitlistPlaced := make([]StudentPlacement, 0, len(waitlisted))
	for _, s := range waitlisted {
		if classID, ok := placedClassOf(s); ok {
			waitlistPlaced = append(waitlistPlaced, StudentPlacement{Student: s, ClassID: classID})
		}
	}
	sort.SliceStable(waitlistPlaced, func(i, j int) bool {
		di, iok := parseEnrollmentDate(waitlistPlaced[i].Student.EnrollmentDate)
		dj, jok := parseEnrollmentDate(waitlistPlaced[j].Student.EnrollmentDate)
		if !iok || !jok {
			return waitlistPlaced[i].Student.EnrollmentDate < waitlistPlaced[j].Student.EnrollmentDate
		}
		return di.Before(dj)
	})
	sol.WaitlistPlaced = waitlistPlaced

	counts := make(map[int]int, len(classes))
	for _, p := range sol.EnrolledPlaced {
		counts[p.ClassID]++
	}
	for _, p := range sol.WaitlistPlaced {
		counts[p.ClassID]++
	}

	for _, c := range classes {
		y, ok := vs.classVar[c.ClassID]
		if !ok || !res.BoolValue(y) {
			continue
		}
		sol.OpenedClasses = append(sol.OpenedClasses, ClassPlacement{Class: c, StudentCount: counts[c.ClassID]})
	}

	return sol
}
