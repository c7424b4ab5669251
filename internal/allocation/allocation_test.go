package allocation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matmov/alocador/internal/domain"
)

func enrolledStudent(id, schoolID, gradeID, cluster int) domain.Student {
	return domain.Student{
		Cod:            domain.StudentCod{Population: domain.PopulationEnrolled, ID: id},
		SchoolID:       schoolID,
		NewGradeID:     gradeID,
		Cluster:        cluster,
		PriorityWeight: 1,
	}
}

func waitlistedStudent(id, schoolID, gradeID int, date string, weight float64) domain.Student {
	return domain.Student{
		Cod:            domain.StudentCod{Population: domain.PopulationWaitlisted, ID: id},
		SchoolID:       schoolID,
		NewGradeID:     gradeID,
		PriorityWeight: weight,
		EnrollmentDate: date,
	}
}

func baseParams(overrides domain.Parameters) domain.Parameters {
	p := domain.Parameters{
		"qtd_max_alunos":              30,
		"limite_custo":                1_000_000_000,
		"custo_aluno":                 0,
		"custo_professor":             0,
		"qtd_professores_acd":         0,
		"qtd_professores_pedagogico":  0,
	}
	for k, v := range overrides {
		p[k] = v
	}
	return p
}

// Scenario 1: single class, two enrolled students in one cohort.
func TestScenarioSingleClassCohortBothPlaced(t *testing.T) {
	classes := []domain.CandidateClass{{ClassID: 1, SchoolID: 1, GradeID: 1}}
	enrolled := []domain.Student{
		enrolledStudent(1, 1, 1, 7),
		enrolledStudent(2, 1, 1, 7),
	}

	sol, err := Run(context.Background(), baseParams(nil), enrolled, nil, classes)
	require.NoError(t, err)
	require.Len(t, sol.OpenedClasses, 1)
	assert.Equal(t, 1, sol.OpenedClasses[0].Class.ClassID)
	assert.Len(t, sol.EnrolledPlaced, 2)
}

// Scenario 2: waitlist ordering, only the earlier applicant gets the one seat.
func TestScenarioWaitlistOrderingEarliestWins(t *testing.T) {
	classes := []domain.CandidateClass{{ClassID: 1, SchoolID: 1, GradeID: 1}}
	waitlisted := []domain.Student{
		waitlistedStudent(1, 1, 1, "01/01/2024", 1.0),
		waitlistedStudent(2, 1, 1, "01/02/2024", 0.5),
	}
	params := baseParams(domain.Parameters{"qtd_max_alunos": 1})

	sol, err := Run(context.Background(), params, nil, waitlisted, classes)
	require.NoError(t, err)
	require.Len(t, sol.WaitlistPlaced, 1)
	assert.Equal(t, 1, sol.WaitlistPlaced[0].Student.Cod.ID)
}

// Scenario 3: an enrolled cohort larger than capacity cannot be split, and
// cannot fit: infeasible.
func TestScenarioCohortIndivisibilityInfeasible(t *testing.T) {
	classes := []domain.CandidateClass{{ClassID: 1, SchoolID: 1, GradeID: 1}}
	enrolled := make([]domain.Student, 31)
	for i := range enrolled {
		enrolled[i] = enrolledStudent(i+1, 1, 1, 9)
	}
	params := baseParams(domain.Parameters{"qtd_max_alunos": 30})

	_, err := Run(context.Background(), params, enrolled, nil, classes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInfeasible))
}

// Scenario 5: budget binds enough that only one of two classes can open.
func TestScenarioBudgetBindsToOneClass(t *testing.T) {
	classes := []domain.CandidateClass{
		{ClassID: 1, SchoolID: 1, GradeID: 1},
		{ClassID: 2, SchoolID: 2, GradeID: 1},
	}
	var waitlisted []domain.Student
	for i := 0; i < 50; i++ {
		waitlisted = append(waitlisted, waitlistedStudent(i+1, 1, 1, "01/01/2024", 1))
	}
	for i := 0; i < 50; i++ {
		waitlisted = append(waitlisted, waitlistedStudent(i+51, 2, 1, "01/01/2024", 1))
	}
	params := baseParams(domain.Parameters{
		"qtd_max_alunos":             50,
		"custo_aluno":                1,
		"custo_professor":            100,
		"qtd_professores_acd":        1,
		"qtd_professores_pedagogico": 1,
		"limite_custo":               220,
	})

	sol, err := Run(context.Background(), params, nil, waitlisted, classes)
	require.NoError(t, err)
	assert.Len(t, sol.OpenedClasses, 1)
}

// Scenario 6: equal-priority students, budget for one class; the lower
// grade (higher grade_weight) wins.
func TestScenarioGradePriorityTieBreak(t *testing.T) {
	classes := []domain.CandidateClass{
		{ClassID: 1, SchoolID: 1, GradeID: 1},
		{ClassID: 2, SchoolID: 1, GradeID: 3},
	}
	var waitlisted []domain.Student
	for i := 0; i < 10; i++ {
		waitlisted = append(waitlisted, waitlistedStudent(i+1, 1, 1, "01/01/2024", 1))
	}
	for i := 0; i < 10; i++ {
		waitlisted = append(waitlisted, waitlistedStudent(i+11, 1, 3, "01/01/2024", 1))
	}
	params := baseParams(domain.Parameters{
		"qtd_max_alunos":             10,
		"custo_aluno":                1,
		"custo_professor":            100,
		"qtd_professores_acd":        1,
		"qtd_professores_pedagogico": 0,
		"limite_custo":               110,
	})

	sol, err := Run(context.Background(), params, nil, waitlisted, classes)
	require.NoError(t, err)
	require.Len(t, sol.OpenedClasses, 1)
	assert.Equal(t, 1, sol.OpenedClasses[0].Class.GradeID)
}

func TestRunEmptyDomainReturnsSentinel(t *testing.T) {
	sol, err := Run(context.Background(), baseParams(nil), nil, nil, nil)
	assert.True(t, errors.Is(err, ErrEmptyDomain))
	assert.True(t, sol.Feasible)
}

// Invariant I4: every member of an enrolled cluster gets the same
// assignment, for both the pairwise and big-M formulations.
func TestCohortMembersAlwaysMatch(t *testing.T) {
	for _, size := range []int{3, 9} { // 3 <= threshold (pairwise), 9 > threshold (big-M)
		classes := []domain.CandidateClass{{ClassID: 1, SchoolID: 1, GradeID: 1}}
		enrolled := make([]domain.Student, size)
		for i := range enrolled {
			enrolled[i] = enrolledStudent(i+1, 1, 1, 42)
		}
		params := baseParams(domain.Parameters{"qtd_max_alunos": size})

		sol, err := Run(context.Background(), params, enrolled, nil, classes)
		require.NoError(t, err)
		assert.Len(t, sol.EnrolledPlaced, size)
	}
}
