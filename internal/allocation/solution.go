package allocation

import "github.com/matmov/alocador/internal/domain"

// StudentPlacement pairs a student with the class it was placed in.
type StudentPlacement struct {
	Student domain.Student
	ClassID int
}

// ClassPlacement is one opened class together with how many students it
// actually received.
type ClassPlacement struct {
	Class        domain.CandidateClass
	StudentCount int
}

// Solution is the engine's output: the two boolean projections
// (student_assigned, class_opened) read off the solved model, already
// split into the shapes the output tables (sol_aluno,
// sol_priorizacao_formulario, sol_turma) need.
type Solution struct {
	Feasible       bool
	ObjectiveValue float64

	// EnrolledPlaced and WaitlistPlaced are disjoint: only students with
	// x[s,c] = 1 for some c appear here. WaitlistPlaced preserves the
	// original (school,grade)-independent ordering by enrollment date
	// ascending, matching the order sol_priorizacao_formulario is read back in.
	EnrolledPlaced []StudentPlacement
	WaitlistPlaced []StudentPlacement

	// OpenedClasses lists only classes with y[c] = 1, in ascending
	// class_id order.
	OpenedClasses []ClassPlacement

	// QtdMaxAlunos, QtdProfessoresAcd and QtdProfessoresPedagogico are the
	// tuning-parameter values this run solved under, carried through so the
	// store layer can write sol_turma's staffing columns for the real run
	// rather than placeholder zeros.
	QtdMaxAlunos             int
	QtdProfessoresAcd        int
	QtdProfessoresPedagogico int
}
