// Package domain holds the plain data model shared by the loader, builder
// and allocation packages: parameters, students, candidate classes and the
// small lookup tables the class-name derivation needs. Nothing here knows
// about SQL, the solver, or the CLI.
package domain

import "fmt"

// Population distinguishes the two disjoint student groups. They share an
// id space, so Population is half of a student's composite key.
type Population int

const (
	PopulationEnrolled Population = iota
	PopulationWaitlisted
)

// Tag returns the lowercase name used in variable names and log fields.
func (p Population) Tag() string {
	switch p {
	case PopulationEnrolled:
		return "enrolled"
	case PopulationWaitlisted:
		return "waitlisted"
	default:
		return fmt.Sprintf("population(%d)", int(p))
	}
}

// StudentCod is the composite key that disambiguates a student id across
// the two populations (ids collide between enrolled and waitlisted rows).
type StudentCod struct {
	Population Population
	ID         int
}

// Less orders two codes by (population_tag, id), the stable iteration order
// the allocation engine's reproducibility contract requires.
func (c StudentCod) Less(other StudentCod) bool {
	if c.Population != other.Population {
		return c.Population < other.Population
	}
	return c.ID < other.ID
}

func (c StudentCod) String() string {
	return fmt.Sprintf("%s_%d", c.Population.Tag(), c.ID)
}

// Student is one row of either population, after grade promotion and
// filtering have already run.
type Student struct {
	Cod StudentCod

	SchoolID   int
	GradeID    int // original grade
	NewGradeID int // grade the student enters this cycle

	// Cluster == 0 for waitlisted students. For enrolled students, Cluster
	// is the id of their current class: the cohort that must move together.
	Cluster int

	// PriorityWeight is 1 for enrolled students, and
	// dense_rank_descending(EnrollmentDate) / len(waitlist) for waitlisted.
	PriorityWeight float64

	// EnrollmentDate is zero-valued for enrolled students; waitlisted
	// students with a null enrollment date never reach this struct (the
	// loader drops them before construction).
	EnrollmentDate string // dd/mm/yyyy as read from formulario_inscricao

	// ContactFields is a passthrough map the engine never reads; it is
	// carried unchanged into the placements. The loader does not populate
	// it, and store.SQL.WriteSolution does not write it: sol_aluno and
	// sol_priorizacao_formulario receive only the student id and turma_id.
	ContactFields map[string]any
}

// IsEnrolled reports whether the student belongs to the enrolled population.
func (s Student) IsEnrolled() bool {
	return s.Cod.Population == PopulationEnrolled
}

// CandidateClass is a potential class slot the MILP may choose to open.
type CandidateClass struct {
	ClassID  int // dense and 1-based for synthesized (Branch A) classes; the existing turma id for pass-through (Branch B) classes
	SchoolID int
	GradeID  int
	Name     string

	// RoomOrdinal is 1-based within a (SchoolID, GradeID) group, used to
	// derive Name's room-letter suffix. The builder sets it in both
	// branches, numbering each group's rooms in ascending ClassID order.
	RoomOrdinal int
}

// Region, Grade and School are the lookup tables CandidateClass.Name
// derivation joins against (regiao, serie, escola in the source schema).
type Region struct {
	ID   int
	Name string
}

type Grade struct {
	ID     int
	Name   string
	Active bool
}

type School struct {
	ID       int
	RegionID int
	Name     string
}

// Parameters is the tuning-parameter map coerced to integers, keyed by the
// names the `parametro` table uses.
type Parameters map[string]int

// Int returns the named parameter, or def if it's absent. Recognized names:
// qtd_max_alunos, qtd_professores_acd, qtd_professores_pedagogico,
// custo_aluno, custo_professor, limite_custo, ano_planejamento,
// otimiza_dentro_do_ano, possibilita_abertura_novas_turmas,
// min_aluno_por_turma.
func (p Parameters) Int(name string, def int) int {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Bool interprets a parameter as a truthy/falsy flag (nonzero == true).
func (p Parameters) Bool(name string) bool {
	return p.Int(name, 0) != 0
}
