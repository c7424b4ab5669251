// Package loader turns raw store rows into the two ordered, disjoint
// student populations the rest of the pipeline consumes, applying
// grade-promotion and active-grade filtering along the way.
package loader

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/matmov/alocador/internal/domain"
	"github.com/matmov/alocador/internal/store"
)

// enrollmentDateLayout matches formulario_inscricao.data_inscricao's
// dd/mm/yyyy storage format.
const enrollmentDateLayout = "02/01/2006"

// SchemaError reports an input-schema mismatch: a missing table/column
// reference, or a value that doesn't coerce to the type the loader needs.
// It is always fatal: the loader aborts before any variable creation is
// even possible.
type SchemaError struct {
	Table  string
	Column string
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("loader: schema error in %s.%s: %s", e.Table, e.Column, e.Detail)
}

// Result is the loader's output contract: two ordered student sequences,
// each sorted by (population_tag, id), ready to be cross-joined with the
// candidate-class set by internal/builder and internal/allocation.
type Result struct {
	Enrolled   []domain.Student
	Waitlisted []domain.Student
}

// Load reads parameters, students, classes and grades from source and
// builds Result, applying the grade-promotion rules and active-grade
// filter.
func Load(ctx context.Context, source store.RowSource) (domain.Parameters, Result, error) {
	rawParams, err := source.Parameters(ctx)
	if err != nil {
		return nil, Result{}, fmt.Errorf("loader: reading parameters: %w", err)
	}
	params := domain.Parameters(rawParams)

	enrolledRows, waitlistRows, err := source.Students(ctx)
	if err != nil {
		return nil, Result{}, fmt.Errorf("loader: reading students: %w", err)
	}

	classRows, err := source.Classes(ctx)
	if err != nil {
		return nil, Result{}, fmt.Errorf("loader: reading classes: %w", err)
	}
	classByID := make(map[int]store.ClassRow, len(classRows))
	for _, c := range classRows {
		classByID[c.ID] = c
	}

	gradeRows, err := source.Grades(ctx)
	if err != nil {
		return nil, Result{}, fmt.Errorf("loader: reading grades: %w", err)
	}
	activeGrades := make(map[int]bool, len(gradeRows))
	for _, g := range gradeRows {
		activeGrades[g.ID] = g.Active
	}

	otimizaDentroDoAno := params.Bool("otimiza_dentro_do_ano")
	anoPlanejamento := params.Int("ano_planejamento", 0)

	enrolled, err := buildEnrolled(enrolledRows, classByID, otimizaDentroDoAno)
	if err != nil {
		return nil, Result{}, err
	}
	waitlisted := buildWaitlisted(waitlistRows, otimizaDentroDoAno, anoPlanejamento)

	enrolled = filterActiveGrade(enrolled, activeGrades)
	waitlisted = filterActiveGrade(waitlisted, activeGrades)

	sort.Slice(enrolled, func(i, j int) bool { return enrolled[i].Cod.Less(enrolled[j].Cod) })
	sort.Slice(waitlisted, func(i, j int) bool { return waitlisted[i].Cod.Less(waitlisted[j].Cod) })

	return params, Result{Enrolled: enrolled, Waitlisted: waitlisted}, nil
}

// buildEnrolled builds the enrolled-student population: filter to
// continua = 1, join against the class catalog to recover (school_id,
// current_grade_id), then derive new_grade_id and cluster.
func buildEnrolled(rows []store.EnrolledRow, classByID map[int]store.ClassRow, otimizaDentroDoAno bool) ([]domain.Student, error) {
	promotionStep := 0
	if !otimizaDentroDoAno {
		promotionStep = 1
	}

	students := make([]domain.Student, 0, len(rows))
	for _, row := range rows {
		if !row.Continua {
			continue
		}

		class, ok := classByID[row.TurmaID]
		if !ok {
			return nil, &SchemaError{Table: "turma", Column: "id", Detail: fmt.Sprintf("aluno %d references turma_id %d, which does not exist", row.ID, row.TurmaID)}
		}

		repeatedStep := 0
		if !row.Reprova {
			repeatedStep = promotionStep
		}

		students = append(students, domain.Student{
			Cod:            domain.StudentCod{Population: domain.PopulationEnrolled, ID: row.ID},
			SchoolID:       class.SchoolID,
			GradeID:        class.GradeID,
			NewGradeID:     class.GradeID + repeatedStep,
			Cluster:        row.TurmaID,
			PriorityWeight: 1,
		})
	}
	return students, nil
}

// waitlistCandidate is a waitlist row that survived the null-date drop,
// paired with its parsed enrollment date.
type waitlistCandidate struct {
	row  store.WaitlistRow
	date time.Time
}

// buildWaitlisted builds the waitlisted-student population: derive
// new_grade_id, drop null enrollment dates, and compute priority_weight
// via dense_rank_descending(enrollment_date).
func buildWaitlisted(rows []store.WaitlistRow, otimizaDentroDoAno bool, anoPlanejamento int) []domain.Student {
	var kept []waitlistCandidate
	for _, row := range rows {
		if row.EnrollmentDate == nil {
			continue // null enrollment_date: not placeable, dropped
		}
		t, err := time.Parse(enrollmentDateLayout, *row.EnrollmentDate)
		if err != nil {
			continue // unparseable date behaves like a null one: not placeable
		}
		kept = append(kept, waitlistCandidate{row: row, date: t})
	}

	ranks := denseRankDescending(kept)

	students := make([]domain.Student, 0, len(kept))
	for i, p := range kept {
		gradeStep := 0
		if !otimizaDentroDoAno {
			gradeStep = anoPlanejamento - p.row.ReferenceYear
		}

		students = append(students, domain.Student{
			Cod:            domain.StudentCod{Population: domain.PopulationWaitlisted, ID: p.row.ID},
			SchoolID:       p.row.SchoolID,
			GradeID:        p.row.GradeID,
			NewGradeID:     p.row.GradeID + gradeStep,
			Cluster:        0,
			PriorityWeight: float64(ranks[i]) / float64(len(kept)),
			EnrollmentDate: *p.row.EnrollmentDate,
		})
	}
	return students
}

// denseRankDescending assigns each kept[i] its dense rank over distinct
// enrollment dates, ranking the latest date 1 and the earliest date
// len(distinct dates): so the earliest applicant gets the largest rank,
// and priority_weight = rank/|waitlist| is maximal for the earliest
// applicant.
func denseRankDescending(kept []waitlistCandidate) []int {
	distinct := make([]time.Time, 0, len(kept))
	seen := make(map[int64]bool, len(kept))
	for _, p := range kept {
		key := p.date.Unix()
		if !seen[key] {
			seen[key] = true
			distinct = append(distinct, p.date)
		}
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i].Before(distinct[j]) })

	rankByDate := make(map[int64]int, len(distinct))
	n := len(distinct)
	for i, d := range distinct {
		rankByDate[d.Unix()] = n - i // earliest (i=0) -> rank n, latest -> rank 1
	}

	ranks := make([]int, len(kept))
	for i, p := range kept {
		ranks[i] = rankByDate[p.date.Unix()]
	}
	return ranks
}

func filterActiveGrade(students []domain.Student, activeGrades map[int]bool) []domain.Student {
	out := students[:0]
	for _, s := range students {
		if activeGrades[s.NewGradeID] {
			out = append(out, s)
		}
	}
	return out
}
