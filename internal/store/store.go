// Package store is the persistence boundary: it defines the row shapes the
// core reads and writes, and backs them with a concrete SQL implementation.
// internal/loader, internal/builder and internal/allocation depend only on
// the RowSource/RowSink interfaces below, never on database/sql directly.
package store

import (
	"context"

	"github.com/matmov/alocador/internal/allocation"
)

// EnrolledRow is one row of `aluno`. RowSource returns every row; the
// loader filters them to continua = 1.
type EnrolledRow struct {
	ID       int
	TurmaID  int
	Reprova  bool
	Continua bool
}

// WaitlistRow is one row of `formulario_inscricao`. EnrollmentDate is the
// raw dd/mm/yyyy string; a nil pointer represents a null enrollment_date
// (the loader drops those rows).
type WaitlistRow struct {
	ID             int
	SchoolID       int
	GradeID        int
	EnrollmentDate *string
	ReferenceYear  int
}

// GradeRow is one row of `serie`.
type GradeRow struct {
	ID     int
	Name   string
	Active bool
}

// ClassRow is one row of `turma`: either the current catalog (Branch B) or
// what the loader joins against to recover an enrolled student's
// (school_id, current_grade_id) (Branch A and B alike).
type ClassRow struct {
	ID       int
	SchoolID int
	GradeID  int
}

// SchoolRow is one row of `escola`.
type SchoolRow struct {
	ID       int
	RegionID int
	Name     string
}

// RegionRow is one row of `regiao`.
type RegionRow struct {
	ID   int
	Name string
}

// RowSource is everything the core reads, read-only.
type RowSource interface {
	Parameters(ctx context.Context) (map[string]int, error)
	Students(ctx context.Context) (enrolled []EnrolledRow, waitlisted []WaitlistRow, err error)
	Grades(ctx context.Context) ([]GradeRow, error)
	Classes(ctx context.Context) ([]ClassRow, error)
	Schools(ctx context.Context) ([]SchoolRow, error)
	Regions(ctx context.Context) ([]RegionRow, error)
}

// RowSink is everything the core writes, on success or on cleanly-reported
// infeasibility.
type RowSink interface {
	WriteSolution(ctx context.Context, sol allocation.Solution) error
	Clear(ctx context.Context) error
}
