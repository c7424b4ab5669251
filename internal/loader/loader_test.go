package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matmov/alocador/internal/domain"
	"github.com/matmov/alocador/internal/store"
)

func strPtr(s string) *string { return &s }

type fakeSource struct {
	params     map[string]int
	enrolled   []store.EnrolledRow
	waitlisted []store.WaitlistRow
	grades     []store.GradeRow
	classes    []store.ClassRow
}

func (f fakeSource) Parameters(ctx context.Context) (map[string]int, error) { return f.params, nil }
func (f fakeSource) Students(ctx context.Context) ([]store.EnrolledRow, []store.WaitlistRow, error) {
	return f.enrolled, f.waitlisted, nil
}
func (f fakeSource) Grades(ctx context.Context) ([]store.GradeRow, error)   { return f.grades, nil }
func (f fakeSource) Classes(ctx context.Context) ([]store.ClassRow, error)  { return f.classes, nil }
func (f fakeSource) Schools(ctx context.Context) ([]store.SchoolRow, error) { return nil, nil }
func (f fakeSource) Regions(ctx context.Context) ([]store.RegionRow, error) { return nil, nil }

func TestBuildEnrolledDerivesSchoolGradeAndCluster(t *testing.T) {
	rows := []store.EnrolledRow{
		{ID: 1, TurmaID: 7, Reprova: false, Continua: true},
		{ID: 2, TurmaID: 7, Reprova: true, Continua: true},
		{ID: 3, TurmaID: 7, Reprova: false, Continua: false}, // dropped: doesn't want to continue
	}
	classByID := map[int]store.ClassRow{7: {ID: 7, SchoolID: 3, GradeID: 4}}

	students, err := buildEnrolled(rows, classByID, false)
	require.NoError(t, err)
	require.Len(t, students, 2)

	assert.Equal(t, 5, students[0].NewGradeID) // not repeated, out-of-year promotion -> +1
	assert.Equal(t, 4, students[1].NewGradeID) // repeated -> stays at grade 4
	assert.Equal(t, 7, students[0].Cluster)
	assert.Equal(t, 1.0, students[0].PriorityWeight)
}

func TestBuildEnrolledMissingClassIsSchemaError(t *testing.T) {
	rows := []store.EnrolledRow{{ID: 1, TurmaID: 99, Continua: true}}
	_, err := buildEnrolled(rows, map[int]store.ClassRow{}, false)
	require.Error(t, err)
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestBuildWaitlistedDropsNullDatesAndRanksEarliestHighest(t *testing.T) {
	rows := []store.WaitlistRow{
		{ID: 1, SchoolID: 1, GradeID: 2, EnrollmentDate: strPtr("01/01/2024"), ReferenceYear: 2024},
		{ID: 2, SchoolID: 1, GradeID: 2, EnrollmentDate: strPtr("01/02/2024"), ReferenceYear: 2024},
		{ID: 3, SchoolID: 1, GradeID: 2, EnrollmentDate: nil, ReferenceYear: 2024},
	}

	students := buildWaitlisted(rows, false, 2024)
	require.Len(t, students, 2)

	byID := map[int]domain.Student{}
	for _, s := range students {
		byID[s.Cod.ID] = s
	}

	assert.Greater(t, byID[1].PriorityWeight, byID[2].PriorityWeight)
	assert.Equal(t, 0, byID[1].Cluster)
}

func TestFilterActiveGradeDropsInactive(t *testing.T) {
	students := []domain.Student{
		{Cod: domain.StudentCod{ID: 1}, NewGradeID: 1},
		{Cod: domain.StudentCod{ID: 2}, NewGradeID: 2},
	}
	active := map[int]bool{1: true, 2: false}

	out := filterActiveGrade(students, active)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Cod.ID)
}

func TestLoadOrdersStudentsByPopulationThenID(t *testing.T) {
	source := fakeSource{
		params: map[string]int{"otimiza_dentro_do_ano": 1, "ano_planejamento": 2024},
		enrolled: []store.EnrolledRow{
			{ID: 9, TurmaID: 1, Continua: true},
			{ID: 2, TurmaID: 1, Continua: true},
		},
		waitlisted: []store.WaitlistRow{
			{ID: 5, SchoolID: 1, GradeID: 1, EnrollmentDate: strPtr("01/01/2024"), ReferenceYear: 2024},
		},
		classes: []store.ClassRow{{ID: 1, SchoolID: 1, GradeID: 1}},
		grades:  []store.GradeRow{{ID: 1, Active: true}},
	}

	_, result, err := Load(context.Background(), source)
	require.NoError(t, err)
	require.Len(t, result.Enrolled, 2)
	assert.Equal(t, 2, result.Enrolled[0].Cod.ID)
	assert.Equal(t, 9, result.Enrolled[1].Cod.ID)
	require.Len(t, result.Waitlisted, 1)
}
