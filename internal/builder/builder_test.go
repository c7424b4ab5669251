package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matmov/alocador/internal/domain"
)

func testLookups() Lookups {
	return Lookups{
		Regions: map[int]domain.Region{1: {ID: 1, Name: "norte"}},
		Grades:  map[int]domain.Grade{1: {ID: 1, Name: "Primeiro"}, 3: {ID: 3, Name: "Terceiro"}},
		Schools: map[int]domain.School{10: {ID: 10, RegionID: 1, Name: "Escola A"}},
	}
}

func TestBuildBranchBPassesThroughExistingCatalogAndDerivesNames(t *testing.T) {
	existing := []domain.CandidateClass{
		{ClassID: 1, SchoolID: 10, GradeID: 1},
		{ClassID: 2, SchoolID: 10, GradeID: 1},
	}
	params := domain.Parameters{"possibilita_abertura_novas_turmas": 0}

	classes, err := Build(params, nil, existing, testLookups())
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, 1, classes[0].ClassID)
	assert.Equal(t, "norte_PA", classes[0].Name)
	assert.Equal(t, 1, classes[0].RoomOrdinal)
	assert.Equal(t, 2, classes[1].ClassID)
	assert.Equal(t, "norte_PB", classes[1].Name)
	assert.Equal(t, 2, classes[1].RoomOrdinal)
}

func TestBuildBranchASynthesizesRoomsByDemand(t *testing.T) {
	params := domain.Parameters{
		"possibilita_abertura_novas_turmas": 1,
		"qtd_max_alunos":                    20,
	}
	students := make([]domain.Student, 45)
	for i := range students {
		students[i] = domain.Student{SchoolID: 10, NewGradeID: 1}
	}

	classes, err := Build(params, students, nil, testLookups())
	require.NoError(t, err)
	require.Len(t, classes, 3) // ceil(45/20) = 3

	for i, c := range classes {
		assert.Equal(t, i+1, c.ClassID)
		assert.Equal(t, 10, c.SchoolID)
		assert.Equal(t, 1, c.GradeID)
	}
	assert.Equal(t, "norte_PA", classes[0].Name)
	assert.Equal(t, "norte_PB", classes[1].Name)
	assert.Equal(t, "norte_PC", classes[2].Name)
}

func TestBuildBranchADropsGroupsBelowMinimum(t *testing.T) {
	params := domain.Parameters{
		"possibilita_abertura_novas_turmas": 1,
		"qtd_max_alunos":                    20,
		"min_aluno_por_turma":               10,
	}
	students := []domain.Student{
		{SchoolID: 10, NewGradeID: 1},
		{SchoolID: 10, NewGradeID: 1},
	}

	classes, err := Build(params, students, nil, testLookups())
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func TestBuildBranchAReportsRoomCapacityExceeded(t *testing.T) {
	params := domain.Parameters{
		"possibilita_abertura_novas_turmas": 1,
		"qtd_max_alunos":                    1,
	}
	students := make([]domain.Student, 5)
	for i := range students {
		students[i] = domain.Student{SchoolID: 10, NewGradeID: 1}
	}

	_, err := Build(params, students, nil, testLookups())
	require.Error(t, err)
	var capErr *RoomCapacityExceededError
	assert.ErrorAs(t, err, &capErr)
}
