package allocation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matmov/alocador/internal/builder"
	"github.com/matmov/alocador/internal/domain"
)

// Scenario 4: new-class synthesis. The builder synthesizes candidate rooms
// from demand; the allocation run then opens as many of them as the budget
// allows, end to end.
func TestScenarioNewClassSynthesis(t *testing.T) {
	lookups := builder.Lookups{
		Regions: map[int]domain.Region{1: {ID: 1, Name: "norte"}},
		Grades:  map[int]domain.Grade{1: {ID: 1, Name: "Primeiro"}},
		Schools: map[int]domain.School{10: {ID: 10, RegionID: 1, Name: "Escola A"}},
	}

	var waitlisted []domain.Student
	for i := 0; i < 45; i++ {
		waitlisted = append(waitlisted, waitlistedStudent(i+1, 10, 1, "01/01/2024", 1))
	}

	buildParams := domain.Parameters{"possibilita_abertura_novas_turmas": 1, "qtd_max_alunos": 20}
	classes, err := builder.Build(buildParams, waitlisted, nil, lookups)
	require.NoError(t, err)
	require.Len(t, classes, 3) // ceil(45/20) = 3 candidate rooms

	t.Run("budget allows all three rooms", func(t *testing.T) {
		params := baseParams(domain.Parameters{
			"qtd_max_alunos":             20,
			"custo_aluno":                1,
			"custo_professor":            100,
			"qtd_professores_acd":        1,
			"qtd_professores_pedagogico": 0,
			"limite_custo":               345, // 3*100 + 45
		})
		sol, err := Run(context.Background(), params, nil, waitlisted, classes)
		require.NoError(t, err)
		assert.Len(t, sol.OpenedClasses, 3)
		assert.Len(t, sol.WaitlistPlaced, 45)
	})

	t.Run("budget allows only two rooms", func(t *testing.T) {
		params := baseParams(domain.Parameters{
			"qtd_max_alunos":             20,
			"custo_aluno":                1,
			"custo_professor":            100,
			"qtd_professores_acd":        1,
			"qtd_professores_pedagogico": 0,
			"limite_custo":               250, // too little for a 3rd class (3*100 + any students > 250)
		})
		sol, err := Run(context.Background(), params, nil, waitlisted, classes)
		require.NoError(t, err)
		assert.Len(t, sol.OpenedClasses, 2)
		assert.Len(t, sol.WaitlistPlaced, 40)
	})
}
