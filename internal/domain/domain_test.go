package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStudentCodLessOrdersByPopulationThenID(t *testing.T) {
	enrolled5 := StudentCod{Population: PopulationEnrolled, ID: 5}
	enrolled9 := StudentCod{Population: PopulationEnrolled, ID: 9}
	waitlisted1 := StudentCod{Population: PopulationWaitlisted, ID: 1}

	assert.True(t, enrolled5.Less(enrolled9))
	assert.False(t, enrolled9.Less(enrolled5))
	assert.True(t, enrolled9.Less(waitlisted1))
	assert.False(t, waitlisted1.Less(enrolled5))
}

func TestPopulationTag(t *testing.T) {
	assert.Equal(t, "enrolled", PopulationEnrolled.Tag())
	assert.Equal(t, "waitlisted", PopulationWaitlisted.Tag())
}

func TestStudentIsEnrolled(t *testing.T) {
	s := Student{Cod: StudentCod{Population: PopulationEnrolled, ID: 1}}
	assert.True(t, s.IsEnrolled())

	w := Student{Cod: StudentCod{Population: PopulationWaitlisted, ID: 1}}
	assert.False(t, w.IsEnrolled())
}

func TestParametersIntAndBool(t *testing.T) {
	p := Parameters{
		"qtd_max_alunos":                    30,
		"otimiza_dentro_do_ano":             0,
		"possibilita_abertura_novas_turmas": 1,
	}

	assert.Equal(t, 30, p.Int("qtd_max_alunos", -1))
	assert.Equal(t, -1, p.Int("missing", -1))
	assert.False(t, p.Bool("otimiza_dentro_do_ano"))
	assert.True(t, p.Bool("possibilita_abertura_novas_turmas"))
	assert.False(t, p.Bool("missing"))
}
