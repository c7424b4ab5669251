// Package builder implements the candidate class builder: given student
// demand per (school, grade), it either synthesizes enough candidate
// classes to cover that demand, or passes through the existing class
// catalog with only Name and RoomOrdinal derived.
package builder

import (
	"fmt"
	"math"
	"sort"

	"github.com/matmov/alocador/internal/domain"
)

// roomLetters is the room-ordinal alphabet: at most 4 rooms per
// (school, grade).
var roomLetters = [...]byte{'A', 'B', 'C', 'D'}

// RoomCapacityExceededError reports that a (school, grade) group's demand
// would need more than len(roomLetters) rooms to cover, rather than
// silently truncating to however many room letters exist.
type RoomCapacityExceededError struct {
	SchoolID, GradeID int
	RoomsNeeded       int
}

func (e *RoomCapacityExceededError) Error() string {
	return fmt.Sprintf("builder: school %d grade %d needs %d rooms, exceeding the %d-room alphabet", e.SchoolID, e.GradeID, e.RoomsNeeded, len(roomLetters))
}

// Lookups is the reference data CandidateClass.Name derivation joins
// against: region, grade and school rows (regiao/serie/escola in the
// source schema), keyed by id.
type Lookups struct {
	Regions map[int]domain.Region
	Grades  map[int]domain.Grade
	Schools map[int]domain.School
}

type groupKey struct {
	schoolID, gradeID int
}

// Build synthesizes or passes through the candidate-class catalog,
// depending on params["possibilita_abertura_novas_turmas"]. Both branches
// derive Name/RoomOrdinal the same way: rooms are numbered in ascending
// class_id order within each (school_id, grade_id) group.
func Build(params domain.Parameters, students []domain.Student, existing []domain.CandidateClass, lookups Lookups) ([]domain.CandidateClass, error) {
	if !params.Bool("possibilita_abertura_novas_turmas") {
		return nameExisting(existing, lookups) // Branch B: existing catalog, named
	}
	return buildSynthesized(params, students, lookups)
}

// nameExisting is Branch B: the existing class catalog passed through
// unchanged except for Name/RoomOrdinal, which it derives the same way
// buildSynthesized does, so sol_turma never receives an empty nome for a
// class that was never itself synthesized.
func nameExisting(existing []domain.CandidateClass, lookups Lookups) ([]domain.CandidateClass, error) {
	byGroup := make(map[groupKey][]domain.CandidateClass, len(existing))
	for _, c := range existing {
		key := groupKey{c.SchoolID, c.GradeID}
		byGroup[key] = append(byGroup[key], c)
	}
	for key := range byGroup {
		group := byGroup[key]
		sort.Slice(group, func(i, j int) bool { return group[i].ClassID < group[j].ClassID })
		byGroup[key] = group
	}

	named := make(map[int]domain.CandidateClass, len(existing))
	for key, group := range byGroup {
		if len(group) > len(roomLetters) {
			return nil, &RoomCapacityExceededError{SchoolID: key.schoolID, GradeID: key.gradeID, RoomsNeeded: len(group)}
		}
		for i, c := range group {
			ordinal := i + 1
			name, err := className(c.SchoolID, c.GradeID, ordinal, lookups)
			if err != nil {
				return nil, err
			}
			c.Name = name
			c.RoomOrdinal = ordinal
			named[c.ClassID] = c
		}
	}

	out := make([]domain.CandidateClass, len(existing))
	for i, c := range existing {
		out[i] = named[c.ClassID]
	}
	return out, nil
}

// buildSynthesized is Branch A: group demand, drop under-threshold groups,
// emit ceil(demand/qtd_max_alunos) rooms per surviving group, and assign
// dense 1-based class ids in group order.
func buildSynthesized(params domain.Parameters, students []domain.Student, lookups Lookups) ([]domain.CandidateClass, error) {
	qtdMax := params.Int("qtd_max_alunos", 0)
	if qtdMax <= 0 {
		return nil, fmt.Errorf("builder: qtd_max_alunos must be positive, got %d", qtdMax)
	}
	minPerClass, hasMin := params["min_aluno_por_turma"]

	demand := make(map[groupKey]int)
	for _, s := range students {
		demand[groupKey{s.SchoolID, s.NewGradeID}]++
	}

	keys := make([]groupKey, 0, len(demand))
	for k := range demand {
		if hasMin && demand[k] < minPerClass {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].schoolID != keys[j].schoolID {
			return keys[i].schoolID < keys[j].schoolID
		}
		return keys[i].gradeID < keys[j].gradeID
	})

	var classes []domain.CandidateClass
	nextID := 1
	for _, k := range keys {
		rooms := int(math.Ceil(float64(demand[k]) / float64(qtdMax)))
		if rooms > len(roomLetters) {
			return nil, &RoomCapacityExceededError{SchoolID: k.schoolID, GradeID: k.gradeID, RoomsNeeded: rooms}
		}

		for ordinal := 1; ordinal <= rooms; ordinal++ {
			name, err := className(k.schoolID, k.gradeID, ordinal, lookups)
			if err != nil {
				return nil, err
			}
			classes = append(classes, domain.CandidateClass{
				ClassID:     nextID,
				SchoolID:    k.schoolID,
				GradeID:     k.gradeID,
				Name:        name,
				RoomOrdinal: ordinal,
			})
			nextID++
		}
	}
	return classes, nil
}

// className derives region_name + "_" + first_letter(grade_name) + room_suffix.
func className(schoolID, gradeID, roomOrdinal int, lookups Lookups) (string, error) {
	school, ok := lookups.Schools[schoolID]
	if !ok {
		return "", fmt.Errorf("builder: no school lookup for school_id %d", schoolID)
	}
	region, ok := lookups.Regions[school.RegionID]
	if !ok {
		return "", fmt.Errorf("builder: no region lookup for region_id %d", school.RegionID)
	}
	grade, ok := lookups.Grades[gradeID]
	if !ok {
		return "", fmt.Errorf("builder: no grade lookup for grade_id %d", gradeID)
	}
	if grade.Name == "" {
		return "", fmt.Errorf("builder: grade %d has an empty name", gradeID)
	}
	if roomOrdinal < 1 || roomOrdinal > len(roomLetters) {
		return "", fmt.Errorf("builder: room ordinal %d out of range", roomOrdinal)
	}

	return fmt.Sprintf("%s_%c%c", region.Name, grade.Name[0], roomLetters[roomOrdinal-1]), nil
}
