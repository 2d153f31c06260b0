package testutil

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/gorm"

	types "github.com/earthnet/frame-survey/internal/domain"
)

// ReferenceSurvey is the two-axis survey used across repo and service tests:
// Structured/Creative and Individualist/Collectivist, four questions, four
// clusters.
type ReferenceSurvey struct {
	Task       *types.Task
	Categories map[string]*types.Category
	Questions  []*types.Question
	Clusters   map[string]*types.Cluster
}

var referenceQuestions = []struct {
	text string
	cats [2]string
}{
	{"I enjoy brainstorming with a group", [2]string{"Creative", "Collectivist"}},
	{"I come up with ideas best on my own", [2]string{"Creative", "Individualist"}},
	{"I like to plan my work alone", [2]string{"Structured", "Individualist"}},
	{"Teams need clear processes", [2]string{"Structured", "Collectivist"}},
}

func SeedReferenceSurvey(tb testing.TB, ctx context.Context, tx *gorm.DB) *ReferenceSurvey {
	tb.Helper()

	task := &types.Task{
		Title:           "Work Style",
		Description:     "Which work style are you?",
		Network:         "polygon",
		ContractAddress: "0x00000000000000000000000000000000000000aa",
	}
	if err := tx.WithContext(ctx).Create(task).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}

	rs := &ReferenceSurvey{
		Task:       task,
		Categories: map[string]*types.Category{},
		Clusters:   map[string]*types.Cluster{},
	}

	axes := [][2]string{{"Structured", "Creative"}, {"Individualist", "Collectivist"}}
	for _, axis := range axes {
		for _, name := range axis {
			c := &types.Category{TaskID: task.ID, Name: name}
			if err := tx.WithContext(ctx).Create(c).Error; err != nil {
				tb.Fatalf("seed category %s: %v", name, err)
			}
			rs.Categories[name] = c
		}
		a, b := rs.Categories[axis[0]], rs.Categories[axis[1]]
		a.OppositeID, b.OppositeID = PtrUint(b.ID), PtrUint(a.ID)
		if err := tx.WithContext(ctx).Save(a).Error; err != nil {
			tb.Fatalf("pair %s: %v", a.Name, err)
		}
		if err := tx.WithContext(ctx).Save(b).Error; err != nil {
			tb.Fatalf("pair %s: %v", b.Name, err)
		}
	}

	for i, rq := range referenceQuestions {
		q := &types.Question{
			TaskID:        task.ID,
			SequenceNum:   i + 1,
			Text:          rq.text,
			ImagePath:     fmt.Sprintf("images/q%d.png", i+1),
			ImageIPFSHash: fmt.Sprintf("QmQuestion%d", i+1),
			Categories: []types.Category{
				*rs.Categories[rq.cats[0]],
				*rs.Categories[rq.cats[1]],
			},
		}
		if err := tx.WithContext(ctx).Omit("Categories.*").Create(q).Error; err != nil {
			tb.Fatalf("seed question %d: %v", i+1, err)
		}
		rs.Questions = append(rs.Questions, q)
	}

	for _, first := range axes[0] {
		for _, second := range axes[1] {
			name := first + " " + second
			c := &types.Cluster{TaskID: task.ID, Name: name, ImageIPFSHash: "Qm" + first + second}
			if err := tx.WithContext(ctx).Create(c).Error; err != nil {
				tb.Fatalf("seed cluster %s: %v", name, err)
			}
			rs.Clusters[name] = c
		}
	}

	return rs
}

func PtrUint(v uint) *uint { return &v }

func PtrInt64(v int64) *int64 { return &v }
