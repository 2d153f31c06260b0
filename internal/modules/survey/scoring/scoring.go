package scoring

import (
	"fmt"
	"sort"
	"strings"

	types "github.com/earthnet/frame-survey/internal/domain"
)

// Answer is one response reduced to what scoring needs.
type Answer struct {
	Sequence   int
	Value      int
	Categories []uint
}

type Result struct {
	Name   string
	Scores map[uint]int
	// Named carries the same scores keyed by category name, for logging.
	Named map[string]int
}

// AnswersFrom joins responses with the task's questions. A response for a
// question the task does not own is a configuration error.
func AnswersFrom(responses []*types.Response, questions []*types.Question) ([]Answer, error) {
	byID := make(map[uint]*types.Question, len(questions))
	for _, q := range questions {
		if q != nil {
			byID[q.ID] = q
		}
	}
	out := make([]Answer, 0, len(responses))
	for _, r := range responses {
		if r == nil {
			continue
		}
		q, ok := byID[r.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: response %d references unknown question %d", ErrConfiguration, r.ID, r.QuestionID)
		}
		cats := make([]uint, 0, len(q.Categories))
		for _, c := range q.Categories {
			cats = append(cats, c.ID)
		}
		out = append(out, Answer{Sequence: q.SequenceNum, Value: r.Value, Categories: cats})
	}
	return out, nil
}

// Score tallies answers into per-category scores and names the winning side
// of every touched axis.
//
// Answers are visited by question sequence, categories by id within a
// question. The first category seen on an axis is its left-hand side and wins
// only with a strictly greater score; a tie goes to its opposite. Axis names
// are joined in order of the left-hand category id.
func Score(answers []Answer, axes *AxisTable) (Result, error) {
	if axes == nil {
		return Result{}, fmt.Errorf("%w: no axis table", ErrConfiguration)
	}

	sorted := make([]Answer, len(answers))
	copy(sorted, answers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })

	scores := map[uint]int{}
	var seen []uint
	for _, a := range sorted {
		cats := append([]uint(nil), a.Categories...)
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		for _, c := range cats {
			if _, ok := scores[c]; !ok {
				seen = append(seen, c)
			}
			scores[c] += a.Value
		}
	}

	type axisWin struct {
		left   uint
		winner uint
	}
	visited := map[uint]bool{}
	var wins []axisWin
	for _, c := range seen {
		if visited[c] {
			continue
		}
		opp, ok := axes.Opposite(c)
		if !ok {
			return Result{}, fmt.Errorf("%w: category %d is not on any axis", ErrConfiguration, c)
		}
		winner := opp
		if scores[c] > scores[opp] {
			winner = c
		}
		wins = append(wins, axisWin{left: c, winner: winner})
		visited[c] = true
		visited[opp] = true
	}
	sort.SliceStable(wins, func(i, j int) bool { return wins[i].left < wins[j].left })

	names := make([]string, 0, len(wins))
	for _, w := range wins {
		names = append(names, axes.Name(w.winner))
	}

	named := make(map[string]int, len(scores))
	for id, s := range scores {
		named[axes.Name(id)] = s
	}
	return Result{
		Name:   strings.Join(names, " "),
		Scores: scores,
		Named:  named,
	}, nil
}

// Classify finds the cluster whose name matches the result.
func Classify(res Result, clusters []*types.Cluster) (*types.Cluster, error) {
	for _, c := range clusters {
		if c != nil && c.Name == res.Name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: no cluster named %q", ErrConfiguration, res.Name)
}
