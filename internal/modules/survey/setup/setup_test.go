package setup

import (
	"context"
	"strings"
	"testing"

	"github.com/earthnet/frame-survey/internal/data/repos"
	"github.com/earthnet/frame-survey/internal/data/repos/testutil"
	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/modules/survey/scoring"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
)

const referenceYAML = `
task:
  title: Work Style
  description: Which work style are you?
  network: mumbai
  contract_address: "0x5A05289A5Ffbfa6a45663D092A0fE7C1Bc0c5bc9"
axes:
  - {left: Structured, right: Creative}
  - {left: Individualist, right: Collectivist}
questions:
  - text: I enjoy brainstorming with a group
    image_path: images/q1.png
    categories: [Creative, Collectivist]
  - text: I come up with ideas best on my own
    image_path: images/q2.png
    image_ipfs_hash: QmQ2
    categories: [Creative, Individualist]
  - text: I like to plan my work alone
    image_path: images/q3.png
    image_ipfs_hash: QmQ3
    categories: [Structured, Individualist]
  - text: Teams need clear processes
    image_path: images/q4.png
    image_ipfs_hash: QmQ4
    categories: [Structured, Collectivist]
clusters:
  - {name: Structured Individualist, image_ipfs_hash: QmSI}
  - {name: Structured Collectivist, image_ipfs_hash: QmSC}
  - {name: Creative Individualist, image_ipfs_hash: QmCI}
  - {name: Creative Collectivist, image_ipfs_hash: QmCC}
`

type fakePinner struct {
	paths []string
}

func (f *fakePinner) PinFile(ctx context.Context, path string) (string, error) {
	f.paths = append(f.paths, path)
	return "QmPinned", nil
}

func TestParseRejectsIncompleteClusters(t *testing.T) {
	bad := strings.Replace(referenceYAML, "  - {name: Creative Collectivist, image_ipfs_hash: QmCC}\n", "", 1)
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatalf("expected error for missing cluster")
	}
	unknown := strings.Replace(referenceYAML, "[Structured, Collectivist]", "[Structured, Chaotic]", 1)
	if _, err := Parse([]byte(unknown)); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestClusterNames(t *testing.T) {
	got := ClusterNames([]AxisDef{{Left: "A", Right: "B"}, {Left: "C", Right: "D"}})
	want := []string{"A C", "A D", "B C", "B D"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("ClusterNames=%v want %v", got, want)
	}
}

func TestApplyCreatesSurvey(t *testing.T) {
	db := testutil.DB(t)
	logg := testutil.Logger(t)
	ctx := context.Background()

	def, err := Parse([]byte(referenceYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	pinner := &fakePinner{}
	var invalidated []uint
	deps := Deps{
		DB:               db,
		Log:              logg,
		Tasks:            repos.NewTaskRepo(db, logg),
		Categories:       repos.NewCategoryRepo(db, logg),
		Questions:        repos.NewQuestionRepo(db, logg),
		Clusters:         repos.NewClusterRepo(db, logg),
		Pinner:           pinner,
		QuestionsChanged: func(ctx context.Context, taskID uint) error {
			invalidated = append(invalidated, taskID)
			return nil
		},
	}

	if _, err := Apply(ctx, deps, def, Options{}); err == nil {
		t.Fatalf("expected error when a hash is missing and pinning is off")
	}

	task, err := Apply(ctx, deps, def, Options{PinImages: true, BaseDir: "/surveys"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(pinner.paths) != 1 || pinner.paths[0] != "/surveys/images/q1.png" {
		t.Fatalf("unexpected pins: %v", pinner.paths)
	}
	if len(invalidated) != 1 || invalidated[0] != task.ID {
		t.Fatalf("expected question invalidation for task %d, got %v", task.ID, invalidated)
	}

	dbc := dbctx.Context{Ctx: ctx}
	cats, err := deps.Categories.ListByTask(dbc, task.ID)
	if err != nil {
		t.Fatalf("ListByTask: %v", err)
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "Structured,Creative,Individualist,Collectivist" {
		t.Fatalf("categories not in definition order: %v", names)
	}
	axes, err := scoring.BuildAxisTable(cats)
	if err != nil {
		t.Fatalf("BuildAxisTable: %v", err)
	}

	questions, err := deps.Questions.ListByTask(dbc, task.ID)
	if err != nil {
		t.Fatalf("Questions.ListByTask: %v", err)
	}
	if len(questions) != 4 || questions[0].ImageIPFSHash != "QmPinned" {
		t.Fatalf("unexpected questions: %+v", questions)
	}

	responses := []*types.Response{
		{ID: 1, QuestionID: questions[0].ID, Value: 2},
		{ID: 2, QuestionID: questions[1].ID, Value: -2},
		{ID: 3, QuestionID: questions[2].ID, Value: 1},
		{ID: 4, QuestionID: questions[3].ID, Value: -1},
	}
	answers, err := scoring.AnswersFrom(responses, questions)
	if err != nil {
		t.Fatalf("AnswersFrom: %v", err)
	}
	res, err := scoring.Score(answers, axes)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	clusters, err := deps.Clusters.ListByTask(dbc, task.ID)
	if err != nil {
		t.Fatalf("Clusters.ListByTask: %v", err)
	}
	cluster, err := scoring.Classify(res, clusters)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cluster.Name != "Structured Collectivist" || cluster.ImageIPFSHash != "QmSC" {
		t.Fatalf("unexpected cluster: %+v", cluster)
	}
}
