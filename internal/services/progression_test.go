package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/earthnet/frame-survey/internal/data/repos"
	"github.com/earthnet/frame-survey/internal/data/repos/testutil"
	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/platform/apierr"
)

type progressionFixture struct {
	db         *gorm.DB
	survey     *testutil.ReferenceSurvey
	svc        ProgressionService
	dispatcher *recordingDispatcher
}

func newProgressionFixture(t *testing.T) *progressionFixture {
	t.Helper()
	db := testutil.DB(t)
	logg := testutil.Logger(t)
	rs := testutil.SeedReferenceSurvey(t, context.Background(), db)

	dispatcher := &recordingDispatcher{}
	svc := NewProgressionService(ProgressionDeps{
		DB:          db,
		Log:         logg,
		Tasks:       repos.NewTaskRepo(db, logg),
		Categories:  repos.NewCategoryRepo(db, logg),
		Clusters:    repos.NewClusterRepo(db, logg),
		Responses:   repos.NewResponseRepo(db, logg),
		Completions: repos.NewCompletionRepo(db, logg),
		Questions:   NewQuestionCache(logg, repos.NewQuestionRepo(db, logg)),
		Validator:   fakeValidator{},
		Collection:  fakeCollection{size: 41},
		Mints:       dispatcher,
	}, ProgressionConfig{
		BypassFID:     DefaultBypassFID,
		GatewayURL:    "https://gw.example/ipfs",
		StartImageURL: "https://img.example/start.png",
		ClaimImageURL: "https://img.example/claim.png",
		FinalImageURL: "https://img.example/final.png",
		NFTBaseURLs:   map[string]string{"polygon": "https://opensea.io/collection/survey"},
	})
	return &progressionFixture{db: db, survey: rs, svc: svc, dispatcher: dispatcher}
}

func (f *progressionFixture) post(t *testing.T, page int, message string) (*Page, error) {
	t.Helper()
	return f.svc.Progress(context.Background(), ProgressInput{
		TaskID:       f.survey.Task.ID,
		PageNum:      page,
		MessageBytes: message,
	})
}

func (f *progressionFixture) countCompletions(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&types.Completion{}).Where("task_id = ?", f.survey.Task.ID).Count(&n).Error; err != nil {
		t.Fatalf("count completions: %v", err)
	}
	return n
}

func expectOutcome(t *testing.T, err error, sentinel error, status int) {
	t.Helper()
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %v, got %v", sentinel, err)
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != status {
		t.Fatalf("expected status %d, got %v", status, err)
	}
}

func TestProgress_NoSuchSurvey(t *testing.T) {
	f := newProgressionFixture(t)
	_, err := f.svc.Progress(context.Background(), ProgressInput{TaskID: f.survey.Task.ID + 100, PageNum: 1, MessageBytes: msg(1, "a", 1, "")})
	expectOutcome(t, err, ErrNoSuchSurvey, http.StatusNotFound)
}

func TestProgress_StartPage(t *testing.T) {
	f := newProgressionFixture(t)
	page, err := f.post(t, 0, "")
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if page.Kind != PageStart || page.PostPage != 1 || len(page.Buttons) != 4 || page.ImageURL != "https://img.example/start.png" {
		t.Fatalf("unexpected start page: %+v", page)
	}
}

func TestProgress_InvalidMessage(t *testing.T) {
	f := newProgressionFixture(t)
	_, err := f.post(t, 1, "garbage")
	expectOutcome(t, err, ErrInvalidMessage, http.StatusUnauthorized)

	_, err = f.post(t, 1, msg(42, "alice", 5, "0xabc"))
	expectOutcome(t, err, ErrInvalidMessage, http.StatusBadRequest)

	var n int64
	if err := f.db.Model(&types.Response{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no responses, got %d", n)
	}
}

func TestProgress_AnswerAdvancesPages(t *testing.T) {
	f := newProgressionFixture(t)

	page, err := f.post(t, 1, msg(42, "alice", 1, "0xabc"))
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if page.Kind != PageQuestion || page.PostPage != 2 || page.ImageURL != "https://gw.example/ipfs/QmQuestion2" {
		t.Fatalf("unexpected page after 1: %+v", page)
	}

	page, err = f.post(t, 4, msg(42, "alice", 2, "0xabc"))
	if err != nil {
		t.Fatalf("page 4: %v", err)
	}
	if page.Kind != PageClaim || page.PostPage != 5 || len(page.Buttons) != 1 {
		t.Fatalf("unexpected page after 4: %+v", page)
	}
}

func TestProgress_ResubmissionOverwrites(t *testing.T) {
	f := newProgressionFixture(t)
	if _, err := f.post(t, 1, msg(42, "alice", 1, "")); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := f.post(t, 1, msg(42, "alice", 4, "")); err != nil {
		t.Fatalf("second: %v", err)
	}
	var rows []types.Response
	if err := f.db.Where("user_fid = ?", 42).Find(&rows).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 || rows[0].Value != -2 {
		t.Fatalf("expected one row with -2, got %+v", rows)
	}
}

func answerAll(t *testing.T, f *progressionFixture, fid int64, username string) {
	t.Helper()
	// Buttons 1,4,2,3 are values 2,-2,1,-1.
	for i, btn := range []int{1, 4, 2, 3} {
		if _, err := f.post(t, i+1, msg(fid, username, btn, "0xabc")); err != nil {
			t.Fatalf("answer %d: %v", i+1, err)
		}
	}
}

func TestProgress_FinalizeMintsOnce(t *testing.T) {
	f := newProgressionFixture(t)
	answerAll(t, f, 42, "alice")

	page, err := f.post(t, 5, msg(42, "alice", 1, "0xabc"))
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if page.Kind != PageEnd || page.NFTURL != "https://opensea.io/collection/survey/42" {
		t.Fatalf("unexpected end page: %+v", page)
	}

	var c types.Completion
	if err := f.db.Preload("Cluster").Where("task_id = ? AND user_fid = ?", f.survey.Task.ID, 42).First(&c).Error; err != nil {
		t.Fatalf("load completion: %v", err)
	}
	if c.Cluster == nil || c.Cluster.Name != "Structured Collectivist" {
		t.Fatalf("unexpected cluster: %+v", c.Cluster)
	}
	if c.TokenID != nil || c.TokenOrdinal != 42 || c.MintStatus != types.MintStatusPending || c.Recipient != "0xabc" {
		t.Fatalf("unexpected completion: %+v", c)
	}

	jobs := f.dispatcher.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(jobs))
	}
	job := jobs[0]
	if job.CompletionID != c.ID || job.TokenOrdinal != 42 || job.Recipient != "0xabc" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Metadata.Name != "Structured Collectivist" || job.Metadata.Image != "ipfs://QmStructuredCollectivist" {
		t.Fatalf("unexpected metadata: %+v", job.Metadata)
	}
	if len(job.Metadata.Attributes) != 4 || job.Metadata.Attributes[0].Value != "Strongly Agree" || job.Metadata.Attributes[1].Value != "Strongly Disagree" {
		t.Fatalf("unexpected attributes: %+v", job.Metadata.Attributes)
	}

	_, err = f.post(t, 5, msg(42, "alice", 1, "0xabc"))
	expectOutcome(t, err, ErrAlreadyCompleted, http.StatusConflict)
	_, err = f.post(t, 1, msg(42, "alice", 1, "0xabc"))
	expectOutcome(t, err, ErrAlreadyCompleted, http.StatusConflict)

	if n := f.countCompletions(t); n != 1 {
		t.Fatalf("expected 1 completion, got %d", n)
	}
	if len(f.dispatcher.Jobs()) != 1 {
		t.Fatalf("expected no further dispatch")
	}
}

func TestProgress_CompletedUserChecksPrecedeFinalization(t *testing.T) {
	f := newProgressionFixture(t)
	answerAll(t, f, 42, "alice")
	if _, err := f.post(t, 5, msg(42, "alice", 1, "0xabc")); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	_, err := f.post(t, 5, msg(42, "alice", 1, ""))
	expectOutcome(t, err, ErrAlreadyCompleted, http.StatusConflict)

	svc := f.svc.(*progressionService)
	svc.deps.Collection = fakeCollection{err: errors.New("relay down")}
	_, err = f.post(t, 5, msg(42, "alice", 1, "0xabc"))
	expectOutcome(t, err, ErrAlreadyCompleted, http.StatusConflict)

	if n := f.countCompletions(t); n != 1 {
		t.Fatalf("expected 1 completion, got %d", n)
	}
	if len(f.dispatcher.Jobs()) != 1 {
		t.Fatalf("expected no further dispatch, got %d", len(f.dispatcher.Jobs()))
	}
}

func TestProgress_NoAddress(t *testing.T) {
	f := newProgressionFixture(t)
	answerAll(t, f, 42, "alice")

	_, err := f.post(t, 5, msg(42, "alice", 1, ""))
	expectOutcome(t, err, ErrNoAddress, http.StatusUnprocessableEntity)
	if n := f.countCompletions(t); n != 0 {
		t.Fatalf("expected no completion, got %d", n)
	}
	if len(f.dispatcher.Jobs()) != 0 {
		t.Fatalf("expected no dispatch")
	}
}

func TestProgress_FinalizeWithoutAnswers(t *testing.T) {
	f := newProgressionFixture(t)
	_, err := f.post(t, 5, msg(7, "bob", 1, "0xb0b"))
	expectOutcome(t, err, ErrIncomplete, http.StatusConflict)
	if n := f.countCompletions(t); n != 0 {
		t.Fatalf("expected no completion, got %d", n)
	}
}

func TestProgress_BypassFIDReusesCompletion(t *testing.T) {
	f := newProgressionFixture(t)
	answerAll(t, f, DefaultBypassFID, "tester")

	for i := 0; i < 2; i++ {
		if _, err := f.post(t, 5, msg(DefaultBypassFID, "tester", 1, "0xfeed")); err != nil {
			t.Fatalf("finalize %d: %v", i+1, err)
		}
	}
	if n := f.countCompletions(t); n != 1 {
		t.Fatalf("expected 1 completion row, got %d", n)
	}
	jobs := f.dispatcher.Jobs()
	if len(jobs) != 2 || jobs[0].CompletionID != jobs[1].CompletionID {
		t.Fatalf("expected two dispatches for the same completion, got %+v", jobs)
	}
}

func TestProgress_ConcurrentFinalize(t *testing.T) {
	f := newProgressionFixture(t)
	answerAll(t, f, 42, "alice")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Progress(context.Background(), ProgressInput{
				TaskID:       f.survey.Task.ID,
				PageNum:      5,
				MessageBytes: msg(42, "alice", 1, "0xabc"),
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyCompleted):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one successful finalize, got %d", ok)
	}
	if c := f.countCompletions(t); c != 1 {
		t.Fatalf("expected 1 completion, got %d", c)
	}
	if len(f.dispatcher.Jobs()) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(f.dispatcher.Jobs()))
	}
}

func TestProgress_CollectionFailureIsNotAnOutcome(t *testing.T) {
	f := newProgressionFixture(t)
	answerAll(t, f, 42, "alice")
	svc := f.svc.(*progressionService)
	svc.deps.Collection = fakeCollection{err: errors.New("relay down")}

	_, err := f.post(t, 5, msg(42, "alice", 1, "0xabc"))
	if err == nil {
		t.Fatalf("expected error")
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		t.Fatalf("expected plain error, got outcome %v", ae)
	}
	if n := f.countCompletions(t); n != 0 {
		t.Fatalf("expected no completion, got %d", n)
	}
}
