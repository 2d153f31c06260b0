package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/earthnet/frame-survey/internal/clients/neynar"
	"github.com/earthnet/frame-survey/internal/data/db"
	"github.com/earthnet/frame-survey/internal/data/repos"
	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/modules/survey"
	"github.com/earthnet/frame-survey/internal/modules/survey/scoring"
	"github.com/earthnet/frame-survey/internal/platform/apierr"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

const DefaultBypassFID int64 = 336572

type PageKind string

const (
	PageStart    PageKind = "start"
	PageQuestion PageKind = "question"
	PageClaim    PageKind = "claim"
	PageEnd      PageKind = "end"
)

// Page is what the frame renderer needs to draw the next card.
type Page struct {
	Kind     PageKind
	TaskID   uint
	Title    string
	ImageURL string
	Buttons  []string
	// PostPage is the page number the buttons post to.
	PostPage int
	// NFTURL is set on the end page.
	NFTURL string
}

type FrameValidator interface {
	ValidateFrameAction(ctx context.Context, messageBytesHex string) (*neynar.Action, error)
}

type CollectionSizer interface {
	CollectionSize(ctx context.Context, network, contract string) (int64, error)
}

type ProgressionConfig struct {
	BypassFID     int64
	GatewayURL    string
	StartImageURL string
	ClaimImageURL string
	FinalImageURL string
	NFTBaseURLs   map[string]string
}

type ProgressInput struct {
	TaskID       uint
	PageNum      int
	MessageBytes string
}

type ProgressionService interface {
	// Progress handles one frame request. Terminal user outcomes come back
	// as *apierr.Error wrapping one of the Err* sentinels; any other error is
	// a configuration or upstream failure.
	Progress(ctx context.Context, in ProgressInput) (*Page, error)
}

type ProgressionDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Tasks       repos.TaskRepo
	Categories  repos.CategoryRepo
	Clusters    repos.ClusterRepo
	Responses   repos.ResponseRepo
	Completions repos.CompletionRepo

	Questions  *QuestionCache
	Validator  FrameValidator
	Collection CollectionSizer
	Mints      MintDispatcher
}

type progressionService struct {
	deps ProgressionDeps
	log  *logger.Logger
	cfg  ProgressionConfig
}

func NewProgressionService(deps ProgressionDeps, cfg ProgressionConfig) ProgressionService {
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		cfg.GatewayURL = "https://gateway.pinata.cloud/ipfs"
	}
	return &progressionService{
		deps: deps,
		log:  deps.Log.With("service", "ProgressionService"),
		cfg:  cfg,
	}
}

func (s *progressionService) Progress(ctx context.Context, in ProgressInput) (*Page, error) {
	task, err := s.deps.Tasks.GetByID(dbctx.Context{Ctx: ctx}, in.TaskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return nil, noSuchSurvey()
	}

	if in.PageNum <= 0 {
		return s.startPage(task), nil
	}

	action, err := s.deps.Validator.ValidateFrameAction(ctx, in.MessageBytes)
	if err != nil {
		s.log.Warn("frame message rejected", "task_id", task.ID, "page", in.PageNum, "error", err)
		return nil, invalidMessage(http.StatusUnauthorized, "invalid_message")
	}
	value, err := survey.ValueForButton(action.ButtonIndex)
	if err != nil {
		s.log.Warn("frame button out of range", "task_id", task.ID, "fid", action.FID, "button", action.ButtonIndex)
		return nil, invalidMessage(http.StatusBadRequest, "invalid_button")
	}

	questions, err := s.deps.Questions.Get(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	if in.PageNum <= len(questions) {
		return s.answer(ctx, task, questions, in.PageNum, action, value)
	}
	return s.finalize(ctx, task, questions, action)
}

func (s *progressionService) startPage(task *types.Task) *Page {
	return &Page{
		Kind:     PageStart,
		TaskID:   task.ID,
		Title:    task.Title,
		ImageURL: s.cfg.StartImageURL,
		Buttons:  survey.AgreementLabels(),
		PostPage: 1,
	}
}

// nextPage renders the card after page p: question p+1, or the claim card.
func (s *progressionService) nextPage(task *types.Task, questions []*types.Question, p int) *Page {
	if p < len(questions) {
		q := questions[p]
		return &Page{
			Kind:     PageQuestion,
			TaskID:   task.ID,
			Title:    task.Title,
			ImageURL: s.gatewayURL(q.ImageIPFSHash),
			Buttons:  survey.AgreementLabels(),
			PostPage: p + 1,
		}
	}
	return &Page{
		Kind:     PageClaim,
		TaskID:   task.ID,
		Title:    task.Title,
		ImageURL: s.cfg.ClaimImageURL,
		Buttons:  []string{"Mint"},
		PostPage: len(questions) + 1,
	}
}

func (s *progressionService) answer(ctx context.Context, task *types.Task, questions []*types.Question, p int, action *neynar.Action, value int) (*Page, error) {
	q := questions[p-1]
	err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.guardCompleted(dbc, task.ID, action.FID); err != nil {
			return err
		}
		return s.deps.Responses.Upsert(dbc, &types.Response{
			QuestionID: q.ID,
			TaskID:     task.ID,
			UserFID:    action.FID,
			Username:   action.Username,
			Value:      value,
		})
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyCompleted) {
			s.log.Warn("user already completed task", "task_id", task.ID, "fid", action.FID)
			return nil, err
		}
		return nil, fmt.Errorf("record response: %w", err)
	}
	s.log.Info("response recorded", "task_id", task.ID, "fid", action.FID, "sequence", q.SequenceNum, "value", value)
	return s.nextPage(task, questions, p), nil
}

func (s *progressionService) guardCompleted(dbc dbctx.Context, taskID uint, fid int64) error {
	existing, err := s.deps.Completions.GetByTaskAndUser(dbc, taskID, fid)
	if err != nil {
		return fmt.Errorf("load completion: %w", err)
	}
	if existing != nil && fid != s.cfg.BypassFID {
		return alreadyCompleted()
	}
	return nil
}

func (s *progressionService) finalize(ctx context.Context, task *types.Task, questions []*types.Question, action *neynar.Action) (*Page, error) {
	log := s.log.With("task_id", task.ID, "fid", action.FID)

	// Rechecked inside the transaction; the unique index settles races.
	if err := s.guardCompleted(dbctx.Context{Ctx: ctx}, task.ID, action.FID); err != nil {
		if errors.Is(err, ErrAlreadyCompleted) {
			log.Warn("user already completed task")
		}
		return nil, err
	}

	if len(action.EthAddresses) == 0 || strings.TrimSpace(action.EthAddresses[0]) == "" {
		log.Error("no address to mint to")
		return nil, noAddress()
	}
	recipient := strings.TrimSpace(action.EthAddresses[0])

	size, err := s.deps.Collection.CollectionSize(ctx, task.Network, task.ContractAddress)
	if err != nil {
		log.Error("collection size lookup failed", "error", err)
		return nil, fmt.Errorf("collection size: %w", err)
	}
	ordinal := size + 1

	var job MintJob
	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		existing, err := s.deps.Completions.GetByTaskAndUser(dbc, task.ID, action.FID)
		if err != nil {
			return fmt.Errorf("load completion: %w", err)
		}
		if existing != nil && action.FID != s.cfg.BypassFID {
			return alreadyCompleted()
		}

		responses, err := s.deps.Responses.ListByTaskAndUsername(dbc, task.ID, action.Username)
		if err != nil {
			return fmt.Errorf("load responses: %w", err)
		}
		if len(responses) == 0 {
			return incomplete()
		}
		for _, r := range responses {
			if r.UserFID != action.FID {
				s.log.Warn("responses for username span several fids",
					"task_id", task.ID, "username", action.Username, "fid", action.FID, "other_fid", r.UserFID)
				break
			}
		}

		cats, err := s.deps.Categories.ListByTask(dbc, task.ID)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		axes, err := scoring.BuildAxisTable(cats)
		if err != nil {
			return err
		}
		answers, err := scoring.AnswersFrom(responses, questions)
		if err != nil {
			return err
		}
		result, err := scoring.Score(answers, axes)
		if err != nil {
			return err
		}
		clusters, err := s.deps.Clusters.ListByTask(dbc, task.ID)
		if err != nil {
			return fmt.Errorf("load clusters: %w", err)
		}
		cluster, err := scoring.Classify(result, clusters)
		if err != nil {
			return err
		}
		log.Info("quiz scored", "cluster", cluster.Name, "scores", result.Named)

		md, err := survey.BuildMetadata(task, cluster, sortBySequence(responses, questions), action.Username, ordinal)
		if err != nil {
			return fmt.Errorf("%w: %v", scoring.ErrConfiguration, err)
		}
		raw, err := md.JSON()
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}

		var completionID uint
		if existing != nil {
			if err := s.deps.Completions.UpdateFields(dbc, existing.ID, map[string]any{
				"cluster_id":    cluster.ID,
				"token_id":      nil,
				"token_ordinal": ordinal,
				"recipient":     recipient,
				"mint_status":   types.MintStatusPending,
				"metadata":      datatypes.JSON(raw),
			}); err != nil {
				return fmt.Errorf("reuse completion: %w", err)
			}
			completionID = existing.ID
		} else {
			created, err := s.deps.Completions.Create(dbc, &types.Completion{
				TaskID:       task.ID,
				UserFID:      action.FID,
				ClusterID:    cluster.ID,
				TokenOrdinal: ordinal,
				Recipient:    recipient,
				MintStatus:   types.MintStatusPending,
				Metadata:     datatypes.JSON(raw),
			})
			if err != nil {
				if db.IsUniqueViolation(err) {
					return alreadyCompleted()
				}
				return fmt.Errorf("create completion: %w", err)
			}
			completionID = created.ID
		}

		job = MintJob{
			CompletionID:    completionID,
			TaskID:          task.ID,
			UserFID:         action.FID,
			Recipient:       recipient,
			TokenOrdinal:    ordinal,
			Network:         task.Network,
			ContractAddress: task.ContractAddress,
			Metadata:        md,
		}
		return nil
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			log.Warn("finalize rejected", "code", ae.Code)
			return nil, err
		}
		log.Error("finalize failed", "error", err)
		return nil, err
	}

	// Dispatched after commit; the worker reads the completion row.
	if s.deps.Mints != nil {
		if err := s.deps.Mints.Dispatch(ctx, job); err != nil {
			log.Error("mint dispatch failed; completion left pending", "completion_id", job.CompletionID, "error", err)
		}
	}

	log.Info("survey completed", "completion_id", job.CompletionID, "token_ordinal", ordinal, "cluster", job.Metadata.Name)
	return &Page{
		Kind:     PageEnd,
		TaskID:   task.ID,
		Title:    task.Title,
		ImageURL: s.cfg.FinalImageURL,
		NFTURL:   s.nftURL(task.Network, ordinal),
	}, nil
}

func (s *progressionService) gatewayURL(hash string) string {
	return strings.TrimRight(s.cfg.GatewayURL, "/") + "/" + strings.TrimSpace(hash)
}

func (s *progressionService) nftURL(network string, ordinal int64) string {
	base := strings.TrimRight(s.cfg.NFTBaseURLs[network], "/")
	if base == "" {
		return ""
	}
	return base + "/" + strconv.FormatInt(ordinal, 10)
}

// sortBySequence orders responses by their question's sequence number so
// metadata attributes follow the survey.
func sortBySequence(responses []*types.Response, questions []*types.Question) []*types.Response {
	seq := make(map[uint]int, len(questions))
	for _, q := range questions {
		seq[q.ID] = q.SequenceNum
	}
	out := append([]*types.Response(nil), responses...)
	sort.SliceStable(out, func(i, j int) bool {
		return seq[out[i].QuestionID] < seq[out[j].QuestionID]
	})
	return out
}
