package services

import (
	"context"
	"fmt"
	"time"

	"github.com/earthnet/frame-survey/internal/clients/chain"
	"github.com/earthnet/frame-survey/internal/data/repos"
	types "github.com/earthnet/frame-survey/internal/domain"
	"github.com/earthnet/frame-survey/internal/modules/survey"
	"github.com/earthnet/frame-survey/internal/platform/dbctx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

const DefaultMintAttempts = 3

// MintJob is everything a worker needs to pin metadata and mint one token.
// It is serialized into workflow inputs, so it must stay JSON friendly.
type MintJob struct {
	CompletionID    uint                 `json:"completion_id"`
	TaskID          uint                 `json:"task_id"`
	UserFID         int64                `json:"user_fid"`
	Recipient       string               `json:"recipient"`
	TokenOrdinal    int64                `json:"token_ordinal"`
	Network         string               `json:"network"`
	ContractAddress string               `json:"contract_address"`
	Metadata        survey.TokenMetadata `json:"metadata"`
}

// MintDispatcher hands a job to a background executor. It must not block on
// the mint itself.
type MintDispatcher interface {
	Dispatch(ctx context.Context, job MintJob) error
}

type TextPinner interface {
	PinText(ctx context.Context, filename, text string) (string, error)
}

type Minter interface {
	Mint(ctx context.Context, req chain.MintRequest) (*chain.Receipt, error)
}

type MintConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

type MintService interface {
	// Run performs up to MaxAttempts pin+mint attempts for job and records
	// the outcome on the completion row and in the results log.
	Run(ctx context.Context, job MintJob) (MintResult, error)
}

type mintService struct {
	log         *logger.Logger
	completions repos.CompletionRepo
	pinner      TextPinner
	minter      Minter
	results     MintResultsLog
	cfg         MintConfig
}

func NewMintService(
	baseLog *logger.Logger,
	completions repos.CompletionRepo,
	pinner TextPinner,
	minter Minter,
	results MintResultsLog,
	cfg MintConfig,
) MintService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMintAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	return &mintService{
		log:         baseLog.With("service", "MintService"),
		completions: completions,
		pinner:      pinner,
		minter:      minter,
		results:     results,
		cfg:         cfg,
	}
}

func (s *mintService) Run(ctx context.Context, job MintJob) (MintResult, error) {
	if job.CompletionID == 0 {
		return MintResult{}, fmt.Errorf("missing completion_id")
	}
	log := s.log.With(
		"completion_id", job.CompletionID,
		"recipient", job.Recipient,
		"token_ordinal", job.TokenOrdinal,
		"cluster", job.Metadata.Name,
	)

	doc, err := job.Metadata.JSON()
	if err != nil {
		return MintResult{}, fmt.Errorf("encode metadata: %w", err)
	}
	filename := job.Metadata.Filename(job.Recipient)

	res := MintResult{Recipient: job.Recipient, UserFID: job.UserFID}
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if attempt > 1 && s.cfg.RetryDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.cfg.RetryDelay):
			}
		}
		if ctx.Err() != nil {
			log.Warn("mint cancelled", "attempt", attempt, "error", ctx.Err())
			break
		}

		hash, err := s.pinner.PinText(ctx, filename, string(doc))
		if err != nil {
			log.Error("metadata pin failed", "attempt", attempt, "error", err)
			continue
		}
		res.Hash = hash

		receipt, err := s.minter.Mint(ctx, chain.MintRequest{
			Network:         job.Network,
			ContractAddress: job.ContractAddress,
			Recipient:       job.Recipient,
			TokenURI:        survey.IPFSURI(hash),
		})
		if err != nil {
			log.Error("transaction failed", "attempt", attempt, "error", err)
			continue
		}
		if receipt == nil || receipt.Failed {
			log.Error("transaction failed", "attempt", attempt, "tx_hash", receiptHash(receipt))
			continue
		}

		tokenID := job.TokenOrdinal
		res.TokenID = &tokenID
		res.Success = true
		log.Info("token minted", "attempt", attempt, "tx_hash", receipt.TxHash, "token_id", tokenID)
		break
	}

	updates := map[string]any{"mint_status": types.MintStatusFailed}
	if res.Success {
		updates = map[string]any{
			"token_id":    *res.TokenID,
			"mint_status": types.MintStatusMinted,
		}
	} else {
		log.Error("transaction failed too many times, not retrying", "attempts", s.cfg.MaxAttempts)
	}
	// The request context may already be done; the status write must still land.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	var firstErr error
	if err := s.completions.UpdateFields(dbctx.Context{Ctx: writeCtx}, job.CompletionID, updates); err != nil {
		log.Error("update completion failed", "error", err)
		firstErr = fmt.Errorf("update completion: %w", err)
	}

	if s.results != nil {
		if err := s.results.Append(res); err != nil {
			log.Error("results log append failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return res, firstErr
}

func receiptHash(r *chain.Receipt) string {
	if r == nil {
		return ""
	}
	return r.TxHash
}
