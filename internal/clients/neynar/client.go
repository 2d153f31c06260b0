package neynar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/earthnet/frame-survey/internal/platform/httpx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

// ErrInvalidMessage is returned when the hub reports the frame message as
// invalid or the response cannot be understood.
var ErrInvalidMessage = errors.New("invalid frame message")

type Client interface {
	ValidateFrameAction(ctx context.Context, messageBytesHex string) (*Action, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Action is the verified part of a frame tap.
type Action struct {
	FID          int64
	Username     string
	ButtonIndex  int
	EthAddresses []string
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing Neynar API key")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.neynar.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &client{
		log:  log.With("client", "NeynarClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type validateRequest struct {
	CastReactionContext bool   `json:"cast_reaction_context"`
	FollowContext       bool   `json:"follow_context"`
	MessageBytesInHex   string `json:"message_bytes_in_hex"`
}

type validateResponse struct {
	Valid  bool `json:"valid"`
	Action *struct {
		TappedButton struct {
			Index int `json:"index"`
		} `json:"tapped_button"`
		Interactor struct {
			FID               int64  `json:"fid"`
			Username          string `json:"username"`
			VerifiedAddresses struct {
				EthAddresses []string `json:"eth_addresses"`
			} `json:"verified_addresses"`
		} `json:"interactor"`
	} `json:"action"`
}

func (c *client) ValidateFrameAction(ctx context.Context, messageBytesHex string) (*Action, error) {
	messageBytesHex = strings.TrimSpace(messageBytesHex)
	if messageBytesHex == "" {
		return nil, fmt.Errorf("%w: empty message bytes", ErrInvalidMessage)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(validateRequest{
		CastReactionContext: false,
		FollowContext:       true,
		MessageBytesInHex:   messageBytesHex,
	}); err != nil {
		return nil, err
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/v2/farcaster/frame/validate"
	req, err := http.NewRequestWithContext(httpx.DefaultCtx(ctx), http.MethodPost, u, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("api_key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("neynar validate: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.StatusError{Service: "neynar", Status: resp.StatusCode, Body: string(raw)}
	}

	var out validateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidMessage, err)
	}
	if !out.Valid || out.Action == nil {
		return nil, ErrInvalidMessage
	}

	a := &Action{
		FID:          out.Action.Interactor.FID,
		Username:     out.Action.Interactor.Username,
		ButtonIndex:  out.Action.TappedButton.Index,
		EthAddresses: out.Action.Interactor.VerifiedAddresses.EthAddresses,
	}
	if a.FID <= 0 {
		return nil, fmt.Errorf("%w: missing interactor fid", ErrInvalidMessage)
	}
	c.log.Debug("frame action validated", "fid", a.FID, "button", a.ButtonIndex, "addresses", len(a.EthAddresses))
	return a, nil
}
