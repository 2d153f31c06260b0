package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/earthnet/frame-survey/internal/platform/httpx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

// Client talks to the mint relay, which owns the signing key and the
// contract bindings for every supported network.
type Client interface {
	Mint(ctx context.Context, req MintRequest) (*Receipt, error)
	CollectionSize(ctx context.Context, network, contract string) (int64, error)
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type MintRequest struct {
	Network         string `json:"network"`
	ContractAddress string `json:"contract_address"`
	Recipient       string `json:"recipient"`
	TokenURI        string `json:"token_uri"`
}

type Receipt struct {
	TxHash string `json:"tx_hash"`
	Failed bool   `json:"failed"`
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
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing chain relay URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &client{
		log:  log.With("client", "ChainRelayClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *client) Mint(ctx context.Context, req MintRequest) (*Receipt, error) {
	if strings.TrimSpace(req.Recipient) == "" {
		return nil, fmt.Errorf("recipient required")
	}
	if strings.TrimSpace(req.TokenURI) == "" {
		return nil, fmt.Errorf("token uri required")
	}
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/mint"
	out, err := doJSON[Receipt](c, ctx, http.MethodPost, u, req)
	if err != nil {
		return nil, err
	}
	c.log.Info("mint submitted", "network", req.Network, "recipient", req.Recipient, "tx_hash", out.TxHash, "failed", out.Failed)
	return out, nil
}

type sizeResponse struct {
	Size int64 `json:"size"`
}

func (c *client) CollectionSize(ctx context.Context, network, contract string) (int64, error) {
	network = strings.TrimSpace(network)
	contract = strings.TrimSpace(contract)
	if network == "" || contract == "" {
		return 0, fmt.Errorf("network and contract required")
	}
	u := fmt.Sprintf("%s/collections/%s/%s/size",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(network),
		url.PathEscape(contract),
	)
	out, err := doJSON[sizeResponse](c, ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	if out.Size < 0 {
		return 0, fmt.Errorf("chain relay returned negative size %d", out.Size)
	}
	return out.Size, nil
}

func doJSON[T any](c *client, ctx context.Context, method, url string, body any) (*T, error) {
	var rdr io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
		rdr = &buf
	}

	req, err := http.NewRequestWithContext(httpx.DefaultCtx(ctx), method, url, rdr)
	if err != nil {
		return nil, err
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chain relay %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.StatusError{Service: "chain relay", Status: resp.StatusCode, Body: string(raw)}
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("chain relay decode error: %w; raw=%s", err, string(raw))
	}
	return &out, nil
}
