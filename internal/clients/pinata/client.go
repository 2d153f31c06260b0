package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/earthnet/frame-survey/internal/platform/httpx"
	"github.com/earthnet/frame-survey/internal/platform/logger"
)

type Client interface {
	PinText(ctx context.Context, filename, text string) (string, error)
	PinFile(ctx context.Context, path string) (string, error)
}

type Config struct {
	JWT     string
	BaseURL string
	Timeout time.Duration
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
	if strings.TrimSpace(cfg.JWT) == "" {
		return nil, fmt.Errorf("missing Pinata JWT")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.pinata.cloud"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &client{
		log:  log.With("client", "PinataClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// PinText pins text as a text/plain file and returns its IPFS hash.
func (c *client) PinText(ctx context.Context, filename, text string) (string, error) {
	return c.pin(ctx, filename, "text/plain", strings.NewReader(text))
}

// PinFile pins a file from disk and returns its IPFS hash.
func (c *client) PinFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return c.pin(ctx, filepath.Base(path), "application/octet-stream", f)
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

func (c *client) pin(ctx context.Context, filename, contentType string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/pinning/pinFileToIPFS"
	req, err := http.NewRequestWithContext(httpx.DefaultCtx(ctx), http.MethodPost, u, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.JWT)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinata pin %s: %w", filename, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("pin failed", "filename", filename, "status", resp.StatusCode)
		return "", &httpx.StatusError{Service: "pinata", Status: resp.StatusCode, Body: string(raw)}
	}

	var out pinResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("pinata decode error: %w; raw=%s", err, string(raw))
	}
	if strings.TrimSpace(out.IpfsHash) == "" {
		return "", fmt.Errorf("pinata returned empty IpfsHash for %s", filename)
	}
	c.log.Info("pinned", "filename", filename, "hash", out.IpfsHash)
	return out.IpfsHash, nil
}
