package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/earthnet/frame-survey/internal/clients/chain"
	"github.com/earthnet/frame-survey/internal/clients/neynar"
)

// fakeValidator decodes "fid/username/button/address" message strings. An
// empty address segment means no verified address.
type fakeValidator struct{}

func (fakeValidator) ValidateFrameAction(ctx context.Context, msg string) (*neynar.Action, error) {
	parts := strings.Split(msg, "/")
	if len(parts) != 4 {
		return nil, neynar.ErrInvalidMessage
	}
	fid, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, neynar.ErrInvalidMessage
	}
	btn, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, neynar.ErrInvalidMessage
	}
	a := &neynar.Action{FID: fid, Username: parts[1], ButtonIndex: btn}
	if parts[3] != "" {
		a.EthAddresses = []string{parts[3]}
	}
	return a, nil
}

func msg(fid int64, username string, button int, address string) string {
	return fmt.Sprintf("%d/%s/%d/%s", fid, username, button, address)
}

type fakeCollection struct {
	size int64
	err  error
}

func (f fakeCollection) CollectionSize(ctx context.Context, network, contract string) (int64, error) {
	return f.size, f.err
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []MintJob
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, job MintJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *recordingDispatcher) Jobs() []MintJob {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]MintJob(nil), d.jobs...)
}

type scriptedPinner struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (p *scriptedPinner) PinText(ctx context.Context, filename, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= len(p.errs) && p.errs[p.calls-1] != nil {
		return "", p.errs[p.calls-1]
	}
	return fmt.Sprintf("QmMeta%d", p.calls), nil
}

type scriptedMinter struct {
	mu       sync.Mutex
	calls    int
	failed   []bool
	requests []chain.MintRequest
}

func (m *scriptedMinter) Mint(ctx context.Context, req chain.MintRequest) (*chain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.requests = append(m.requests, req)
	failed := m.calls <= len(m.failed) && m.failed[m.calls-1]
	return &chain.Receipt{TxHash: fmt.Sprintf("0xtx%d", m.calls), Failed: failed}, nil
}
