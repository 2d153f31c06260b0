package services

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// MintResult is one line of the append-only results log.
type MintResult struct {
	Hash      string
	Recipient string
	TokenID   *int64
	UserFID   int64
	Success   bool
}

func (r MintResult) line() string {
	tokenID := ""
	if r.TokenID != nil {
		tokenID = strconv.FormatInt(*r.TokenID, 10)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%d\t%t\n", r.Hash, r.Recipient, tokenID, r.UserFID, r.Success)
}

type MintResultsLog interface {
	Append(r MintResult) error
}

type fileResultsLog struct {
	mu   sync.Mutex
	path string
}

func NewFileResultsLog(path string) MintResultsLog {
	if path == "" {
		path = "./results.tsv"
	}
	return &fileResultsLog{path: path}
}

func (l *fileResultsLog) Append(r MintResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open results log: %w", err)
	}
	if _, err := f.WriteString(r.line()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write results log: %w", err)
	}
	return f.Close()
}
