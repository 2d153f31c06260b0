package temporalx

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClampBackoff(t *testing.T) {
	cases := []struct {
		base, max time.Duration
		attempt   int
		want      time.Duration
	}{
		{100 * time.Millisecond, time.Second, 1, 100 * time.Millisecond},
		{100 * time.Millisecond, time.Second, 3, 400 * time.Millisecond},
		{100 * time.Millisecond, time.Second, 10, time.Second},
		{0, 0, 2, 500 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := clampBackoff(tc.base, tc.max, tc.attempt); got != tc.want {
			t.Fatalf("clampBackoff(%v,%v,%d)=%v want %v", tc.base, tc.max, tc.attempt, got, tc.want)
		}
	}
}

func TestIsRetryableRPC(t *testing.T) {
	if !isRetryableRPC(status.Error(codes.Unavailable, "down")) {
		t.Fatalf("Unavailable should be retryable")
	}
	if isRetryableRPC(status.Error(codes.PermissionDenied, "no")) {
		t.Fatalf("PermissionDenied should not be retryable")
	}
	if !isRetryableRPC(fmt.Errorf("dial: %w", context.DeadlineExceeded)) {
		t.Fatalf("deadline should be retryable")
	}
	if isRetryableRPC(errors.New("boom")) || isRetryableRPC(nil) {
		t.Fatalf("plain errors should not be retryable")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TEMPORAL_ADDRESS", "")
	t.Setenv("TEMPORAL_NAMESPACE", "")
	t.Setenv("TEMPORAL_TASK_QUEUE", "mints")
	cfg := LoadConfig()
	if cfg.Enabled() {
		t.Fatalf("expected disabled without address")
	}
	if cfg.Namespace != "frame-survey" || cfg.TaskQueue != "mints" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.DialTimeout != 5*time.Second || cfg.Backoff != 250*time.Millisecond {
		t.Fatalf("unexpected dial settings: %+v", cfg)
	}
}
