package app

import (
	"testing"
	"time"

	"github.com/earthnet/frame-survey/internal/http/frames"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "SURVEY_BYPASS_FID", "NFT_BASE_URLS", "MINT_MAX_ATTEMPTS", "STATS_CACHE_TTL_SECONDS", "RESULT_IMAGE_ALREADY_COMPLETED"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.Port != "8080" || cfg.BypassFID != 336572 || cfg.MintMaxAttempts != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.StatsTTL != 60*time.Second {
		t.Fatalf("unexpected stats ttl: %v", cfg.StatsTTL)
	}
	if cfg.NFTBaseURLs["polygon"] == "" {
		t.Fatalf("expected polygon nft base url")
	}
	if _, ok := cfg.ResultImages[frames.OutcomeAlreadyCompleted]; ok {
		t.Fatalf("already-completed image has no default")
	}
	if cfg.ResultImages[frames.OutcomeFailure] == "" {
		t.Fatalf("expected failure image default")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SURVEY_BYPASS_FID", "7")
	t.Setenv("NFT_BASE_URLS", "base=https://base.example/nft")
	t.Setenv("RESULT_IMAGE_NO_SUCH_SURVEY", "https://cdn.example/missing.png")
	cfg := LoadConfig()
	if cfg.BypassFID != 7 {
		t.Fatalf("unexpected bypass fid: %d", cfg.BypassFID)
	}
	if cfg.NFTBaseURLs["base"] != "https://base.example/nft" || cfg.NFTBaseURLs["polygon"] == "" {
		t.Fatalf("unexpected nft urls: %v", cfg.NFTBaseURLs)
	}
	if cfg.ResultImages[frames.OutcomeNoSuchSurvey] != "https://cdn.example/missing.png" {
		t.Fatalf("unexpected result images: %v", cfg.ResultImages)
	}
}
