package app

import (
	"strings"
	"time"

	"github.com/earthnet/frame-survey/internal/clients/chain"
	"github.com/earthnet/frame-survey/internal/clients/neynar"
	"github.com/earthnet/frame-survey/internal/clients/pinata"
	"github.com/earthnet/frame-survey/internal/clients/redis"
	"github.com/earthnet/frame-survey/internal/data/db"
	"github.com/earthnet/frame-survey/internal/http/frames"
	"github.com/earthnet/frame-survey/internal/jobs/worker"
	"github.com/earthnet/frame-survey/internal/observability"
	"github.com/earthnet/frame-survey/internal/platform/envutil"
	"github.com/earthnet/frame-survey/internal/services"
	"github.com/earthnet/frame-survey/internal/temporalx"
)

type Config struct {
	Port    string
	LogMode string

	DB db.Config

	PublicURL     string
	SurveyTitle   string
	BypassFID     int64
	GatewayURL    string
	StartImageURL string
	ClaimImageURL string
	FinalImageURL string
	ResultImages  map[frames.Outcome]string
	NFTBaseURLs   map[string]string
	CacheMaxAge   int

	Neynar neynar.Config
	Pinata pinata.Config
	Chain  chain.Config

	MintResultsPath string
	MintMaxAttempts int
	MintRetryDelay  time.Duration
	Worker          worker.Config
	Temporal        temporalx.Config

	Redis    redis.Config
	StatsTTL time.Duration

	Otel observability.OtelConfig
}

var defaultNFTBaseURLs = map[string]string{
	"mumbai":  "https://testnets.opensea.io/assets/mumbai/0x5A05289A5Ffbfa6a45663D092A0fE7C1Bc0c5bc9",
	"polygon": "https://opensea.io/collection/the-network-state-survey",
}

func LoadConfig() Config {
	gateway := envutil.String("IPFS_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs")
	return Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),

		DB: db.ConfigFromEnv(),

		PublicURL:     envutil.String("PUBLIC_URL", "https://earthnetcdn.com"),
		SurveyTitle:   envutil.String("SURVEY_TITLE", "The Network State Survey"),
		BypassFID:     envutil.Int64("SURVEY_BYPASS_FID", services.DefaultBypassFID),
		GatewayURL:    gateway,
		StartImageURL: envutil.String("START_IMAGE_URL", ""),
		ClaimImageURL: envutil.String("CLAIM_IMAGE_URL", ""),
		FinalImageURL: envutil.String("FINAL_IMAGE_URL", ""),
		ResultImages:  loadResultImages(),
		NFTBaseURLs:   envutil.Map("NFT_BASE_URLS", defaultNFTBaseURLs),
		CacheMaxAge:   envutil.Int("CACHE_MAX_AGE_SECONDS", 10),

		Neynar: neynar.Config{
			APIKey:  envutil.String("NEYNAR_API_KEY", ""),
			BaseURL: envutil.String("NEYNAR_BASE_URL", "https://api.neynar.com"),
			Timeout: envutil.Seconds("NEYNAR_TIMEOUT_SECONDS", 10),
		},
		Pinata: pinata.Config{
			JWT:     envutil.String("PINATA_JWT", ""),
			BaseURL: envutil.String("PINATA_BASE_URL", "https://api.pinata.cloud"),
			Timeout: envutil.Seconds("PINATA_TIMEOUT_SECONDS", 60),
		},
		Chain: chain.Config{
			BaseURL: envutil.String("CHAIN_RELAY_URL", ""),
			Token:   envutil.String("CHAIN_RELAY_TOKEN", ""),
			Timeout: envutil.Seconds("CHAIN_RELAY_TIMEOUT_SECONDS", 120),
		},

		MintResultsPath: envutil.String("MINT_RESULTS_PATH", "./results.tsv"),
		MintMaxAttempts: envutil.Int("MINT_MAX_ATTEMPTS", services.DefaultMintAttempts),
		MintRetryDelay:  envutil.Seconds("MINT_RETRY_DELAY_SECONDS", 2),
		Worker:          worker.ConfigFromEnv(),
		Temporal:        temporalx.LoadConfig(),

		Redis: redis.Config{
			Addr:      envutil.String("REDIS_ADDR", ""),
			Password:  envutil.String("REDIS_PASSWORD", ""),
			DB:        envutil.Int("REDIS_DB", 0),
			KeyPrefix: envutil.String("REDIS_KEY_PREFIX", "frame-survey"),
		},
		StatsTTL: envutil.Seconds("STATS_CACHE_TTL_SECONDS", int(services.DefaultStatsTTL/time.Second)),

		Otel: observability.OtelConfigFromEnv(),
	}
}

func loadResultImages() map[frames.Outcome]string {
	defaults := map[frames.Outcome]string{
		frames.OutcomeSuccess:        "https://i.imgur.com/DqqXVAI.png",
		frames.OutcomeNoAddress:      "https://i.imgur.com/RLQPXFb.png",
		frames.OutcomeInvalidMessage: "https://i.imgur.com/1m7xHMM.png",
		frames.OutcomeFailure:        "https://i.imgur.com/8Q3KAxj.png",
	}
	out := map[frames.Outcome]string{}
	for _, o := range []frames.Outcome{
		frames.OutcomeSuccess,
		frames.OutcomeAlreadyCompleted,
		frames.OutcomeNoSuchSurvey,
		frames.OutcomeInvalidMessage,
		frames.OutcomeNoAddress,
		frames.OutcomeIncomplete,
		frames.OutcomeFailure,
	} {
		key := "RESULT_IMAGE_" + strings.ToUpper(string(o))
		if v := envutil.String(key, defaults[o]); v != "" {
			out[o] = v
		}
	}
	return out
}
