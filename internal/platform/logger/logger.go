package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/earthnet/frame-survey/internal/platform/envutil"
)

// Logger is a zap SugaredLogger whose key/value pairs pass through a scrubber
// before they are written. Loggers derived with With share the scrubber.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
	scrub         *scrubber
}

// New builds a logger for mode: "production" (JSON, info), "test" (console,
// warn) or anything else (console, debug). LOG_REDACTION_ENABLED=false turns
// scrubbing off; LOG_HASH_SALT salts hashed values.
func New(mode string) (*Logger, error) {
	z, err := zapConfig(mode).Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{
		SugaredLogger: z.Sugar(),
		scrub: &scrubber{
			enabled: envutil.Bool("LOG_REDACTION_ENABLED", true),
			salt:    envutil.String("LOG_HASH_SALT", ""),
		},
	}, nil
}

func zapConfig(mode string) zap.Config {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		return cfg
	case "test":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		return cfg
	default:
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return cfg
	}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.scrub.pairs(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.scrub.pairs(keysAndValues)...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.scrub.pairs(keysAndValues)...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.scrub.pairs(keysAndValues)...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, l.scrub.pairs(keysAndValues)...)
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(l.scrub.pairs(keysAndValues)...),
		scrub:         l.scrub,
	}
}

const redacted = "[REDACTED]"

type scrubber struct {
	enabled bool
	salt    string
}

// pairs returns keysAndValues with each value rewritten according to its key.
// A trailing key without a value is kept as is.
func (s *scrubber) pairs(kv []interface{}) []interface{} {
	if s == nil || !s.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		out[i+1] = s.value(normalizeKey(out[i]), out[i+1])
	}
	return out
}

func (s *scrubber) value(key string, val interface{}) interface{} {
	switch classify(key) {
	case keySecret:
		return redacted
	case keyHashed:
		return s.hash(val)
	case keyWallet:
		return shortenAddresses(val)
	}
	switch v := val.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, inner := range v {
			m[k] = s.value(normalizeKey(k), inner)
		}
		return m
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
	}
	return val
}

func (s *scrubber) hash(val interface{}) string {
	raw := fmt.Sprint(val)
	if val == nil || raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

type keyClass int

const (
	keyPlain keyClass = iota
	keySecret
	keyHashed
	keyWallet
)

var secretMarkers = []string{
	"authorization", "password", "secret", "cookie", "api_key", "apikey", "jwt", "message_bytes",
}

// classify decides how a value is logged. token_id and token_ordinal are mint
// ordinals and stay readable; any other *token* key is a credential.
func classify(key string) keyClass {
	switch key {
	case "":
		return keyPlain
	case "recipient", "address", "addresses", "eth_addresses":
		return keyWallet
	case "user_id", "session_id", "client_ip":
		return keyHashed
	}
	if strings.HasPrefix(key, "token_") {
		return keyPlain
	}
	if strings.Contains(key, "token") {
		return keySecret
	}
	for _, m := range secretMarkers {
		if strings.Contains(key, m) {
			return keySecret
		}
	}
	return keyPlain
}

// shortenAddresses keeps the head and tail of 0x addresses.
func shortenAddresses(val interface{}) interface{} {
	switch v := val.(type) {
	case string:
		return shortenAddress(v)
	case []string:
		out := make([]string, len(v))
		for i, a := range v {
			out[i] = shortenAddress(a)
		}
		return out
	default:
		return val
	}
}

func shortenAddress(a string) string {
	a = strings.TrimSpace(a)
	if len(a) <= 12 || !strings.HasPrefix(strings.ToLower(a), "0x") {
		return a
	}
	return a[:6] + "..." + a[len(a)-4:]
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func normalizeKey(k interface{}) string {
	s, ok := k.(string)
	if !ok {
		s = fmt.Sprint(k)
	}
	return strings.ToLower(strings.TrimSpace(s))
}
