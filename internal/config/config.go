package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	// CAT engine
	CATBaseURL      string
	QuizTopic       string
	QuizConfigPath  string
	QuestionDir     string
	OutboundTimeout time.Duration

	// ltik session token
	LtikHMACSecret string
	LtikTTL        time.Duration

	// Platform (AGS grade passback)
	PlatformTokenURL     string
	PlatformClientID     string
	PlatformClientSecret string

	// Grade journal
	DBDriver string
	DBDSN    string

	CORSOrigins []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:  addr,
		PublicURL: envOr("PUBLIC_URL", "http://localhost:8080"),

		CATBaseURL:      envOr("CAT_BASE_URL", "http://localhost:8000"),
		QuizTopic:       envOr("QUIZ_TOPIC", "algebra"),
		QuizConfigPath:  envOr("QUIZ_CONFIG_PATH", "./quiz-config.json"),
		QuestionDir:     envOr("QUESTION_DIR", "./question-files"),
		OutboundTimeout: envDur("OUTBOUND_TIMEOUT", 10*time.Second),

		LtikHMACSecret: envOr("LTIK_HMAC_SECRET", "supersecret-dev-key"),
		LtikTTL:        envDur("LTIK_TTL", 2*time.Hour),

		PlatformTokenURL:     os.Getenv("PLATFORM_TOKEN_URL"),
		PlatformClientID:     os.Getenv("PLATFORM_CLIENT_ID"),
		PlatformClientSecret: os.Getenv("PLATFORM_CLIENT_SECRET"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envDur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
