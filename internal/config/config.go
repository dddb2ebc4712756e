package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string
	LogMode  string

	DBDriver string
	DBDSN    string

	AuthHMACSecret  string
	EnableLocalAuth bool
	DevPassHash     string // bcrypt; empty means password must equal username

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// Attempt events go to the event_log table; Redis is optional fan-out.
	RedisAddr    string
	RedisChannel string

	// Optional HTTP push of attempt events, with OAuth2 client credentials.
	WebhookURL          string
	WebhookTokenURL     string
	WebhookClientID     string
	WebhookClientSecret string

	// When false, learner roles do not receive correctOption on catalog reads.
	ExposeCorrectOption bool

	// Client-side session settings (cmd/quizclient).
	SessionSeconds     int
	GradingParallelism int
	QuizAPIURL         string
	QuizToken          string
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	logMode := "development"
	if mode == ModeOnline {
		logMode = "production"
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),
		LogMode:  envOr("LOG_MODE", logMode),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthHMACSecret:  envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		EnableLocalAuth: envBool("ENABLE_LOCAL_AUTH", mode == ModeOffline),
		DevPassHash:     os.Getenv("DEV_PASS_HASH"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://quiz.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisChannel: envOr("REDIS_CHANNEL", "quiz-attempts"),

		WebhookURL:          os.Getenv("EVENTS_WEBHOOK_URL"),
		WebhookTokenURL:     os.Getenv("EVENTS_WEBHOOK_TOKEN_URL"),
		WebhookClientID:     os.Getenv("EVENTS_WEBHOOK_CLIENT_ID"),
		WebhookClientSecret: os.Getenv("EVENTS_WEBHOOK_CLIENT_SECRET"),

		ExposeCorrectOption: envBool("EXPOSE_CORRECT_OPTION", true),

		SessionSeconds:     envInt("SESSION_SECONDS", 900),
		GradingParallelism: envInt("GRADING_PARALLELISM", 1),
		QuizAPIURL:         envOr("QUIZ_API_URL", "http://localhost:8080"),
		QuizToken:          os.Getenv("QUIZ_TOKEN"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return def
	}
	return i
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
