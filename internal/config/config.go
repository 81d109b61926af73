package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string // sqlite|postgres
	DBDSN    string

	BlobBasePath string

	AuthHMACSecret string
	AdminUser      string
	AdminPassHash  string // bcrypt
	EnableGuest    bool

	CORSOrigins []string

	// Scoring
	PassPercent     float64
	WeightEasy      float64
	WeightMedium    float64
	WeightHard      float64
	ServeAnswerKeys bool

	// ServerURL is where the examprep CLI sends requests.
	ServerURL string

	// Result events; publishing is off when RabbitMQURI is empty.
	RabbitMQURI      string
	RabbitMQExchange string

	// QuestionBank is an optional YAML/JSON bank imported at startup.
	QuestionBank string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:         envOr("HTTP_ADDR", ":8080"),
		PublicURL:        strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/"),
		DBDriver:         envOr("DB_DRIVER", "sqlite"),
		DBDSN:            envOr("DB_DSN", ""),
		BlobBasePath:     envOr("BLOB_BASE_PATH", "./data"),
		AuthHMACSecret:   envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:        envOr("ADMIN_USER", "admin"),
		AdminPassHash:    os.Getenv("ADMIN_PASS_HASH"),
		EnableGuest:      envBool("ENABLE_GUEST_AUTH", true),
		CORSOrigins:      csvOr("CORS_ORIGINS", "http://localhost:3000"),
		PassPercent:      envFloat("PASS_PERCENT", 60),
		WeightEasy:       envFloat("WEIGHT_EASY", 1),
		WeightMedium:     envFloat("WEIGHT_MEDIUM", 2),
		WeightHard:       envFloat("WEIGHT_HARD", 3),
		ServeAnswerKeys:  envBool("SERVE_ANSWER_KEYS", true),
		ServerURL:        strings.TrimSuffix(envOr("EXAMPREP_SERVER", "http://localhost:8080"), "/"),
		RabbitMQURI:      os.Getenv("RABBITMQ_URI"),
		RabbitMQExchange: envOr("RABBITMQ_EXCHANGE", "examprep.events"),
		QuestionBank:     os.Getenv("QUESTION_BANK"),
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
func envFloat(k string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	return f
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
