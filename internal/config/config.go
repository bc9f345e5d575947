package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	JWTSecret    string
	JWTAlgorithm string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	EmailTTL     time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	// BaseURL is the externally visible URL of this API, used in the
	// confirmation links sent by email.
	BaseURL string

	AllowedOrigins []string

	OTLPEndpoint string

	RateLimit  int
	RateWindow time.Duration
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)

	return Config{
		Env:   env,
		Port:  port,
		DBURL: buildDBURL(),

		JWTSecret:    getEnv("SECRET_KEY", "dev-secret-change-me"),
		JWTAlgorithm: getEnv("ALGORITHM", "HS256"),
		AccessTTL:    time.Duration(getEnvInt("JWT_ACCESS_TTL_MINUTES", 15)) * time.Minute,
		RefreshTTL:   time.Duration(getEnvInt("JWT_REFRESH_TTL_DAYS", 7)) * 24 * time.Hour,
		EmailTTL:     time.Duration(getEnvInt("JWT_EMAIL_TTL_HOURS", 24)) * time.Hour,

		SMTPHost:     getEnv("EMAIL_SERVER", ""),
		SMTPPort:     getEnvInt("EMAIL_PORT", 465),
		SMTPUser:     getEnv("EMAIL_USERNAME", ""),
		SMTPPassword: getEnv("EMAIL_PASSWORD", ""),
		MailFrom:     getEnv("EMAIL_FROM", "noreply@contacthub.local"),

		RedisAddr:     getEnv("REDIS_HOST", "127.0.0.1") + ":" + getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		S3Endpoint:  getEnv("S3_ENDPOINT", "http://127.0.0.1:9000"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", "avatars"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),

		BaseURL: getEnv("BASE_URL", fmt.Sprintf("http://localhost:%d", port)),

		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "*")),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),

		RateLimit:  getEnvInt("RATE_LIMIT", 10),
		RateWindow: time.Duration(getEnvInt("RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
}

func buildDBURL() string {
	host := getEnv("POSTGRES_DOMAIN", "127.0.0.1")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "contacthub")
	pass := getEnv("POSTGRES_PASSWORD", "contacthub")
	name := getEnv("POSTGRES_DB", "contacthub")
	ssl := getEnv("POSTGRES_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}
