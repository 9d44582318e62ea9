package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	PORT       string
	APP_ENV    string
	APP_URL    string
	API_URL    string
	DB_URL     string
	JWT_SECRET string

	CORS_ORIGIN string

	REDIS_URL           string
	REDIS_CACHE_ENABLED bool
	CACHE_TTL_SECONDS   int

	AI_SERVER_URL     string
	SEARCH_SERVER_URL string

	STRIPE_SECRET_KEY           string
	STRIPE_WEBHOOK_SECRET       string
	STRIPE_USER_BILLING_ENABLED bool

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string

	EMAIL_PROVIDER string
	EMAIL_FROM     string
	SES_REGION     string
	SMTP_HOST      string
	SMTP_PORT      string
	SMTP_FROM      string
	SMTP_PASSWORD  string

	STORAGE_TYPE         string
	STORAGE_LOCAL_DIR    string
	STORAGE_BUCKET       string
	STORAGE_REGION       string
	GCS_CREDENTIALS_FILE string

	USAGE_CLEANUP_SCHEDULE string
	MAX_LOGIN_ATTEMPTS     int
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	APP_ENV = getEnv("APP_ENV", "development")
	APP_URL = getEnv("APP_URL", "http://localhost:3000")
	API_URL = getEnv("API_URL", "http://localhost:"+PORT)
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")

	CORS_ORIGIN = getEnv("CORS_ORIGIN", APP_URL)

	REDIS_URL = getEnv("REDIS_URL", "redis://localhost:6379/0")
	REDIS_CACHE_ENABLED = getBool("REDIS_CACHE_ENABLED", false)
	CACHE_TTL_SECONDS = getInt("CACHE_TTL_SECONDS", 300)

	AI_SERVER_URL = getEnv("AI_SERVER_URL", "http://127.0.0.1:8000")
	SEARCH_SERVER_URL = getEnv("SEARCH_SERVER_URL", "http://127.0.0.1:9090")

	STRIPE_SECRET_KEY = getEnv("STRIPE_SECRET_KEY", "")
	STRIPE_WEBHOOK_SECRET = getEnv("STRIPE_WEBHOOK_SECRET", "")
	STRIPE_USER_BILLING_ENABLED = getBool("STRIPE_USER_BILLING_ENABLED", true)

	// Google sign-in is optional; empty client id disables the routes.
	GOOGLE_CLIENT_ID = getEnv("GOOGLE_CLIENT_ID", "")
	GOOGLE_CLIENT_SECRET = getEnv("GOOGLE_CLIENT_SECRET", "")
	GOOGLE_REDIRECT_URL = getEnv("GOOGLE_REDIRECT_URL", "")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", APP_URL+"/auth/callback")

	SMTP_HOST = getEnv("SMTP_HOST", "")
	SMTP_PORT = getEnv("SMTP_PORT", "587")
	SMTP_FROM = getEnv("SMTP_FROM", "")
	SMTP_PASSWORD = getEnv("SMTP_PASSWORD", "")
	EMAIL_PROVIDER = getEnv("EMAIL_PROVIDER", "smtp")
	EMAIL_FROM = getEnv("EMAIL_FROM", SMTP_FROM)

	STORAGE_TYPE = getEnv("STORAGE_TYPE", "local")
	STORAGE_LOCAL_DIR = getEnv("STORAGE_LOCAL_DIR", "./uploads")
	STORAGE_BUCKET = getEnv("STORAGE_BUCKET", "")
	STORAGE_REGION = getEnv("STORAGE_REGION", "us-east-1")
	SES_REGION = getEnv("SES_REGION", STORAGE_REGION)
	GCS_CREDENTIALS_FILE = getEnv("GCS_CREDENTIALS_FILE", "")

	USAGE_CLEANUP_SCHEDULE = getEnv("USAGE_CLEANUP_SCHEDULE", "0 0 * * 1")
	MAX_LOGIN_ATTEMPTS = getInt("MAX_LOGIN_ATTEMPTS", 5)
}

func IsProduction() bool {
	return APP_ENV == "production"
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Invalid boolean for %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
