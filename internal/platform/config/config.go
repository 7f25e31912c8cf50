package config

import (
	"encoding/base64"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	MongoURI    string
	MongoDBName string

	// RedisAddr empty means no queue backend: submissions are processed
	// inline, synchronously, in the request that created them.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SubmissionQueueName string
	QueueMaxAttempts    int
	QueueBackoffBase    time.Duration
	WorkerCount         int

	MasterSheetID      string
	DefaultStartColumn string

	GoogleServiceAccountKey []byte // decoded JSON key
	SheetsRateLimitPerSec   float64

	EncryptionKey []byte // 32 bytes, for sealing repo-access tokens
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:             getEnv("API_PORT", "8080"),
		JWTKey:              []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:              time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		MongoURI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDBName:         getEnv("MONGODB_DB", "codetrack"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvAsInt("REDIS_DB", 0),
		SubmissionQueueName: getEnv("SUBMISSION_QUEUE_NAME", "submissions_queue"),
		QueueMaxAttempts:    getEnvAsInt("QUEUE_MAX_ATTEMPTS", 3),
		QueueBackoffBase:    time.Duration(getEnvAsInt("QUEUE_BACKOFF_BASE_MS", 5000)) * time.Millisecond,
		WorkerCount:         getEnvAsInt("WORKER_COUNT", 2),
		MasterSheetID:       getEnv("MASTER_SHEET_ID", ""),
		DefaultStartColumn:  getEnv("DEFAULT_START_COLUMN", "E"),
		SheetsRateLimitPerSec: func() float64 {
			if v, err := strconv.ParseFloat(getEnv("SHEETS_RATE_LIMIT_PER_SEC", "1"), 64); err == nil {
				return v
			}
			return 1
		}(),
		GoogleServiceAccountKey: decodeBase64Env("GOOGLE_SERVICE_ACCOUNT_KEY_BASE64"),
		EncryptionKey:           decodeBase64Env("ENCRYPTION_KEY"),
	}
}

// decodeBase64Env returns the decoded value, or the raw bytes when the value
// is not base64 (a plain JSON key pasted into the environment still works).
func decodeBase64Env(key string) []byte {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	return []byte(raw)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
