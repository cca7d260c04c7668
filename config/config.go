package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EngineConfig carries the tunable business rules for the progression and
// reward engine. It is loaded once at startup and passed by value into each
// service constructor; services never read the global AppConfig.
type EngineConfig struct {
	// Quiz defaults, used when a module has no QuizConfig row
	DefaultQuizQuestions        int
	DefaultQuizTimeLimitSeconds int
	DefaultPassScorePercent     float64
	MaxQuizAttempts             int

	// Credit slabs for passed quizzes
	CreditFastAndFull   int64 // full score within the fast threshold
	CreditNormalAndFull int64 // full score within the normal threshold
	CreditOther         int64 // passed, but slower or below full score

	FastThresholdSeconds   int
	NormalThresholdSeconds int
}

// Config holds application configuration
type Config struct {
	Port   string
	JWTKey string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	EmailSender string
	Password    string // SMTP Password

	AdminAlertEmail string // recipient for ledger integrity alerts
	EventWebhookURL string // badge/analytics event sink, empty disables emission
	ReconcileCron   string // cron spec for the ledger reconciliation sweep

	Engine EngineConfig
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:   getEnv("PORT", "3000"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "lms"),
		DBPort:     getEnv("DB_PORT", "5432"),

		EmailSender: getEnv("EMAIL_SENDER", ""),
		Password:    getEnv("PASSWORD", ""),

		AdminAlertEmail: getEnv("ADMIN_ALERT_EMAIL", ""),
		EventWebhookURL: getEnv("EVENT_WEBHOOK_URL", ""),
		ReconcileCron:   getEnv("RECONCILE_CRON", "@every 1h"),

		Engine: EngineConfig{
			DefaultQuizQuestions:        getEnvInt("QUIZ_DEFAULT_QUESTIONS", 15),
			DefaultQuizTimeLimitSeconds: getEnvInt("QUIZ_DEFAULT_TIME_LIMIT_SECONDS", 120),
			DefaultPassScorePercent:     float64(getEnvInt("QUIZ_DEFAULT_PASS_SCORE_PERCENT", 100)),
			MaxQuizAttempts:             getEnvInt("QUIZ_MAX_ATTEMPTS", 3),

			CreditFastAndFull:   int64(getEnvInt("CREDIT_FAST_AND_FULL", 15)),
			CreditNormalAndFull: int64(getEnvInt("CREDIT_NORMAL_AND_FULL", 10)),
			CreditOther:         int64(getEnvInt("CREDIT_OTHER", 2)),

			FastThresholdSeconds:   getEnvInt("CREDIT_FAST_THRESHOLD_SECONDS", 60),
			NormalThresholdSeconds: getEnvInt("CREDIT_NORMAL_THRESHOLD_SECONDS", 120),
		},
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
