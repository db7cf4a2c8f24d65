package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	Mail         Mail
	Verification Verification

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts string
}

// Mail configures the delivery transports and the queue.
type Mail struct {
	From        string
	APIURL      string // primary JSON mail API; primary is disabled when empty
	APIKey      string
	Secondary   string // "smtp" | "resend" | "" (none)
	SendTimeout time.Duration
	Pacing      time.Duration
	LoginURL    string // linked from the welcome email

	ResendAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPSSL      bool

	DeadLetterBucket string // S3 archive of failed tasks; disabled when empty
	AlertTopicARN    string // SNS topic for failed deliveries; disabled when empty
}

// Verification configures the send window and code lifetime.
type Verification struct {
	MaxSends    int
	Window      time.Duration
	MinInterval time.Duration
	CodeTTL     time.Duration
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Accounts: getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
		},
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		Mail: Mail{
			From:             getEnv("MAIL_FROM", "noreply@example.com"),
			APIURL:           getEnv("MAIL_API_URL", ""),
			APIKey:           getEnv("MAIL_API_KEY", ""),
			Secondary:        strings.ToLower(getEnv("MAIL_SECONDARY", "smtp")),
			SendTimeout:      time.Duration(getEnvInt("MAIL_SEND_TIMEOUT_SECONDS", 5)) * time.Second,
			Pacing:           time.Duration(getEnvInt("MAIL_PACING_MS", 200)) * time.Millisecond,
			LoginURL:         getEnv("APP_LOGIN_URL", ""),
			ResendAPIKey:     getEnv("RESEND_API_KEY", ""),
			SMTPHost:         getEnv("SMTP_HOST", "localhost"),
			SMTPPort:         getEnvInt("SMTP_PORT", 1025),
			SMTPUsername:     getEnv("SMTP_USERNAME", ""),
			SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
			SMTPSSL:          getEnvBool("SMTP_SSL", false),
			DeadLetterBucket: getEnv("MAIL_DEADLETTER_BUCKET", ""),
			AlertTopicARN:    getEnv("MAIL_ALERT_TOPIC_ARN", ""),
		},
		Verification: Verification{
			MaxSends:    getEnvInt("VERIFY_MAX_SENDS", 3),
			Window:      time.Duration(getEnvInt("VERIFY_WINDOW_SECONDS", 180)) * time.Second,
			MinInterval: time.Duration(getEnvInt("VERIFY_MIN_INTERVAL_SECONDS", 30)) * time.Second,
			CodeTTL:     time.Duration(getEnvInt("VERIFY_CODE_TTL_MINUTES", 10)) * time.Minute,
		},
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
