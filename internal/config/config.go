package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	API struct {
		Port     string
		BasePath string
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
		FromName   string
	}
	SMS struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	Monitor struct {
		Lookback          time.Duration
		MaxWorkers        int
		DispatchBatchSize int
		MaxRetries        int
		BackoffBase       time.Duration
	}
	PMSync struct {
		HTTPTimeout time.Duration
	}
	RateLimit struct {
		EmailPerSecond int
		SMSPerSecond   int
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	// Database DSN
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	// Email settings
	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	if p, err := strconv.Atoi(os.Getenv("EMAIL_SMTP_PORT")); err == nil {
		cfg.Email.SMTPPort = p
	}
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	cfg.Email.FromName = os.Getenv("EMAIL_FROM_NAME")

	// Twilio settings
	cfg.SMS.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.SMS.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.SMS.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")

	// Kafka KPI-event ingest (optional; consumer is skipped when broker is unset)
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	// Monitor settings
	if h, err := strconv.Atoi(os.Getenv("MONITOR_LOOKBACK_HOURS")); err == nil {
		cfg.Monitor.Lookback = time.Duration(h) * time.Hour
	}
	if w, err := strconv.Atoi(os.Getenv("MONITOR_MAX_WORKERS")); err == nil {
		cfg.Monitor.MaxWorkers = w
	}
	if b, err := strconv.Atoi(os.Getenv("DISPATCH_BATCH_SIZE")); err == nil {
		cfg.Monitor.DispatchBatchSize = b
	}
	if r, err := strconv.Atoi(os.Getenv("DISPATCH_MAX_RETRIES")); err == nil {
		cfg.Monitor.MaxRetries = r
	}
	if m, err := strconv.Atoi(os.Getenv("DISPATCH_BACKOFF_BASE_MINUTES")); err == nil {
		cfg.Monitor.BackoffBase = time.Duration(m) * time.Minute
	}

	// PM-sync settings
	if s, err := strconv.Atoi(os.Getenv("PM_SYNC_HTTP_TIMEOUT_SECONDS")); err == nil {
		cfg.PMSync.HTTPTimeout = time.Duration(s) * time.Second
	}

	// Provider rate limits
	if n, err := strconv.Atoi(os.Getenv("EMAIL_RATE_PER_SECOND")); err == nil {
		cfg.RateLimit.EmailPerSecond = n
	}
	if n, err := strconv.Atoi(os.Getenv("SMS_RATE_PER_SECOND")); err == nil {
		cfg.RateLimit.SMSPerSecond = n
	}

	// Logging
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "kpi_events"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "redflag-monitor"
	}
	if cfg.Monitor.Lookback == 0 {
		cfg.Monitor.Lookback = 24 * time.Hour
	}
	if cfg.Monitor.MaxWorkers == 0 {
		cfg.Monitor.MaxWorkers = 10
	}
	if cfg.Monitor.DispatchBatchSize == 0 {
		cfg.Monitor.DispatchBatchSize = 100
	}
	if cfg.Monitor.MaxRetries == 0 {
		cfg.Monitor.MaxRetries = 3
	}
	if cfg.Monitor.BackoffBase == 0 {
		cfg.Monitor.BackoffBase = time.Minute
	}
	if cfg.PMSync.HTTPTimeout == 0 {
		cfg.PMSync.HTTPTimeout = 30 * time.Second
	}
	if cfg.RateLimit.EmailPerSecond == 0 {
		cfg.RateLimit.EmailPerSecond = 10
	}
	if cfg.RateLimit.SMSPerSecond == 0 {
		cfg.RateLimit.SMSPerSecond = 5
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}
