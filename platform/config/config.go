// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// EmailConfig provides settings for the outbound email provider.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetEmailProvider() string
	GetResendAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetUnsubscribeAddress() string
}

// ContentConfig provides settings for the LLM-backed content generator.
type ContentConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetContentTimeout() time.Duration
	IsContentGenerationEnabled() bool
}

// DispatchConfig provides the dispatch scheduler's runtime tuning.
type DispatchConfig interface {
	GetDailyEmailLimit() int
	GetMaxAttemptsPerLead() int
	GetDelayMean() time.Duration
	GetDelayStdDev() time.Duration
	GetDelayMin() time.Duration
	GetBatchPauseEvery() int
	GetBatchPauseMin() time.Duration
	GetBatchPauseMax() time.Duration
	GetDelaysDisabled() bool
	GetSendTimeout() time.Duration
	GetSendRetryAttempts() int
	GetSendRetryBackoff() time.Duration
}

// SuppressionConfig provides the suppression cache TTLs.
type SuppressionConfig interface {
	GetSuppressionCacheTTL() time.Duration
	GetDailyCountCacheTTL() time.Duration
}

// DedupConfig provides the duplicate detector's lookback window.
type DedupConfig interface {
	GetDedupWindow() time.Duration
}

// ScoringConfig provides the lead scoring weights.
type ScoringConfig interface {
	GetWeightEmailExists() int
	GetWeightEmailNominal() int
	GetWeightEmailRole() int
	GetWeightEmailGeneric() int
	GetWeightEmailFormOnly() int
	GetWeightConfidenceHigh() int
	GetWeightConfidenceMedium() int
	GetWeightConfidenceLow() int
	GetWeightDecisionMaker() int
	GetWeightWebsite() int
	GetMXCheckEnabled() bool
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// IMAPConfig provides settings for the unsubscribe inbox scanner.
type IMAPConfig interface {
	GetIMAPHost() string
	GetIMAPPort() int
	GetIMAPUsername() string
	GetIMAPPassword() string
	GetIMAPScanInterval() time.Duration
	GetUnsubscribeKeywords() []string
	IsIMAPEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	AccessTokenTTL       time.Duration
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	EmailEnabled         bool
	EmailProvider        string
	ResendAPIKey         string
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	EmailFromName        string
	EmailFromAddress     string
	UnsubscribeAddress   string
	GeminiAPIKey         string
	GeminiModel          string
	ContentTimeout       time.Duration
	DailyEmailLimit      int
	MaxAttemptsPerLead   int
	DelayMean            time.Duration
	DelayStdDev          time.Duration
	DelayMin             time.Duration
	BatchPauseEvery      int
	BatchPauseMin        time.Duration
	BatchPauseMax        time.Duration
	DelaysDisabled       bool
	SendTimeout          time.Duration
	SendRetryAttempts    int
	SendRetryBackoff     time.Duration
	SuppressionCacheTTL  time.Duration
	DailyCountCacheTTL   time.Duration
	DedupWindow          time.Duration
	WeightEmailExists    int
	WeightEmailNominal   int
	WeightEmailRole      int
	WeightEmailGeneric   int
	WeightEmailFormOnly  int
	WeightConfidenceHigh int
	WeightConfidenceMed  int
	WeightConfidenceLow  int
	WeightDecisionMaker  int
	WeightWebsite        int
	MXCheckEnabled       bool
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	IMAPHost             string
	IMAPPort             int
	IMAPUsername         string
	IMAPPassword         string
	IMAPScanInterval     time.Duration
	UnsubscribeKeywords  []string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool         { return c.EmailEnabled }
func (c *Config) GetEmailProvider() string      { return c.EmailProvider }
func (c *Config) GetResendAPIKey() string       { return c.ResendAPIKey }
func (c *Config) GetSMTPHost() string           { return c.SMTPHost }
func (c *Config) GetSMTPPort() int              { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string       { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string       { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string      { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string   { return c.EmailFromAddress }
func (c *Config) GetUnsubscribeAddress() string { return c.UnsubscribeAddress }

// ContentConfig implementation
func (c *Config) GetGeminiAPIKey() string           { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string            { return c.GeminiModel }
func (c *Config) GetContentTimeout() time.Duration  { return c.ContentTimeout }
func (c *Config) IsContentGenerationEnabled() bool  { return c.GeminiAPIKey != "" }

// DispatchConfig implementation
func (c *Config) GetDailyEmailLimit() int            { return c.DailyEmailLimit }
func (c *Config) GetMaxAttemptsPerLead() int         { return c.MaxAttemptsPerLead }
func (c *Config) GetDelayMean() time.Duration        { return c.DelayMean }
func (c *Config) GetDelayStdDev() time.Duration      { return c.DelayStdDev }
func (c *Config) GetDelayMin() time.Duration         { return c.DelayMin }
func (c *Config) GetBatchPauseEvery() int            { return c.BatchPauseEvery }
func (c *Config) GetBatchPauseMin() time.Duration    { return c.BatchPauseMin }
func (c *Config) GetBatchPauseMax() time.Duration    { return c.BatchPauseMax }
func (c *Config) GetDelaysDisabled() bool            { return c.DelaysDisabled }
func (c *Config) GetSendTimeout() time.Duration      { return c.SendTimeout }
func (c *Config) GetSendRetryAttempts() int          { return c.SendRetryAttempts }
func (c *Config) GetSendRetryBackoff() time.Duration { return c.SendRetryBackoff }

// SuppressionConfig implementation
func (c *Config) GetSuppressionCacheTTL() time.Duration { return c.SuppressionCacheTTL }
func (c *Config) GetDailyCountCacheTTL() time.Duration  { return c.DailyCountCacheTTL }

// DedupConfig implementation
func (c *Config) GetDedupWindow() time.Duration { return c.DedupWindow }

// ScoringConfig implementation
func (c *Config) GetWeightEmailExists() int      { return c.WeightEmailExists }
func (c *Config) GetWeightEmailNominal() int     { return c.WeightEmailNominal }
func (c *Config) GetWeightEmailRole() int        { return c.WeightEmailRole }
func (c *Config) GetWeightEmailGeneric() int     { return c.WeightEmailGeneric }
func (c *Config) GetWeightEmailFormOnly() int    { return c.WeightEmailFormOnly }
func (c *Config) GetWeightConfidenceHigh() int   { return c.WeightConfidenceHigh }
func (c *Config) GetWeightConfidenceMedium() int { return c.WeightConfidenceMed }
func (c *Config) GetWeightConfidenceLow() int    { return c.WeightConfidenceLow }
func (c *Config) GetWeightDecisionMaker() int    { return c.WeightDecisionMaker }
func (c *Config) GetWeightWebsite() int          { return c.WeightWebsite }
func (c *Config) GetMXCheckEnabled() bool        { return c.MXCheckEnabled }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// IMAPConfig implementation
func (c *Config) GetIMAPHost() string                { return c.IMAPHost }
func (c *Config) GetIMAPPort() int                   { return c.IMAPPort }
func (c *Config) GetIMAPUsername() string            { return c.IMAPUsername }
func (c *Config) GetIMAPPassword() string            { return c.IMAPPassword }
func (c *Config) GetIMAPScanInterval() time.Duration { return c.IMAPScanInterval }
func (c *Config) GetUnsubscribeKeywords() []string   { return c.UnsubscribeKeywords }
func (c *Config) IsIMAPEnabled() bool {
	return c.IMAPHost != "" && c.IMAPUsername != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	provider := strings.ToLower(getEnv("EMAIL_PROVIDER", "resend"))
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:       mustDuration(getEnv("JWT_ACCESS_TTL", "12h")),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		EmailEnabled:         emailEnabled,
		EmailProvider:        provider,
		ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Outreach"),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		UnsubscribeAddress:   getEnv("UNSUBSCRIBE_ADDRESS", ""),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		ContentTimeout:       mustDuration(getEnv("CONTENT_TIMEOUT", "30s")),
		DailyEmailLimit:      mustInt(getEnv("DAILY_EMAIL_LIMIT", "20")),
		MaxAttemptsPerLead:   mustInt(getEnv("MAX_ATTEMPTS_PER_LEAD", "2")),
		DelayMean:            mustDuration(getEnv("SEND_DELAY_MEAN", "90s")),
		DelayStdDev:          mustDuration(getEnv("SEND_DELAY_STDDEV", "30s")),
		DelayMin:             mustDuration(getEnv("SEND_DELAY_MIN", "45s")),
		BatchPauseEvery:      mustInt(getEnv("BATCH_PAUSE_EVERY", "5")),
		BatchPauseMin:        mustDuration(getEnv("BATCH_PAUSE_MIN", "300s")),
		BatchPauseMax:        mustDuration(getEnv("BATCH_PAUSE_MAX", "600s")),
		DelaysDisabled:       strings.EqualFold(getEnv("SEND_DELAYS_DISABLED", "false"), "true"),
		SendTimeout:          mustDuration(getEnv("SEND_TIMEOUT", "30s")),
		SendRetryAttempts:    mustInt(getEnv("SEND_RETRY_ATTEMPTS", "3")),
		SendRetryBackoff:     mustDuration(getEnv("SEND_RETRY_BACKOFF", "5s")),
		SuppressionCacheTTL:  mustDuration(getEnv("SUPPRESSION_CACHE_TTL", "300s")),
		DailyCountCacheTTL:   mustDuration(getEnv("DAILY_COUNT_CACHE_TTL", "60s")),
		DedupWindow:          mustDuration(getEnv("DEDUP_WINDOW", "4320h")),
		WeightEmailExists:    mustInt(getEnv("SCORE_EMAIL_EXISTS", "30")),
		WeightEmailNominal:   mustInt(getEnv("SCORE_EMAIL_NOMINAL", "25")),
		WeightEmailRole:      mustInt(getEnv("SCORE_EMAIL_ROLE", "20")),
		WeightEmailGeneric:   mustInt(getEnv("SCORE_EMAIL_GENERIC", "10")),
		WeightEmailFormOnly:  mustInt(getEnv("SCORE_EMAIL_FORM_ONLY", "0")),
		WeightConfidenceHigh: mustInt(getEnv("SCORE_CONFIDENCE_HIGH", "25")),
		WeightConfidenceMed:  mustInt(getEnv("SCORE_CONFIDENCE_MEDIUM", "15")),
		WeightConfidenceLow:  mustInt(getEnv("SCORE_CONFIDENCE_LOW", "5")),
		WeightDecisionMaker:  mustInt(getEnv("SCORE_DECISION_MAKER", "10")),
		WeightWebsite:        mustInt(getEnv("SCORE_WEBSITE", "10")),
		MXCheckEnabled:       strings.EqualFold(getEnv("MX_CHECK_ENABLED", "false"), "true"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "4")),
		IMAPHost:             getEnv("IMAP_HOST", ""),
		IMAPPort:             mustInt(getEnv("IMAP_PORT", "993")),
		IMAPUsername:         getEnv("IMAP_USERNAME", ""),
		IMAPPassword:         getEnv("IMAP_PASSWORD", ""),
		IMAPScanInterval:     mustDuration(getEnv("IMAP_SCAN_INTERVAL", "15m")),
		UnsubscribeKeywords:  splitCSV(getEnv("UNSUBSCRIBE_KEYWORDS", "remover,unsubscribe,descadastrar,não quero,pare")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled {
		switch cfg.EmailProvider {
		case "resend":
			if cfg.ResendAPIKey == "" {
				return nil, fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER is resend")
			}
		case "smtp":
			if cfg.SMTPHost == "" {
				return nil, fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER is smtp")
			}
		default:
			return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
		}
		if cfg.EmailFromAddress == "" {
			return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
		}
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.MaxAttemptsPerLead < 1 {
		return nil, fmt.Errorf("MAX_ATTEMPTS_PER_LEAD must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
