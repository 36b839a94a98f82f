package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	AWS        AWSConfig
	Email      EmailConfig
	PayU       PayUConfig
	Cashfree   CashfreeConfig
	Admin      AdminConfig
	Conference ConferenceConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	BaseURL            string // public base URL used in gateway return links
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings for the email job queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the manuscripts bucket name.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ManuscriptsBucket    string
	PresignExpireMinutes int
}

// EmailConfig holds transactional email API settings (Brevo-style).
type EmailConfig struct {
	APIURL      string
	APIKey      string
	FromAddress string
	FromName    string
}

// PayUConfig holds PayU merchant credentials.
type PayUConfig struct {
	MerchantKey string
	Salt        string
	BaseURL     string
}

// CashfreeConfig holds Cashfree merchant credentials.
type CashfreeConfig struct {
	AppID     string
	SecretKey string
	BaseURL   string
}

// AdminConfig holds the seeded administrator account. The account is
// created at startup when no user with this email exists.
type AdminConfig struct {
	Email    string
	Password string
}

// ConferenceConfig holds defaults for the settings row when the database
// has none yet.
type ConferenceConfig struct {
	Name           string
	AuthorIDPrefix string
}

// DSN returns the PostgreSQL connection string. If DatabaseConfig.URL is
// set (DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 60),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "confera"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "ap-south-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ManuscriptsBucket:    getEnv("AWS_S3_MANUSCRIPTS_BUCKET", "confera-manuscripts"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Email: EmailConfig{
			APIURL:      getEnv("EMAIL_API_URL", "https://api.brevo.com/v3/smtp/email"),
			APIKey:      getEnv("EMAIL_API_KEY", ""),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@confera.example"),
			FromName:    getEnv("EMAIL_FROM_NAME", "Confera"),
		},
		PayU: PayUConfig{
			MerchantKey: getEnv("PAYU_MERCHANT_KEY", ""),
			Salt:        getEnv("PAYU_SALT", ""),
			BaseURL:     getEnv("PAYU_BASE_URL", "https://secure.payu.in"),
		},
		Cashfree: CashfreeConfig{
			AppID:     getEnv("CASHFREE_APP_ID", ""),
			SecretKey: getEnv("CASHFREE_SECRET_KEY", ""),
			BaseURL:   getEnv("CASHFREE_BASE_URL", "https://api.cashfree.com"),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Conference: ConferenceConfig{
			Name:           getEnv("CONFERENCE_NAME", "Confera"),
			AuthorIDPrefix: getEnv("AUTHOR_ID_PREFIX", "CONF25"),
		},
	}
	return cfg, nil
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
