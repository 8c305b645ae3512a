// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported values for DB_DRIVER and AUTH_PROVIDER.
const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	AuthProviderFirebase = "firebase"
	AuthProviderJWT      = "jwt"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"-"` // SERVER_TIMEOUT_SECONDS

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"-"` // DB_CONN_MAX_LIFETIME_MINUTES
	DBSQLitePath      string        `mapstructure:"DB_SQLITE_PATH"`
	DBSource          string        `mapstructure:"DB_SOURCE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Authentication
	AuthProvider string `mapstructure:"AUTH_PROVIDER"`
	JWTSecretKey string `mapstructure:"JWT_SECRET_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`

	// Lifetime of tokens issued by the jwt provider
	JWTAccessTokenExpiry time.Duration `mapstructure:"-"` // JWT_ACCESS_TOKEN_EXPIRY_MINUTES

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`

	// Realtime change feed (Postgres LISTEN/NOTIFY). Empty disables it.
	RealtimeChannel string `mapstructure:"REALTIME_CHANNEL"`

	// Cron Jobs
	NotificationRefreshSchedule string `mapstructure:"NOTIFICATION_REFRESH_SCHEDULE"`

	// Sessions
	SessionIdleTTL    time.Duration `mapstructure:"-"` // SESSION_IDLE_TTL_MINUTES
	DashboardBasePath string        `mapstructure:"DASHBOARD_BASE_PATH"`

	// Notification rule thresholds, in days
	NotifyTaskLeadDays              int `mapstructure:"NOTIFY_TASK_LEAD_DAYS"`
	NotifyTaskHighOverdueDays       int `mapstructure:"NOTIFY_TASK_HIGH_OVERDUE_DAYS"`
	NotifyTaskUrgentOverdueDays     int `mapstructure:"NOTIFY_TASK_URGENT_OVERDUE_DAYS"`
	NotifyTaskEscalationOverdueDays int `mapstructure:"NOTIFY_TASK_ESCALATION_OVERDUE_DAYS"`
	NotifyRenewalLeadDays           int `mapstructure:"NOTIFY_RENEWAL_LEAD_DAYS"`
	NotifyRenewalMediumDays         int `mapstructure:"NOTIFY_RENEWAL_MEDIUM_DAYS"`
	NotifyRenewalHighDays           int `mapstructure:"NOTIFY_RENEWAL_HIGH_DAYS"`
	NotifyRenewalUrgentDays         int `mapstructure:"NOTIFY_RENEWAL_URGENT_DAYS"`
	NotifyRenewalEscalationDays     int `mapstructure:"NOTIFY_RENEWAL_ESCALATION_DAYS"`
	NotifyPartnerStallDays          int `mapstructure:"NOTIFY_PARTNER_STALL_DAYS"`
	NotifyCustomerChurnWindowDays   int `mapstructure:"NOTIFY_CUSTOMER_CHURN_WINDOW_DAYS"`
	NotifyDigestMinItems            int `mapstructure:"NOTIFY_DIGEST_MIN_ITEMS"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}
	return loadFromViper(viper.New())
}

// setDefaults registers the default for every key so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_DRIVER", DBDriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "crm_dashboard_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SQLITE_PATH", "crm_dashboard.db")
	v.SetDefault("DB_SOURCE", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("AUTH_PROVIDER", AuthProviderFirebase)
	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_ISSUER", "crm_dashboard_backend")
	v.SetDefault("JWT_ACCESS_TOKEN_EXPIRY_MINUTES", 60)
	v.SetDefault("FIREBASE_PROJECT_ID", "") // Optional
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")

	v.SetDefault("REALTIME_CHANNEL", "dashboard_changes")
	v.SetDefault("NOTIFICATION_REFRESH_SCHEDULE", "@every 15m")
	v.SetDefault("SESSION_IDLE_TTL_MINUTES", 30)
	v.SetDefault("DASHBOARD_BASE_PATH", "/dashboard")

	v.SetDefault("NOTIFY_TASK_LEAD_DAYS", 2)
	v.SetDefault("NOTIFY_TASK_HIGH_OVERDUE_DAYS", 1)
	v.SetDefault("NOTIFY_TASK_URGENT_OVERDUE_DAYS", 5)
	v.SetDefault("NOTIFY_TASK_ESCALATION_OVERDUE_DAYS", 10)
	v.SetDefault("NOTIFY_RENEWAL_LEAD_DAYS", 30)
	v.SetDefault("NOTIFY_RENEWAL_MEDIUM_DAYS", 14)
	v.SetDefault("NOTIFY_RENEWAL_HIGH_DAYS", 3)
	v.SetDefault("NOTIFY_RENEWAL_URGENT_DAYS", 1)
	v.SetDefault("NOTIFY_RENEWAL_ESCALATION_DAYS", 0)
	v.SetDefault("NOTIFY_PARTNER_STALL_DAYS", 14)
	v.SetDefault("NOTIFY_CUSTOMER_CHURN_WINDOW_DAYS", 30)
	v.SetDefault("NOTIFY_DIGEST_MIN_ITEMS", 3)
}

func loadFromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Duration fields are skipped by Unmarshal and read here as whole units.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.SessionIdleTTL = time.Duration(v.GetInt("SESSION_IDLE_TTL_MINUTES")) * time.Minute
	cfg.JWTAccessTokenExpiry = time.Duration(v.GetInt("JWT_ACCESS_TOKEN_EXPIRY_MINUTES")) * time.Minute

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.AuthProvider = strings.ToLower(strings.TrimSpace(cfg.AuthProvider))

	// DB_SOURCE wins when set explicitly; otherwise build the key=value DSN
	// that both GORM's postgres driver and lib/pq accept.
	if strings.TrimSpace(cfg.DBSource) == "" && cfg.DBDriver == DBDriverPostgres {
		cfg.DBSource = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode, cfg.DBTimezone)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.DBDriver {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DBDriverPostgres, DBDriverSQLite, cfg.DBDriver)
	}

	switch cfg.AuthProvider {
	case AuthProviderFirebase:
		if strings.TrimSpace(cfg.FirebaseServiceAccountKeyPath) == "" {
			return fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required when AUTH_PROVIDER=firebase")
		}
		if _, err := os.Stat(cfg.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
			return fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", cfg.FirebaseServiceAccountKeyPath)
		}
	case AuthProviderJWT:
		if len(cfg.JWTSecretKey) < 16 {
			return fmt.Errorf("FATAL: JWT_SECRET_KEY must be at least 16 characters when AUTH_PROVIDER=jwt")
		}
	default:
		return fmt.Errorf("AUTH_PROVIDER must be %q or %q, got %q", AuthProviderFirebase, AuthProviderJWT, cfg.AuthProvider)
	}

	if cfg.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL_MINUTES must be positive")
	}
	return nil
}

// RealtimeEnabled reports whether the Postgres change feed should be consumed.
func (cfg *Config) RealtimeEnabled() bool {
	return cfg.DBDriver == DBDriverPostgres && strings.TrimSpace(cfg.RealtimeChannel) != ""
}
