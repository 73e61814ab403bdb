package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the visitation service
type Config struct {
	Environment string          `yaml:"environment"`
	Debug       bool            `yaml:"debug"`
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Redis       RedisConfig     `yaml:"redis"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	Scope       ScopeConfig     `yaml:"scope"`
	SLA         SLAConfig       `yaml:"sla"`
	Scheduler   SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
}

// DatabaseConfig contains PostgreSQL database settings
type DatabaseConfig struct {
	ConnectionString   string        `yaml:"connection_string"`
	MaxOpenConnections int           `yaml:"max_open_connections"`
	MaxIdleConnections int           `yaml:"max_idle_connections"`
	ConnectionLifetime time.Duration `yaml:"connection_lifetime"`
	ConnectionTimeout  time.Duration `yaml:"connection_timeout"`
	QueryTimeout       time.Duration `yaml:"query_timeout"`
	MigrationPath      string        `yaml:"migration_path"`
	EnableQueryLogging bool          `yaml:"enable_query_logging"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"`
}

// RedisConfig contains Redis cache settings
type RedisConfig struct {
	Address      string        `yaml:"address"`
	Password     string        `yaml:"password"`
	Database     int           `yaml:"database"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PoolSize     int           `yaml:"pool_size"`
	HierarchyTTL time.Duration `yaml:"hierarchy_ttl"`
}

// KafkaConfig contains event publisher settings
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Topics       TopicsConfig  `yaml:"topics"`
}

// TopicsConfig contains topic names for emitted events
type TopicsConfig struct {
	OfficerEvents string `yaml:"officer_events"`
}

// ScopeConfig contains data scope resolver settings
type ScopeConfig struct {
	// RoleConfigTTL bounds how stale a cached role->level mapping may be.
	// The mapping is runtime configuration, so it must never be cached
	// indefinitely.
	RoleConfigTTL time.Duration `yaml:"role_config_ttl"`
}

// SLAConfig contains the fixed service-commitment budgets
type SLAConfig struct {
	SOSResponseBudget       time.Duration `yaml:"sos_response_budget"`
	SOSResolutionBudget     time.Duration `yaml:"sos_resolution_budget"`
	VerificationVisitBudget time.Duration `yaml:"verification_visit_budget"`
	RoutineVisitBudget      time.Duration `yaml:"routine_visit_budget"`
}

// SchedulerConfig contains cron specs for the periodic jobs
type SchedulerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	SLASweepSpec     string `yaml:"sla_sweep_spec"`
	DailySummarySpec string `yaml:"daily_summary_spec"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Debug:       getBoolEnv("DEBUG", false),

		Server: ServerConfig{
			HTTPPort:        getIntEnv("HTTP_PORT", 8080),
			ReadTimeout:     getDurationEnv("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDurationEnv("IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxHeaderBytes:  getIntEnv("MAX_HEADER_BYTES", 1048576),
		},

		Database: DatabaseConfig{
			ConnectionString:   getEnv("DATABASE_URL", "postgres://localhost:5432/visitation?sslmode=disable"),
			MaxOpenConnections: getIntEnv("DB_MAX_OPEN_CONNECTIONS", 25),
			MaxIdleConnections: getIntEnv("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnectionLifetime: getDurationEnv("DB_CONNECTION_LIFETIME", 1*time.Hour),
			ConnectionTimeout:  getDurationEnv("DB_CONNECTION_TIMEOUT", 30*time.Second),
			QueryTimeout:       getDurationEnv("DB_QUERY_TIMEOUT", 30*time.Second),
			MigrationPath:      getEnv("DB_MIGRATION_PATH", "file://migrations"),
			EnableQueryLogging: getBoolEnv("DB_ENABLE_QUERY_LOGGING", false),
			SlowQueryThreshold: getDurationEnv("DB_SLOW_QUERY_THRESHOLD", 1*time.Second),
		},

		Redis: RedisConfig{
			Address:      getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			Database:     getIntEnv("REDIS_DATABASE", 0),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 20),
			HierarchyTTL: getDurationEnv("REDIS_HIERARCHY_TTL", 10*time.Minute),
		},

		Kafka: KafkaConfig{
			Brokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			BatchSize:    getIntEnv("KAFKA_BATCH_SIZE", 100),
			BatchTimeout: getDurationEnv("KAFKA_BATCH_TIMEOUT", 10*time.Millisecond),
			WriteTimeout: getDurationEnv("KAFKA_WRITE_TIMEOUT", 10*time.Second),
			Topics: TopicsConfig{
				OfficerEvents: getEnv("KAFKA_TOPIC_OFFICER_EVENTS", "officer-events"),
			},
		},

		Scope: ScopeConfig{
			RoleConfigTTL: getDurationEnv("SCOPE_ROLE_CONFIG_TTL", 30*time.Second),
		},

		SLA: SLAConfig{
			SOSResponseBudget:       getDurationEnv("SLA_SOS_RESPONSE_BUDGET", 15*time.Minute),
			SOSResolutionBudget:     getDurationEnv("SLA_SOS_RESOLUTION_BUDGET", 60*time.Minute),
			VerificationVisitBudget: getDurationEnv("SLA_VERIFICATION_VISIT_BUDGET", 7*24*time.Hour),
			RoutineVisitBudget:      getDurationEnv("SLA_ROUTINE_VISIT_BUDGET", 30*24*time.Hour),
		},

		Scheduler: SchedulerConfig{
			Enabled:          getBoolEnv("SCHEDULER_ENABLED", true),
			SLASweepSpec:     getEnv("SCHEDULER_SLA_SWEEP_SPEC", "*/5 * * * *"),
			DailySummarySpec: getEnv("SCHEDULER_DAILY_SUMMARY_SPEC", "0 0 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	if c.Database.ConnectionString == "" {
		return fmt.Errorf("database connection string is required")
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("at least one Kafka broker is required")
	}

	if c.Scope.RoleConfigTTL <= 0 {
		return fmt.Errorf("role config TTL must be positive")
	}

	if c.SLA.SOSResponseBudget <= 0 || c.SLA.SOSResolutionBudget <= 0 {
		return fmt.Errorf("SLA budgets must be positive")
	}

	if c.SLA.SOSResponseBudget >= c.SLA.SOSResolutionBudget {
		return fmt.Errorf("SOS response budget must be shorter than resolution budget")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
