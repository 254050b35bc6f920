package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Store selects and configures the persistent store backend
	Store    StoreConfig    `json:"store"`
	Database DatabaseConfig `json:"database"`
	MongoDB  MongoDBConfig  `json:"mongodb"`

	// Feed configures the remote change feed client
	Feed FeedConfig `json:"feed"`

	Sync         SyncConfig         `json:"sync"`
	Notification NotificationConfig `json:"notification"`
	Firebase     FirebaseConfig     `json:"firebase"`
	Auth         AuthConfig         `json:"auth"`
	Logging      LoggingConfig      `json:"logging"`
}

// ServerConfig contains the feed service listeners
type ServerConfig struct {
	Host        string `json:"host"`
	FeedPort    string `json:"feed_port"`   // gRPC change feed
	HealthPort  string `json:"health_port"` // HTTP health route
	Environment string `json:"environment"` // development, staging, production
}

type StoreConfig struct {
	Backend string `json:"backend"` // mysql, mongo, memory
}

// DatabaseConfig contains MySQL connection configuration
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type MongoDBConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
}

type FeedConfig struct {
	Address string `json:"address"`
}

// SyncConfig tunes the conversation and friendship engines
type SyncConfig struct {
	BacklogLimit         int           `json:"backlog_limit"`
	OptimisticEcho       bool          `json:"optimistic_echo"`
	PlaceholderTolerance time.Duration `json:"placeholder_tolerance"`
	ReconcileEnabled     bool          `json:"reconcile_enabled"`
	ReconcileGrace       time.Duration `json:"reconcile_grace"`
	ReconcilePolicy      string        `json:"reconcile_policy"` // complete, rollback
}

type NotificationConfig struct {
	Enabled           bool `json:"enabled"`
	Workers           int  `json:"workers"`
	ChannelBufferSize int  `json:"channel_buffer_size"`
	PreviewLength     int  `json:"preview_length"`
}

// FirebaseConfig contains Firebase Cloud Messaging configuration
type FirebaseConfig struct {
	ProjectID           string `json:"project_id"`
	CredentialsFilePath string `json:"credentials_file_path"`
	DeviceToken         string `json:"device_token"`
	Enabled             bool   `json:"enabled"`
}

type AuthConfig struct {
	JWTSecret string        `json:"-"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // json, text
	OutputPath string `json:"output_path"` // stdout, stderr, or file path
}

// LoadConfig reads .env (when present) and then the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Host:        getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			FeedPort:    getEnvOrDefault("FEED_SERVICE_PORT", "7005"),
			HealthPort:  getEnvOrDefault("HEALTH_PORT", "8085"),
			Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnvOrDefault("STORE_BACKEND", "mysql")),
		},
		Database: DatabaseConfig{
			Host:         getEnvOrDefault("MYSQL_HOST", "localhost"),
			Port:         getEnvOrDefault("MYSQL_PORT", "3306"),
			Username:     getEnvOrDefault("MYSQL_USERNAME", "chatsync"),
			Password:     getEnvOrDefault("MYSQL_PASSWORD", "chatsync123"),
			DatabaseName: getEnvOrDefault("MYSQL_DATABASE", "chatsync"),
			MaxOpenConns: getEnvInt("MYSQL_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("MYSQL_MAX_IDLE_CONNS", 5),
		},
		MongoDB: MongoDBConfig{
			Host:     getEnvOrDefault("MONGO_HOST", "localhost"),
			Port:     getEnvOrDefault("MONGO_PORT", "27017"),
			Username: getEnvOrDefault("MONGO_USERNAME", ""),
			Password: getEnvOrDefault("MONGO_PASSWORD", ""),
			Database: getEnvOrDefault("MONGO_DATABASE", "chatsync"),
		},
		Feed: FeedConfig{
			Address: getEnvOrDefault("FEED_ADDRESS", "localhost:7005"),
		},
		Sync: SyncConfig{
			BacklogLimit:         getEnvInt("SYNC_BACKLOG_LIMIT", 100),
			OptimisticEcho:       getEnvBool("SYNC_OPTIMISTIC_ECHO", true),
			PlaceholderTolerance: getEnvDuration("SYNC_PLACEHOLDER_TOLERANCE", 5*time.Second),
			ReconcileEnabled:     getEnvBool("SYNC_RECONCILE_ENABLED", true),
			ReconcileGrace:       getEnvDuration("SYNC_RECONCILE_GRACE", 30*time.Second),
			ReconcilePolicy:      strings.ToLower(getEnvOrDefault("SYNC_RECONCILE_POLICY", "complete")),
		},
		Notification: NotificationConfig{
			Enabled:           getEnvBool("NOTIFICATIONS_ENABLED", true),
			Workers:           getEnvInt("NOTIFICATION_WORKERS", 2),
			ChannelBufferSize: getEnvInt("NOTIFICATION_BUFFER", 100),
			PreviewLength:     getEnvInt("NOTIFICATION_PREVIEW_LENGTH", 50),
		},
		Firebase: FirebaseConfig{
			ProjectID:           getEnvOrDefault("FIREBASE_PROJECT_ID", ""),
			CredentialsFilePath: getEnvOrDefault("FIREBASE_CREDENTIALS_PATH", ""),
			DeviceToken:         getEnvOrDefault("FIREBASE_DEVICE_TOKEN", ""),
			Enabled:             getEnvBool("FIREBASE_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOrDefault("JWT_SECRET", "chatsync-dev-secret"),
			TokenTTL:  getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			Format:     getEnvOrDefault("LOG_FORMAT", "text"),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
		},
	}
}

// DSN builds the MySQL connection string. clientFoundRows makes UPDATE
// report matched rows, so rewriting a status to its current value still
// counts as found.
func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.Username != "" && cfg.MongoDB.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=admin",
			cfg.MongoDB.Username,
			cfg.MongoDB.Password,
			cfg.MongoDB.Host,
			cfg.MongoDB.Port,
			cfg.MongoDB.Database,
		)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s", cfg.MongoDB.Host, cfg.MongoDB.Port, cfg.MongoDB.Database)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid boolean for %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
