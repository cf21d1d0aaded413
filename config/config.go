package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
	Store    StoreConfig
	Spool    SpoolConfig
	Scan     ScanConfig
	Seed     SeedConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
	// StorageDriver is "postgres" or "memory".
	StorageDriver string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
	MigrateOnStart  bool
}

type JWTConfig struct {
	SecretKey  string
	TTLMinutes int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled           bool
	Brokers           []string
	TransactionsTopic string
	RestockTopic      string
	GroupID           string
}

type ElasticsearchConfig struct {
	Enabled   bool
	Addresses []string
	Username  string
	Password  string
}

// StoreConfig is the shop identity printed on receipts plus pricing defaults.
type StoreConfig struct {
	CompanyName    string
	CompanyAddress string
	CompanyPhone   string
	ReceiptFooter  string
	TaxRate        string
	CurrencyScale  int
	ReceiptLocale  string
	ReceiptWidth   int
}

type SpoolConfig struct {
	ReceiptDir string
	LabelDir   string
}

// ScanConfig points at a keyboard-emulating scanner device. Empty disables it.
type ScanConfig struct {
	Device string
}

type SeedConfig struct {
	AdminPassword string
}

const (
	defaultJWTSecret     = "your-secret-key-change-this-in-prod"
	defaultAdminPassword = "admin123"
	minJWTSecretLength   = 32
)

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "dev" || c.Server.AppEnv == "development"
}

// Validate reports insecure settings. Development only gets warnings; any
// other environment refuses a missing, default or short JWT secret and the
// default admin password.
func (c *Config) Validate() (warnings []string, err error) {
	var problems []string

	secret := c.JWT.SecretKey
	switch {
	case secret == "":
		problems = append(problems, "JWT_SECRET_KEY is not set")
	case secret == defaultJWTSecret:
		problems = append(problems, "JWT_SECRET_KEY uses the built-in default")
	case len(secret) < minJWTSecretLength:
		problems = append(problems, fmt.Sprintf("JWT_SECRET_KEY must be at least %d bytes", minJWTSecretLength))
	}
	if c.Seed.AdminPassword == defaultAdminPassword {
		problems = append(problems, "SEED_ADMIN_PASSWORD uses the built-in default")
	}

	if len(problems) == 0 {
		return nil, nil
	}
	if c.IsDevelopment() {
		return problems, nil
	}
	errs := make([]error, len(problems))
	for i, p := range problems {
		errs[i] = errors.New(p)
	}
	return nil, fmt.Errorf("insecure configuration for %s: %w", c.Server.AppEnv, errors.Join(errs...))
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:        getEnv("APP_ENV", "dev"),
			GRPCPort:      getEnv("GRPC_PORT", ":8083"),
			StorageDriver: getEnv("STORAGE_DRIVER", "postgres"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_cashier"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
			MigrateOnStart:  getEnvBool("MIGRATE_ON_START", true),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", defaultJWTSecret),
			TTLMinutes: getEnvInt("JWT_TTL_MINUTES", 720),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:           getEnvBool("KAFKA_ENABLED", true),
			Brokers:           getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			TransactionsTopic: getEnv("KAFKA_TOPIC_TRANSACTIONS", "cashier.transactions"),
			RestockTopic:      getEnv("KAFKA_TOPIC_RESTOCK", "inventory.restock"),
			GroupID:           getEnv("KAFKA_GROUP_INVENTORY", "cashier-inventory"),
		},
		Elastic: ElasticsearchConfig{
			Enabled:   getEnvBool("ELASTICSEARCH_ENABLED", true),
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		},
		Store: StoreConfig{
			CompanyName:    getEnv("COMPANY_NAME", "Toko Serba Ada"),
			CompanyAddress: getEnv("COMPANY_ADDRESS", "Jl. Merdeka No. 1"),
			CompanyPhone:   getEnv("COMPANY_PHONE", "021-000000"),
			ReceiptFooter:  getEnv("RECEIPT_FOOTER", ""),
			TaxRate:        getEnv("TAX_RATE", "10"),
			CurrencyScale:  getEnvInt("CURRENCY_SCALE", 2),
			ReceiptLocale:  getEnv("RECEIPT_LOCALE", "en"),
			ReceiptWidth:   getEnvInt("RECEIPT_WIDTH", 40),
		},
		Spool: SpoolConfig{
			ReceiptDir: getEnv("RECEIPT_SPOOL_DIR", "spool/receipts"),
			LabelDir:   getEnv("LABEL_SPOOL_DIR", "spool/labels"),
		},
		Scan: ScanConfig{
			Device: getEnv("SCAN_DEVICE", ""),
		},
		Seed: SeedConfig{
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", defaultAdminPassword),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
