package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config содержит все настройки сервиса
type Config struct {
	AppName  string
	Version  string
	LogLevel string
	ENV      string

	Server struct {
		Host            string
		Port            int
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		RequestTimeout  time.Duration
		BodyLimit       int // максимальный размер запроса с файлами в МБ
		RateLimit       int // запросов в минуту с одного адреса
	}

	Postgres struct {
		Enabled  bool
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
		SSLMode  string
		Timeout  time.Duration
		PoolSize int // размер пула соединений
	}

	Redis struct {
		Enabled      bool // без Redis черновики живут в памяти процесса
		Host         string
		Port         int
		Password     string
		DB           int
		PoolSize     int
		MinIdleConns int
		MaxRetries   int
		DialTimeout  time.Duration
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		KeyPrefix    string
	}

	Kafka struct {
		Enabled           bool     `mapstructure:"enabled"`
		Brokers           []string `mapstructure:"brokers"`
		GroupID           string   `mapstructure:"group_id"`
		ClientID          string   `mapstructure:"client_id"`
		Partitions        int      `mapstructure:"partitions"`
		ReplicationFactor int      `mapstructure:"replication_factor"`
	}

	Metrics struct {
		Enabled bool
		Port    int `mapstructure:"port"`
	}

	Security struct {
		JWTSecret        string
		JWTIssuer        string
		CORSAllowOrigins []string
	}

	Keycloak KeycloakConfig

	Backend struct {
		BaseURL        string
		Timeout        time.Duration
		MethodOverride bool
	}

	Navigation struct {
		TreeFile string // пусто - встроенное дерево
		TitleTTL time.Duration
	}

	Drafts struct {
		TTL time.Duration
	}

	Content struct {
		StrictSections bool
		Resources      []string
	}
}

// Load загружает конфигурацию из .env, файла и переменных окружения
func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	configFile := "config"
	if configPath != "" {
		configFile = configPath
	}

	v := viper.New()
	v.SetConfigName(configFile)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("../../config")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
		// Продолжаем, если файл не найден, будем использовать только переменные окружения
	}

	setDefaults(v)
	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка десериализации конфигурации: %w", err)
	}

	// списки из переменных окружения приходят одной строкой через запятую
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.Security.CORSAllowOrigins = splitList(cfg.Security.CORSAllowOrigins)
	cfg.Content.Resources = splitList(cfg.Content.Resources)

	cfg.ENV = v.GetString("env")
	if cfg.ENV == "" {
		cfg.ENV = "development"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные настройки
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("не задан backend.baseURL")
	}
	if !c.Keycloak.Enabled && c.Security.JWTSecret == "" {
		return errors.New("не задан security.jwtSecret")
	}
	if c.Keycloak.Enabled && (c.Keycloak.ServerURL == "" || c.Keycloak.Realm == "") {
		return errors.New("для Keycloak нужны keycloak.server_url и keycloak.realm")
	}
	if c.Drafts.TTL <= 0 {
		return errors.New("drafts.ttl должен быть положительным")
	}
	return nil
}

// IsProduction true для продового окружения
func (c *Config) IsProduction() bool {
	return c.ENV == "production"
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	// Основные настройки
	v.SetDefault("appName", "travel-admin")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("logLevel", "info")
	v.SetDefault("env", "development")

	// Настройки сервера
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "60s")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.requestTimeout", "45s")
	v.SetDefault("server.bodyLimit", 32)
	v.SetDefault("server.rateLimit", 1000)

	// Настройки Postgres
	v.SetDefault("postgres.enabled", true)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.dbname", "postgres")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timeout", "5s")
	v.SetDefault("postgres.poolSize", 10)

	// Настройки Redis
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 2)
	v.SetDefault("redis.maxRetries", 3)
	v.SetDefault("redis.dialTimeout", "1s")
	v.SetDefault("redis.readTimeout", "1s")
	v.SetDefault("redis.writeTimeout", "1s")
	v.SetDefault("redis.keyPrefix", "travel-admin:")

	// Настройки Kafka
	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "travel-admin-audit")
	v.SetDefault("kafka.client_id", "travel-admin")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replication_factor", 1)

	// Настройки метрик
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9091)

	// Настройки безопасности
	v.SetDefault("security.jwtSecret", "")
	v.SetDefault("security.jwtIssuer", "")
	v.SetDefault("security.corsAllowOrigins", []string{"*"})

	// Keycloak
	v.SetDefault("keycloak.enabled", false)
	v.SetDefault("keycloak.client_id", "travel-admin")

	// REST-бэкенд
	v.SetDefault("backend.baseURL", "")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.methodOverride", true)

	// Навигация и черновики
	v.SetDefault("navigation.treeFile", "")
	v.SetDefault("navigation.titleTTL", "24h")
	v.SetDefault("drafts.ttl", "24h")

	// Контент
	v.SetDefault("content.strictSections", false)
	v.SetDefault("content.resources", []string{"destinations"})
}

// bindEnvVariables привязывает переменные окружения к конфигурации
func bindEnvVariables(v *viper.Viper) {
	// Основные настройки
	v.BindEnv("appName", "APP_NAME")
	v.BindEnv("version", "APP_VERSION")
	v.BindEnv("logLevel", "LOG_LEVEL")
	v.BindEnv("env", "APP_ENV")

	// Настройки сервера
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.readTimeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.writeTimeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.shutdownTimeout", "SERVER_SHUTDOWN_TIMEOUT")
	v.BindEnv("server.requestTimeout", "SERVER_REQUEST_TIMEOUT")
	v.BindEnv("server.bodyLimit", "SERVER_BODY_LIMIT")
	v.BindEnv("server.rateLimit", "SERVER_RATE_LIMIT")

	// Настройки Postgres
	v.BindEnv("postgres.enabled", "POSTGRES_ENABLED")
	v.BindEnv("postgres.host", "POSTGRES_HOST")
	v.BindEnv("postgres.port", "POSTGRES_PORT")
	v.BindEnv("postgres.user", "POSTGRES_USER")
	v.BindEnv("postgres.password", "POSTGRES_PASSWORD")
	v.BindEnv("postgres.dbname", "POSTGRES_DBNAME")
	v.BindEnv("postgres.sslmode", "POSTGRES_SSLMODE")
	v.BindEnv("postgres.timeout", "POSTGRES_TIMEOUT")
	v.BindEnv("postgres.poolSize", "POSTGRES_POOL_SIZE")

	// Настройки Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("redis.poolSize", "REDIS_POOL_SIZE")
	v.BindEnv("redis.keyPrefix", "REDIS_KEY_PREFIX")

	// Настройки Kafka
	v.BindEnv("kafka.enabled", "KAFKA_ENABLED")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("kafka.client_id", "KAFKA_CLIENT_ID")

	// Настройки метрик
	v.BindEnv("metrics.enabled", "METRICS_ENABLED")
	v.BindEnv("metrics.port", "METRICS_PORT")

	// Настройки безопасности
	v.BindEnv("security.jwtSecret", "JWT_SECRET")
	v.BindEnv("security.jwtIssuer", "JWT_ISSUER")
	v.BindEnv("security.corsAllowOrigins", "CORS_ALLOW_ORIGINS")

	// Keycloak
	v.BindEnv("keycloak.enabled", "KEYCLOAK_ENABLED")
	v.BindEnv("keycloak.server_url", "KEYCLOAK_SERVER_URL")
	v.BindEnv("keycloak.realm", "KEYCLOAK_REALM")
	v.BindEnv("keycloak.client_id", "KEYCLOAK_CLIENT_ID")
	v.BindEnv("keycloak.client_secret", "KEYCLOAK_CLIENT_SECRET")
	v.BindEnv("keycloak.redirect_url", "KEYCLOAK_REDIRECT_URL")

	// REST-бэкенд
	v.BindEnv("backend.baseURL", "BACKEND_BASE_URL")
	v.BindEnv("backend.timeout", "BACKEND_TIMEOUT")
	v.BindEnv("backend.methodOverride", "BACKEND_METHOD_OVERRIDE")

	v.BindEnv("navigation.treeFile", "NAVIGATION_TREE_FILE")
	v.BindEnv("drafts.ttl", "DRAFTS_TTL")
	v.BindEnv("content.strictSections", "CONTENT_STRICT_SECTIONS")
	v.BindEnv("content.resources", "CONTENT_RESOURCES")
}
