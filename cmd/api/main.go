package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athebyme/travel-admin/config"
	"github.com/athebyme/travel-admin/internal/adapters/backend"
	"github.com/athebyme/travel-admin/internal/adapters/cache"
	"github.com/athebyme/travel-admin/internal/adapters/logger"
	"github.com/athebyme/travel-admin/internal/adapters/messaging"
	postgres "github.com/athebyme/travel-admin/internal/adapters/storage"
	"github.com/athebyme/travel-admin/internal/api"
	"github.com/athebyme/travel-admin/internal/domain/appstate"
	"github.com/athebyme/travel-admin/internal/domain/drafts"
	"github.com/athebyme/travel-admin/internal/domain/models"
	"github.com/athebyme/travel-admin/internal/domain/navigation"
	"github.com/athebyme/travel-admin/internal/domain/permissions"
	"github.com/athebyme/travel-admin/internal/domain/sections"
	"github.com/athebyme/travel-admin/internal/domain/services"
	"github.com/athebyme/travel-admin/internal/security"
	"github.com/athebyme/travel-admin/internal/utils"
	"github.com/athebyme/travel-admin/pkg/auth"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	"github.com/athebyme/travel-admin/pkg/tx"
)

// @title Travel Admin API
// @version 1.0
// @description Back-office: меню по ролям и конструктор разделов контента
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := logger.NewZapLogger(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Инициализация сервиса",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
	)

	cacheClient := initCache(ctx, cfg, log)
	defer cacheClient.Close()

	var titles appstate.TitleStore = appstate.NewMemoryTitleStore()
	if cfg.Redis.Enabled {
		titles = appstate.NewCacheTitleStore(cacheClient, cfg.Navigation.TitleTTL)
	}

	tree, err := loadTree(cfg.Navigation.TreeFile)
	if err != nil {
		log.Fatal("Ошибка загрузки дерева навигации", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	validator, keycloakClient := initAuth(ctx, cfg, log)

	backendClient, err := backend.NewClient(backend.Options{
		BaseURL:        cfg.Backend.BaseURL,
		Timeout:        cfg.Backend.Timeout,
		MethodOverride: cfg.Backend.MethodOverride,
	}, log)
	if err != nil {
		log.Fatal("Ошибка инициализации клиента бэкенда", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	var bus interfaces.MessagingPort
	if cfg.Kafka.Enabled {
		kafkaClient, err := messaging.NewKafkaMessaging(messaging.KafkaOptions{
			Brokers:  cfg.Kafka.Brokers,
			GroupID:  cfg.Kafka.GroupID,
			ClientID: cfg.Kafka.ClientID,
		}, log)
		if err != nil {
			log.Fatal("Ошибка инициализации системы обмена сообщениями", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		defer kafkaClient.Close()
		bus = kafkaClient
		log.Info("Система обмена сообщениями инициализирована")
	} else {
		log.Warn("Kafka отключена, события контента не публикуются")
	}

	checks := map[string]interfaces.StoragePort{"cache": cacheClient}

	var auditService *services.AuditService
	if cfg.Postgres.Enabled {
		db := initStorage(ctx, cfg, log)
		defer db.Close()
		checks["postgres"] = db
		auditService = services.NewAuditService(db, tx.NewTxManager(db.Pool(), log), log)
	}

	policy := sections.PolicyLenient
	if cfg.Content.StrictSections {
		policy = sections.PolicyStrict
	}

	table := permissions.DefaultTable()
	navigationService := services.NewNavigationService(tree, navigation.DefaultRules(), titles, table, log)
	contentService := services.NewContentService(
		drafts.NewCacheStore(cacheClient, cfg.Drafts.TTL),
		backend.NewContentAPI(backendClient),
		bus,
		services.ContentOptions{Policy: policy, Resources: cfg.Content.Resources},
		log,
	)
	log.Info("Сервисы инициализированы")

	router := api.SetupRouter(api.Dependencies{
		Navigation:         navigationService,
		Content:            contentService,
		Audit:              auditService,
		Permissions:        table,
		Validator:          validator,
		Keycloak:           keycloakClient,
		Logger:             log,
		ReadinessChecks:    checks,
		CORSAllowedOrigins: cfg.Security.CORSAllowOrigins,
		RequestTimeout:     cfg.Server.RequestTimeout,
		RateLimit:          cfg.Server.RateLimit,
		MaxUploadBytes:     int64(cfg.Server.BodyLimit) << 20,
	})
	log.Info("Маршрутизатор настроен")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Сервер запущен", interfaces.LogField{Key: "address", Value: server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Ошибка запуска сервера", interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}()

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Ошибка при graceful shutdown", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		log.Info("HTTP сервер остановлен")
		close(done)
	}()

	<-done
	log.Info("Сервер корректно завершил работу")
}

// initCache подключает Redis; без него черновики и заголовки живут в памяти процесса
func initCache(ctx context.Context, cfg *config.Config, log interfaces.LoggerPort) interfaces.CachePort {
	if !cfg.Redis.Enabled {
		log.Warn("Redis отключен, используется кэш в памяти")
		return cache.NewMemoryCache()
	}

	cacheClient, err := cache.NewRedisCache(ctx, cache.RedisOptions{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		KeyPrefix:    cfg.Redis.KeyPrefix,
	})
	if err != nil {
		log.Fatal("Ошибка инициализации кэша", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.Fatal("Ошибка подключения к Redis", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	log.Info("Кэш инициализирован")
	return cacheClient
}

// initAuth выбирает проверку токенов: Keycloak или JWT REST-бэкенда
func initAuth(ctx context.Context, cfg *config.Config, log interfaces.LoggerPort) (interfaces.TokenValidator, *auth.KeycloakClient) {
	if cfg.Keycloak.Enabled {
		keycloakClient, err := auth.NewKeycloakClient(ctx, cfg.Keycloak.GetKeycloakConfig())
		if err != nil {
			log.Fatal("Ошибка инициализации Keycloak", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		log.Info("Аутентификация через Keycloak")
		return keycloakClient, keycloakClient
	}

	jwtManager, err := security.NewJWTManager(cfg.Security.JWTSecret, time.Hour, cfg.Security.JWTIssuer)
	if err != nil {
		log.Fatal("Ошибка инициализации JWT", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	log.Info("Аутентификация по JWT бэкенда")
	return jwtManager, nil
}

func initStorage(ctx context.Context, cfg *config.Config, log interfaces.LoggerPort) *postgres.SubmissionStorage {
	connStr, err := utils.GenerateConnectionString(
		cfg.Postgres.Host,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
		cfg.Postgres.Port,
		cfg.Postgres.PoolSize,
		cfg.Postgres.Timeout,
	)
	if err != nil {
		log.Fatal("Ошибка инициализации строки подключения базы", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	db, err := postgres.NewPostgresStorage(ctx, connStr)
	if err != nil {
		log.Fatal("Ошибка инициализации хранилища", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	log.Info("Хранилище журнала инициализировано")
	return db
}

func loadTree(path string) (models.NavTree, error) {
	if path == "" {
		return navigation.DefaultTree()
	}
	return navigation.LoadTree(path)
}
