package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/athebyme/travel-admin/config"
	"github.com/athebyme/travel-admin/internal/adapters/logger"
	"github.com/athebyme/travel-admin/internal/adapters/messaging"
	postgres "github.com/athebyme/travel-admin/internal/adapters/storage"
	"github.com/athebyme/travel-admin/internal/domain/services"
	infra "github.com/athebyme/travel-admin/internal/infrastructure/postgres"
	"github.com/athebyme/travel-admin/internal/utils"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	"github.com/athebyme/travel-admin/pkg/tx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Метрики для Prometheus
var (
	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_messages_processed_total",
		Help: "Общее количество обработанных сообщений",
	}, []string{"topic", "status"})

	messageProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_message_processing_duration_seconds",
		Help:    "Длительность обработки сообщений",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})

	activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "worker_active_goroutines",
		Help: "Количество активных горутин-обработчиков",
	})
)

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
	log.Info("Инициализация воркера",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName + "-worker"},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
	)

	if !cfg.Kafka.Enabled || !cfg.Postgres.Enabled {
		log.Fatal("Воркеру журнала нужны Kafka и PostgreSQL",
			interfaces.LogField{Key: "kafka", Value: cfg.Kafka.Enabled},
			interfaces.LogField{Key: "postgres", Value: cfg.Postgres.Enabled})
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Port, log)
	}

	connectionStr, err := utils.GenerateConnectionString(
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
		log.Fatal("Ошибка генерации строки подключения к PostgreSQL",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}

	repo, err := postgres.NewPostgresStorage(ctx, connectionStr)
	if err != nil {
		log.Fatal("Ошибка инициализации хранилища",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}
	defer repo.Close()

	if err := infra.Migrate(ctx, repo.Pool()); err != nil {
		log.Fatal("Ошибка миграции схемы журнала",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}
	log.Info("Хранилище инициализировано")

	messagingClient, err := messaging.NewKafkaMessaging(messaging.KafkaOptions{
		Brokers:  cfg.Kafka.Brokers,
		GroupID:  cfg.Kafka.GroupID,
		ClientID: cfg.Kafka.ClientID + "-worker",
	}, log)
	if err != nil {
		log.Fatal("Ошибка инициализации системы обмена сообщениями",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}
	defer messagingClient.Close()

	topicsCtx, topicsCancel := context.WithTimeout(ctx, 30*time.Second)
	err = messagingClient.EnsureTopics(topicsCtx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor, messaging.ContentEventsTopic)
	topicsCancel()
	if err != nil {
		log.Fatal("Ошибка создания топиков",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}
	log.Info("Система обмена сообщениями инициализирована")

	auditService := services.NewAuditService(repo, tx.NewTxManager(repo.Pool(), log), log)
	log.Info("Сервис журнала инициализирован")

	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	subscribeToContentEvents(ctx, messagingClient, auditService, log, &wg)

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")
		cancel()
		wg.Wait()
		close(done)
	}()

	log.Info("Воркер запущен и готов к обработке сообщений")
	<-done
	log.Info("Воркер корректно завершил работу")
}

func serveMetrics(port int, log interfaces.LoggerPort) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	log.Info("Запуск HTTP сервера для метрик",
		interfaces.LogField{Key: "addr", Value: addr})

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("Ошибка запуска HTTP сервера для метрик",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}
}

// Подписка на события отправки контента
func subscribeToContentEvents(ctx context.Context, messagingClient interfaces.MessagingPort,
	auditService *services.AuditService,
	logger interfaces.LoggerPort, wg *sync.WaitGroup) {

	eventHandler := func(ctx context.Context, msg *interfaces.Message) error {
		startTime := time.Now()
		activeWorkers.Inc()
		defer activeWorkers.Dec()

		logger.DebugWithContext(ctx, "Получено событие контента",
			interfaces.LogField{Key: "message_id", Value: msg.ID},
			interfaces.LogField{Key: "topic", Value: msg.Topic},
		)

		if err := auditService.HandleContentEvent(ctx, msg); err != nil {
			logger.ErrorWithContext(ctx, "Ошибка обработки события",
				interfaces.LogField{Key: "error", Value: err.Error()},
				interfaces.LogField{Key: "message_id", Value: msg.ID},
			)
			messagesProcessed.WithLabelValues(msg.Topic, "error").Inc()
			return err
		}

		duration := time.Since(startTime).Seconds()
		messageProcessingDuration.WithLabelValues(msg.Topic).Observe(duration)
		messagesProcessed.WithLabelValues(msg.Topic, "success").Inc()
		return nil
	}

	wg.Add(1)

	go func() {
		defer wg.Done()

		unsubscribe, err := messagingClient.Subscribe(ctx, messaging.ContentEventsTopic, eventHandler)
		if err != nil {
			logger.Error("Ошибка подписки на события контента",
				interfaces.LogField{Key: "error", Value: err.Error()})
			return
		}
		defer unsubscribe()

		logger.Info("Подписка на события контента установлена")

		<-ctx.Done()
		logger.Info("Отмена подписки на события контента")
	}()
}
