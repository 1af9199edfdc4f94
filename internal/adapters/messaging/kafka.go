package messaging

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/athebyme/travel-admin/pkg/interfaces"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
)

// KafkaOptions настройки подключения к Kafka
type KafkaOptions struct {
	Brokers  []string
	GroupID  string
	ClientID string
}

// KafkaMessaging реализация MessagingPort с использованием Kafka
type KafkaMessaging struct {
	producer       *kafka.Producer
	consumers      map[string]*kafka.Consumer
	consumersMutex sync.Mutex
	bootstrap      string
	groupID        string
	logger         interfaces.LoggerPort
}

// NewKafkaMessaging создает новый экземпляр KafkaMessaging
func NewKafkaMessaging(opts KafkaOptions, logger interfaces.LoggerPort) (*KafkaMessaging, error) {
	if len(opts.Brokers) == 0 {
		return nil, fmt.Errorf("не заданы брокеры Kafka")
	}
	bootstrap := strings.Join(opts.Brokers, ",")

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": bootstrap,
		"client.id":         opts.ClientID,
		"acks":              "all",
		"retries":           5,
		"retry.backoff.ms":  500,
		"compression.type":  "snappy",
		"linger.ms":         10,
		"message.max.bytes": 1000000,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Kafka producer: %w", err)
	}

	return &KafkaMessaging{
		producer:  producer,
		consumers: make(map[string]*kafka.Consumer),
		bootstrap: bootstrap,
		groupID:   opts.GroupID,
		logger:    logger,
	}, nil
}

// newKafkaMessage собирает kafka.Message со служебными заголовками
func newKafkaMessage(topic, key string, value []byte) *kafka.Message {
	headers := []kafka.Header{
		{Key: "message_id", Value: []byte(uuid.New().String())},
		{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339Nano))},
	}

	var keyBytes []byte
	if key != "" {
		keyBytes = []byte(key)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          value,
		Key:            keyBytes,
		Headers:        headers,
	}
}

// fromKafkaMessage преобразует kafka.Message в Message
func fromKafkaMessage(msg *kafka.Message) *interfaces.Message {
	headers := make(map[string]string, len(msg.Headers))
	for _, header := range msg.Headers {
		headers[header.Key] = string(header.Value)
	}

	publishedAt := msg.Timestamp
	if ts, err := time.Parse(time.RFC3339Nano, headers["timestamp"]); err == nil {
		publishedAt = ts
	}

	var topic string
	if msg.TopicPartition.Topic != nil {
		topic = *msg.TopicPartition.Topic
	}

	return &interfaces.Message{
		ID:          headers["message_id"],
		Topic:       topic,
		Key:         string(msg.Key),
		Value:       msg.Value,
		Headers:     headers,
		PublishedAt: publishedAt,
	}
}

// Publish публикует сообщение в указанную тему
func (k *KafkaMessaging) Publish(ctx context.Context, topic string, message []byte) error {
	return k.PublishWithKey(ctx, topic, "", message)
}

// PublishWithKey публикует сообщение и ждет подтверждения доставки
func (k *KafkaMessaging) PublishWithKey(ctx context.Context, topic string, key string, message []byte) error {
	delivery := make(chan kafka.Event, 1)
	if err := k.producer.Produce(newKafkaMessage(topic, key, message), delivery); err != nil {
		return fmt.Errorf("ошибка отправки в топик %s: %w", topic, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev := <-delivery:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("неожиданное событие доставки: %v", ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("сообщение не доставлено в %s: %w", topic, m.TopicPartition.Error)
		}
		return nil
	}
}

// Subscribe подписывается на тему с настройками по умолчанию: ручное подтверждение
// после успешной обработки
func (k *KafkaMessaging) Subscribe(ctx context.Context, topic string, handler interfaces.MessageHandler) (func() error, error) {
	return k.SubscribeWithConfig(ctx, topic, handler, interfaces.ConsumerConfig{
		GroupID:     k.groupID,
		AutoCommit:  false,
		PollTimeout: 100 * time.Millisecond,
	})
}

// SubscribeWithConfig подписывается на тему с заданными настройками
func (k *KafkaMessaging) SubscribeWithConfig(ctx context.Context, topic string, handler interfaces.MessageHandler, config interfaces.ConsumerConfig) (func() error, error) {
	kafkaConfig := &kafka.ConfigMap{
		"bootstrap.servers":     k.bootstrap,
		"group.id":              config.GroupID,
		"auto.offset.reset":     "earliest",
		"enable.auto.commit":    config.AutoCommit,
		"session.timeout.ms":    30000,
		"max.poll.interval.ms":  300000,
		"heartbeat.interval.ms": 3000,
	}
	if config.AutoCommit && config.AutoCommitInterval > 0 {
		_ = kafkaConfig.SetKey("auto.commit.interval.ms", int(config.AutoCommitInterval.Milliseconds()))
	}

	consumer, err := kafka.NewConsumer(kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Kafka consumer: %w", err)
	}

	if err := consumer.Subscribe(topic, nil); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("ошибка подписки на топик %s: %w", topic, err)
	}

	id := uuid.New().String()
	k.consumersMutex.Lock()
	k.consumers[id] = consumer
	k.consumersMutex.Unlock()

	consumeCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		k.consume(consumeCtx, consumer, handler, config)
	}()

	unsubscribe := func() error {
		cancel()
		<-done

		k.consumersMutex.Lock()
		c, ok := k.consumers[id]
		delete(k.consumers, id)
		k.consumersMutex.Unlock()

		if ok {
			return c.Close()
		}
		return nil
	}

	return unsubscribe, nil
}

// consume читает сообщения до отмены контекста.
// Сообщение подтверждается только после успешной обработки.
func (k *KafkaMessaging) consume(ctx context.Context, consumer *kafka.Consumer, handler interfaces.MessageHandler, config interfaces.ConsumerConfig) {
	timeout := int(config.PollTimeout.Milliseconds())
	if timeout <= 0 {
		timeout = 100
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev := consumer.Poll(timeout)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			msg := fromKafkaMessage(e)
			if err := handler(ctx, msg); err != nil {
				k.logger.Error("Ошибка обработки сообщения",
					interfaces.LogField{Key: "topic", Value: msg.Topic},
					interfaces.LogField{Key: "message_id", Value: msg.ID},
					interfaces.LogField{Key: "error", Value: err.Error()})
				continue
			}

			if !config.AutoCommit {
				if _, err := consumer.CommitMessage(e); err != nil {
					k.logger.Warn("Не удалось подтвердить сообщение",
						interfaces.LogField{Key: "message_id", Value: msg.ID},
						interfaces.LogField{Key: "error", Value: err.Error()})
				}
			}

		case kafka.Error:
			k.logger.Error("Ошибка Kafka",
				interfaces.LogField{Key: "code", Value: e.Code().String()},
				interfaces.LogField{Key: "error", Value: e.Error()})
			if e.IsFatal() {
				return
			}

		default:
			k.logger.Debug("Событие Kafka", interfaces.LogField{Key: "event", Value: e.String()})
		}
	}
}

// EnsureTopics создает отсутствующие топики. Уже существующие пропускаются.
func (k *KafkaMessaging) EnsureTopics(ctx context.Context, partitions, replicationFactor int, topics ...string) error {
	adminClient, err := kafka.NewAdminClientFromProducer(k.producer)
	if err != nil {
		return fmt.Errorf("ошибка создания Kafka admin client: %w", err)
	}
	defer adminClient.Close()

	specs := make([]kafka.TopicSpecification, 0, len(topics))
	for _, topic := range topics {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: replicationFactor,
		})
	}

	result, err := adminClient.CreateTopics(ctx, specs, kafka.SetAdminOperationTimeout(30*time.Second))
	if err != nil {
		return fmt.Errorf("ошибка создания топиков: %w", err)
	}

	for _, r := range result {
		switch r.Error.Code() {
		case kafka.ErrNoError, kafka.ErrTopicAlreadyExists:
		default:
			return fmt.Errorf("ошибка создания топика %s: %s", r.Topic, r.Error.String())
		}
	}

	return nil
}

// Close закрывает потребителей и дожидается отправки сообщений producer
func (k *KafkaMessaging) Close() error {
	k.consumersMutex.Lock()
	for id, consumer := range k.consumers {
		if err := consumer.Close(); err != nil {
			k.logger.Warn("Ошибка закрытия consumer", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		delete(k.consumers, id)
	}
	k.consumersMutex.Unlock()

	k.producer.Flush(15 * 1000)
	k.producer.Close()

	return nil
}
