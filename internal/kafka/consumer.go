// Package kafka принимает вещи из топика поступлений.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/RoGogDBD/closet/internal/config"
	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/retry"
	"github.com/RoGogDBD/closet/internal/service"
	"github.com/RoGogDBD/closet/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Заголовки сообщений в DLQ.
const (
	HeaderError     = "x-error"
	HeaderTopic     = "x-original-topic"
	HeaderPartition = "x-original-partition"
	HeaderOffset    = "x-original-offset"
)

// ItemCreator создает вещь тем же путем, что и HTTP API.
type ItemCreator interface {
	CreateItem(ctx context.Context, in service.ItemInput) (*models.Item, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer читает сообщения о поступлении и создает вещи.
// Сообщения, которые не удалось обработать, уходят в DLQ.
type Consumer struct {
	reader   messageReader
	dlq      messageWriter
	items    ItemCreator
	validate *validator.Validate
	policy   retry.Policy
	logger   *zap.Logger

	processed metric.Int64Counter
}

// NewConsumer создает consumer группы cfg.GroupID. DLQ не используется, если DLQTopic пуст.
func NewConsumer(cfg config.KafkaConfig, items ItemCreator, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})

	var dlq messageWriter
	if cfg.DLQTopic != "" {
		dlq = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
	}

	policy := retry.Policy{
		MaxRetries:  cfg.DLQMaxRetries,
		Backoff:     retry.NewBackoff(cfg.DLQBackoff, cfg.DLQBackoffCap, cfg.DLQBackoffJitter),
		ShouldRetry: transient,
	}
	return newConsumer(reader, dlq, items, policy, logger)
}

func newConsumer(reader messageReader, dlq messageWriter, items ItemCreator, policy retry.Policy, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Consumer{
		reader:   reader,
		dlq:      dlq,
		items:    items,
		validate: validation.New(),
		policy:   policy,
		logger:   logger,
	}
	c.processed, _ = otel.Meter("github.com/RoGogDBD/closet/internal/kafka").Int64Counter(
		"closet.intake.messages",
		metric.WithDescription("Intake messages by outcome"),
	)
	return c
}

// Run обрабатывает сообщения до отмены ctx. Смещение фиксируется только
// после создания вещи или успешной записи в DLQ.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("intake consumer started")
	defer c.logger.Info("intake consumer stopped")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("kafka fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		// Следующее сообщение читается только после обработки текущего.
		for {
			err := c.handle(ctx, m)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("intake message not handled", zap.Error(err), zap.Int64("offset", m.Offset))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("kafka commit failed", zap.Error(err), zap.Int64("offset", m.Offset))
		}
	}
}

// Close закрывает reader и writer DLQ.
func (c *Consumer) Close() error {
	err := c.reader.Close()
	if c.dlq != nil {
		err = errors.Join(err, c.dlq.Close())
	}
	return err
}

// handle возвращает ошибку, только если сообщение нельзя фиксировать.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	var in service.ItemInput
	if err := json.Unmarshal(m.Value, &in); err != nil {
		return c.deadLetter(ctx, m, fmt.Errorf("decode: %w", err))
	}
	if err := c.validate.Struct(in); err != nil {
		return c.deadLetter(ctx, m, errors.New(validation.Describe(err)))
	}

	var created *models.Item
	err := retry.Do(ctx, c.policy, func() error {
		var err error
		created, err = c.items.CreateItem(ctx, in)
		return err
	}, func(err error, attempt int, wait time.Duration) {
		c.logger.Warn("intake create failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
		)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.deadLetter(ctx, m, err)
	}

	c.record(ctx, "created")
	c.logger.Info("intake item created",
		zap.String("item_id", created.ID.String()),
		zap.String("category_id", created.CategoryID.String()),
		zap.Int("order", created.Order),
	)
	return nil
}

func (c *Consumer) deadLetter(ctx context.Context, m kafka.Message, cause error) error {
	c.logger.Warn("intake message rejected",
		zap.Error(cause),
		zap.String("topic", m.Topic),
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset),
	)
	if c.dlq == nil {
		c.record(ctx, "dropped")
		return nil
	}

	dead := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: append(append([]kafka.Header(nil), m.Headers...),
			kafka.Header{Key: HeaderError, Value: []byte(cause.Error())},
			kafka.Header{Key: HeaderTopic, Value: []byte(m.Topic)},
			kafka.Header{Key: HeaderPartition, Value: []byte(strconv.Itoa(m.Partition))},
			kafka.Header{Key: HeaderOffset, Value: []byte(strconv.FormatInt(m.Offset, 10))},
		),
	}
	if err := c.dlq.WriteMessages(ctx, dead); err != nil {
		return fmt.Errorf("write dlq: %w", err)
	}
	c.record(ctx, "dead_lettered")
	return nil
}

func (c *Consumer) record(ctx context.Context, outcome string) {
	c.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// transient отличает сбои хранилища от ошибок данных: вторые не повторяются.
func transient(err error) bool {
	var svcErr *service.Error
	return !errors.As(err, &svcErr)
}
