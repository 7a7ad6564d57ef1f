package kafkautil

import (
	"context"
	"errors"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Time      time.Time
}

type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topic   string

	MaxRetries int
	BackoffMin time.Duration
	BackoffMax time.Duration
	DLQTopic   string

	BatchSize    int
	BatchTimeout time.Duration
}

// ConsumerGroup reads a topic through a kafka-go consumer group and
// delivers batches of messages to a handler. A batch is committed only
// after the handler returns nil or retries are exhausted; exhausted
// batches go to the DLQ topic when one is configured.
type ConsumerGroup struct {
	r   *kafka.Reader
	cfg ConsumerConfig
	dlq *Producer
}

func NewConsumerGroup(cfg ConsumerConfig) (*ConsumerGroup, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("consumer: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("consumer: no topic configured")
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffMin == 0 {
		cfg.BackoffMin = 100 * time.Millisecond
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 200 * time.Millisecond
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MaxWait:     500 * time.Millisecond,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	})

	var dlq *Producer
	if cfg.DLQTopic != "" {
		dlq = NewProducer(ProducerConfig{Brokers: cfg.Brokers})
	}
	return &ConsumerGroup{r: r, cfg: cfg, dlq: dlq}, nil
}

func (cg *ConsumerGroup) Close() error {
	if cg == nil {
		return nil
	}
	if cg.dlq != nil {
		_ = cg.dlq.Close()
	}
	if cg.r != nil {
		return cg.r.Close()
	}
	return nil
}

// Run fetches messages until ctx is cancelled, handing them to handler
// in batches bounded by BatchSize and BatchTimeout.
func (cg *ConsumerGroup) Run(ctx context.Context, handler func(context.Context, []Message) error) error {
	if cg == nil || cg.r == nil {
		return errors.New("consumer not initialized")
	}

	var batch []kafka.Message
	deadline := time.Now().Add(cg.cfg.BatchTimeout)

	for {
		fetchCtx, cancel := context.WithDeadline(ctx, deadline)
		m, err := cg.r.FetchMessage(fetchCtx)
		cancel()

		switch {
		case err == nil:
			batch = append(batch, m)
			if len(batch) < cg.cfg.BatchSize {
				continue
			}
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			// Batch window elapsed; flush whatever accumulated.
		case errors.Is(err, context.Canceled) || ctx.Err() != nil:
			cg.flush(context.Background(), batch, handler)
			return ctx.Err()
		default:
			zap.S().Warnf("kafka fetch error: %v", err)
			time.Sleep(200 * time.Millisecond)
			continue
		}

		cg.flush(ctx, batch, handler)
		batch = nil
		deadline = time.Now().Add(cg.cfg.BatchTimeout)
	}
}

func (cg *ConsumerGroup) flush(ctx context.Context, ms []kafka.Message, handler func(context.Context, []Message) error) {
	if len(ms) == 0 {
		return
	}

	wrapped := make([]Message, len(ms))
	for i, m := range ms {
		wrapped[i] = Message{
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Key:       m.Key,
			Value:     m.Value,
			Time:      m.Time,
		}
	}

	for attempt := 0; ; attempt++ {
		err := handler(ctx, wrapped)
		if err == nil {
			break
		}
		if attempt >= cg.cfg.MaxRetries {
			zap.S().Errorf("batch of %d dropped after %d attempts: %v", len(ms), attempt+1, err)
			if cg.dlq != nil {
				for _, m := range ms {
					_ = cg.dlq.Publish(ctx, cg.cfg.DLQTopic, m.Key, m.Value)
				}
			}
			break
		}

		backoff := cg.cfg.BackoffMin << attempt
		if backoff > cg.cfg.BackoffMax {
			backoff = cg.cfg.BackoffMax
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
	}

	_ = cg.r.CommitMessages(context.Background(), ms...)
}
