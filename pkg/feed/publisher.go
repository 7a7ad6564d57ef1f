package feed

import (
	"context"

	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub000/pkg/kafkautil"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/orderbook"
)

// Publisher writes trade events to one topic, keyed by asset id so a
// given asset's trades keep their execution order on the partition.
type Publisher struct {
	producer *kafkautil.Producer
	topic    string
	log      *zap.Logger
}

func NewPublisher(producer *kafkautil.Producer, topic string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{producer: producer, topic: topic, log: log}
}

// PublishTrades sends the trades in the order they executed.
func (p *Publisher) PublishTrades(ctx context.Context, trades []*orderbook.Trade) error {
	for _, t := range trades {
		if err := p.producer.PublishJSON(ctx, p.topic, t.Asset, NewTradeEvent(t)); err != nil {
			return err
		}
	}
	return nil
}

// Callback adapts the publisher to the manager's trade-callback
// signature. Publish failures are logged, never surfaced into the
// matching path.
func (p *Publisher) Callback() func([]*orderbook.Trade) {
	return func(trades []*orderbook.Trade) {
		if err := p.PublishTrades(context.Background(), trades); err != nil {
			p.log.Error("trade publish failed",
				zap.Int("trades", len(trades)),
				zap.Error(err),
			)
		}
	}
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
