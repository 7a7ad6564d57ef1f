package worker

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub000/pkg/feed"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/journal"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/journal/repo"
	"github.com/Foundup/Foundups-Agent-sub000/pkg/kafkautil"
)

// Worker drains the trade topic into postgres. Undecodable messages
// are logged and skipped; the rest of the batch still lands.
type Worker struct {
	trades   repo.ITrade
	consumer *kafkautil.ConsumerGroup
}

func NewWorker(r repo.IRepo, consumer *kafkautil.ConsumerGroup) *Worker {
	return &Worker{
		trades:   r.Trade(),
		consumer: consumer,
	}
}

// Run consumes until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.consumer.Run(ctx, w.handleBatch)
}

func (w *Worker) Close() error {
	return w.consumer.Close()
}

func (w *Worker) handleBatch(ctx context.Context, msgs []kafkautil.Message) error {
	records := make([]*journal.TradeRecord, 0, len(msgs))
	for _, m := range msgs {
		var ev feed.TradeEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			zap.S().Warnf("skip undecodable trade event at %s/%d/%d: %v", m.Topic, m.Partition, m.Offset, err)
			continue
		}
		record, err := journal.RecordFromEvent(&ev)
		if err != nil {
			zap.S().Warnf("skip malformed trade event at %s/%d/%d: %v", m.Topic, m.Partition, m.Offset, err)
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil
	}
	_, err := w.trades.BulkCreate(ctx, records)
	return err
}
