package repo

import (
	"context"

	"github.com/Foundup/Foundups-Agent-sub000/pkg/journal"
)

type IRepo interface {
	Trade() ITrade
}

type ITrade interface {
	Create(ctx context.Context, record *journal.TradeRecord) (*journal.TradeRecord, error)
	BulkCreate(ctx context.Context, records []*journal.TradeRecord) ([]*journal.TradeRecord, error)
	ListByAsset(ctx context.Context, asset string, limit int) ([]*journal.TradeRecord, error)
}
