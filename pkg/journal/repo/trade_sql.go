package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Foundup/Foundups-Agent-sub000/pkg/journal"
)

type TradeSQLRepo struct {
	db *gorm.DB
}

func NewTradeSQLRepo(db *gorm.DB) *TradeSQLRepo {
	return &TradeSQLRepo{
		db: db,
	}
}

func (s *TradeSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *TradeSQLRepo) Create(ctx context.Context, record *journal.TradeRecord) (*journal.TradeRecord, error) {
	err := s.dbWithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
	if err != nil {
		return nil, err
	}
	return record, nil
}

// BulkCreate inserts a batch, skipping trades already journalled. The
// feed is at-least-once, so replays are expected.
func (s *TradeSQLRepo) BulkCreate(ctx context.Context, records []*journal.TradeRecord) ([]*journal.TradeRecord, error) {
	if len(records) == 0 {
		return records, nil
	}
	err := s.dbWithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *TradeSQLRepo) ListByAsset(ctx context.Context, asset string, limit int) ([]*journal.TradeRecord, error) {
	var records []*journal.TradeRecord
	q := s.dbWithContext(ctx).
		Where("asset = ?", asset).
		Order("trade_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
