// Package journal persists the executed-trade audit trail. It is a
// sink for the trade feed only; live order state never touches disk.
package journal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Foundup/Foundups-Agent-sub000/pkg/feed"
)

// TradeRecord is one executed trade as stored in postgres. (asset,
// trade_id) is unique, so replayed feed messages insert at most once.
type TradeRecord struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Asset       string          `gorm:"column:asset;uniqueIndex:idx_trades_asset_trade_id"`
	TradeID     int64           `gorm:"column:trade_id;uniqueIndex:idx_trades_asset_trade_id"`
	Buyer       string          `gorm:"column:buyer"`
	Seller      string          `gorm:"column:seller"`
	BuyOrderID  int64           `gorm:"column:buy_order_id"`
	SellOrderID int64           `gorm:"column:sell_order_id"`
	TakerSide   string          `gorm:"column:taker_side"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric"`
	Notional    decimal.Decimal `gorm:"column:notional;type:numeric"`
	Fee         decimal.Decimal `gorm:"column:fee;type:numeric"`
	ExecutedAt  time.Time       `gorm:"column:executed_at"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (TradeRecord) TableName() string {
	return "trades"
}

// RecordFromEvent converts a feed event back into its storable form.
func RecordFromEvent(ev *feed.TradeEvent) (*TradeRecord, error) {
	price, err := decimal.NewFromString(ev.Price)
	if err != nil {
		return nil, fmt.Errorf("journal: trade %s/%d: bad price %q: %w", ev.Asset, ev.TradeID, ev.Price, err)
	}
	qty, err := decimal.NewFromString(ev.Quantity)
	if err != nil {
		return nil, fmt.Errorf("journal: trade %s/%d: bad quantity %q: %w", ev.Asset, ev.TradeID, ev.Quantity, err)
	}
	notional, err := decimal.NewFromString(ev.Notional)
	if err != nil {
		return nil, fmt.Errorf("journal: trade %s/%d: bad notional %q: %w", ev.Asset, ev.TradeID, ev.Notional, err)
	}
	fee, err := decimal.NewFromString(ev.Fee)
	if err != nil {
		return nil, fmt.Errorf("journal: trade %s/%d: bad fee %q: %w", ev.Asset, ev.TradeID, ev.Fee, err)
	}

	return &TradeRecord{
		Asset:       ev.Asset,
		TradeID:     ev.TradeID,
		Buyer:       ev.Buyer,
		Seller:      ev.Seller,
		BuyOrderID:  ev.BuyOrderID,
		SellOrderID: ev.SellOrderID,
		TakerSide:   ev.TakerSide,
		Price:       price,
		Quantity:    qty,
		Notional:    notional,
		Fee:         fee,
		ExecutedAt:  ev.ExecutedAt,
	}, nil
}
