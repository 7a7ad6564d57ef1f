// Package feed publishes executed trades to Kafka for the ledger and
// the trade journal. The engine itself never moves funds; the event
// stream is how downstream balance-holders learn what to settle.
package feed

import (
	"time"

	"github.com/Foundup/Foundups-Agent-sub000/pkg/orderbook"
)

// TradeEvent is the wire form of a Trade. Decimals travel as strings
// so no consumer ever reparses them through a float.
type TradeEvent struct {
	TradeID     int64     `json:"trade_id"`
	Asset       string    `json:"asset"`
	Buyer       string    `json:"buyer"`
	Seller      string    `json:"seller"`
	BuyOrderID  int64     `json:"buy_order_id"`
	SellOrderID int64     `json:"sell_order_id"`
	TakerSide   string    `json:"taker_side"`
	Price       string    `json:"price"`
	Quantity    string    `json:"quantity"`
	Notional    string    `json:"notional"`
	Fee         string    `json:"fee"`
	ExecutedAt  time.Time `json:"executed_at"`
}

func NewTradeEvent(t *orderbook.Trade) *TradeEvent {
	return &TradeEvent{
		TradeID:     t.ID,
		Asset:       t.Asset,
		Buyer:       t.Buyer,
		Seller:      t.Seller,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		TakerSide:   string(t.TakerSide),
		Price:       t.Price.String(),
		Quantity:    t.Quantity.String(),
		Notional:    t.Notional.String(),
		Fee:         t.Fee.String(),
		ExecutedAt:  t.CreatedAt,
	}
}
