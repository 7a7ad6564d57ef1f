package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade records one match between a resting and an incoming order.
// Price is always the resting (maker) order's limit price. Trades are
// immutable once recorded and appended to the book's history in
// execution order.
type Trade struct {
	ID    int64
	Asset string

	Buyer       string
	Seller      string
	BuyOrderID  int64
	SellOrderID int64
	TakerSide   Side

	Price    decimal.Decimal
	Quantity decimal.Decimal
	Notional decimal.Decimal
	Fee      decimal.Decimal

	CreatedAt time.Time
}
