package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side marks an order as resting on the bid or the ask side of a book.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusOpen            OrderStatus = "Open"
	StatusPartiallyFilled OrderStatus = "PartiallyFilled"
	StatusFilled          OrderStatus = "Filled"
	StatusCancelled       OrderStatus = "Cancelled"
)

// RejectCode classifies why an order was refused entry to the book.
// Rejections are modelled as order state, not as errors.
type RejectCode string

const (
	RejectNone          RejectCode = ""
	RejectInvalidParams RejectCode = "INVALID_PARAMS"
	RejectEntryCap      RejectCode = "ENTRY_CAP_EXCEEDED"
	RejectDepthImpact   RejectCode = "DEPTH_IMPACT_EXCEEDED"
)

// Order is a limit order for one F_i asset, priced in UPS.
//
// IDs are assigned monotonically per book. Quantity is the original
// size; Filled only ever grows, and never past Quantity. A cancelled
// order keeps whatever had executed before cancellation.
type Order struct {
	ID        int64
	Asset     string
	Submitter string
	Side      Side

	Price    decimal.Decimal
	Quantity decimal.Decimal
	Filled   decimal.Decimal

	Status       OrderStatus
	RejectCode   RejectCode
	RejectReason string

	CreatedAt time.Time
}

// Remaining is the quantity still open to match.
func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.Filled)
}

// Notional is the order's gross value in UPS at its limit price.
func (o *Order) Notional() decimal.Decimal {
	return o.Price.Mul(o.Quantity)
}

// IsTerminal reports whether the order can no longer mutate.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusFilled || o.Status == StatusCancelled
}

// fill applies an execution of qty and advances the status. Callers
// guarantee qty <= Remaining(); the book only ever fills min(remainings).
func (o *Order) fill(qty decimal.Decimal) {
	o.Filled = o.Filled.Add(qty)
	if o.Filled.Cmp(o.Quantity) >= 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
}

// reject freezes the order as cancelled before it ever entered a queue.
func (o *Order) reject(code RejectCode, reason string) {
	o.Status = StatusCancelled
	o.RejectCode = code
	o.RejectReason = reason
}

// snapshot returns a caller-safe copy. The book hands out copies so
// readers never observe a resting order mid-match.
func (o *Order) snapshot() *Order {
	cp := *o
	return &cp
}
