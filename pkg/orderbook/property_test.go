package orderbook

import (
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// TestBookInvariantsUnderRandomOps drives a book with random place and
// cancel sequences and checks the structural invariants after every
// operation: conservation of quantity, no negative state, monotonic
// fills, the maker-price rule, and a strictly uncrossed book at rest.
func TestBookInvariantsUnderRandomOps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ob := newTestBook()

		// order id -> limit price, for the maker-price check.
		prices := make(map[int64]decimal.Decimal)
		// order id -> highest filled seen, for monotonicity.
		filled := make(map[int64]decimal.Decimal)
		var placed []int64
		seenTrades := 0

		steps := rapid.IntRange(1, 80).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0, 1: // place
				price := decimal.NewFromInt(int64(rapid.IntRange(1, 20).Draw(t, "price")))
				qty := decimal.NewFromInt(int64(rapid.IntRange(1, 10).Draw(t, "qty")))
				var order *Order
				var trades []*Trade
				if rapid.Bool().Draw(t, "buy") {
					order, trades = ob.PlaceBuy("taker", price, qty)
				} else {
					order, trades = ob.PlaceSell("maker", price, qty)
				}
				prices[order.ID] = price
				placed = append(placed, order.ID)

				for _, tr := range trades {
					if !tr.Quantity.IsPositive() {
						t.Fatalf("trade quantity must be positive: %+v", tr)
					}
					if !tr.Notional.Equal(tr.Price.Mul(tr.Quantity)) {
						t.Fatalf("trade notional must be price x quantity: %+v", tr)
					}
					// The maker is whichever matched order entered the
					// book first; ids are monotonic, so it is the
					// smaller of the two.
					makerID := tr.BuyOrderID
					if tr.SellOrderID < makerID {
						makerID = tr.SellOrderID
					}
					if !tr.Price.Equal(prices[makerID]) {
						t.Fatalf("trade at %s but maker order %d was priced %s", tr.Price, makerID, prices[makerID])
					}
				}
				seenTrades += len(trades)
			case 2: // cancel a random known id
				if len(placed) > 0 {
					id := placed[rapid.IntRange(0, len(placed)-1).Draw(t, "cancel_idx")]
					ob.Cancel(id)
				}
			case 3: // cancel an unknown id: always a no-op
				if ob.Cancel(int64(1_000_000 + i)) {
					t.Fatal("cancel of unknown id must report false")
				}
			}

			for _, id := range placed {
				order, ok := ob.Lookup(id)
				if !ok {
					t.Fatalf("placed order %d must stay queryable", id)
				}
				if order.Filled.IsNegative() || order.Remaining().IsNegative() {
					t.Fatalf("negative state on order %+v", order)
				}
				if !order.Filled.Add(order.Remaining()).Equal(order.Quantity) {
					t.Fatalf("conservation violated on order %+v", order)
				}
				if order.Filled.LessThan(filled[id]) {
					t.Fatalf("filled decreased on order %d: %s -> %s", id, filled[id], order.Filled)
				}
				filled[id] = order.Filled
				if order.Status == StatusFilled && !order.Filled.Equal(order.Quantity) {
					t.Fatalf("filled status with open remainder: %+v", order)
				}
			}

			bid, okBid := ob.BestBid()
			ask, okAsk := ob.BestAsk()
			if okBid && okAsk && !bid.LessThan(ask) {
				t.Fatalf("book crossed at rest: bid %s >= ask %s", bid, ask)
			}
		}

		if stats := ob.Stats(); stats.TotalTrades != int64(seenTrades) {
			t.Fatalf("history size %d does not match returned trades %d", stats.TotalTrades, seenTrades)
		}
	})
}

// TestRejectionIdempotenceUnderRandomOps checks that orders refused by
// entry protection never change observable book state.
func TestRejectionIdempotenceUnderRandomOps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ob := newProtectedBook()
		ob.SetAdoptionRate(decimal.RequireFromString("0.05")) // buy cap 50,000

		seeds := rapid.IntRange(0, 10).Draw(t, "seeds")
		for i := 0; i < seeds; i++ {
			price := decimal.NewFromInt(int64(rapid.IntRange(1, 10).Draw(t, "price")))
			qty := decimal.NewFromInt(int64(rapid.IntRange(1, 10).Draw(t, "qty")))
			if rapid.Bool().Draw(t, "buy") {
				ob.PlaceBuy("seed", price, qty)
			} else {
				ob.PlaceSell("seed", price, qty)
			}
		}

		before := ob.Stats()
		depthBefore := ob.Depth(5)

		// Notional 600,000: always past the 50,000 cap.
		order, trades := ob.PlaceBuy("whale", decimal.NewFromInt(60), decimal.NewFromInt(10_000))
		if order.Status != StatusCancelled || len(trades) != 0 {
			t.Fatalf("expected rejection, got %+v with %d trades", order, len(trades))
		}

		after := ob.Stats()
		depthAfter := ob.Depth(5)
		if after.TotalTrades != before.TotalTrades ||
			!after.VolumeUPS.Equal(before.VolumeUPS) ||
			after.OpenBuyOrders != before.OpenBuyOrders ||
			after.OpenSellOrders != before.OpenSellOrders ||
			len(depthAfter.Bids) != len(depthBefore.Bids) ||
			len(depthAfter.Asks) != len(depthBefore.Asks) {
			t.Fatalf("rejection mutated the book:\nbefore %+v\nafter  %+v", before, after)
		}
		if after.RejectedBuyOrders != before.RejectedBuyOrders+1 {
			t.Fatalf("rejection counter should advance exactly once")
		}
	})
}
