package tradelog

import "testing"

func TestLotLedger_DerivedIntent(t *testing.T) {
	g := NewLotLedger()
	k := Key{Symbol: "AAPL", Asset: Stock}

	// First buy opens long.
	matches, flipped := g.Apply(trade(1, "2025-01-02", "AAPL", Buy, 10, 150))
	if len(matches) != 0 || flipped {
		t.Fatalf("opening buy produced matches=%d flipped=%v", len(matches), flipped)
	}
	if dir, ok := g.Direction(k); !ok || dir != Long {
		t.Fatalf("Direction() = %v %v, want long true", dir, ok)
	}

	// A sell against a long book closes it.
	matches, flipped = g.Apply(trade(2, "2025-01-05", "AAPL", Sell, 10, 155))
	if flipped {
		t.Error("exact close should not flip")
	}
	if len(matches) != 1 {
		t.Fatalf("closing sell produced %d matches, want 1", len(matches))
	}
	if got, want := matches[0].Realized, USD(50); !got.Equal(want) {
		t.Errorf("realized = %v, want %v", got, want)
	}
	if _, ok := g.Direction(k); ok {
		t.Error("book should be empty after full close")
	}
}

func TestLotLedger_ShortRoundTrip(t *testing.T) {
	g := NewLotLedger()
	k := Key{Symbol: "TSLA", Asset: Stock}

	g.Apply(trade(1, "2025-01-02", "TSLA", Sell, 1, 500))
	if got, want := g.CostBasis(k, "USD"), USD(500); !got.Equal(want) {
		t.Fatalf("short cost basis = %v, want %v", got, want)
	}

	matches, _ := g.Apply(trade(2, "2025-01-09", "TSLA", Buy, 1, 300))
	if got, want := matches[0].Realized, USD(200); !got.Equal(want) {
		t.Errorf("short round trip realized = %v, want %v", got, want)
	}
}

func TestLotLedger_Flip(t *testing.T) {
	g := NewLotLedger()
	k := Key{Symbol: "AAPL", Asset: Stock}

	g.Apply(trade(1, "2025-01-02", "AAPL", Buy, 10, 150))
	matches, flipped := g.Apply(trade(2, "2025-01-05", "AAPL", Sell, 15, 160))

	if !flipped {
		t.Fatal("over-close should flip")
	}
	if len(matches) != 1 {
		t.Fatalf("flip produced %d matches, want 1", len(matches))
	}
	if got, want := matches[0].Quantity, Q(10); !got.Equal(want) {
		t.Errorf("matched quantity = %v, want %v", got, want)
	}
	dir, ok := g.Direction(k)
	if !ok || dir != Short {
		t.Fatalf("Direction() after flip = %v %v, want short true", dir, ok)
	}
	if got, want := g.OpenQuantity(k), Q(5); !got.Equal(want) {
		t.Errorf("open quantity after flip = %v, want %v", got, want)
	}
	// The reopened side is priced at the closing transaction's price.
	lots := g.OpenLots(k)
	if got, want := lots[0].UnitCost, USD(160); !got.Equal(want) {
		t.Errorf("flip lot unit cost = %v, want %v", got, want)
	}
}

func TestLotLedger_ExplicitOpenNetsOppositeBook(t *testing.T) {
	g := NewLotLedger()
	k := Key{Symbol: "AAPL", Asset: Option}

	g.Apply(option(1, "2025-01-02", "AAPL", Sell, SellToOpen, 2, 5))
	// A buy-to-open against a short book nets like a close: the book holds
	// one direction, it never hedges.
	matches, flipped := g.Apply(option(2, "2025-01-05", "AAPL", Buy, BuyToOpen, 1, 3))

	if flipped {
		t.Error("netting within the open quantity should not flip")
	}
	if len(matches) != 1 {
		t.Fatalf("netting open produced %d matches, want 1", len(matches))
	}
	if got, want := matches[0].Realized, USD(200); !got.Equal(want) {
		t.Errorf("realized = %v, want %v", got, want)
	}
	if got, want := g.OpenQuantity(k), Q(1); !got.Equal(want) {
		t.Errorf("open quantity = %v, want %v", got, want)
	}
	if dir, ok := g.Direction(k); !ok || dir != Short {
		t.Errorf("Direction() = %v %v, want short true", dir, ok)
	}
}

func TestLotLedger_Groups(t *testing.T) {
	g := NewLotLedger()
	k := Key{Symbol: "AAPL", Asset: Stock}

	g.Apply(trade(1, "2025-01-02", "AAPL", Buy, 10, 150))
	if got, want := g.Group(k), 1; got != want {
		t.Fatalf("Group() = %d, want %d", got, want)
	}
	g.Apply(trade(2, "2025-01-05", "AAPL", Sell, 10, 155))
	g.Apply(trade(3, "2025-02-01", "AAPL", Buy, 5, 140))
	if got, want := g.Group(k), 2; got != want {
		t.Errorf("Group() after reopen = %d, want %d (a reopen is a new group)", got, want)
	}
}

func TestLotLedger_BooksAreIsolated(t *testing.T) {
	g := NewLotLedger()

	btc := trade(1, "2025-01-02", "BTC", Buy, 2, 40000)
	btc.Asset = Crypto
	g.Apply(btc)
	fut := trade(2, "2025-01-02", "BTC", Sell, 1, 41000)
	fut.Asset = Futures
	fut.Multiplier = Q(5)
	g.Apply(fut)

	// The futures sell must not close the crypto lot.
	if got, want := g.OpenQuantity(Key{Symbol: "BTC", Asset: Crypto}), Q(2); !got.Equal(want) {
		t.Errorf("crypto open quantity = %v, want %v", got, want)
	}
	if dir, _ := g.Direction(Key{Symbol: "BTC", Asset: Futures}); dir != Short {
		t.Errorf("futures direction = %v, want short", dir)
	}
}

func TestLotLedger_OptionExpiry(t *testing.T) {
	t.Run("long call expires worthless", func(t *testing.T) {
		g := NewLotLedger()
		k := Key{Symbol: "AAPL", Asset: Option}

		g.Apply(option(1, "2025-01-02", "AAPL", Buy, BuyToOpen, 1, 5.50))
		expiry := option(2, "2025-06-19", "AAPL", Sell, Expired, 1, 0)
		matches, _ := g.Apply(expiry)

		if got, want := matches[0].Realized, USD(-550); !got.Equal(want) {
			t.Errorf("expiry realized = %v, want %v (full premium loss)", got, want)
		}
		if !g.OpenQuantity(k).IsZero() {
			t.Error("expiry must leave zero open quantity")
		}
	})

	t.Run("short put keeps the credit", func(t *testing.T) {
		g := NewLotLedger()

		short := option(1, "2025-01-02", "AAPL", Sell, SellToOpen, 1, 2)
		short.OptionType = Put
		g.Apply(short)
		expiry := option(2, "2025-06-19", "AAPL", Buy, Expired, 1, 0)
		expiry.OptionType = Put
		matches, _ := g.Apply(expiry)

		if got, want := matches[0].Realized, USD(200); !got.Equal(want) {
			t.Errorf("expiry realized = %v, want %v (full premium retained)", got, want)
		}
	})

	t.Run("recorded price is ignored on assignment", func(t *testing.T) {
		g := NewLotLedger()

		g.Apply(option(1, "2025-01-02", "AAPL", Sell, SellToOpen, 1, 3))
		assigned := option(2, "2025-06-19", "AAPL", Buy, Assigned, 1, 99)
		matches, _ := g.Apply(assigned)

		if got, want := matches[0].Realized, USD(300); !got.Equal(want) {
			t.Errorf("assignment realized = %v, want %v (closes at zero)", got, want)
		}
	})
}

func TestLotLedger_LotConservation(t *testing.T) {
	g := NewLotLedger()
	k := Key{Symbol: "AAPL", Asset: Stock}

	txs := []Transaction{
		trade(1, "2025-01-02", "AAPL", Buy, 10, 100),
		trade(2, "2025-01-03", "AAPL", Buy, 20, 105),
		trade(3, "2025-01-04", "AAPL", Sell, 5, 110),
		trade(4, "2025-01-05", "AAPL", Buy, 7, 101),
		trade(5, "2025-01-06", "AAPL", Sell, 25, 115),
	}

	opened, matched := Q(0), Q(0)
	for _, tx := range txs {
		before := g.OpenQuantity(k)
		matches, _ := g.Apply(tx)
		for _, m := range matches {
			matched = matched.Add(m.Quantity)
		}
		after := g.OpenQuantity(k)
		if after.GreaterThan(before) {
			opened = opened.Add(after.Sub(before))
		}

		// opened - matched = remaining, at every point of the replay.
		if got, want := opened.Sub(matched), after; !got.Equal(want) {
			t.Fatalf("after tx %s: opened %v - matched %v = %v, want remaining %v",
				tx.ID, opened, matched, got, want)
		}
	}
}
