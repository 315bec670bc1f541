package tradelog

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestReplayAll_SortsBeforeApplying(t *testing.T) {
	// Deliberately out of order: the close is listed before the opens.
	txs := []Transaction{
		trade(3, "2025-01-10", "AAPL", Sell, 15, 120),
		trade(2, "2025-01-03", "AAPL", Buy, 10, 110),
		trade(1, "2025-01-02", "AAPL", Buy, 10, 100),
	}

	r := ReplayAll(txs)

	// FIFO over the date-sorted history: 10x(120-100) + 5x(120-110) = 250.
	if got, want := r.RealizedTotal("USD"), USD(250); !got.Equal(want) {
		t.Errorf("RealizedTotal() = %v, want %v", got, want)
	}
	if got, want := r.Ledger.OpenQuantity(Key{Symbol: "AAPL", Asset: Stock}), Q(5); !got.Equal(want) {
		t.Errorf("open quantity = %v, want %v", got, want)
	}
}

func TestReplayAll_SameDayTieBreak(t *testing.T) {
	// Same date: the lower id was created first and must open the book.
	txs := []Transaction{
		trade(2, "2025-01-02", "AAPL", Sell, 10, 155),
		trade(1, "2025-01-02", "AAPL", Buy, 10, 150),
	}

	r := ReplayAll(txs)

	if got, want := r.RealizedTotal("USD"), USD(50); !got.Equal(want) {
		t.Errorf("RealizedTotal() = %v, want %v", got, want)
	}
	if len(r.Flipped) != 0 {
		t.Errorf("Flipped = %v, want none", r.Flipped)
	}
}

func TestReplayAll_Deterministic(t *testing.T) {
	txs := []Transaction{
		trade(1, "2025-01-02", "AAPL", Buy, 10, 100),
		trade(2, "2025-01-03", "MSFT", Sell, 5, 400),
		trade(3, "2025-01-04", "AAPL", Sell, 4, 110),
		option(4, "2025-01-05", "SPY", Buy, BuyToOpen, 2, 3.25),
	}
	shuffled := []Transaction{txs[2], txs[0], txs[3], txs[1]}

	a := ReplayAll(txs)
	b := ReplayAll(shuffled)

	pa := BuildPositions("u1", a, nil, "USD")
	pb := BuildPositions("u1", b, nil, "USD")

	ja, err := json.Marshal(pa)
	if err != nil {
		t.Fatal(err)
	}
	jb, err := json.Marshal(pb)
	if err != nil {
		t.Fatal(err)
	}
	if string(ja) != string(jb) {
		t.Errorf("positions differ across input orders:\n%s\n%s", ja, jb)
	}
	if !reflect.DeepEqual(a.Events, b.Events) {
		t.Error("match events differ across input orders")
	}
}

func TestReplayThrough_Cutoff(t *testing.T) {
	txs := []Transaction{
		trade(1, "2025-01-02", "AAPL", Buy, 10, 150),
		trade(2, "2025-01-05", "AAPL", Sell, 10, 155),
	}

	r := ReplayThrough(txs, MustParseDate("2025-01-03"))

	if got := r.RealizedTotal("USD"); !got.IsZero() {
		t.Errorf("RealizedTotal() before the close = %v, want 0", got)
	}
	if got, want := r.Ledger.OpenQuantity(Key{Symbol: "AAPL", Asset: Stock}), Q(10); !got.Equal(want) {
		t.Errorf("open quantity at cutoff = %v, want %v", got, want)
	}
}

func TestReplay_RealizedOn(t *testing.T) {
	txs := []Transaction{
		trade(1, "2025-01-02", "AAPL", Buy, 10, 150),
		trade(2, "2025-01-05", "AAPL", Sell, 5, 155),
		trade(3, "2025-01-06", "AAPL", Sell, 5, 160),
	}

	r := ReplayAll(txs)

	if got, want := r.RealizedOn(MustParseDate("2025-01-05"), "USD"), USD(25); !got.Equal(want) {
		t.Errorf("RealizedOn(01-05) = %v, want %v", got, want)
	}
	if got, want := r.RealizedOn(MustParseDate("2025-01-06"), "USD"), USD(50); !got.Equal(want) {
		t.Errorf("RealizedOn(01-06) = %v, want %v", got, want)
	}
}
