package tradelog

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type fakeJournal struct {
	txs  []Transaction
	cash []CashTransaction

	positions []Position
	snapshots map[Date]PortfolioSnapshot
	failOn    Date
}

func (f *fakeJournal) ListByUser(string) ([]Transaction, error) { return f.txs, nil }

type fakeCash struct{ j *fakeJournal }

func (f fakeCash) ListByUser(string) ([]CashTransaction, error) { return f.j.cash, nil }

func (f *fakeJournal) ReplaceForUser(_ string, positions []Position) error {
	f.positions = positions
	return nil
}

func (f *fakeJournal) Upsert(s PortfolioSnapshot) error {
	if !f.failOn.IsZero() && s.SnapshotDate == f.failOn {
		return errors.New("disk full")
	}
	if f.snapshots == nil {
		f.snapshots = make(map[Date]PortfolioSnapshot)
	}
	f.snapshots[s.SnapshotDate] = s
	return nil
}

func newTestService(j *fakeJournal) *Service {
	return NewService(j, fakeCash{j}, j, j, nil, "USD", zerolog.Nop())
}

func TestService_RecomputePositions(t *testing.T) {
	j := &fakeJournal{txs: []Transaction{
		trade(1, "2025-01-02", "AAPL", Buy, 10, 150),
		trade(2, "2025-01-05", "AAPL", Sell, 4, 160),
	}}

	positions, err := newTestService(j).RecomputePositions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("RecomputePositions() error = %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("RecomputePositions() = %d positions, want 1", len(positions))
	}
	if len(j.positions) != 1 {
		t.Error("positions were not persisted")
	}
	if got, want := positions[0].Quantity, Q(6); !got.Equal(want) {
		t.Errorf("remaining quantity = %v, want %v", got, want)
	}
}

func TestService_SnapshotDate(t *testing.T) {
	j := &fakeJournal{
		txs:  []Transaction{trade(2, "2025-01-03", "AAPL", Buy, 10, 150)},
		cash: []CashTransaction{deposit(1, "2025-01-02", 10000)},
	}

	snap, err := newTestService(j).SnapshotDate(context.Background(), "u1", MustParseDate("2025-01-10"))
	if err != nil {
		t.Fatalf("SnapshotDate() error = %v", err)
	}
	if got, want := snap.NetCashFlow, USD(10000); !got.Equal(want) {
		t.Errorf("net cash flow = %v, want %v", got, want)
	}
	if _, ok := j.snapshots[snap.SnapshotDate]; !ok {
		t.Error("snapshot was not upserted")
	}
}

func TestService_RegenerateRange(t *testing.T) {
	j := &fakeJournal{
		txs:    []Transaction{trade(1, "2025-01-02", "AAPL", Buy, 10, 150)},
		failOn: MustParseDate("2025-01-03"),
	}

	results := newTestService(j).RegenerateRange(context.Background(), "u1",
		MustParseDate("2025-01-02"), MustParseDate("2025-01-05"))

	if len(results) != 4 {
		t.Fatalf("RegenerateRange() = %d results, want 4 (one per date)", len(results))
	}
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			if r.Date != j.failOn {
				t.Errorf("unexpected failure on %s: %v", r.Date, r.Err)
			}
		}
	}
	if failed != 1 {
		t.Errorf("failed dates = %d, want 1", failed)
	}
	// The failing date must not stop the later dates.
	if _, ok := j.snapshots[MustParseDate("2025-01-05")]; !ok {
		t.Error("dates after the failure were not regenerated")
	}
}
