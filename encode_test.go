package tradelog

import (
	"bytes"
	"strings"
	"testing"
)

func TestJournalRoundTrip(t *testing.T) {
	txs := []Transaction{
		trade(1, "2025-01-02", "AAPL", Buy, 10, 150.25),
		option(2, "2025-01-03", "SPY", Sell, SellToOpen, 1, 2.50),
	}
	cash := []CashTransaction{deposit(3, "2025-01-01", 10000)}

	var buf bytes.Buffer
	if err := EncodeJournal(&buf, txs, cash); err != nil {
		t.Fatalf("EncodeJournal() error = %v", err)
	}

	gotTxs, gotCash, err := DecodeJournal(&buf)
	if err != nil {
		t.Fatalf("DecodeJournal() error = %v", err)
	}
	if len(gotTxs) != 2 || len(gotCash) != 1 {
		t.Fatalf("DecodeJournal() = %d trades, %d cash, want 2 and 1", len(gotTxs), len(gotCash))
	}

	got := gotTxs[1]
	if got.ID != txs[1].ID || got.Asset != Option || got.Action != SellToOpen {
		t.Errorf("decoded option = %+v", got)
	}
	if !got.Strike.Equal(USD(100)) {
		t.Errorf("decoded strike = %v, want %v", got.Strike, USD(100))
	}
	if !got.Price.Equal(USD(2.50)) {
		t.Errorf("decoded price = %v, want %v", got.Price, USD(2.50))
	}
	if got.Expiration != txs[1].Expiration {
		t.Errorf("decoded expiration = %v, want %v", got.Expiration, txs[1].Expiration)
	}
	if !gotCash[0].Amount.Equal(USD(10000)) {
		t.Errorf("decoded cash amount = %v, want %v", gotCash[0].Amount, USD(10000))
	}
}

func TestEncodeJournal_OneEventPerLine(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeJournal(&buf,
		[]Transaction{trade(1, "2025-01-02", "AAPL", Buy, 10, 150)},
		[]CashTransaction{deposit(2, "2025-01-01", 100)})
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("EncodeJournal() wrote %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, `{"kind":`) {
			t.Errorf("line does not start with its kind tag: %s", line)
		}
	}
}

func TestEncodeJournal_CashInReplayOrder(t *testing.T) {
	cash := []CashTransaction{
		deposit(5, "2025-02-01", 500),
		deposit(2, "2025-01-01", 10000),
		deposit(3, "2025-01-01", 200),
	}

	var buf bytes.Buffer
	if err := EncodeJournal(&buf, nil, cash); err != nil {
		t.Fatalf("EncodeJournal() error = %v", err)
	}
	_, got, err := DecodeJournal(&buf)
	if err != nil {
		t.Fatalf("DecodeJournal() error = %v", err)
	}

	// Lines come out in (date, id) order regardless of input order.
	want := []string{seq(2), seq(3), seq(5)}
	for i, c := range got {
		if c.ID != want[i] {
			t.Errorf("cash line %d = %s, want %s", i, c.ID, want[i])
		}
	}
}

func TestDecodeJournal_UnknownKind(t *testing.T) {
	in := strings.NewReader(`{"kind":"split","id":"x"}`)
	if _, _, err := DecodeJournal(in); err == nil {
		t.Fatal("DecodeJournal() with an unknown kind = nil, want error")
	}
}

func TestDecodeJournal_SkipsBlankLines(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeJournal(&buf, []Transaction{trade(1, "2025-01-02", "AAPL", Buy, 1, 1)}, nil); err != nil {
		t.Fatal(err)
	}
	buf.WriteString("\n\n")

	txs, _, err := DecodeJournal(&buf)
	if err != nil {
		t.Fatalf("DecodeJournal() error = %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("DecodeJournal() = %d trades, want 1", len(txs))
	}
}
