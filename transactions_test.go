package tradelog

import (
	"errors"
	"testing"
)

func TestTransaction_Validate(t *testing.T) {
	valid := trade(1, "2025-01-02", "AAPL", Buy, 10, 150)
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() on a valid transaction = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
	}{
		{"missing user", func(tx *Transaction) { tx.UserID = "" }},
		{"missing symbol", func(tx *Transaction) { tx.Symbol = "" }},
		{"missing date", func(tx *Transaction) { tx.ActivityDate = Date{} }},
		{"unknown asset", func(tx *Transaction) { tx.Asset = "bond" }},
		{"unknown side", func(tx *Transaction) { tx.Side = "hold" }},
		{"zero quantity", func(tx *Transaction) { tx.Quantity = Q(0) }},
		{"negative quantity", func(tx *Transaction) { tx.Quantity = Q(-1) }},
		{"negative price", func(tx *Transaction) { tx.Price = USD(-1) }},
		{"negative fees", func(tx *Transaction) { tx.Fees = USD(-1) }},
		{"zero multiplier", func(tx *Transaction) { tx.Multiplier = Q(0) }},
		{"action on a stock", func(tx *Transaction) { tx.Action = BuyToOpen }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tx := valid
			c.mutate(&tx)
			err := tx.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Validate() returned %T, want *ValidationError", err)
			}
		})
	}
}

func TestTransaction_ValidateOptionFields(t *testing.T) {
	valid := option(1, "2025-01-02", "SPY", Buy, BuyToOpen, 1, 5.50)
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() on a valid option = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
	}{
		{"missing option type", func(tx *Transaction) { tx.OptionType = "" }},
		{"zero strike", func(tx *Transaction) { tx.Strike = USD(0) }},
		{"missing expiration", func(tx *Transaction) { tx.Expiration = Date{} }},
		{"unknown action", func(tx *Transaction) { tx.Action = "rolled" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tx := valid
			c.mutate(&tx)
			if err := tx.Validate(); err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}

func TestValidateAll_CollectsEveryFailure(t *testing.T) {
	bad1 := trade(1, "2025-01-02", "", Buy, 10, 150)
	bad2 := trade(2, "2025-01-02", "AAPL", Buy, -1, 150)
	err := ValidateAll([]Transaction{bad1, trade(3, "2025-01-02", "AAPL", Buy, 1, 1), bad2})
	if err == nil {
		t.Fatal("ValidateAll() = nil, want error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("ValidateAll() returned %T, want joined *ValidationError", err)
	}
}

func TestSortTransactions(t *testing.T) {
	a := trade(1, "2025-01-05", "AAPL", Buy, 1, 1)
	b := trade(2, "2025-01-02", "AAPL", Buy, 1, 1)
	c := trade(3, "2025-01-02", "AAPL", Buy, 1, 1)

	in := []Transaction{a, c, b}
	out := SortTransactions(in)

	if out[0].ID != b.ID || out[1].ID != c.ID || out[2].ID != a.ID {
		t.Errorf("SortTransactions() order = %s %s %s, want %s %s %s",
			out[0].ID, out[1].ID, out[2].ID, b.ID, c.ID, a.ID)
	}
	if in[0].ID != a.ID {
		t.Error("SortTransactions() must not mutate its input")
	}
}

func TestCashTransaction_Validate(t *testing.T) {
	if err := deposit(1, "2025-01-02", 10000).Validate(); err != nil {
		t.Fatalf("Validate() on a valid deposit = %v", err)
	}

	wrongSign := deposit(2, "2025-01-02", 100)
	wrongSign.Amount = USD(-100)
	if err := wrongSign.Validate(); err == nil {
		t.Error("a negative deposit must be rejected")
	}

	unknown := deposit(3, "2025-01-02", 100)
	unknown.Code = "bonus"
	if err := unknown.Validate(); err == nil {
		t.Error("an unknown cash code must be rejected")
	}
}

func TestNetCashFlow(t *testing.T) {
	cash := []CashTransaction{
		deposit(1, "2025-01-02", 10000),
		deposit(2, "2025-01-10", -500),
		{ID: seq(3), UserID: "u1", Code: CashMargin, Amount: USD(-2000), Date: MustParseDate("2025-01-05")},
		deposit(4, "2025-02-01", 300),
	}

	// Margin is excluded; the later deposit is past the cutoff.
	if got, want := NetCashFlow(cash, MustParseDate("2025-01-31"), "USD"), USD(9500); !got.Equal(want) {
		t.Errorf("NetCashFlow() = %v, want %v", got, want)
	}
}
