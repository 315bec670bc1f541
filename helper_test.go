package tradelog

import "fmt"

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// NO is a helper for test to create money from const with no currency set
func NO(v float64) Money { return M(v, "") }

// seq builds a deterministic id: ids only need to be unique and
// lexicographically ordered by creation, like ULIDs are.
func seq(i int) string { return fmt.Sprintf("%026d", i) }

// trade builds a valid stock transaction for tests.
func trade(i int, day string, symbol string, side Side, qty, price float64) Transaction {
	return Transaction{
		ID:           seq(i),
		UserID:       "u1",
		Asset:        Stock,
		Symbol:       symbol,
		Side:         side,
		Quantity:     Q(qty),
		Price:        USD(price),
		Multiplier:   Q(1),
		Fees:         USD(0),
		ActivityDate: MustParseDate(day),
	}
}

// option builds a valid option transaction for tests.
func option(i int, day string, symbol string, side Side, action Action, qty, price float64) Transaction {
	t := trade(i, day, symbol, side, qty, price)
	t.Asset = Option
	t.Action = action
	t.Multiplier = Q(100)
	t.OptionType = Call
	t.Strike = USD(100)
	t.Expiration = MustParseDate("2026-06-19")
	return t
}

// deposit builds a valid cash transaction for tests.
func deposit(i int, day string, amount float64) CashTransaction {
	code := CashDeposit
	if amount < 0 {
		code = CashWithdrawal
	}
	return CashTransaction{
		ID:     seq(i),
		UserID: "u1",
		Code:   code,
		Amount: USD(amount),
		Date:   MustParseDate(day),
	}
}
