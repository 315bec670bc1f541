package tradelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// NewID returns a new transaction id. ULIDs sort lexicographically in
// creation order, so the id doubles as the sequence tie-break for
// transactions sharing an activity date.
func NewID() string { return ulid.Make().String() }

// Transaction is one immutable trade event. It is created by the journal's
// CRUD layer and never mutated; the engine only reads transactions in
// non-decreasing activity-date order, ties broken by id.
type Transaction struct {
	ID           string
	UserID       string
	Asset        AssetType
	Symbol       string
	Side         Side
	Action       Action // option opening/closing flag, empty otherwise
	Quantity     Quantity
	Price        Money  // per unit or per contract
	Multiplier   Quantity
	Fees         Money
	ActivityDate Date
	Note         string

	// Option contract fields, zero for other asset types.
	OptionType OptionType
	Strike     Money
	Expiration Date
}

// NewTransaction creates a trade transaction with a fresh id and the asset
// type's default multiplier. Callers adjust option/futures fields afterwards,
// before the record is validated and persisted.
func NewTransaction(userID string, day Date, asset AssetType, symbol string, side Side, quantity Quantity, price Money) Transaction {
	return Transaction{
		ID:           NewID(),
		UserID:       userID,
		Asset:        asset,
		Symbol:       symbol,
		Side:         side,
		Quantity:     quantity,
		Price:        price,
		Multiplier:   asset.DefaultMultiplier(),
		Fees:         M(0, price.Currency()),
		ActivityDate: day,
	}
}

// ValidationError reports a transaction rejected at the boundary, before it
// can reach the matching engine. It is never silently coerced.
type ValidationError struct {
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid transaction: %s", e.Reason)
	}
	return fmt.Sprintf("invalid transaction %s: %s", e.ID, e.Reason)
}

func invalid(id, format string, args ...any) error {
	return &ValidationError{ID: id, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a transaction for correctness. Malformed transactions are
// rejected here; the engine itself has no fallible operations.
func (t Transaction) Validate() error {
	if t.UserID == "" {
		return invalid(t.ID, "user id is missing")
	}
	if t.Symbol == "" {
		return invalid(t.ID, "symbol is missing")
	}
	if t.ActivityDate.IsZero() {
		return invalid(t.ID, "activity date is missing")
	}
	if _, err := ParseAssetType(string(t.Asset)); err != nil {
		return invalid(t.ID, "%v", err)
	}
	if _, err := ParseSide(string(t.Side)); err != nil {
		return invalid(t.ID, "%v", err)
	}
	if !t.Quantity.IsPositive() {
		return invalid(t.ID, "quantity must be positive, got %s", t.Quantity)
	}
	if t.Price.IsNegative() {
		return invalid(t.ID, "price must not be negative, got %s", t.Price)
	}
	if t.Fees.IsNegative() {
		return invalid(t.ID, "fees must not be negative, got %s", t.Fees)
	}
	if !t.Multiplier.IsPositive() {
		return invalid(t.ID, "multiplier must be positive, got %s", t.Multiplier)
	}
	if t.Asset == Option {
		if t.OptionType != Call && t.OptionType != Put {
			return invalid(t.ID, "option type must be call or put, got %q", t.OptionType)
		}
		if !t.Strike.IsPositive() {
			return invalid(t.ID, "option strike must be positive, got %s", t.Strike)
		}
		if t.Expiration.IsZero() {
			return invalid(t.ID, "option expiration date is missing")
		}
		if _, err := ParseAction(string(t.Action)); err != nil {
			return invalid(t.ID, "%v", err)
		}
	} else if t.Action != ActionNone {
		return invalid(t.ID, "action %q is only valid for options", t.Action)
	}
	return nil
}

// ValidateAll validates a batch and returns all failures joined, so a caller
// can surface every problem at once.
func ValidateAll(txs []Transaction) error {
	var errs error
	for _, tx := range txs {
		errs = errors.Join(errs, tx.Validate())
	}
	return errs
}

// Less orders transactions by (activity date, id). ULID ids encode creation
// time, so same-day ties resolve to insertion order and replay stays
// deterministic.
func (t Transaction) Less(o Transaction) bool {
	if t.ActivityDate != o.ActivityDate {
		return t.ActivityDate.Before(o.ActivityDate)
	}
	return t.ID < o.ID
}

// SortTransactions sorts a copy of txs into replay order and returns it.
// The input slice is never mutated.
func SortTransactions(txs []Transaction) []Transaction {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	return sorted
}

// MarshalJSON implements the json.Marshaler interface for Transaction with a
// stable field order, for line-oriented journal files.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("user", t.UserID)
	w.Append("date", t.ActivityDate)
	w.Append("asset", t.Asset)
	w.Append("symbol", t.Symbol)
	w.Append("side", t.Side)
	w.Optional("action", t.Action)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price.Decimal())
	w.Append("multiplier", t.Multiplier)
	w.Append("fees", t.Fees.Decimal())
	w.Optional("currency", t.Price.Currency())
	if t.Asset == Option {
		w.Append("optionType", t.OptionType)
		w.Append("strike", t.Strike.Decimal())
		w.Append("expiration", t.Expiration)
	}
	w.Optional("note", t.Note)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Transaction.
// It handles the flat line format where amounts and currency are separate fields.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID         string          `json:"id"`
		User       string          `json:"user"`
		Date       Date            `json:"date"`
		Asset      AssetType       `json:"asset"`
		Symbol     string          `json:"symbol"`
		Side       Side            `json:"side"`
		Action     Action          `json:"action"`
		Quantity   Quantity        `json:"quantity"`
		Price      decimal.Decimal `json:"price"`
		Multiplier Quantity        `json:"multiplier"`
		Fees       decimal.Decimal `json:"fees"`
		Currency   string          `json:"currency"`
		OptionType OptionType      `json:"optionType"`
		Strike     decimal.Decimal `json:"strike"`
		Expiration Date            `json:"expiration"`
		Note       string          `json:"note"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*t = Transaction{
		ID:           temp.ID,
		UserID:       temp.User,
		Asset:        temp.Asset,
		Symbol:       temp.Symbol,
		Side:         temp.Side,
		Action:       temp.Action,
		Quantity:     temp.Quantity,
		Price:        M(temp.Price, temp.Currency),
		Multiplier:   temp.Multiplier,
		Fees:         M(temp.Fees, temp.Currency),
		ActivityDate: temp.Date,
		Note:         temp.Note,
		OptionType:   temp.OptionType,
		Strike:       M(temp.Strike, temp.Currency),
		Expiration:   temp.Expiration,
	}
	return nil
}

// --- Cash transactions ---

// CashCode classifies a cash event. Margin postings move collateral around
// without being economic cash flow, so they are excluded from net cash flow.
type CashCode string

const (
	CashDeposit    CashCode = "deposit"
	CashWithdrawal CashCode = "withdrawal"
	CashFee        CashCode = "fee"
	CashDividend   CashCode = "dividend"
	CashMargin     CashCode = "margin"
)

// ParseCashCode parses a string into a CashCode.
func ParseCashCode(s string) (CashCode, error) {
	switch CashCode(s) {
	case CashDeposit, CashWithdrawal, CashFee, CashDividend, CashMargin:
		return CashCode(s), nil
	default:
		return "", fmt.Errorf("unknown cash code: %q", s)
	}
}

// CountsAsCashFlow reports whether the code contributes to net cash flow.
func (c CashCode) CountsAsCashFlow() bool { return c != CashMargin }

// CashTransaction is one immutable cash event. Amounts are signed: deposits
// positive, withdrawals and fees negative.
type CashTransaction struct {
	ID     string
	UserID string
	Code   CashCode
	Amount Money
	Date   Date
	Note   string
}

// NewCashTransaction creates a cash transaction with a fresh id.
func NewCashTransaction(userID string, day Date, code CashCode, amount Money) CashTransaction {
	return CashTransaction{
		ID:     NewID(),
		UserID: userID,
		Code:   code,
		Amount: amount,
		Date:   day,
	}
}

// Validate checks a cash transaction for correctness.
func (c CashTransaction) Validate() error {
	if c.UserID == "" {
		return invalid(c.ID, "user id is missing")
	}
	if c.Date.IsZero() {
		return invalid(c.ID, "date is missing")
	}
	if _, err := ParseCashCode(string(c.Code)); err != nil {
		return invalid(c.ID, "%v", err)
	}
	if c.Amount.IsZero() {
		return invalid(c.ID, "amount must not be zero")
	}
	switch c.Code {
	case CashDeposit, CashDividend:
		if c.Amount.IsNegative() {
			return invalid(c.ID, "%s amount must be positive, got %s", c.Code, c.Amount)
		}
	case CashWithdrawal, CashFee:
		if c.Amount.IsPositive() {
			return invalid(c.ID, "%s amount must be negative, got %s", c.Code, c.Amount)
		}
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for CashTransaction.
func (c CashTransaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", c.ID)
	w.Append("user", c.UserID)
	w.Append("date", c.Date)
	w.Append("code", c.Code)
	w.Append("amount", c.Amount.Decimal())
	w.Optional("currency", c.Amount.Currency())
	w.Optional("note", c.Note)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for CashTransaction.
func (c *CashTransaction) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID       string          `json:"id"`
		User     string          `json:"user"`
		Date     Date            `json:"date"`
		Code     CashCode        `json:"code"`
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
		Note     string          `json:"note"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*c = CashTransaction{
		ID:     temp.ID,
		UserID: temp.User,
		Code:   temp.Code,
		Amount: M(temp.Amount, temp.Currency),
		Date:   temp.Date,
		Note:   temp.Note,
	}
	return nil
}

// SortCashTransactions sorts a copy of cash events into (date, id) order and
// returns it. The input slice is never mutated.
func SortCashTransactions(cash []CashTransaction) []CashTransaction {
	sorted := make([]CashTransaction, len(cash))
	copy(sorted, cash)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// NetCashFlow sums the amounts of cash transactions dated on or before the
// given date, excluding margin-only codes.
func NetCashFlow(cash []CashTransaction, on Date, currency string) Money {
	flow := M(0, currency)
	for _, c := range cash {
		if c.Date.After(on) {
			continue
		}
		if !c.Code.CountsAsCashFlow() {
			continue
		}
		flow = flow.Add(c.Amount)
	}
	return flow
}
