package tradelog

import "fmt"

// AssetType identifies the class of a traded instrument. Matching never
// crosses asset types: the same symbol held as stock and as futures forms two
// independent ledgers.
type AssetType string

const (
	Stock   AssetType = "stock"
	Option  AssetType = "option"
	Crypto  AssetType = "crypto"
	Futures AssetType = "futures"
)

// AssetTypes lists all supported asset types in a stable order.
var AssetTypes = []AssetType{Stock, Option, Crypto, Futures}

// ParseAssetType parses a string into an AssetType.
func ParseAssetType(s string) (AssetType, error) {
	switch AssetType(s) {
	case Stock, Option, Crypto, Futures:
		return AssetType(s), nil
	default:
		return "", fmt.Errorf("unknown asset type: %q", s)
	}
}

// DefaultMultiplier returns the contract multiplier used when a transaction
// does not carry one: 100 for standard options, 1 otherwise. Futures carry
// their contract size explicitly on the transaction.
func (a AssetType) DefaultMultiplier() Quantity {
	if a == Option {
		return Q(100)
	}
	return Q(1)
}

// Side is the direction of a single transaction.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseSide parses a string into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Buy, Sell:
		return Side(s), nil
	default:
		return "", fmt.Errorf("unknown side: %q", s)
	}
}

// Action qualifies option transactions with an opening/closing intent, or a
// lifecycle event (expiration, assignment). Non-option transactions leave it
// empty: their intent is derived from the lot ledger state.
type Action string

const (
	ActionNone  Action = ""
	BuyToOpen   Action = "bto"
	SellToClose Action = "stc"
	SellToOpen  Action = "sto"
	BuyToClose  Action = "btc"
	Expired     Action = "expired"
	Assigned    Action = "assigned"
)

// ParseAction parses a string into an Action. The empty string is valid and
// means "derive intent from ledger state".
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionNone, BuyToOpen, SellToClose, SellToOpen, BuyToClose, Expired, Assigned:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown action: %q", s)
	}
}

// opens reports whether the action explicitly opens exposure.
func (a Action) opens() bool { return a == BuyToOpen || a == SellToOpen }

// closes reports whether the action explicitly closes exposure.
func (a Action) closes() bool {
	return a == SellToClose || a == BuyToClose || a == Expired || a == Assigned
}

// OptionType distinguishes calls from puts.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Direction is the side of an open lot or position.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// Sign returns +1 for long and -1 for short. Realized and unrealized P&L are
// computed as sign * (closing - opening) * quantity * multiplier.
func (d Direction) Sign() Quantity {
	if d == Long {
		return Q(1)
	}
	return Q(-1)
}

// CostBasisSign returns the sign convention for stored cost basis: a long
// position is established by a cash outflow (debit, negative), a short
// position by a cash inflow (credit, positive). This convention is uniform
// across all four asset classes.
func (d Direction) CostBasisSign() Quantity {
	if d == Long {
		return Q(-1)
	}
	return Q(1)
}

// SignedMarketValue computes the contribution of one open position to the
// portfolio's total market value. Longs recover their basis plus paper P&L,
// shorts carry their basis as a liability plus paper P&L, and futures carry
// no cash basis at all (only margin), so only the paper P&L counts.
func SignedMarketValue(asset AssetType, costBasis, unrealized Money) Money {
	if asset == Futures {
		return unrealized
	}
	// costBasis is stored signed (negative for long debits, positive for
	// short credits) so negating it works for both directions.
	return costBasis.Neg().Add(unrealized)
}
