package tradelog

import "sort"

// Key identifies one independent lot book. Matching never crosses symbols or
// asset classes: AAPL stock and an AAPL option live in separate books.
type Key struct {
	Symbol string
	Asset  AssetType
}

func (k Key) String() string { return k.Symbol + "/" + string(k.Asset) }

// keyOf returns the book key for a transaction.
func keyOf(t Transaction) Key { return Key{Symbol: t.Symbol, Asset: t.Asset} }

// positionGroup accumulates the lifetime of one lot group: every open, every
// close, and the realized total. Closed groups stay reportable as closed
// positions after their lots are gone from the book.
type positionGroup struct {
	seq        int
	direction  Direction
	openedAt   Date
	closed     bool
	openedQty  Quantity // total quantity ever opened in this group
	openValue  Money    // sum of quantity * unit cost over every open
	multiplier Quantity
	realized   Money
	openIDs    []string
	closeIDs   []string
}

// averageOpenPrice is the quantity-weighted average price over every open of
// the group, not just the remaining lots.
func (p *positionGroup) averageOpenPrice(currency string) Money {
	if p.openedQty.IsZero() {
		return M(0, currency)
	}
	return M(0, currency).Add(p.openValue).Div(p.openedQty)
}

// LotLedger holds every open lot, grouped by (symbol, asset type). It is a
// pure state machine: Apply is (state, transaction) -> (state, matches) and
// never fails. Malformed transactions must be rejected before they reach it.
type LotLedger struct {
	books   map[Key]*lotBook
	groups  map[Key]int // position group sequence, bumped on each reopen
	history map[Key][]*positionGroup
}

// NewLotLedger returns an empty ledger.
func NewLotLedger() *LotLedger {
	return &LotLedger{
		books:   make(map[Key]*lotBook),
		groups:  make(map[Key]int),
		history: make(map[Key][]*positionGroup),
	}
}

func (g *LotLedger) book(k Key) *lotBook {
	b, ok := g.books[k]
	if !ok {
		b = &lotBook{}
		g.books[k] = b
	}
	return b
}

// Keys returns the keys of all non-empty books in a stable order.
func (g *LotLedger) Keys() []Key {
	keys := make([]Key, 0, len(g.books))
	for k, b := range g.books {
		if !b.isEmpty() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Symbol != keys[j].Symbol {
			return keys[i].Symbol < keys[j].Symbol
		}
		return keys[i].Asset < keys[j].Asset
	})
	return keys
}

// OpenLots returns copies of the open lots for a key, oldest first.
func (g *LotLedger) OpenLots(k Key) []Lot {
	b, ok := g.books[k]
	if !ok {
		return nil
	}
	lots := make([]Lot, len(b.lots))
	copy(lots, b.lots)
	return lots
}

// OpenQuantity returns the total open quantity for a key.
func (g *LotLedger) OpenQuantity(k Key) Quantity {
	b, ok := g.books[k]
	if !ok {
		return Q(0)
	}
	return b.openQuantity()
}

// Direction returns the side of the open position for a key. The second
// result is false when nothing is open.
func (g *LotLedger) Direction(k Key) (Direction, bool) {
	b, ok := g.books[k]
	if !ok || b.isEmpty() {
		return "", false
	}
	return b.direction, true
}

// CostBasis returns the signed cost basis of the open lots for a key.
func (g *LotLedger) CostBasis(k Key, currency string) Money {
	b, ok := g.books[k]
	if !ok {
		return M(0, currency)
	}
	return b.costBasis(currency)
}

// AverageCost returns the weighted average unit cost of the open lots.
func (g *LotLedger) AverageCost(k Key, currency string) Money {
	b, ok := g.books[k]
	if !ok {
		return M(0, currency)
	}
	return b.averageCost(currency)
}

// Group returns the current position group for a key. A group starts when the
// first lot opens an empty book and ends when the book empties again; a later
// reopen starts a fresh group rather than resuming the closed one.
func (g *LotLedger) Group(k Key) int { return g.groups[k] }

// TradedKeys returns every key that ever held a position, in a stable order.
// Unlike Keys it includes keys whose books are now empty.
func (g *LotLedger) TradedKeys() []Key {
	keys := make([]Key, 0, len(g.history))
	for k := range g.history {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Symbol != keys[j].Symbol {
			return keys[i].Symbol < keys[j].Symbol
		}
		return keys[i].Asset < keys[j].Asset
	})
	return keys
}

// groupHistory returns every group ever opened for a key, oldest first. The
// last group is the only one that can still be open.
func (g *LotLedger) groupHistory(k Key) []*positionGroup { return g.history[k] }

func (g *LotLedger) currentGroup(k Key) *positionGroup {
	h := g.history[k]
	if len(h) == 0 {
		return nil
	}
	return h[len(h)-1]
}

// Apply replays one transaction through the ledger and returns the matches it
// produced. flipped reports that a close exceeded the open quantity and the
// remainder reopened the book on the opposite side.
func (g *LotLedger) Apply(t Transaction) (matches []Match, flipped bool) {
	k := keyOf(t)
	b := g.book(k)

	qty := t.Quantity
	px := t.Price
	if t.Action == Expired || t.Action == Assigned {
		// Lifecycle events close at price zero: a long loses its full
		// premium, a short keeps its full credit.
		px = M(0, t.Price.Currency())
	}

	if g.opens(b, t) {
		g.openLot(b, k, t, qty, px)
		return nil, false
	}

	matches, remainder := b.consume(t.ID, t.ActivityDate, qty, px, t.Fees)
	if rec := g.currentGroup(k); rec != nil && len(matches) > 0 {
		for _, m := range matches {
			rec.realized = rec.realized.Add(m.Realized)
		}
		rec.closeIDs = append(rec.closeIDs, t.ID)
		if b.isEmpty() {
			rec.closed = true
		}
	}
	if remainder.IsPositive() {
		// Over-close: the excess flips the position.
		flipped = true
		g.openLot(b, k, t, remainder, px)
	}
	return matches, flipped
}

// opens decides whether the transaction opens exposure. An explicit closing
// action always closes; everything else opens only when the book is empty or
// already holds the transaction's side. A book holds a single direction, so
// an explicit open stated against an opposite-side book nets like a close
// rather than hedging.
func (g *LotLedger) opens(b *lotBook, t Transaction) bool {
	if t.Action != ActionNone && !t.Action.opens() {
		return false
	}
	return b.isEmpty() || b.direction == directionOf(t)
}

// directionOf is the exposure side a transaction would open.
func directionOf(t Transaction) Direction {
	if t.Side == Sell {
		return Short
	}
	return Long
}

func (g *LotLedger) openLot(b *lotBook, k Key, t Transaction, qty Quantity, px Money) {
	dir := directionOf(t)
	if b.isEmpty() {
		g.groups[k]++
		g.history[k] = append(g.history[k], &positionGroup{
			seq:       g.groups[k],
			direction: dir,
			openedAt:  t.ActivityDate,
		})
	}
	rec := g.currentGroup(k)
	rec.openedQty = rec.openedQty.Add(qty)
	rec.openValue = rec.openValue.Add(px.Mul(qty))
	rec.multiplier = t.Multiplier
	rec.openIDs = append(rec.openIDs, t.ID)
	b.open(Lot{
		OpenTxID:   t.ID,
		OpenDate:   t.ActivityDate,
		Direction:  dir,
		Quantity:   qty,
		UnitCost:   px,
		Multiplier: t.Multiplier,
	})
}
