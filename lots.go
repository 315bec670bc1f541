package tradelog

// Lot is a still-open slice of a position. Lots are created when an opening
// transaction increases exposure and are exclusively owned by the lot book;
// closing transactions consume them oldest first and they are dropped when
// nothing remains.
type Lot struct {
	OpenTxID   string
	OpenDate   Date
	Direction  Direction
	Quantity   Quantity // remaining open quantity, always positive
	UnitCost   Money    // opening price per unit or per contract
	Multiplier Quantity
}

// CostBasis returns the signed cost basis of the remaining quantity:
// negative for long lots (a debit was paid), positive for short lots
// (a credit was received).
func (l Lot) CostBasis() Money {
	return l.UnitCost.Mul(l.Quantity).Mul(l.Multiplier).Mul(l.Direction.CostBasisSign())
}

// Match records one closing transaction consuming part of one open lot.
type Match struct {
	OpenTxID  string
	CloseTxID string
	Direction Direction // direction of the consumed lot
	Quantity  Quantity
	OpenCost  Money // per unit
	ClosePx   Money // per unit
	Fees      Money // share of the closing transaction's fees
	CloseDate Date
	Realized  Money
}

// realize computes the P&L of one match:
//
//	sign * (close - open) * quantity * multiplier - allocated fees
//
// with sign +1 for closing a long lot and -1 for closing a short one.
func realize(dir Direction, open, close Money, qty, mult Quantity, fees Money) Money {
	gross := close.Sub(open).Mul(qty).Mul(mult).Mul(dir.Sign())
	return gross.Sub(fees)
}

// lotBook is the FIFO queue of open lots for one (symbol, asset type) pair.
// All lots in a book share one direction; a close that exceeds the open
// quantity empties the book and the remainder reopens it on the other side.
type lotBook struct {
	direction Direction
	lots      []Lot
}

// isEmpty reports whether the book holds no open quantity.
func (b *lotBook) isEmpty() bool { return len(b.lots) == 0 }

// openQuantity returns the total quantity still open.
func (b *lotBook) openQuantity() Quantity {
	total := Q(0)
	for _, l := range b.lots {
		total = total.Add(l.Quantity)
	}
	return total
}

// open appends a new lot. The first lot after the book empties sets the
// book's direction.
func (b *lotBook) open(l Lot) {
	if b.isEmpty() {
		b.direction = l.Direction
	}
	b.lots = append(b.lots, l)
}

// consume matches qty against the open lots, oldest first, closing at px.
// fees is the closing transaction's total fee, allocated pro-rata to each
// matched quantity. It returns the matches and the unmatched remainder, which
// is positive when the close flips the position.
func (b *lotBook) consume(closeTxID string, day Date, qty Quantity, px Money, fees Money) (matches []Match, remainder Quantity) {
	left := qty
	for len(b.lots) > 0 && left.IsPositive() {
		lot := &b.lots[0]
		matched := lot.Quantity
		if left.LessThan(matched) {
			matched = left
		}

		feeShare := M(0, px.Currency())
		if !fees.IsZero() {
			feeShare = fees.Mul(matched).Div(qty)
		}
		matches = append(matches, Match{
			OpenTxID:  lot.OpenTxID,
			CloseTxID: closeTxID,
			Direction: lot.Direction,
			Quantity:  matched,
			OpenCost:  lot.UnitCost,
			ClosePx:   px,
			Fees:      feeShare,
			CloseDate: day,
			Realized:  realize(lot.Direction, lot.UnitCost, px, matched, lot.Multiplier, feeShare),
		})

		lot.Quantity = lot.Quantity.Sub(matched)
		left = left.Sub(matched)
		if lot.Quantity.IsZero() {
			b.lots = b.lots[1:]
		}
	}
	return matches, left
}

// costBasis returns the signed cost basis of all open lots.
func (b *lotBook) costBasis(currency string) Money {
	basis := M(0, currency)
	for _, l := range b.lots {
		basis = basis.Add(l.CostBasis())
	}
	return basis
}

// averageCost returns the quantity-weighted average unit cost of the open
// lots, zero when the book is empty.
func (b *lotBook) averageCost(currency string) Money {
	total := M(0, currency)
	qty := Q(0)
	for _, l := range b.lots {
		total = total.Add(l.UnitCost.Mul(l.Quantity))
		qty = qty.Add(l.Quantity)
	}
	if qty.IsZero() {
		return M(0, currency)
	}
	return total.Div(qty)
}
