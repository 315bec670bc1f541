package tradelog

// Prices maps a book key to its latest mark. A missing entry is not an error:
// the position falls back to its average cost and is flagged stale.
type Prices map[Key]Money

// PositionStatus reports whether a position still holds open lots.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

// Position is the aggregated view of one lot group for one (symbol, asset
// type). An open position carries its remaining lots marked against the
// latest known price; a closed one keeps its realized result and the
// transaction ids that built and unwound it. The open to closed transition is
// monotonic for a group: a reopened symbol starts a new group instead.
type Position struct {
	UserID    string
	Symbol    string
	Asset     AssetType
	Direction Direction
	Group     int // bumps every time the book reopens after emptying
	Status    PositionStatus

	OpeningQuantity Quantity // total quantity ever opened in this group
	AvgOpenPrice    Money    // quantity-weighted average over every open
	Quantity        Quantity // still open, zero once the group is closed
	Multiplier      Quantity
	AverageCost     Money // average unit cost of the remaining lots
	CostBasis       Money // signed: negative long debit, positive short credit
	OpenedAt        Date  // open date of the group's first lot

	Mark        Money
	MarkStale   bool // no price was available, Mark is the average cost
	Unrealized  Money
	MarketValue Money
	RealizedPL  Money // realized by this group

	OpenTxIDs  []string
	CloseTxIDs []string
	Lots       []Lot
}

// BuildPositions aggregates every lot group of a replayed ledger into
// positions, in stable key order, oldest group first. Closed groups yield
// closed positions with no remaining quantity; the open group's unrealized
// P&L is computed lot by lot against the mark, so partially consumed lots
// price exactly.
func BuildPositions(userID string, r *Replay, prices Prices, currency string) []Position {
	var positions []Position
	for _, k := range r.Ledger.TradedKeys() {
		for _, grp := range r.Ledger.groupHistory(k) {
			p := Position{
				UserID:          userID,
				Symbol:          k.Symbol,
				Asset:           k.Asset,
				Direction:       grp.direction,
				Group:           grp.seq,
				Status:          PositionClosed,
				OpeningQuantity: grp.openedQty,
				AvgOpenPrice:    grp.averageOpenPrice(currency),
				Quantity:        Q(0),
				Multiplier:      grp.multiplier,
				AverageCost:     M(0, currency),
				CostBasis:       M(0, currency),
				OpenedAt:        grp.openedAt,
				Mark:            M(0, currency),
				Unrealized:      M(0, currency),
				MarketValue:     M(0, currency),
				RealizedPL:      M(0, currency).Add(grp.realized),
				OpenTxIDs:       append([]string(nil), grp.openIDs...),
				CloseTxIDs:      append([]string(nil), grp.closeIDs...),
			}
			if !grp.closed {
				p.Status = PositionOpen
				lots := r.Ledger.OpenLots(k)

				mark, ok := prices[k]
				stale := !ok
				if stale {
					mark = r.Ledger.AverageCost(k, currency)
				}

				unrealized := M(0, currency)
				for _, l := range lots {
					unrealized = unrealized.Add(
						mark.Sub(l.UnitCost).Mul(l.Quantity).Mul(l.Multiplier).Mul(grp.direction.Sign()))
				}

				basis := r.Ledger.CostBasis(k, currency)
				p.Quantity = r.Ledger.OpenQuantity(k)
				p.AverageCost = r.Ledger.AverageCost(k, currency)
				p.CostBasis = basis
				p.Mark = mark
				p.MarkStale = stale
				p.Unrealized = unrealized
				p.MarketValue = SignedMarketValue(k.Asset, basis, unrealized)
				p.Lots = lots
			}
			positions = append(positions, p)
		}
	}
	return positions
}

// MarshalJSON implements the json.Marshaler interface for Position with a
// stable field order.
func (p Position) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("user", p.UserID)
	w.Append("symbol", p.Symbol)
	w.Append("asset", p.Asset)
	w.Append("direction", p.Direction)
	w.Append("group", p.Group)
	w.Append("status", p.Status)
	w.Append("openingQuantity", p.OpeningQuantity)
	w.Append("avgOpenPrice", p.AvgOpenPrice.Decimal())
	w.Append("quantity", p.Quantity)
	w.Append("multiplier", p.Multiplier)
	w.Append("averageCost", p.AverageCost.Decimal())
	w.Append("costBasis", p.CostBasis.Decimal())
	w.Append("openedAt", p.OpenedAt)
	w.Append("mark", p.Mark.Decimal())
	w.Append("markStale", p.MarkStale)
	w.Append("unrealized", p.Unrealized.Decimal())
	w.Append("marketValue", p.MarketValue.Decimal())
	w.Append("realized", p.RealizedPL.Decimal())
	w.Append("openTxIds", p.OpenTxIDs)
	w.Optional("closeTxIds", p.CloseTxIDs)
	w.Optional("currency", p.CostBasis.Currency())
	return w.MarshalJSON()
}
