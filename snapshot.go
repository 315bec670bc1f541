package tradelog

// AssetBreakdown is the per-asset-class slice of a snapshot.
type AssetBreakdown struct {
	Positions   int
	MarketValue Money
	Unrealized  Money
	Realized    Money
}

// PortfolioSnapshot is one immutable roll-up of a user's portfolio on one
// date. It is computed by replaying the full history up to that date, never
// by patching a previous snapshot, so regenerating any date is always safe
// and always yields the same values for the same inputs.
type PortfolioSnapshot struct {
	UserID       string
	SnapshotDate Date

	NetCashFlow      Money // deposits and withdrawals, margin postings excluded
	TotalRealized    Money
	TotalUnrealized  Money
	TotalMarketValue Money
	PortfolioValue   Money // NetCashFlow + TotalRealized + TotalMarketValue

	OpenPositions int
	DayRealized   Money // realized by matches closed on SnapshotDate
	StalePrices   int   // open positions marked without a live price

	ByAsset map[AssetType]AssetBreakdown
}

// ComputeSnapshot builds the snapshot for one user and date. It replays
// transactions dated on or before the date, aggregates the open books into
// positions, and rolls cash flow, realized and market value together. The
// function is pure: same inputs, same snapshot.
func ComputeSnapshot(userID string, day Date, txs []Transaction, cash []CashTransaction, prices Prices, currency string) PortfolioSnapshot {
	r := ReplayThrough(txs, day)
	positions := BuildPositions(userID, r, prices, currency)

	s := PortfolioSnapshot{
		UserID:           userID,
		SnapshotDate:     day,
		NetCashFlow:      NetCashFlow(cash, day, currency),
		TotalRealized:    r.RealizedTotal(currency),
		TotalUnrealized:  M(0, currency),
		TotalMarketValue: M(0, currency),
		DayRealized:      r.RealizedOn(day, currency),
		ByAsset:          make(map[AssetType]AssetBreakdown),
	}

	// Closed groups carry no market exposure: only open positions count
	// toward value, unrealized and the per-asset position tally.
	for _, p := range positions {
		if p.Status != PositionOpen {
			continue
		}
		s.OpenPositions++
		s.TotalUnrealized = s.TotalUnrealized.Add(p.Unrealized)
		s.TotalMarketValue = s.TotalMarketValue.Add(p.MarketValue)
		if p.MarkStale {
			s.StalePrices++
		}

		b := s.ByAsset[p.Asset]
		if b.Positions == 0 {
			b.MarketValue = M(0, currency)
			b.Unrealized = M(0, currency)
			b.Realized = M(0, currency)
		}
		b.Positions++
		b.MarketValue = b.MarketValue.Add(p.MarketValue)
		b.Unrealized = b.Unrealized.Add(p.Unrealized)
		s.ByAsset[p.Asset] = b
	}

	// Realized P&L belongs to its asset class even after the book closes.
	for _, e := range r.Events {
		b := s.ByAsset[e.Key.Asset]
		if b.Positions == 0 && b.Realized.IsZero() {
			b.MarketValue = M(0, currency)
			b.Unrealized = M(0, currency)
			b.Realized = M(0, currency)
		}
		b.Realized = b.Realized.Add(e.Realized)
		s.ByAsset[e.Key.Asset] = b
	}

	s.PortfolioValue = s.NetCashFlow.Add(s.TotalRealized).Add(s.TotalMarketValue)
	return s
}

// MarshalJSON implements the json.Marshaler interface for PortfolioSnapshot
// with a stable field order, so two generations of the same snapshot are
// byte-identical.
func (s PortfolioSnapshot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("user", s.UserID)
	w.Append("date", s.SnapshotDate)
	w.Append("netCashFlow", s.NetCashFlow.Decimal())
	w.Append("totalRealized", s.TotalRealized.Decimal())
	w.Append("totalUnrealized", s.TotalUnrealized.Decimal())
	w.Append("totalMarketValue", s.TotalMarketValue.Decimal())
	w.Append("portfolioValue", s.PortfolioValue.Decimal())
	w.Append("openPositions", s.OpenPositions)
	w.Append("dayRealized", s.DayRealized.Decimal())
	w.Append("stalePrices", s.StalePrices)
	w.Optional("currency", s.NetCashFlow.Currency())

	var breakdown jsonObjectWriter
	for _, a := range AssetTypes {
		b, ok := s.ByAsset[a]
		if !ok {
			continue
		}
		var bw jsonObjectWriter
		bw.Append("positions", b.Positions)
		bw.Append("marketValue", b.MarketValue.Decimal())
		bw.Append("unrealized", b.Unrealized.Decimal())
		bw.Append("realized", b.Realized.Decimal())
		breakdown.Append(string(a), &bw)
	}
	w.Append("byAsset", &breakdown)
	return w.MarshalJSON()
}
