package tradelog

// MatchEvent is a Match tagged with the book it happened in, in replay order.
type MatchEvent struct {
	Key Key
	Match
}

// Replay is the result of running a transaction history through a fresh
// ledger. The same history always produces the same Replay, field for field.
type Replay struct {
	Ledger  *LotLedger
	Events  []MatchEvent
	Flipped []string // ids of transactions whose excess reopened the other side
}

// ReplayAll sorts the transactions into (activity date, id) order and applies
// them one by one to an empty ledger. The input slice is not mutated.
func ReplayAll(txs []Transaction) *Replay {
	return ReplayThrough(txs, Date{})
}

// ReplayThrough replays only the transactions dated on or before the given
// date. A zero date means no cutoff. Snapshots use this to recompute any
// historical date from scratch.
func ReplayThrough(txs []Transaction, on Date) *Replay {
	r := &Replay{Ledger: NewLotLedger()}
	for _, t := range SortTransactions(txs) {
		if !on.IsZero() && t.ActivityDate.After(on) {
			break
		}
		matches, flipped := r.Ledger.Apply(t)
		for _, m := range matches {
			r.Events = append(r.Events, MatchEvent{Key: keyOf(t), Match: m})
		}
		if flipped {
			r.Flipped = append(r.Flipped, t.ID)
		}
	}
	return r
}

// RealizedTotal sums realized P&L across all match events.
func (r *Replay) RealizedTotal(currency string) Money {
	total := M(0, currency)
	for _, e := range r.Events {
		total = total.Add(e.Realized)
	}
	return total
}

// RealizedByKey sums realized P&L per book.
func (r *Replay) RealizedByKey(k Key, currency string) Money {
	total := M(0, currency)
	for _, e := range r.Events {
		if e.Key == k {
			total = total.Add(e.Realized)
		}
	}
	return total
}

// RealizedOn sums realized P&L from matches closed on one day.
func (r *Replay) RealizedOn(day Date, currency string) Money {
	total := M(0, currency)
	for _, e := range r.Events {
		if e.CloseDate == day {
			total = total.Add(e.Realized)
		}
	}
	return total
}
