package tradelog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// The service depends on narrow consumer-side interfaces so the storage and
// quote layers stay swappable; their concrete implementations live outside
// this package.

// TransactionSource lists a user's trade transactions.
type TransactionSource interface {
	ListByUser(userID string) ([]Transaction, error)
}

// CashSource lists a user's cash transactions.
type CashSource interface {
	ListByUser(userID string) ([]CashTransaction, error)
}

// PositionSink replaces a user's derived position set wholesale.
type PositionSink interface {
	ReplaceForUser(userID string, positions []Position) error
}

// SnapshotSink upserts one snapshot per (user, date).
type SnapshotSink interface {
	Upsert(s PortfolioSnapshot) error
}

// PriceSource fetches best-effort current prices.
type PriceSource interface {
	Fetch(ctx context.Context, keys []Key) Prices
}

// Service orchestrates the engine against storage and quotes: recompute
// positions after a journal change, roll up snapshots, regenerate history.
type Service struct {
	txs       TransactionSource
	cash      CashSource
	positions PositionSink
	snapshots SnapshotSink
	prices    PriceSource
	currency  string
	log       zerolog.Logger
}

// NewService wires a Service. prices may be nil, in which case every open
// position is marked stale.
func NewService(txs TransactionSource, cash CashSource, positions PositionSink, snapshots SnapshotSink, prices PriceSource, currency string, log zerolog.Logger) *Service {
	return &Service{
		txs:       txs,
		cash:      cash,
		positions: positions,
		snapshots: snapshots,
		prices:    prices,
		currency:  currency,
		log:       log.With().Str("component", "service").Logger(),
	}
}

func (s *Service) fetchPrices(ctx context.Context, keys []Key) Prices {
	if s.prices == nil {
		return nil
	}
	return s.prices.Fetch(ctx, keys)
}

// RecomputePositions replays the user's full history, persists the derived
// positions, and returns them. It is called after every transaction create,
// edit or delete: positions are a projection, never patched in place.
func (s *Service) RecomputePositions(ctx context.Context, userID string) ([]Position, error) {
	txs, err := s.txs.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions for %s: %w", userID, err)
	}
	r := ReplayAll(txs)
	for _, id := range r.Flipped {
		// Worth a warning: an over-close usually means mis-entered data.
		s.log.Warn().Str("user", userID).Str("tx", id).Msg("close exceeded open quantity, position flipped")
	}

	positions := BuildPositions(userID, r, s.fetchPrices(ctx, r.Ledger.Keys()), s.currency)
	if err := s.positions.ReplaceForUser(userID, positions); err != nil {
		return nil, fmt.Errorf("store positions for %s: %w", userID, err)
	}
	s.log.Info().Str("user", userID).Int("positions", len(positions)).Msg("positions recomputed")
	return positions, nil
}

// SnapshotDate computes and upserts the snapshot for one date.
func (s *Service) SnapshotDate(ctx context.Context, userID string, day Date) (PortfolioSnapshot, error) {
	txs, err := s.txs.ListByUser(userID)
	if err != nil {
		return PortfolioSnapshot{}, fmt.Errorf("load transactions for %s: %w", userID, err)
	}
	cash, err := s.cash.ListByUser(userID)
	if err != nil {
		return PortfolioSnapshot{}, fmt.Errorf("load cash transactions for %s: %w", userID, err)
	}

	r := ReplayThrough(txs, day)
	snap := ComputeSnapshot(userID, day, txs, cash, s.fetchPrices(ctx, r.Ledger.Keys()), s.currency)
	if err := s.snapshots.Upsert(snap); err != nil {
		return PortfolioSnapshot{}, fmt.Errorf("upsert snapshot %s/%s: %w", userID, day, err)
	}
	return snap, nil
}

// RegenerateResult is the outcome for one date of a batch regeneration.
type RegenerateResult struct {
	Date     Date
	Snapshot PortfolioSnapshot
	Err      error
}

// RegenerateRange recomputes one snapshot per day in [from, to]. A failing
// date is reported in its result and does not stop the rest of the batch.
// Each date replays the history from scratch, so dates are independent.
func (s *Service) RegenerateRange(ctx context.Context, userID string, from, to Date) []RegenerateResult {
	var results []RegenerateResult
	for day := from; !day.After(to); day = day.Add(1) {
		snap, err := s.SnapshotDate(ctx, userID, day)
		if err != nil {
			s.log.Error().Str("user", userID).Stringer("date", day).Err(err).Msg("snapshot regeneration failed")
		}
		results = append(results, RegenerateResult{Date: day, Snapshot: snap, Err: err})
	}
	s.log.Info().Str("user", userID).Int("dates", len(results)).Msg("snapshot range regenerated")
	return results
}
