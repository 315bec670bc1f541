// Package store persists journal events, positions and snapshots behind
// repository interfaces, so the matching engine itself stays storage-agnostic
// and callers can swap SQLite for the in-memory implementation in tests.
package store

import (
	"errors"

	"github.com/tradelog/tradelog"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// TransactionRepository stores trade transactions keyed by user.
type TransactionRepository interface {
	Create(t tradelog.Transaction) error
	Get(userID, id string) (tradelog.Transaction, error)
	Update(t tradelog.Transaction) error
	Delete(userID, id string) error
	ListByUser(userID string) ([]tradelog.Transaction, error)
	ListByUserSymbol(userID, symbol string, asset tradelog.AssetType) ([]tradelog.Transaction, error)
}

// CashRepository stores cash transactions keyed by user.
type CashRepository interface {
	Create(c tradelog.CashTransaction) error
	Delete(userID, id string) error
	ListByUser(userID string) ([]tradelog.CashTransaction, error)
}

// PositionRepository stores the derived position views. Positions are a
// projection of the transaction history, so writes replace the user's whole
// set wholesale rather than patching rows.
type PositionRepository interface {
	ReplaceForUser(userID string, positions []tradelog.Position) error
	ListByUser(userID string) ([]tradelog.Position, error)
}

// SnapshotRepository stores portfolio snapshots. Upsert is keyed on
// (user, date) and fully overwrites prior values, never a partial merge.
type SnapshotRepository interface {
	Upsert(s tradelog.PortfolioSnapshot) error
	Get(userID string, day tradelog.Date) (tradelog.PortfolioSnapshot, error)
	ListRange(userID string, from, to tradelog.Date) ([]tradelog.PortfolioSnapshot, error)
}

// Store bundles the four repositories over one backing database.
type Store interface {
	Transactions() TransactionRepository
	Cash() CashRepository
	Positions() PositionRepository
	Snapshots() SnapshotRepository
	Close() error
}
