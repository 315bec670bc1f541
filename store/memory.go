package store

import (
	"sort"
	"sync"

	"github.com/tradelog/tradelog"
)

// MemoryStore is an in-memory Store for tests and ephemeral runs. It honors
// the same contracts as the SQLite implementation, including the wholesale
// position replace and the snapshot upsert.
type MemoryStore struct {
	mu        sync.RWMutex
	txs       map[string]tradelog.Transaction
	cash      map[string]tradelog.CashTransaction
	positions map[string][]tradelog.Position
	snapshots map[string]map[tradelog.Date]tradelog.PortfolioSnapshot
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txs:       make(map[string]tradelog.Transaction),
		cash:      make(map[string]tradelog.CashTransaction),
		positions: make(map[string][]tradelog.Position),
		snapshots: make(map[string]map[tradelog.Date]tradelog.PortfolioSnapshot),
	}
}

func (m *MemoryStore) Transactions() TransactionRepository { return (*memTxRepo)(m) }
func (m *MemoryStore) Cash() CashRepository                { return (*memCashRepo)(m) }
func (m *MemoryStore) Positions() PositionRepository       { return (*memPosRepo)(m) }
func (m *MemoryStore) Snapshots() SnapshotRepository       { return (*memSnapRepo)(m) }
func (m *MemoryStore) Close() error                        { return nil }

type memTxRepo MemoryStore

func (m *memTxRepo) Create(t tradelog.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[t.ID] = t
	return nil
}

func (m *memTxRepo) Get(userID, id string) (tradelog.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.txs[id]
	if !ok || t.UserID != userID {
		return tradelog.Transaction{}, ErrNotFound
	}
	return t, nil
}

func (m *memTxRepo) Update(t tradelog.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.txs[t.ID]
	if !ok || old.UserID != t.UserID {
		return ErrNotFound
	}
	m.txs[t.ID] = t
	return nil
}

func (m *memTxRepo) Delete(userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(m.txs, id)
	return nil
}

func (m *memTxRepo) ListByUser(userID string) ([]tradelog.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txs []tradelog.Transaction
	for _, t := range m.txs {
		if t.UserID == userID {
			txs = append(txs, t)
		}
	}
	return tradelog.SortTransactions(txs), nil
}

func (m *memTxRepo) ListByUserSymbol(userID, symbol string, asset tradelog.AssetType) ([]tradelog.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txs []tradelog.Transaction
	for _, t := range m.txs {
		if t.UserID == userID && t.Symbol == symbol && t.Asset == asset {
			txs = append(txs, t)
		}
	}
	return tradelog.SortTransactions(txs), nil
}

type memCashRepo MemoryStore

func (m *memCashRepo) Create(c tradelog.CashTransaction) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cash[c.ID] = c
	return nil
}

func (m *memCashRepo) Delete(userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cash[id]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(m.cash, id)
	return nil
}

func (m *memCashRepo) ListByUser(userID string) ([]tradelog.CashTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var cash []tradelog.CashTransaction
	for _, c := range m.cash {
		if c.UserID == userID {
			cash = append(cash, c)
		}
	}
	return tradelog.SortCashTransactions(cash), nil
}

type memPosRepo MemoryStore

func (m *memPosRepo) ReplaceForUser(userID string, positions []tradelog.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]tradelog.Position, len(positions))
	copy(stored, positions)
	m.positions[userID] = stored
	return nil
}

func (m *memPosRepo) ListByUser(userID string) ([]tradelog.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.positions[userID]
	positions := make([]tradelog.Position, len(stored))
	copy(positions, stored)
	return positions, nil
}

type memSnapRepo MemoryStore

func (m *memSnapRepo) Upsert(s tradelog.PortfolioSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDate, ok := m.snapshots[s.UserID]
	if !ok {
		byDate = make(map[tradelog.Date]tradelog.PortfolioSnapshot)
		m.snapshots[s.UserID] = byDate
	}
	byDate[s.SnapshotDate] = s
	return nil
}

func (m *memSnapRepo) Get(userID string, day tradelog.Date) (tradelog.PortfolioSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[userID][day]
	if !ok {
		return tradelog.PortfolioSnapshot{}, ErrNotFound
	}
	return s, nil
}

func (m *memSnapRepo) ListRange(userID string, from, to tradelog.Date) ([]tradelog.PortfolioSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var snaps []tradelog.PortfolioSnapshot
	for day, s := range m.snapshots[userID] {
		if day.Before(from) || day.After(to) {
			continue
		}
		snaps = append(snaps, s)
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].SnapshotDate.Before(snaps[j].SnapshotDate)
	})
	return snaps, nil
}
