package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradelog/tradelog"
)

// SQLiteStore implements Store over one SQLite database.
type SQLiteStore struct {
	conn     *sql.DB
	txRepo   *txRepository
	cashRepo *cashRepository
	posRepo  *positionRepository
	snapRepo *snapshotRepository
}

func newSQLiteStore(conn *sql.DB, log zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		conn:     conn,
		txRepo:   &txRepository{conn: conn, log: log.With().Str("repo", "transaction").Logger()},
		cashRepo: &cashRepository{conn: conn, log: log.With().Str("repo", "cash").Logger()},
		posRepo:  &positionRepository{conn: conn, log: log.With().Str("repo", "position").Logger()},
		snapRepo: &snapshotRepository{conn: conn, log: log.With().Str("repo", "snapshot").Logger()},
	}
}

func (s *SQLiteStore) Transactions() TransactionRepository { return s.txRepo }
func (s *SQLiteStore) Cash() CashRepository                { return s.cashRepo }
func (s *SQLiteStore) Positions() PositionRepository       { return s.posRepo }
func (s *SQLiteStore) Snapshots() SnapshotRepository       { return s.snapRepo }
func (s *SQLiteStore) Close() error                        { return s.conn.Close() }

func scanMoney(s, currency string) (tradelog.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return tradelog.Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return tradelog.M(d, currency), nil
}

func scanQuantity(s string) (tradelog.Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return tradelog.Quantity{}, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	return tradelog.Q(d), nil
}

func scanDate(s string) (tradelog.Date, error) {
	if s == "" {
		return tradelog.Date{}, nil
	}
	return tradelog.ParseDate(s)
}

func dateString(d tradelog.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// --- transactions ---

type txRepository struct {
	conn *sql.DB
	log  zerolog.Logger
}

const txColumns = `id, user_id, asset, symbol, side, action, quantity, price,
	multiplier, fees, currency, activity_date, option_type, strike, expiration, note`

func (r *txRepository) Create(t tradelog.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := r.conn.Exec(`INSERT INTO transactions (`+txColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Asset), t.Symbol, string(t.Side), string(t.Action),
		t.Quantity.String(), t.Price.Decimal().String(), t.Multiplier.String(),
		t.Fees.Decimal().String(), t.Price.Currency(), t.ActivityDate.String(),
		string(t.OptionType), t.Strike.Decimal().String(), dateString(t.Expiration), t.Note)
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	r.log.Debug().Str("id", t.ID).Str("symbol", t.Symbol).Msg("transaction created")
	return nil
}

func (r *txRepository) Get(userID, id string) (tradelog.Transaction, error) {
	row := r.conn.QueryRow(`SELECT `+txColumns+` FROM transactions
		WHERE user_id = ? AND id = ?`, userID, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return tradelog.Transaction{}, ErrNotFound
	}
	return t, err
}

func (r *txRepository) Update(t tradelog.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	res, err := r.conn.Exec(`UPDATE transactions SET asset = ?, symbol = ?, side = ?,
		action = ?, quantity = ?, price = ?, multiplier = ?, fees = ?, currency = ?,
		activity_date = ?, option_type = ?, strike = ?, expiration = ?, note = ?
		WHERE user_id = ? AND id = ?`,
		string(t.Asset), t.Symbol, string(t.Side), string(t.Action),
		t.Quantity.String(), t.Price.Decimal().String(), t.Multiplier.String(),
		t.Fees.Decimal().String(), t.Price.Currency(), t.ActivityDate.String(),
		string(t.OptionType), t.Strike.Decimal().String(), dateString(t.Expiration), t.Note,
		t.UserID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) Delete(userID, id string) error {
	res, err := r.conn.Exec(`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) ListByUser(userID string) ([]tradelog.Transaction, error) {
	return r.list(`SELECT `+txColumns+` FROM transactions
		WHERE user_id = ? ORDER BY activity_date, id`, userID)
}

func (r *txRepository) ListByUserSymbol(userID, symbol string, asset tradelog.AssetType) ([]tradelog.Transaction, error) {
	return r.list(`SELECT `+txColumns+` FROM transactions
		WHERE user_id = ? AND symbol = ? AND asset = ?
		ORDER BY activity_date, id`, userID, symbol, string(asset))
}

func (r *txRepository) list(query string, args ...any) ([]tradelog.Transaction, error) {
	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []tradelog.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (tradelog.Transaction, error) {
	var (
		t                                        tradelog.Transaction
		asset, side, action, optionType          string
		qty, price, mult, fees, strike, currency string
		activityDate, expiration                 string
	)
	err := row.Scan(&t.ID, &t.UserID, &asset, &t.Symbol, &side, &action,
		&qty, &price, &mult, &fees, &currency, &activityDate,
		&optionType, &strike, &expiration, &t.Note)
	if err != nil {
		return t, err
	}
	t.Asset = tradelog.AssetType(asset)
	t.Side = tradelog.Side(side)
	t.Action = tradelog.Action(action)
	t.OptionType = tradelog.OptionType(optionType)
	if t.Quantity, err = scanQuantity(qty); err != nil {
		return t, err
	}
	if t.Multiplier, err = scanQuantity(mult); err != nil {
		return t, err
	}
	if t.Price, err = scanMoney(price, currency); err != nil {
		return t, err
	}
	if t.Fees, err = scanMoney(fees, currency); err != nil {
		return t, err
	}
	if t.Strike, err = scanMoney(strike, currency); err != nil {
		return t, err
	}
	if t.ActivityDate, err = scanDate(activityDate); err != nil {
		return t, err
	}
	if t.Expiration, err = scanDate(expiration); err != nil {
		return t, err
	}
	return t, nil
}

// --- cash transactions ---

type cashRepository struct {
	conn *sql.DB
	log  zerolog.Logger
}

func (r *cashRepository) Create(c tradelog.CashTransaction) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.conn.Exec(`INSERT INTO cash_transactions
		(id, user_id, code, amount, currency, tx_date, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, string(c.Code), c.Amount.Decimal().String(),
		c.Amount.Currency(), c.Date.String(), c.Note)
	if err != nil {
		return fmt.Errorf("insert cash transaction %s: %w", c.ID, err)
	}
	r.log.Debug().Str("id", c.ID).Str("code", string(c.Code)).Msg("cash transaction created")
	return nil
}

func (r *cashRepository) Delete(userID, id string) error {
	res, err := r.conn.Exec(`DELETE FROM cash_transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete cash transaction %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cashRepository) ListByUser(userID string) ([]tradelog.CashTransaction, error) {
	rows, err := r.conn.Query(`SELECT id, user_id, code, amount, currency, tx_date, note
		FROM cash_transactions WHERE user_id = ? ORDER BY tx_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cash transactions: %w", err)
	}
	defer rows.Close()

	var cash []tradelog.CashTransaction
	for rows.Next() {
		var (
			c                      tradelog.CashTransaction
			code, amount, currency string
			day                    string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &code, &amount, &currency, &day, &c.Note); err != nil {
			return nil, fmt.Errorf("scan cash transaction: %w", err)
		}
		c.Code = tradelog.CashCode(code)
		if c.Amount, err = scanMoney(amount, currency); err != nil {
			return nil, err
		}
		if c.Date, err = scanDate(day); err != nil {
			return nil, err
		}
		cash = append(cash, c)
	}
	return cash, rows.Err()
}

// --- positions ---

type positionRepository struct {
	conn *sql.DB
	log  zerolog.Logger
}

// ReplaceForUser swaps the user's whole position set in one transaction.
// Positions are derived data, so a partial update is never meaningful.
func (r *positionRepository) ReplaceForUser(userID string, positions []tradelog.Position) error {
	tx, err := r.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin position replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM positions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}
	for _, p := range positions {
		lots, err := json.Marshal(p.Lots)
		if err != nil {
			return fmt.Errorf("encode lots for %s: %w", p.Symbol, err)
		}
		openIDs, err := json.Marshal(p.OpenTxIDs)
		if err != nil {
			return fmt.Errorf("encode open tx ids for %s: %w", p.Symbol, err)
		}
		closeIDs, err := json.Marshal(p.CloseTxIDs)
		if err != nil {
			return fmt.Errorf("encode close tx ids for %s: %w", p.Symbol, err)
		}
		_, err = tx.Exec(`INSERT INTO positions
			(user_id, symbol, asset, direction, lot_group, status,
			 opening_qty, avg_open_price, quantity, multiplier,
			 average_cost, cost_basis, opened_at, mark, mark_stale,
			 unrealized, market_value, realized, currency,
			 open_tx_ids, close_tx_ids, lots)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.UserID, p.Symbol, string(p.Asset), string(p.Direction), p.Group,
			string(p.Status), p.OpeningQuantity.String(), p.AvgOpenPrice.Decimal().String(),
			p.Quantity.String(), p.Multiplier.String(),
			p.AverageCost.Decimal().String(), p.CostBasis.Decimal().String(),
			p.OpenedAt.String(), p.Mark.Decimal().String(), boolInt(p.MarkStale),
			p.Unrealized.Decimal().String(), p.MarketValue.Decimal().String(),
			p.RealizedPL.Decimal().String(), p.CostBasis.Currency(),
			string(openIDs), string(closeIDs), string(lots))
		if err != nil {
			return fmt.Errorf("insert position %s/%s: %w", p.Symbol, p.Asset, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit position replace: %w", err)
	}
	r.log.Debug().Str("user", userID).Int("count", len(positions)).Msg("positions replaced")
	return nil
}

func (r *positionRepository) ListByUser(userID string) ([]tradelog.Position, error) {
	rows, err := r.conn.Query(`SELECT user_id, symbol, asset, direction, lot_group,
		status, opening_qty, avg_open_price, quantity, multiplier,
		average_cost, cost_basis, opened_at, mark, mark_stale,
		unrealized, market_value, realized, currency, open_tx_ids, close_tx_ids, lots
		FROM positions WHERE user_id = ? ORDER BY symbol, asset, lot_group`, userID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var positions []tradelog.Position
	for rows.Next() {
		var (
			p                                 tradelog.Position
			asset, direction, status          string
			openingQty, avgOpen               string
			qty, mult, avg, basis, mark       string
			unrealized, marketValue, realized string
			openedAt, currency                string
			openIDs, closeIDs, lots           string
			stale                             int
		)
		err := rows.Scan(&p.UserID, &p.Symbol, &asset, &direction, &p.Group,
			&status, &openingQty, &avgOpen, &qty, &mult, &avg, &basis, &openedAt,
			&mark, &stale, &unrealized, &marketValue, &realized, &currency,
			&openIDs, &closeIDs, &lots)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		p.Asset = tradelog.AssetType(asset)
		p.Direction = tradelog.Direction(direction)
		p.Status = tradelog.PositionStatus(status)
		p.MarkStale = stale != 0
		if p.OpeningQuantity, err = scanQuantity(openingQty); err != nil {
			return nil, err
		}
		if p.AvgOpenPrice, err = scanMoney(avgOpen, currency); err != nil {
			return nil, err
		}
		if p.Quantity, err = scanQuantity(qty); err != nil {
			return nil, err
		}
		if p.Multiplier, err = scanQuantity(mult); err != nil {
			return nil, err
		}
		if p.AverageCost, err = scanMoney(avg, currency); err != nil {
			return nil, err
		}
		if p.CostBasis, err = scanMoney(basis, currency); err != nil {
			return nil, err
		}
		if p.Mark, err = scanMoney(mark, currency); err != nil {
			return nil, err
		}
		if p.Unrealized, err = scanMoney(unrealized, currency); err != nil {
			return nil, err
		}
		if p.MarketValue, err = scanMoney(marketValue, currency); err != nil {
			return nil, err
		}
		if p.RealizedPL, err = scanMoney(realized, currency); err != nil {
			return nil, err
		}
		if p.OpenedAt, err = scanDate(openedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(openIDs), &p.OpenTxIDs); err != nil {
			return nil, fmt.Errorf("decode open tx ids for %s: %w", p.Symbol, err)
		}
		if err := json.Unmarshal([]byte(closeIDs), &p.CloseTxIDs); err != nil {
			return nil, fmt.Errorf("decode close tx ids for %s: %w", p.Symbol, err)
		}
		if err := json.Unmarshal([]byte(lots), &p.Lots); err != nil {
			return nil, fmt.Errorf("decode lots for %s: %w", p.Symbol, err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- snapshots ---

type snapshotRepository struct {
	conn *sql.DB
	log  zerolog.Logger
}

// Upsert writes a snapshot, fully overwriting any prior row for the same
// (user, date). Running it twice with the same snapshot is a no-op.
func (r *snapshotRepository) Upsert(s tradelog.PortfolioSnapshot) error {
	byAsset, err := json.Marshal(s.ByAsset)
	if err != nil {
		return fmt.Errorf("encode asset breakdown: %w", err)
	}
	_, err = r.conn.Exec(`INSERT INTO snapshots
		(user_id, snapshot_date, net_cash_flow, total_realized, total_unrealized,
		 total_market_value, portfolio_value, open_positions, day_realized,
		 stale_prices, currency, by_asset, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, snapshot_date) DO UPDATE SET
			net_cash_flow = excluded.net_cash_flow,
			total_realized = excluded.total_realized,
			total_unrealized = excluded.total_unrealized,
			total_market_value = excluded.total_market_value,
			portfolio_value = excluded.portfolio_value,
			open_positions = excluded.open_positions,
			day_realized = excluded.day_realized,
			stale_prices = excluded.stale_prices,
			currency = excluded.currency,
			by_asset = excluded.by_asset,
			generated_at = excluded.generated_at`,
		s.UserID, s.SnapshotDate.String(),
		s.NetCashFlow.Decimal().String(), s.TotalRealized.Decimal().String(),
		s.TotalUnrealized.Decimal().String(), s.TotalMarketValue.Decimal().String(),
		s.PortfolioValue.Decimal().String(), s.OpenPositions,
		s.DayRealized.Decimal().String(), s.StalePrices,
		s.NetCashFlow.Currency(), string(byAsset),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert snapshot %s/%s: %w", s.UserID, s.SnapshotDate, err)
	}
	r.log.Debug().Str("user", s.UserID).Stringer("date", s.SnapshotDate).Msg("snapshot upserted")
	return nil
}

func (r *snapshotRepository) Get(userID string, day tradelog.Date) (tradelog.PortfolioSnapshot, error) {
	row := r.conn.QueryRow(`SELECT user_id, snapshot_date, net_cash_flow, total_realized,
		total_unrealized, total_market_value, portfolio_value, open_positions,
		day_realized, stale_prices, currency, by_asset
		FROM snapshots WHERE user_id = ? AND snapshot_date = ?`, userID, day.String())
	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return tradelog.PortfolioSnapshot{}, ErrNotFound
	}
	return s, err
}

func (r *snapshotRepository) ListRange(userID string, from, to tradelog.Date) ([]tradelog.PortfolioSnapshot, error) {
	rows, err := r.conn.Query(`SELECT user_id, snapshot_date, net_cash_flow, total_realized,
		total_unrealized, total_market_value, portfolio_value, open_positions,
		day_realized, stale_prices, currency, by_asset
		FROM snapshots WHERE user_id = ? AND snapshot_date >= ? AND snapshot_date <= ?
		ORDER BY snapshot_date`, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []tradelog.PortfolioSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

func scanSnapshot(row rowScanner) (tradelog.PortfolioSnapshot, error) {
	var (
		s                                   tradelog.PortfolioSnapshot
		day, cashFlow, realized, unrealized string
		marketValue, value, dayRealized     string
		currency, byAsset                   string
	)
	err := row.Scan(&s.UserID, &day, &cashFlow, &realized, &unrealized,
		&marketValue, &value, &s.OpenPositions, &dayRealized, &s.StalePrices,
		&currency, &byAsset)
	if err != nil {
		return s, err
	}
	if s.SnapshotDate, err = scanDate(day); err != nil {
		return s, err
	}
	if s.NetCashFlow, err = scanMoney(cashFlow, currency); err != nil {
		return s, err
	}
	if s.TotalRealized, err = scanMoney(realized, currency); err != nil {
		return s, err
	}
	if s.TotalUnrealized, err = scanMoney(unrealized, currency); err != nil {
		return s, err
	}
	if s.TotalMarketValue, err = scanMoney(marketValue, currency); err != nil {
		return s, err
	}
	if s.PortfolioValue, err = scanMoney(value, currency); err != nil {
		return s, err
	}
	if s.DayRealized, err = scanMoney(dayRealized, currency); err != nil {
		return s, err
	}
	if err := json.Unmarshal([]byte(byAsset), &s.ByAsset); err != nil {
		return s, fmt.Errorf("decode asset breakdown: %w", err)
	}
	return s, nil
}
