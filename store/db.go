package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	asset         TEXT NOT NULL,
	symbol        TEXT NOT NULL,
	side          TEXT NOT NULL,
	action        TEXT NOT NULL DEFAULT '',
	quantity      TEXT NOT NULL,
	price         TEXT NOT NULL,
	multiplier    TEXT NOT NULL,
	fees          TEXT NOT NULL,
	currency      TEXT NOT NULL DEFAULT '',
	activity_date TEXT NOT NULL,
	option_type   TEXT NOT NULL DEFAULT '',
	strike        TEXT NOT NULL DEFAULT '0',
	expiration    TEXT NOT NULL DEFAULT '',
	note          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_transactions_replay
	ON transactions(user_id, activity_date, id);
CREATE INDEX IF NOT EXISTS idx_transactions_book
	ON transactions(user_id, symbol, asset);

CREATE TABLE IF NOT EXISTS cash_transactions (
	id       TEXT PRIMARY KEY,
	user_id  TEXT NOT NULL,
	code     TEXT NOT NULL,
	amount   TEXT NOT NULL,
	currency TEXT NOT NULL DEFAULT '',
	tx_date  TEXT NOT NULL,
	note     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_cash_user ON cash_transactions(user_id, tx_date);

CREATE TABLE IF NOT EXISTS positions (
	user_id        TEXT NOT NULL,
	symbol         TEXT NOT NULL,
	asset          TEXT NOT NULL,
	direction      TEXT NOT NULL,
	lot_group      INTEGER NOT NULL,
	status         TEXT NOT NULL,
	opening_qty    TEXT NOT NULL,
	avg_open_price TEXT NOT NULL,
	quantity       TEXT NOT NULL,
	multiplier     TEXT NOT NULL,
	average_cost   TEXT NOT NULL,
	cost_basis     TEXT NOT NULL,
	opened_at      TEXT NOT NULL,
	mark           TEXT NOT NULL,
	mark_stale     INTEGER NOT NULL,
	unrealized     TEXT NOT NULL,
	market_value   TEXT NOT NULL,
	realized       TEXT NOT NULL,
	currency       TEXT NOT NULL DEFAULT '',
	open_tx_ids    TEXT NOT NULL,
	close_tx_ids   TEXT NOT NULL,
	lots           TEXT NOT NULL,
	PRIMARY KEY (user_id, symbol, asset, lot_group)
);

CREATE TABLE IF NOT EXISTS snapshots (
	user_id            TEXT NOT NULL,
	snapshot_date      TEXT NOT NULL,
	net_cash_flow      TEXT NOT NULL,
	total_realized     TEXT NOT NULL,
	total_unrealized   TEXT NOT NULL,
	total_market_value TEXT NOT NULL,
	portfolio_value    TEXT NOT NULL,
	open_positions     INTEGER NOT NULL,
	day_realized       TEXT NOT NULL,
	stale_prices       INTEGER NOT NULL,
	currency           TEXT NOT NULL DEFAULT '',
	by_asset           TEXT NOT NULL,
	generated_at       TEXT NOT NULL,
	PRIMARY KEY (user_id, snapshot_date)
);
`

// Open opens (or creates) the journal database and applies the schema.
// The connection string enables WAL so reads never block the single writer.
func Open(path string, log zerolog.Logger) (*SQLiteStore, error) {
	if !strings.HasPrefix(path, "file:") {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		path = abs
	}

	connStr := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single writer in practice. A small pool is enough and keeps SQLite
	// lock contention low.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("database opened")
	return newSQLiteStore(conn, log), nil
}
