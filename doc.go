// Package tradelog provides the matching and profit-and-loss engine behind a
// personal trading journal. Users record buy/sell transactions across stocks,
// options, crypto, and futures; the package derives open and closed positions,
// their cost basis, and realized/unrealized P&L, and rolls everything into
// daily portfolio snapshots.
//
// The core functionalities include:
//   - Transaction Records: immutable, validated trade and cash events ordered
//     by activity date (ULID ids break same-day ties deterministically).
//   - Lot Ledger: per (symbol, asset class) FIFO queues of open lots, consumed
//     oldest-first by closing transactions, with an explicit flip policy when
//     a close exceeds the open quantity.
//   - Matching Engine: a pure replay of a user's transaction history producing
//     realized-P&L match events and position lot groups. Matching never crosses
//     symbols or asset classes and is deterministic under replay.
//   - Position Aggregation: folding lot groups and injected market prices into
//     queryable Position views, degrading gracefully when prices are missing.
//   - Snapshot Roll-up: one immutable portfolio snapshot per (user, date),
//     recomputable for any historical date from the transaction history alone.
//
// This package serves as the foundational logic for the `tj` command-line
// tool; persistence, quotes, and insight generation live in subpackages and
// are injected at the boundary.
package tradelog
