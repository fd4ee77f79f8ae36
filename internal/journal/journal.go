// Package journal persists an append-only record of every attempted
// order in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Record is one trade log row. Every submission attempt produces
// exactly one, whatever its outcome.
type Record struct {
	Ts          time.Time
	Symbol      string
	Side        string
	Price       float64
	Size        float64
	Allocation  float64
	RiskPct     float64
	Leverage    float64
	SignalType  string
	Status      string
	Notes       string
	BalanceUSD  float64
	RealizedPnL float64
}

// Journal wraps the SQLite trade log.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the trade log at path with WAL mode enabled.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			price REAL NOT NULL,
			size REAL NOT NULL,
			allocation REAL NOT NULL,
			risk_pct REAL NOT NULL,
			leverage REAL NOT NULL,
			signal_type TEXT NOT NULL,
			status TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			balance_usd REAL NOT NULL,
			realized_pnl REAL NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create trades table: %w", err)
	}
	return &Journal{db: db}, nil
}

// Append writes one record.
func (j *Journal) Append(ctx context.Context, r Record) error {
	ts := r.Ts
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
			(ts, symbol, side, price, size, allocation, risk_pct, leverage,
			 signal_type, status, notes, balance_usd, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.UnixMilli(), r.Symbol, r.Side, r.Price, r.Size, r.Allocation,
		r.RiskPct, r.Leverage, r.SignalType, r.Status, r.Notes,
		r.BalanceUSD, r.RealizedPnL,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Recent returns up to n most recent records, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT ts, symbol, side, price, size, allocation, risk_pct, leverage,
		       signal_type, status, notes, balance_usd, realized_pnl
		FROM trades ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var ms int64
		if err := rows.Scan(&ms, &r.Symbol, &r.Side, &r.Price, &r.Size,
			&r.Allocation, &r.RiskPct, &r.Leverage, &r.SignalType,
			&r.Status, &r.Notes, &r.BalanceUSD, &r.RealizedPnL); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		r.Ts = time.UnixMilli(ms)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (j *Journal) Close() error { return j.db.Close() }
