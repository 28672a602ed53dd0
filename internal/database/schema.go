// Package database manages the pooled single-file SQLite store that
// backs the ledger.
package database

import "context"

// Schema defines the ledger tables. "transaction" is a reserved word in
// SQLite and must stay quoted everywhere it appears.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    kind INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY,
    payee TEXT,
    description TEXT
);

CREATE TABLE IF NOT EXISTS postings (
    id INTEGER PRIMARY KEY,
    date TEXT NOT NULL,              -- YYYY-MM-DD
    amount INTEGER NOT NULL,         -- smallest currency unit
    account INTEGER NOT NULL,
    "transaction" INTEGER NOT NULL,
    FOREIGN KEY (account) REFERENCES accounts(id),
    FOREIGN KEY ("transaction") REFERENCES transactions(id)
);

CREATE INDEX IF NOT EXISTS idx_postings_account
    ON postings(account);

CREATE INDEX IF NOT EXISTS idx_postings_transaction
    ON postings("transaction");
`

// EnsureSchema creates the ledger tables if they do not exist. It is
// idempotent: running it against an initialized store changes nothing.
func EnsureSchema(ctx context.Context, pool *Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, Schema)
	return err
}
