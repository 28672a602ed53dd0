// Package ledger implements the double-entry ledger over the pooled
// SQLite store: balance-enforced transaction creation, reads, and the
// administrative account operations referential integrity depends on.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/acerempel/monies/internal/database"
	"github.com/acerempel/monies/internal/models"
)

const dateLayout = "2006-01-02"

// PostingInput is one leg of a transaction to be created.
type PostingInput struct {
	AccountID int64
	Amount    int64
	Date      time.Time
}

// TransactionDetail is a transaction with its postings expanded.
type TransactionDetail struct {
	models.Transaction
	Postings []models.Posting `json:"postings"`
}

// Repository translates ledger operations into SQL against the pool.
type Repository struct {
	pool *database.Pool
}

func NewRepository(pool *database.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateTransaction atomically records a transaction and its postings,
// returning the new transaction id. The posting set is validated before
// the store is touched: at least two legs, amounts summing to zero.
// Either every row persists or none do.
func (r *Repository) CreateTransaction(ctx context.Context, payee, description string, postings []PostingInput) (int64, error) {
	if len(postings) < 2 {
		return 0, fmt.Errorf("%w (got %d)", ErrTooFewPostings, len(postings))
	}
	var sum int64
	for _, p := range postings {
		sum += p.Amount
	}
	if sum != 0 {
		return 0, fmt.Errorf("%w (off by %+d)", ErrUnbalanced, sum)
	}

	var id int64
	err := r.pool.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (payee, description) VALUES (?, ?)`,
			payee, description)
		if err != nil {
			return storeErr("insert transaction", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return storeErr("insert transaction", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO postings (date, amount, account, "transaction") VALUES (?, ?, ?, ?)`)
		if err != nil {
			return storeErr("prepare posting insert", err)
		}
		defer stmt.Close()

		for _, p := range postings {
			if _, err := stmt.ExecContext(ctx, p.Date.Format(dateLayout), p.Amount, p.AccountID, id); err != nil {
				if isForeignKeyViolation(err) {
					return fmt.Errorf("account %d: %w", p.AccountID, ErrAccountNotFound)
				}
				return storeErr("insert posting", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListTransactions returns every transaction, ordered by id. Postings
// are not expanded.
func (r *Repository) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx,
		`SELECT id, COALESCE(payee, ''), COALESCE(description, '') FROM transactions ORDER BY id`)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	defer rows.Close()

	txns := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Payee, &t.Description); err != nil {
			return nil, storeErr("scan transaction", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list transactions", err)
	}
	return txns, nil
}

// GetTransaction returns one transaction with its postings.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (*TransactionDetail, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var detail TransactionDetail
	err = conn.QueryRowContext(ctx,
		`SELECT id, COALESCE(payee, ''), COALESCE(description, '') FROM transactions WHERE id = ?`, id).
		Scan(&detail.ID, &detail.Payee, &detail.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, ErrTransactionNotFound)
	}
	if err != nil {
		return nil, storeErr("get transaction", err)
	}

	rows, err := conn.QueryContext(ctx,
		`SELECT id, date, amount, account, "transaction" FROM postings WHERE "transaction" = ? ORDER BY id`, id)
	if err != nil {
		return nil, storeErr("list postings", err)
	}
	defer rows.Close()

	detail.Postings = []models.Posting{}
	for rows.Next() {
		var (
			p    models.Posting
			date string
		)
		if err := rows.Scan(&p.ID, &date, &p.Amount, &p.Account, &p.Transaction); err != nil {
			return nil, storeErr("scan posting", err)
		}
		p.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, storeErr("parse posting date", err)
		}
		detail.Postings = append(detail.Postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list postings", err)
	}
	return &detail, nil
}

// GetAccountBalance computes the sum of all posting amounts against the
// account. The balance is derived at query time, never stored.
func (r *Repository) GetAccountBalance(ctx context.Context, accountID int64) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var balance int64
	err = conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM accounts a
		LEFT JOIN postings p ON p.account = a.id
		WHERE a.id = ?
		GROUP BY a.id`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
	}
	if err != nil {
		return 0, storeErr("account balance", err)
	}
	return balance, nil
}

// CreateAccount records a new account and returns its id. Accounts are
// created ahead of transactions that post to them.
func (r *Repository) CreateAccount(ctx context.Context, name string, kind models.AccountKind) (int64, error) {
	if name == "" {
		return 0, ErrEmptyAccountName
	}
	if !kind.Valid() {
		return 0, fmt.Errorf("%w %d", ErrInvalidAccountKind, int(kind))
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx,
		`INSERT INTO accounts (name, kind) VALUES (?, ?)`, name, int(kind))
	if err != nil {
		return 0, storeErr("insert account", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert account", err)
	}
	return id, nil
}

// GetAccount fetches one account by id.
func (r *Repository) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var a models.Account
	err = conn.QueryRowContext(ctx,
		`SELECT id, name, kind FROM accounts WHERE id = ?`, accountID).
		Scan(&a.ID, &a.Name, &a.Kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
	}
	if err != nil {
		return nil, storeErr("get account", err)
	}
	return &a, nil
}

// ListAccounts returns every account, ordered by id.
func (r *Repository) ListAccounts(ctx context.Context) ([]models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `SELECT id, name, kind FROM accounts ORDER BY id`)
	if err != nil {
		return nil, storeErr("list accounts", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Kind); err != nil {
			return nil, storeErr("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list accounts", err)
	}
	return accounts, nil
}

// RenameAccount changes an account's name, the only mutable account
// field once postings reference it.
func (r *Repository) RenameAccount(ctx context.Context, accountID int64, name string) error {
	if name == "" {
		return ErrEmptyAccountName
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx,
		`UPDATE accounts SET name = ? WHERE id = ?`, name, accountID)
	if err != nil {
		return storeErr("rename account", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr("rename account", err)
	}
	if affected == 0 {
		return fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
