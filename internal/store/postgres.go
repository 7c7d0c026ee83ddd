/**
 * @description
 * This file provides the PostgreSQL implementation of the `Store` interface.
 * It contains all the SQL queries for the billing account, bill, and bill
 * summary tables.
 *
 * Transactions use pgx Begin/Rollback/Commit; account reads inside a
 * transaction take `FOR UPDATE` so concurrent operations on the same account
 * are serialized at the row, while operations on different accounts proceed
 * in parallel.
 *
 * @dependencies
 * - context, errors, fmt, strings, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - github.com/google/uuid, github.com/shopspring/decimal: Identifier and
 *   monetary column types.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cbm/billing-service/internal/domain"
)

// pgQuerier is the subset of pgx operations shared by a pool and a
// transaction, so the same queries run in both scopes.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the pgx-backed implementation of Store.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore on top of an existing pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the billing tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS billing_accounts (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			current_balance NUMERIC(19,4) NOT NULL,
			bill_cycle_day INT NOT NULL,
			last_bill_date DATE,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bills (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES billing_accounts (id),
			amount NUMERIC(19,4) NOT NULL,
			generation_date DATE NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bill_summaries (
			id UUID PRIMARY KEY REFERENCES bills (id),
			status TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Accounts() AccountStore {
	return &postgresAccounts{q: s.db}
}

func (s *PostgresStore) Bills() BillStore {
	return &postgresBills{q: s.db}
}

func (s *PostgresStore) BillSummaries() BillSummaryStore {
	return &postgresSummaries{q: s.db}
}

// WithinTx runs fn inside one database transaction. Account reads performed
// through the transaction-bound store lock the selected rows.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// postgresTx is the transaction-bound view of the store.
type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Accounts() AccountStore {
	return &postgresAccounts{q: t.tx, locking: true}
}

func (t *postgresTx) Bills() BillStore { return &postgresBills{q: t.tx} }

func (t *postgresTx) BillSummaries() BillSummaryStore { return &postgresSummaries{q: t.tx} }

func (t *postgresTx) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

const accountColumns = `id, name, current_balance, bill_cycle_day, last_bill_date, status, created_at, updated_at`

type postgresAccounts struct {
	q       pgQuerier
	locking bool
}

func (r *postgresAccounts) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM billing_accounts WHERE id = $1`
	if r.locking {
		// Lock the row so the precondition check and the update that follows
		// observe the same snapshot.
		query += ` FOR UPDATE`
	}
	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *postgresAccounts) Save(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO billing_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			current_balance = EXCLUDED.current_balance,
			bill_cycle_day = EXCLUDED.bill_cycle_day,
			last_bill_date = EXCLUDED.last_bill_date,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.q.Exec(ctx, query,
		account.ID,
		account.Name,
		account.CurrentBalance,
		account.BillCycleDay,
		account.LastBillDate,
		string(account.Status),
		account.CreatedAt,
		account.UpdatedAt,
	)
	return err
}

func (r *postgresAccounts) Search(ctx context.Context, filter AccountFilter, page, size int, sortField SortField) ([]domain.Account, int64, error) {
	where, args := buildAccountWhere(filter.Clauses())

	var total int64
	countQuery := `SELECT COUNT(*) FROM billing_accounts` + where
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT %s FROM billing_accounts%s ORDER BY %s ASC, name ASC LIMIT $%d OFFSET $%d`,
		accountColumns, where, sortColumn(sortField), len(args)+1, len(args)+2,
	)
	rows, err := r.q.Query(ctx, query, append(args, size, page*size)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// buildAccountWhere compiles the filter clauses into a SQL WHERE fragment and
// its positional arguments. An empty clause list produces an empty fragment.
func buildAccountWhere(clauses []Clause) (string, []any) {
	if len(clauses) == 0 {
		return "", nil
	}
	var (
		conditions []string
		args       []any
	)
	for _, clause := range clauses {
		placeholder := len(args) + 1
		switch clause.Op {
		case OpContains:
			conditions = append(conditions, fmt.Sprintf("%s LIKE '%%' || $%d || '%%'", clause.Field, placeholder))
			args = append(args, clause.Value)
		default:
			conditions = append(conditions, fmt.Sprintf("%s = $%d", clause.Field, placeholder))
			args = append(args, clauseArg(clause.Value))
		}
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func clauseArg(value any) any {
	switch v := value.(type) {
	case domain.AccountStatus:
		return string(v)
	case time.Time:
		// last_bill_date is a DATE column; compare on the date alone.
		return v.Format("2006-01-02")
	default:
		return v
	}
}

// sortColumn maps a SortField to its column. SortField values are a closed
// set, so the column name is never attacker-controlled.
func sortColumn(sortField SortField) string {
	switch sortField {
	case SortByBillCycleDay:
		return "bill_cycle_day"
	case SortByLastBillDate:
		return "last_bill_date"
	default:
		return "name"
	}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		balance decimal.Decimal
		status  string
	)
	err := row.Scan(
		&account.ID,
		&account.Name,
		&balance,
		&account.BillCycleDay,
		&account.LastBillDate,
		&status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.CurrentBalance = balance
	account.Status = domain.AccountStatus(status)
	return &account, nil
}

type postgresBills struct {
	q pgQuerier
}

func (r *postgresBills) Save(ctx context.Context, bill *domain.Bill) error {
	query := `
		INSERT INTO bills (id, account_id, amount, generation_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.q.Exec(ctx, query,
		bill.ID,
		bill.AccountID,
		bill.Amount,
		bill.GenerationDate.Format("2006-01-02"),
		string(bill.Status),
		bill.CreatedAt,
		bill.UpdatedAt,
	)
	return err
}

type postgresSummaries struct {
	q pgQuerier
}

func (r *postgresSummaries) Save(ctx context.Context, summary *domain.BillSummary) error {
	query := `
		INSERT INTO bill_summaries (id, status)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status
	`
	_, err := r.q.Exec(ctx, query, summary.ID, string(summary.Status))
	return err
}
