package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/marketplace/internal/core/domain"
)

const (
	mysqlErrDeadlock    = 1213
	mysqlErrLockTimeout = 1205
	reserveAttempts     = 3
)

type MySQLAdapter struct {
	db  *sql.DB
	now func() time.Time
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db, now: time.Now}
}

const itemColumns = `id, name, description, price, category, seller_id, status, created_at, updated_at`

func (m *MySQLAdapter) CreateItem(ctx context.Context, item domain.Item) error {
	now := m.now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.Status == "" {
		item.Status = domain.ItemStatusAvailable
	}

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Description, item.Price, item.Category,
		item.SellerID, item.Status, item.CreatedAt, now,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetItems(ctx context.Context, ids []string) ([]domain.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id IN (`+placeholders(len(ids))+`)`,
		args(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	return scanItems(rows)
}

// ReserveItems relies on the row locks taken by the conditional UPDATE: a
// competing transaction blocks, then re-reads status and matches fewer rows.
func (m *MySQLAdapter) ReserveItems(ctx context.Context, ids []string) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}

	var err error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		var ok bool
		ok, err = m.reserveOnce(ctx, ids)
		if err == nil {
			return ok, nil
		}
		if !retryable(err) {
			return false, err
		}
	}
	return false, err
}

func (m *MySQLAdapter) reserveOnce(ctx context.Context, ids []string) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE items
		SET status = 'sold', updated_at = ?
		WHERE id IN (`+placeholders(len(ids))+`) AND status = 'available'`,
		append([]any{m.now().UTC()}, args(ids)...)...,
	)
	if err != nil {
		return false, fmt.Errorf("update items: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if rows != int64(len(ids)) {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit reservation: %w", err)
	}
	return true, nil
}

func (m *MySQLAdapter) ReleaseItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := m.db.ExecContext(ctx, `
		UPDATE items
		SET status = 'available', updated_at = ?
		WHERE id IN (`+placeholders(len(ids))+`) AND status = 'sold'`,
		append([]any{m.now().UTC()}, args(ids)...)...,
	)
	if err != nil {
		return fmt.Errorf("release items: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) MarkSold(ctx context.Context, id string) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE items SET status = 'sold', updated_at = ?
		WHERE id = ? AND status <> 'sold'`,
		m.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark item sold: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) SearchAvailable(ctx context.Context, excludeSeller string, excludeIDs []string) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE status = 'available' AND seller_id <> ?`
	params := []any{excludeSeller}
	if len(excludeIDs) > 0 {
		query += ` AND id NOT IN (` + placeholders(len(excludeIDs)) + `)`
		params = append(params, args(excludeIDs)...)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := m.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return scanItems(rows)
}

func (m *MySQLAdapter) CreateUser(ctx context.Context, user domain.User) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.FirstName, user.LastName, user.Email, m.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetUsers(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT id, first_name, last_name, email FROM users WHERE id IN (`+placeholders(len(ids))+`)`,
		args(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanItems(rows *sql.Rows) ([]domain.Item, error) {
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(
			&it.ID, &it.Name, &it.Description, &it.Price, &it.Category,
			&it.SellerID, &it.Status, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// retryable reports lock conflicts InnoDB resolves by aborting one side.
func retryable(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == mysqlErrDeadlock || myErr.Number == mysqlErrLockTimeout
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func args(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
