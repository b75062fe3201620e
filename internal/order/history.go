package order

import (
	"context"
	"database/sql"
	"time"

	"biteme-be/internal/db"
)

// HistoryRepository is the append-only audit trail of accepted status
// changes, kept in Postgres next to the document store.
type HistoryRepository interface {
	Record(ctx context.Context, c StatusChange) error
	ListByOrder(ctx context.Context, orderID string) ([]StatusChange, error)
}

type historyRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewHistoryRepository(conn *sql.DB, timeout time.Duration) HistoryRepository {
	return &historyRepository{db: conn, timeout: timeout}
}

func (r *historyRepository) Record(ctx context.Context, c StatusChange) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO order_status_events (order_id, user_id, from_status, to_status, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.OrderID,
		c.UserID,
		string(c.FromStatus),
		string(c.ToStatus),
		c.ChangedAt,
	)
	return db.Classify(err)
}

func (r *historyRepository) ListByOrder(ctx context.Context, orderID string) ([]StatusChange, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT order_id, user_id, from_status, to_status, changed_at
		FROM order_status_events
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	changes := []StatusChange{}
	for rows.Next() {
		var (
			c        StatusChange
			from, to string
		)
		if err := rows.Scan(&c.OrderID, &c.UserID, &from, &to, &c.ChangedAt); err != nil {
			return nil, db.Classify(err)
		}
		c.FromStatus = Status(from)
		c.ToStatus = Status(to)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return changes, nil
}

type noopHistory struct{}

// NewNoopHistory stands in when no Postgres connection is configured.
func NewNoopHistory() HistoryRepository { return noopHistory{} }

func (noopHistory) Record(context.Context, StatusChange) error { return nil }

func (noopHistory) ListByOrder(context.Context, string) ([]StatusChange, error) {
	return []StatusChange{}, nil
}
