package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ramonehamilton/doomsday-companion/internal/storage/models"
)

// CardCostRepository provides access to cached card costs.
type CardCostRepository interface {
	// Get returns the entry for name, or nil when there is none.
	Get(ctx context.Context, name string) (*models.CardCost, error)

	// GetMany returns the stored entries among names, keyed by name.
	GetMany(ctx context.Context, names []string) (map[string]*models.CardCost, error)

	// Upsert inserts or replaces an entry.
	Upsert(ctx context.Context, cost *models.CardCost) error

	// UpsertMany inserts or replaces entries in one transaction. Either all
	// entries are written or none are.
	UpsertMany(ctx context.Context, costs []*models.CardCost) error

	// List returns every entry ordered by name.
	List(ctx context.Context) ([]*models.CardCost, error)

	// DeleteOlderThan removes entries fetched before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type cardCostRepository struct {
	db *sql.DB
}

// NewCardCostRepository creates a new card cost repository.
func NewCardCostRepository(db *sql.DB) CardCostRepository {
	return &cardCostRepository{db: db}
}

const cardCostColumns = "name, mana_cost, cost_json, type_line, fetched_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCardCost(row rowScanner) (*models.CardCost, error) {
	var (
		c        models.CardCost
		costJSON string
	)
	if err := row.Scan(&c.Name, &c.ManaCost, &costJSON, &c.TypeLine, &c.FetchedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(costJSON), &c.Cost); err != nil {
		return nil, fmt.Errorf("failed to decode cost for %s: %w", c.Name, err)
	}
	return &c, nil
}

// Get returns the entry for name, or nil when there is none.
func (r *cardCostRepository) Get(ctx context.Context, name string) (*models.CardCost, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+cardCostColumns+" FROM card_costs WHERE name = ?", name)
	c, err := scanCardCost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card cost %s: %w", name, err)
	}
	return c, nil
}

// GetMany returns the stored entries among names, keyed by name.
func (r *cardCostRepository) GetMany(ctx context.Context, names []string) (map[string]*models.CardCost, error) {
	result := make(map[string]*models.CardCost, len(names))
	if len(names) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+cardCostColumns+" FROM card_costs WHERE name IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query card costs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		c, err := scanCardCost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card cost: %w", err)
		}
		result[c.Name] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card costs: %w", err)
	}
	return result, nil
}

const upsertCardCostSQL = `
	INSERT INTO card_costs (name, mana_cost, cost_json, type_line, fetched_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		mana_cost = excluded.mana_cost,
		cost_json = excluded.cost_json,
		type_line = excluded.type_line,
		fetched_at = excluded.fetched_at
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertCardCost(ctx context.Context, db execer, cost *models.CardCost) error {
	costJSON, err := json.Marshal(cost.Cost)
	if err != nil {
		return fmt.Errorf("failed to encode cost for %s: %w", cost.Name, err)
	}
	fetchedAt := cost.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err = db.ExecContext(ctx, upsertCardCostSQL,
		cost.Name, cost.ManaCost, string(costJSON), cost.TypeLine, fetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert card cost %s: %w", cost.Name, err)
	}
	return nil
}

// Upsert inserts or replaces an entry. A zero FetchedAt is stored as now.
func (r *cardCostRepository) Upsert(ctx context.Context, cost *models.CardCost) error {
	return upsertCardCost(ctx, r.db, cost)
}

// UpsertMany inserts or replaces entries in one transaction.
func (r *cardCostRepository) UpsertMany(ctx context.Context, costs []*models.CardCost) error {
	if len(costs) == 0 {
		return nil
	}
	return withTransaction(ctx, r.db, func(tx *sql.Tx) error {
		for _, c := range costs {
			if err := upsertCardCost(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns every entry ordered by name.
func (r *cardCostRepository) List(ctx context.Context) ([]*models.CardCost, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+cardCostColumns+" FROM card_costs ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query card costs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var costs []*models.CardCost
	for rows.Next() {
		c, err := scanCardCost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card cost: %w", err)
		}
		costs = append(costs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card costs: %w", err)
	}
	return costs, nil
}

// DeleteOlderThan removes entries fetched before cutoff.
func (r *cardCostRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM card_costs WHERE fetched_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired card costs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted card costs: %w", err)
	}
	return n, nil
}
