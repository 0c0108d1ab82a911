package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
	_ "modernc.org/sqlite"
)

var ErrProductNotFound = errors.New("product not found")

const indexSchema = `
CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY,
	product_type TEXT NOT NULL,
	manufacturer TEXT NOT NULL,
	model TEXT NOT NULL,
	record TEXT NOT NULL, -- JSON
	indexed_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_products_type ON products(product_type);
CREATE INDEX IF NOT EXISTS idx_products_manufacturer ON products(manufacturer);
`

// Index is the queryable copy of the catalog.
type Index struct {
	db *sql.DB
}

type Filter struct {
	ProductType  types.ProductType
	Manufacturer string
	Limit        int
}

// OpenIndex opens or creates the index database at path.
func OpenIndex(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Index{db: db}, nil
}

func (x *Index) Close() error {
	return x.db.Close()
}

// Replace rebuilds the index from products in one transaction.
func (x *Index) Replace(ctx context.Context, products []types.Product) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (id, product_type, manufacturer, model, record)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		record, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal product %d: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, string(p.ProductType), p.Manufacturer, p.Model, string(record)); err != nil {
			return fmt.Errorf("failed to insert product %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

func (x *Index) Get(ctx context.Context, id int) (types.Product, error) {
	var record string
	err := x.db.QueryRowContext(ctx, "SELECT record FROM products WHERE id = ?", id).Scan(&record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
		return types.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return decodeRecord(record)
}

// List returns products matching the filter, ordered by id.
func (x *Index) List(ctx context.Context, f Filter) ([]types.Product, error) {
	query := "SELECT record FROM products WHERE 1 = 1"
	args := []any{}

	if f.ProductType != "" {
		query += " AND product_type = ?"
		args = append(args, string(f.ProductType))
	}
	if f.Manufacturer != "" {
		query += " AND manufacturer = ? COLLATE NOCASE"
		args = append(args, f.Manufacturer)
	}
	query += " ORDER BY id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	return x.query(ctx, query, args...)
}

// GetMany returns the products for ids in the order given. Unknown ids are
// skipped; repeated ids yield one product each time they appear.
func (x *Index) GetMany(ctx context.Context, ids []int) ([]types.Product, error) {
	if len(ids) == 0 {
		return []types.Product{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	found, err := x.query(ctx,
		"SELECT record FROM products WHERE id IN ("+strings.Join(placeholders, ",")+")", args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]types.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]types.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Counts reports the number of indexed products per type.
func (x *Index) Counts(ctx context.Context) (map[types.ProductType]int, error) {
	rows, err := x.db.QueryContext(ctx, "SELECT product_type, COUNT(*) FROM products GROUP BY product_type")
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.ProductType]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[types.ProductType(typ)] = n
	}
	return counts, rows.Err()
}

func (x *Index) query(ctx context.Context, query string, args ...any) ([]types.Product, error) {
	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]types.Product, 0)
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p, err := decodeRecord(record)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func decodeRecord(record string) (types.Product, error) {
	var p types.Product
	if err := json.Unmarshal([]byte(record), &p); err != nil {
		return types.Product{}, fmt.Errorf("failed to decode product record: %w", err)
	}
	return p, nil
}
