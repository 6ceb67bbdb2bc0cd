// internal/repository/postgres/insights_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/andresuchdata/demandlens/internal/domain"
	"github.com/andresuchdata/demandlens/internal/repository"
)

type insightsRepository struct {
	db *DB
}

// NewInsightsRepository returns the Postgres-backed read-only store view.
func NewInsightsRepository(db *DB) repository.InsightsRepository {
	return &insightsRepository{db: db}
}

func (r *insightsRepository) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`)
	})
	if err != nil {
		return 0, fmt.Errorf("error counting products: %w", err)
	}
	return count, nil
}

func (r *insightsRepository) CountCustomers(ctx context.Context) (int, error) {
	var count int
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM customers`)
	})
	if err != nil {
		return 0, fmt.Errorf("error counting customers: %w", err)
	}
	return count, nil
}

func (r *insightsRepository) ListSalesInWindow(ctx context.Context, start, end time.Time) ([]domain.SaleRecord, error) {
	query := `
        SELECT product_id, customer_id, sale_date, quantity, unit_price
        FROM sales
        WHERE sale_date >= $1 AND sale_date <= $2
        ORDER BY sale_date
    `

	var sales []domain.SaleRecord
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &sales, query, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing sales window: %w", err)
	}
	return sales, nil
}

func (r *insightsRepository) ListSalesForProduct(ctx context.Context, productID int64, start, end time.Time) ([]domain.SaleRecord, error) {
	query := `
        SELECT product_id, customer_id, sale_date, quantity, unit_price
        FROM sales
        WHERE product_id = $1 AND sale_date >= $2 AND sale_date <= $3
        ORDER BY sale_date
    `

	var sales []domain.SaleRecord
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &sales, query, productID, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing product sales: %w", err)
	}
	return sales, nil
}

func (r *insightsRepository) ListSalesForCustomer(ctx context.Context, customerID int64, start, end time.Time) ([]domain.SaleRecord, error) {
	query := `
        SELECT product_id, customer_id, sale_date, quantity, unit_price
        FROM sales
        WHERE customer_id = $1 AND sale_date >= $2 AND sale_date <= $3
        ORDER BY sale_date
    `

	var sales []domain.SaleRecord
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &sales, query, customerID, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing customer sales: %w", err)
	}
	return sales, nil
}

func (r *insightsRepository) ListPriceRecords(ctx context.Context, asOf time.Time) ([]domain.PriceRecord, error) {
	query := `
        SELECT product_id, effective_date, unit_cost, unit_price
        FROM price_history
        WHERE effective_date <= $1
    `

	var records []domain.PriceRecord
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &records, query, asOf)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing price records: %w", err)
	}
	return records, nil
}

func (r *insightsRepository) ListPriceRecordsForProduct(ctx context.Context, productID int64) ([]domain.PriceRecord, error) {
	query := `
        SELECT product_id, effective_date, unit_cost, unit_price
        FROM price_history
        WHERE product_id = $1
    `

	var records []domain.PriceRecord
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &records, query, productID)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing product price records: %w", err)
	}
	return records, nil
}

func (r *insightsRepository) ListInventory(ctx context.Context) ([]domain.InventorySnapshot, error) {
	// Latest snapshot per product.
	query := `
        SELECT DISTINCT ON (product_id)
            product_id, on_hand, backorder, as_of
        FROM inventory_snapshots
        ORDER BY product_id, as_of DESC
    `

	var snapshots []domain.InventorySnapshot
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &snapshots, query)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing inventory: %w", err)
	}
	return snapshots, nil
}

func (r *insightsRepository) GetInventoryForProduct(ctx context.Context, productID int64) (*domain.InventorySnapshot, error) {
	query := `
        SELECT product_id, on_hand, backorder, as_of
        FROM inventory_snapshots
        WHERE product_id = $1
        ORDER BY as_of DESC
        LIMIT 1
    `

	var snapshot domain.InventorySnapshot
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &snapshot, query, productID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting product inventory: %w", err)
	}
	return &snapshot, nil
}

func (r *insightsRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &product, `SELECT id, name FROM products WHERE id = $1`, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting product: %w", err)
	}
	return &product, nil
}

func (r *insightsRepository) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &customer, `SELECT id, name FROM customers WHERE id = $1`, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting customer: %w", err)
	}
	return &customer, nil
}

func (r *insightsRepository) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > repository.MaxLookupBatch {
		return nil, fmt.Errorf("product lookup batch of %d exceeds limit %d", len(ids), repository.MaxLookupBatch)
	}

	var products []domain.Product
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &products,
			`SELECT id, name FROM products WHERE id = ANY($1::bigint[])`, pq.Array(ids))
	})
	if err != nil {
		return nil, fmt.Errorf("error looking up products: %w", err)
	}
	return products, nil
}

func (r *insightsRepository) GetCustomersByIDs(ctx context.Context, ids []int64) ([]domain.Customer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > repository.MaxLookupBatch {
		return nil, fmt.Errorf("customer lookup batch of %d exceeds limit %d", len(ids), repository.MaxLookupBatch)
	}

	var customers []domain.Customer
	err := r.db.WithConn(ctx, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &customers,
			`SELECT id, name FROM customers WHERE id = ANY($1::bigint[])`, pq.Array(ids))
	})
	if err != nil {
		return nil, fmt.Errorf("error looking up customers: %w", err)
	}
	return customers, nil
}
