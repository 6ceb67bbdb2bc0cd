// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/demandlens/internal/domain"
)

// MaxLookupBatch is the largest id set a single bulk lookup call accepts.
// Larger key sets are chunked by the caller before they reach the store.
const MaxLookupBatch = 1000

// InsightsRepository is the read-only view of the transactional store the
// aggregation engine consumes. Implementations never mutate the sales,
// price or inventory tables.
type InsightsRepository interface {
	CountProducts(ctx context.Context) (int, error)
	CountCustomers(ctx context.Context) (int, error)

	// ListSalesInWindow returns every sale with start <= date <= end.
	ListSalesInWindow(ctx context.Context, start, end time.Time) ([]domain.SaleRecord, error)
	ListSalesForProduct(ctx context.Context, productID int64, start, end time.Time) ([]domain.SaleRecord, error)
	ListSalesForCustomer(ctx context.Context, customerID int64, start, end time.Time) ([]domain.SaleRecord, error)

	// ListPriceRecords returns all price history effective up to and
	// including asOf, unordered.
	ListPriceRecords(ctx context.Context, asOf time.Time) ([]domain.PriceRecord, error)
	ListPriceRecordsForProduct(ctx context.Context, productID int64) ([]domain.PriceRecord, error)

	// ListInventory returns the latest snapshot per product.
	ListInventory(ctx context.Context) ([]domain.InventorySnapshot, error)
	GetInventoryForProduct(ctx context.Context, productID int64) (*domain.InventorySnapshot, error)

	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)

	// Bulk lookups accept a single bounded batch (<= MaxLookupBatch ids);
	// ids absent from the catalog are simply missing from the result.
	GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	GetCustomersByIDs(ctx context.Context, ids []int64) ([]domain.Customer, error)
}
