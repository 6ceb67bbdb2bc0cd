package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandlens/internal/analytics"
	"github.com/andresuchdata/demandlens/internal/cache"
	"github.com/andresuchdata/demandlens/internal/domain"
)

type mockRepo struct {
	products  []domain.Product
	customers []domain.Customer
	sales     []domain.SaleRecord
	prices    []domain.PriceRecord
	inventory []domain.InventorySnapshot

	salesErr error

	salesCalls  int
	lookupCalls int
}

func (m *mockRepo) CountProducts(ctx context.Context) (int, error)  { return len(m.products), nil }
func (m *mockRepo) CountCustomers(ctx context.Context) (int, error) { return len(m.customers), nil }

func (m *mockRepo) ListSalesInWindow(ctx context.Context, start, end time.Time) ([]domain.SaleRecord, error) {
	m.salesCalls++
	if m.salesErr != nil {
		return nil, m.salesErr
	}
	return m.filterSales(start, end, func(s domain.SaleRecord) bool { return true }), nil
}

func (m *mockRepo) ListSalesForProduct(ctx context.Context, productID int64, start, end time.Time) ([]domain.SaleRecord, error) {
	return m.filterSales(start, end, func(s domain.SaleRecord) bool { return s.ProductID == productID }), nil
}

func (m *mockRepo) ListSalesForCustomer(ctx context.Context, customerID int64, start, end time.Time) ([]domain.SaleRecord, error) {
	return m.filterSales(start, end, func(s domain.SaleRecord) bool { return s.CustomerID == customerID }), nil
}

func (m *mockRepo) filterSales(start, end time.Time, keep func(domain.SaleRecord) bool) []domain.SaleRecord {
	var out []domain.SaleRecord
	for _, s := range m.sales {
		if s.Date.Before(start) || s.Date.After(end) {
			continue
		}
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockRepo) ListPriceRecords(ctx context.Context, asOf time.Time) ([]domain.PriceRecord, error) {
	return m.prices, nil
}

func (m *mockRepo) ListPriceRecordsForProduct(ctx context.Context, productID int64) ([]domain.PriceRecord, error) {
	var out []domain.PriceRecord
	for _, p := range m.prices {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepo) ListInventory(ctx context.Context) ([]domain.InventorySnapshot, error) {
	return m.inventory, nil
}

func (m *mockRepo) GetInventoryForProduct(ctx context.Context, productID int64) (*domain.InventorySnapshot, error) {
	for _, snap := range m.inventory {
		if snap.ProductID == productID {
			s := snap
			return &s, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			c := p
			return &c, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	for _, c := range m.customers {
		if c.ID == id {
			cc := c
			return &cc, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	m.lookupCalls++
	var out []domain.Product
	for _, id := range ids {
		for _, p := range m.products {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *mockRepo) GetCustomersByIDs(ctx context.Context, ids []int64) ([]domain.Customer, error) {
	var out []domain.Customer
	for _, id := range ids {
		for _, c := range m.customers {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func fixedNow() time.Time {
	return time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)
}

func unitCost(v float64) *float64 { return &v }

func seedRepo() *mockRepo {
	aug := time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC)
	return &mockRepo{
		products: []domain.Product{
			{ID: 1, Name: "Alpha"},
			{ID: 2, Name: "Beta"},
			{ID: 3, Name: "Gamma"},
		},
		customers: []domain.Customer{
			{ID: 100, Name: "Acme"},
			{ID: 101, Name: "Globex"},
		},
		sales: []domain.SaleRecord{
			{ProductID: 1, CustomerID: 100, Date: aug, Quantity: 10, UnitPrice: 100},
			{ProductID: 2, CustomerID: 101, Date: aug.AddDate(0, 0, 5), Quantity: 10, UnitPrice: 50},
		},
		prices: []domain.PriceRecord{
			{ProductID: 1, EffectiveDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), UnitCost: unitCost(60), UnitPrice: 110},
		},
		inventory: []domain.InventorySnapshot{
			{ProductID: 1, OnHand: 3, AsOf: fixedNow()},
			{ProductID: 2, OnHand: 10, AsOf: fixedNow()},
			{ProductID: 3, OnHand: 5, AsOf: fixedNow()},
		},
	}
}

func newTestService(repo *mockRepo) *InsightsService {
	svc := NewInsightsService(repo, cache.NewNoopOverviewCache(), Options{})
	svc.WithNow(fixedNow)
	return svc
}

func TestDashboardOverview(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo)

	overview, err := svc.DashboardOverview(context.Background(), nil, 1, 20)
	require.NoError(t, err)

	assert.Equal(t, 3, overview.Totals.Products)
	assert.Equal(t, 2, overview.Totals.Customers)
	assert.Equal(t, 20.0, overview.Totals.WindowUnits)
	assert.Equal(t, 1500.0, overview.Totals.WindowRevenue)
	// Product 1: 1000 - 10*60; product 2 has no cost history, cost 0.
	assert.Equal(t, 400.0+500.0, overview.Totals.WindowProfit)

	// Both products sold 10 units in the newest month: MOQ = ceil(120/78*4) = 7.
	// Product 1 holds 3 on hand (gap 4); product 2 holds 10 (covered);
	// product 3 never sold (MOQ 0, covered).
	require.Equal(t, 1, overview.AtRisk.Total)
	require.Len(t, overview.AtRisk.Items, 1)
	at := overview.AtRisk.Items[0]
	assert.Equal(t, int64(1), at.ProductID)
	assert.Equal(t, "Alpha", at.ProductName)
	assert.Equal(t, 7, at.WeightedMOQ)
	assert.Equal(t, 4.0, at.Gap)

	require.Len(t, overview.TopProducts, 2)
	assert.Equal(t, int64(2), overview.TopProducts[0].ProductID)
	assert.Equal(t, "Beta", overview.TopProducts[0].ProductName)
	assert.Equal(t, 500.0, overview.TopProducts[0].GrossProfit)
	assert.Equal(t, int64(1), overview.TopProducts[1].ProductID)
	assert.Equal(t, 400.0, overview.TopProducts[1].GrossProfit)
}

func TestDashboardOverviewMissingCatalogEntryGetsPlaceholder(t *testing.T) {
	repo := seedRepo()
	// Product 1 disappears from the catalog but still has sales history.
	repo.products = repo.products[1:]
	svc := newTestService(repo)

	overview, err := svc.DashboardOverview(context.Background(), nil, 1, 20)
	require.NoError(t, err)
	require.Len(t, overview.AtRisk.Items, 1)
	assert.Equal(t, "Unknown product #1", overview.AtRisk.Items[0].ProductName)
}

func TestDashboardOverviewValidatesPaging(t *testing.T) {
	svc := newTestService(seedRepo())

	_, err := svc.DashboardOverview(context.Background(), nil, 0, 20)
	require.Error(t, err)
	assert.Equal(t, analytics.KindInvalidInput, analytics.KindOf(err))

	_, err = svc.DashboardOverview(context.Background(), nil, 1, 0)
	require.Error(t, err)
	assert.Equal(t, analytics.KindInvalidInput, analytics.KindOf(err))
}

func TestDashboardOverviewRetrievalFailureAbortsWholeRequest(t *testing.T) {
	repo := seedRepo()
	repo.salesErr = errors.New("store unavailable")
	svc := newTestService(repo)

	overview, err := svc.DashboardOverview(context.Background(), nil, 1, 20)
	require.Error(t, err)
	assert.Nil(t, overview)
	assert.Equal(t, analytics.KindRetrieval, analytics.KindOf(err))
}

type recordingCache struct {
	cache.OverviewCache
	stored *domain.DashboardOverview
	gets   int
	sets   int
}

func (c *recordingCache) GetDashboard(ctx context.Context, key cache.OverviewKey) (*domain.DashboardOverview, bool, error) {
	c.gets++
	if c.stored != nil {
		return c.stored, true, nil
	}
	return nil, false, nil
}

func (c *recordingCache) SetDashboard(ctx context.Context, key cache.OverviewKey, overview *domain.DashboardOverview) error {
	c.sets++
	c.stored = overview
	return nil
}

func TestDashboardOverviewServedFromCache(t *testing.T) {
	repo := seedRepo()
	rc := &recordingCache{OverviewCache: cache.NewNoopOverviewCache()}
	svc := NewInsightsService(repo, rc, Options{})
	svc.WithNow(fixedNow)

	first, err := svc.DashboardOverview(context.Background(), nil, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 1, rc.sets)
	require.Equal(t, 1, repo.salesCalls)

	second, err := svc.DashboardOverview(context.Background(), nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	// The second request never reached the store.
	assert.Equal(t, 1, repo.salesCalls)
}

func TestProductOverview(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo)

	overview, err := svc.ProductOverview(context.Background(), 1, domain.WindowTrailing12, 0)
	require.NoError(t, err)

	assert.Equal(t, "Alpha", overview.Product.Name)
	require.Len(t, overview.Monthly, 12)
	assert.Equal(t, 10.0, overview.Monthly[11].Quantity)
	assert.Equal(t, 0.0, overview.Monthly[0].Quantity)

	assert.InDelta(t, 120.0/78.0, overview.Stats12.WeightedAvg12M, 1e-9)
	assert.Equal(t, 7, overview.Stats12.WeightedMOQ)

	assert.Equal(t, 1000.0, overview.Profit.TotalRevenue)
	assert.Equal(t, 600.0, overview.Profit.TotalCost)
	assert.Equal(t, 400.0, overview.Profit.GrossProfitHistorical)
	assert.Equal(t, 100.0, overview.Profit.AverageSellingPrice)
	assert.Equal(t, 60.0, overview.Profit.CurrentUnitCost)
	assert.Equal(t, (100.0-60.0)*10, overview.Profit.GrossProfitDisplay)

	assert.Equal(t, 3.0, overview.Inventory.OnHand)

	require.Len(t, overview.Customers, 1)
	assert.Equal(t, "Acme", overview.Customers[0].CustomerName)
	assert.Equal(t, 1000.0, overview.Customers[0].Revenue)
}

func TestProductOverviewCalendarYearWithoutSales(t *testing.T) {
	svc := newTestService(seedRepo())

	overview, err := svc.ProductOverview(context.Background(), 1, domain.WindowCalendarYear, 2024)
	require.NoError(t, err)

	for _, pt := range overview.Monthly {
		assert.Equal(t, 0.0, pt.Quantity)
	}
	assert.Equal(t, 0, overview.Stats12.WeightedMOQ)
	assert.Equal(t, 0.0, overview.Profit.GrossProfitHistorical)
	// No sales: ASP falls back to the current list price, display profit 0.
	assert.Equal(t, 110.0, overview.Profit.AverageSellingPrice)
	assert.Equal(t, 0.0, overview.Profit.GrossProfitDisplay)
}

func TestProductOverviewUnknownProduct(t *testing.T) {
	svc := newTestService(seedRepo())

	_, err := svc.ProductOverview(context.Background(), 999, domain.WindowTrailing12, 0)
	require.Error(t, err)
	assert.Equal(t, analytics.KindNotFound, analytics.KindOf(err))
}

func TestProductOverviewRejectsBadMode(t *testing.T) {
	svc := newTestService(seedRepo())

	_, err := svc.ProductOverview(context.Background(), 1, domain.WindowMode("weekly"), 0)
	require.Error(t, err)
	assert.Equal(t, analytics.KindInvalidInput, analytics.KindOf(err))
}

func TestCustomerOverview(t *testing.T) {
	svc := newTestService(seedRepo())

	overview, err := svc.CustomerOverview(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, "Acme", overview.Customer.Name)
	assert.Equal(t, 10.0, overview.Summary.TotalQuantity)
	assert.Equal(t, 1000.0, overview.Summary.TotalRevenue)
	assert.Equal(t, 1, overview.Summary.ProductCount)

	require.Len(t, overview.Monthly, 12)
	assert.Equal(t, 10.0, overview.Monthly[11].Quantity)

	require.Len(t, overview.Products, 1)
	assert.Equal(t, "Alpha", overview.Products[0].ProductName)
}

func TestCustomerOverviewUnknownCustomer(t *testing.T) {
	svc := newTestService(seedRepo())

	_, err := svc.CustomerOverview(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, analytics.KindNotFound, analytics.KindOf(err))
}
