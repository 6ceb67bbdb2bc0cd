// internal/service/insights_service.go
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/demandlens/internal/analytics"
	"github.com/andresuchdata/demandlens/internal/cache"
	"github.com/andresuchdata/demandlens/internal/domain"
	"github.com/andresuchdata/demandlens/internal/repository"
)

const (
	defaultTopN         = 10
	defaultAtRiskPage   = 20
	maxPageSize         = 200
	unknownProductLabel = "Unknown product"
)

// Options tunes a service instance. Zero values fall back to defaults.
type Options struct {
	TopN  int
	Fetch analytics.FetchOptions
}

// InsightsService computes the dashboard, product and customer overviews.
// Every computation is pure given the store's state at call time; nothing
// is retained between calls. The cache wrapper is the only impurity and
// failures there are absorbed.
type InsightsService struct {
	repo  repository.InsightsRepository
	cache cache.OverviewCache
	opts  Options
	now   func() time.Time
}

func NewInsightsService(repo repository.InsightsRepository, cacheImpl cache.OverviewCache, opts Options) *InsightsService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopOverviewCache()
	}
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	return &InsightsService{
		repo:  repo,
		cache: cacheImpl,
		opts:  opts,
		now:   time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *InsightsService) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// DashboardOverview computes totals, the paged at-risk list and the top
// products by historical gross profit for the trailing-12 window ending at
// asOf (nil means now).
func (s *InsightsService) DashboardOverview(ctx context.Context, asOf *time.Time, page, pageSize int) (*domain.DashboardOverview, error) {
	if page < 1 {
		return nil, analytics.Errorf(analytics.KindInvalidInput, "page %d must be >= 1", page)
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return nil, analytics.Errorf(analytics.KindInvalidInput, "page_size %d out of range [1,%d]", pageSize, maxPageSize)
	}

	now := s.now().UTC()
	if asOf == nil {
		asOf = &now
	}
	window, err := analytics.ResolveWindow(domain.WindowTrailing12, 0, *asOf)
	if err != nil {
		return nil, err
	}

	key := cache.OverviewKey{AsOf: *asOf, Page: page, PageSize: pageSize}
	if cached, ok, err := s.cache.GetDashboard(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("insights: dashboard cache get failed")
	}

	// Independent retrievals, issued concurrently and joined before any
	// aggregation begins. A failure in any leg aborts the whole request.
	var (
		productCount, customerCount int
		sales                       []domain.SaleRecord
		prices                      []domain.PriceRecord
		inventory                   []domain.InventorySnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		productCount, err = s.repo.CountProducts(gctx)
		return retrievalErr("count products", err)
	})
	g.Go(func() (err error) {
		customerCount, err = s.repo.CountCustomers(gctx)
		return retrievalErr("count customers", err)
	})
	g.Go(func() (err error) {
		sales, err = s.repo.ListSalesInWindow(gctx, window.Start, window.End)
		return retrievalErr("sales window", err)
	})
	g.Go(func() (err error) {
		prices, err = s.repo.ListPriceRecords(gctx, window.End)
		return retrievalErr("price window", err)
	})
	g.Go(func() (err error) {
		inventory, err = s.repo.ListInventory(gctx)
		return retrievalErr("inventory snapshot", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	timelines := analytics.BuildCostTimelines(prices)
	series := analytics.BucketizeSales(sales, window)

	// Union of product ids seen in sales history or inventory.
	positions := make(map[int64]analytics.StockPosition, len(series))
	for id, buckets := range series {
		res := analytics.Forecast(*buckets)
		positions[id] = analytics.StockPosition{WeightedMOQ: res.WeightedMOQ}
	}
	for _, snap := range inventory {
		pos := positions[snap.ProductID]
		pos.OnHand = snap.OnHand
		positions[snap.ProductID] = pos
	}

	riskList := analytics.DetectAtRisk(positions)
	atRiskItems := riskList.Page(page, pageSize)

	profits := analytics.HistoricalProfit(sales, timelines)
	topProducts := analytics.TopByGrossProfit(profits, s.opts.TopN)

	// Display names are resolved only for the ids that survived ranking
	// and pagination, so lookup cost scales with page size.
	nameIDs := make([]int64, 0, len(atRiskItems)+len(topProducts))
	for _, e := range atRiskItems {
		nameIDs = append(nameIDs, e.ProductID)
	}
	for _, e := range topProducts {
		nameIDs = append(nameIDs, e.ProductID)
	}
	names, err := s.resolveProductNames(ctx, nameIDs)
	if err != nil {
		return nil, err
	}
	for i := range atRiskItems {
		atRiskItems[i].ProductName = names[atRiskItems[i].ProductID]
	}
	for i := range topProducts {
		topProducts[i].ProductName = names[topProducts[i].ProductID]
	}

	totals := domain.DashboardTotals{
		Products:  productCount,
		Customers: customerCount,
	}
	for _, p := range profits {
		totals.WindowUnits += p.Quantity
		totals.WindowRevenue += p.Revenue
		totals.WindowProfit += p.GrossProfit
	}

	overview := &domain.DashboardOverview{
		AsOf:   *asOf,
		Totals: totals,
		AtRisk: domain.AtRiskPage{
			Page:     page,
			PageSize: pageSize,
			Total:    riskList.Total(),
			Items:    atRiskItems,
		},
		TopProducts: topProducts,
	}

	if err := s.cache.SetDashboard(ctx, key, overview); err != nil {
		log.Warn().Err(err).Msg("insights: dashboard cache set failed")
	}

	return overview, nil
}

// ProductOverview computes one product's monthly demand series, forecast
// stats, both profit renditions, inventory position and customer breakdown
// for the requested window mode.
func (s *InsightsService) ProductOverview(ctx context.Context, productID int64, mode domain.WindowMode, year int) (*domain.ProductOverview, error) {
	window, err := analytics.ResolveWindow(mode, year, s.now().UTC())
	if err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, retrievalErr("product lookup", err)
	}
	if product == nil {
		return nil, analytics.Errorf(analytics.KindNotFound, "product %d not found", productID)
	}

	var (
		sales     []domain.SaleRecord
		prices    []domain.PriceRecord
		inventory *domain.InventorySnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sales, err = s.repo.ListSalesForProduct(gctx, productID, window.Start, window.End)
		return retrievalErr("product sales", err)
	})
	g.Go(func() (err error) {
		prices, err = s.repo.ListPriceRecordsForProduct(gctx, productID)
		return retrievalErr("product prices", err)
	})
	g.Go(func() (err error) {
		inventory, err = s.repo.GetInventoryForProduct(gctx, productID)
		return retrievalErr("product inventory", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	timelines := analytics.BuildCostTimelines(prices)
	series := analytics.BucketizeSales(sales, window)
	buckets := series[productID]

	var forecast analytics.ForecastResult
	if buckets != nil {
		forecast = analytics.Forecast(*buckets)
	}

	now := s.now().UTC()
	currentCost := timelines.CurrentCost(productID, now)
	listPrice := currentListPrice(prices, now)

	profit := analytics.HistoricalProfit(sales, timelines)[productID]
	asp, displayGross := analytics.DisplayProfit(profit, listPrice, currentCost)

	overview := &domain.ProductOverview{
		Product: *product,
		Mode:    mode,
		Monthly: analytics.MonthlyPoints(buckets, window),
		Stats12: domain.ForecastStats{
			WeightedAvg12M: forecast.WeightedAvg,
			Sigma12M:       forecast.Sigma,
			WeightedMOQ:    forecast.WeightedMOQ,
		},
		Profit: domain.ProfitWindow{
			TotalQuantity:         profit.Quantity,
			TotalRevenue:          profit.Revenue,
			TotalCost:             profit.Cost,
			GrossProfitHistorical: profit.GrossProfit,
			AverageSellingPrice:   asp,
			CurrentUnitCost:       currentCost,
			GrossProfitDisplay:    displayGross,
		},
	}
	if inventory != nil {
		overview.Inventory = domain.InventoryPosition{
			OnHand:    inventory.OnHand,
			Backorder: inventory.Backorder,
			AsOf:      inventory.AsOf,
		}
	}

	customers, err := s.customerBreakdown(ctx, sales)
	if err != nil {
		return nil, err
	}
	overview.Customers = customers

	return overview, nil
}

// CustomerOverview computes one customer's trailing-12 summary, monthly
// series and product breakdown.
func (s *InsightsService) CustomerOverview(ctx context.Context, customerID int64) (*domain.CustomerOverview, error) {
	window, err := analytics.ResolveWindow(domain.WindowTrailing12, 0, s.now().UTC())
	if err != nil {
		return nil, err
	}

	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, retrievalErr("customer lookup", err)
	}
	if customer == nil {
		return nil, analytics.Errorf(analytics.KindNotFound, "customer %d not found", customerID)
	}

	sales, err := s.repo.ListSalesForCustomer(ctx, customerID, window.Start, window.End)
	if err != nil {
		return nil, retrievalErr("customer sales", err)
	}

	var monthly analytics.BucketSeries
	summary := domain.CustomerSummary{}
	perProduct := make(map[int64]*domain.CustomerProductEntry)
	for _, sale := range sales {
		if idx := window.MonthIndex(sale.Date); idx >= 0 {
			monthly[idx] += sale.Quantity
		}
		summary.TotalQuantity += sale.Quantity
		summary.TotalRevenue += sale.Quantity * sale.UnitPrice

		entry := perProduct[sale.ProductID]
		if entry == nil {
			entry = &domain.CustomerProductEntry{ProductID: sale.ProductID}
			perProduct[sale.ProductID] = entry
		}
		entry.Quantity += sale.Quantity
		entry.Revenue += sale.Quantity * sale.UnitPrice
	}
	summary.ProductCount = len(perProduct)

	ids := make([]int64, 0, len(perProduct))
	for id := range perProduct {
		ids = append(ids, id)
	}
	names, err := s.resolveProductNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	products := make([]domain.CustomerProductEntry, 0, len(perProduct))
	for _, entry := range perProduct {
		entry.ProductName = names[entry.ProductID]
		products = append(products, *entry)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Revenue != products[j].Revenue {
			return products[i].Revenue > products[j].Revenue
		}
		return products[i].ProductID < products[j].ProductID
	})

	return &domain.CustomerOverview{
		Customer: *customer,
		Summary:  summary,
		Monthly:  analytics.MonthlyPoints(&monthly, window),
		Products: products,
	}, nil
}

// resolveProductNames bulk-looks-up display names, chunked with bounded
// retry. A sale referencing a product absent from the catalog gets a
// placeholder label instead of failing the request.
func (s *InsightsService) resolveProductNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	ids = dedupeIDs(ids)
	products, err := analytics.FetchChunked(ctx, ids, s.opts.Fetch, s.repo.GetProductsByIDs)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(ids))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			log.Warn().Int64("product_id", id).Msg("insights: product missing from catalog")
			names[id] = fmt.Sprintf("%s #%d", unknownProductLabel, id)
		}
	}
	return names, nil
}

func (s *InsightsService) customerBreakdown(ctx context.Context, sales []domain.SaleRecord) ([]domain.ProductCustomerEntry, error) {
	perCustomer := make(map[int64]*domain.ProductCustomerEntry)
	for _, sale := range sales {
		entry := perCustomer[sale.CustomerID]
		if entry == nil {
			entry = &domain.ProductCustomerEntry{CustomerID: sale.CustomerID}
			perCustomer[sale.CustomerID] = entry
		}
		entry.Quantity += sale.Quantity
		entry.Revenue += sale.Quantity * sale.UnitPrice
	}

	ids := make([]int64, 0, len(perCustomer))
	for id := range perCustomer {
		ids = append(ids, id)
	}
	customers, err := analytics.FetchChunked(ctx, dedupeIDs(ids), s.opts.Fetch, s.repo.GetCustomersByIDs)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}

	entries := make([]domain.ProductCustomerEntry, 0, len(perCustomer))
	for _, entry := range perCustomer {
		if name, ok := names[entry.CustomerID]; ok {
			entry.CustomerName = name
		} else {
			log.Warn().Int64("customer_id", entry.CustomerID).Msg("insights: customer missing from catalog")
			entry.CustomerName = fmt.Sprintf("Unknown customer #%d", entry.CustomerID)
		}
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Revenue != entries[j].Revenue {
			return entries[i].Revenue > entries[j].Revenue
		}
		return entries[i].CustomerID < entries[j].CustomerID
	})
	return entries, nil
}

// currentListPrice picks the unit price of the latest record effective on
// or before now.
func currentListPrice(records []domain.PriceRecord, now time.Time) float64 {
	var (
		price float64
		best  time.Time
		found bool
	)
	for _, rec := range records {
		if rec.EffectiveDate.After(now) {
			continue
		}
		if !found || rec.EffectiveDate.After(best) {
			price = rec.UnitPrice
			best = rec.EffectiveDate
			found = true
		}
	}
	return price
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func retrievalErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return analytics.E(analytics.KindRetrieval, fmt.Errorf("%s: %w", op, err))
}
