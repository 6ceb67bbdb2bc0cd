// internal/analytics/profit.go
package analytics

import (
	"sort"

	"github.com/andresuchdata/demandlens/internal/domain"
)

// ProductProfit is one product's window aggregate under the historical
// formula: cost is the cost in effect at each sale's date, never today's.
type ProductProfit struct {
	ProductID   int64
	Quantity    float64
	Revenue     float64
	Cost        float64
	GrossProfit float64
}

// HistoricalProfit aggregates sales per product with point-in-time cost
// attribution. An empty timeline contributes cost 0, so gross profit then
// equals revenue.
func HistoricalProfit(sales []domain.SaleRecord, timelines TimelineSet) map[int64]ProductProfit {
	profits := make(map[int64]ProductProfit)
	for _, sale := range sales {
		p := profits[sale.ProductID]
		p.ProductID = sale.ProductID
		p.Quantity += sale.Quantity
		p.Revenue += sale.Quantity * sale.UnitPrice
		p.Cost += sale.Quantity * timelines.CostAt(sale.ProductID, sale.Date)
		profits[sale.ProductID] = p
	}
	for id, p := range profits {
		p.GrossProfit = p.Revenue - p.Cost
		profits[id] = p
	}
	return profits
}

// DisplayProfit computes the display-mode figure: average selling price
// minus the current unit cost, times quantity. When nothing sold in the
// window the ASP falls back to the current list price and the gross profit
// is 0 regardless of price or cost. This is a different formula from
// HistoricalProfit and must never stand in for it.
func DisplayProfit(p ProductProfit, currentListPrice, currentUnitCost float64) (asp, gross float64) {
	if p.Quantity == 0 {
		return currentListPrice, 0
	}
	asp = p.Revenue / p.Quantity
	gross = (asp - currentUnitCost) * p.Quantity
	return asp, gross
}

// TopByGrossProfit ranks products by historical gross profit descending,
// ties broken by product id ascending for determinism, and keeps the first n.
func TopByGrossProfit(profits map[int64]ProductProfit, n int) []domain.TopProductEntry {
	if n <= 0 {
		return []domain.TopProductEntry{}
	}

	ranked := make([]ProductProfit, 0, len(profits))
	for _, p := range profits {
		ranked = append(ranked, p)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].GrossProfit != ranked[j].GrossProfit {
			return ranked[i].GrossProfit > ranked[j].GrossProfit
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}

	entries := make([]domain.TopProductEntry, len(ranked))
	for i, p := range ranked {
		entries[i] = domain.TopProductEntry{
			ProductID:   p.ProductID,
			Quantity:    p.Quantity,
			Revenue:     p.Revenue,
			GrossProfit: p.GrossProfit,
		}
	}
	return entries
}
