// internal/analytics/costs.go
package analytics

import (
	"sort"
	"time"

	"github.com/andresuchdata/demandlens/internal/domain"
)

// CostPoint is one entry of a product's cost timeline.
type CostPoint struct {
	EffectiveDate time.Time
	UnitCost      float64
}

// CostTimeline is a product's price history sorted ascending by effective
// date. A record with a missing unit cost keeps its position with cost 0.
type CostTimeline struct {
	ProductID int64
	Points    []CostPoint
}

// CostAt returns the unit cost of the latest entry whose effective date is
// on or before d, or 0 when the timeline is empty or every entry postdates d.
func (t CostTimeline) CostAt(d time.Time) float64 {
	// First index whose effective date is strictly after d.
	i := sort.Search(len(t.Points), func(i int) bool {
		return t.Points[i].EffectiveDate.After(d)
	})
	if i == 0 {
		return 0
	}
	return t.Points[i-1].UnitCost
}

// TimelineSet holds the cost timelines of many products.
type TimelineSet struct {
	byProduct map[int64]CostTimeline
}

// BuildCostTimelines groups unordered price records per product and sorts
// each product's entries ascending by effective date. The sort is stable so
// same-day entries keep their input order.
func BuildCostTimelines(records []domain.PriceRecord) TimelineSet {
	byProduct := make(map[int64]CostTimeline)
	for _, rec := range records {
		cost := 0.0
		if rec.UnitCost != nil {
			cost = *rec.UnitCost
		}
		tl := byProduct[rec.ProductID]
		tl.ProductID = rec.ProductID
		tl.Points = append(tl.Points, CostPoint{
			EffectiveDate: rec.EffectiveDate,
			UnitCost:      cost,
		})
		byProduct[rec.ProductID] = tl
	}

	for id, tl := range byProduct {
		sort.SliceStable(tl.Points, func(i, j int) bool {
			return tl.Points[i].EffectiveDate.Before(tl.Points[j].EffectiveDate)
		})
		byProduct[id] = tl
	}

	return TimelineSet{byProduct: byProduct}
}

// Timeline returns the timeline of a product; the zero timeline answers
// CostAt with 0, so a missing product needs no special casing.
func (s TimelineSet) Timeline(productID int64) CostTimeline {
	return s.byProduct[productID]
}

// CostAt answers the cost-as-of-date query for one product.
func (s TimelineSet) CostAt(productID int64, d time.Time) float64 {
	return s.byProduct[productID].CostAt(d)
}

// CurrentCost is the cost in effect as of now for one product.
func (s TimelineSet) CurrentCost(productID int64, now time.Time) float64 {
	return s.CostAt(productID, now)
}
