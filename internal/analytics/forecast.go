// internal/analytics/forecast.go
package analytics

import (
	"math"

	"github.com/andresuchdata/demandlens/internal/domain"
)

// CoverageMonths is the number of months of forecast demand a reorder
// should cover.
const CoverageMonths = 4

// weightSum = 1+2+...+12; the newest month carries the heaviest weight.
const weightSum = WindowMonths * (WindowMonths + 1) / 2

// BucketSeries is one product's demand across the 12 window months,
// indexed by month offset (0 = oldest). Months without sales stay zero.
type BucketSeries [WindowMonths]float64

// ForecastResult summarizes one product's 12-month demand series.
type ForecastResult struct {
	WeightedAvg float64
	WeightedMOQ int
	Sigma       float64
}

// Forecast computes the weighted moving average, the weighted MOQ and the
// population standard deviation of a 12-month series. Sigma is reported for
// observability only and never feeds the MOQ.
func Forecast(buckets BucketSeries) ForecastResult {
	var weighted, sum float64
	for i, qty := range buckets {
		weighted += qty * float64(i+1)
		sum += qty
	}
	avg := weighted / weightSum

	mean := sum / WindowMonths
	var variance float64
	for _, qty := range buckets {
		d := qty - mean
		variance += d * d
	}
	variance /= WindowMonths

	return ForecastResult{
		WeightedAvg: avg,
		WeightedMOQ: int(math.Ceil(avg * CoverageMonths)),
		Sigma:       math.Sqrt(variance),
	}
}

// BucketizeSales distributes sales into fixed 12-slot series per product.
// The arrays are pre-sized by month offset; nothing grows during
// aggregation. Sales outside the window are ignored.
func BucketizeSales(sales []domain.SaleRecord, w Window) map[int64]*BucketSeries {
	series := make(map[int64]*BucketSeries)
	for _, sale := range sales {
		idx := w.MonthIndex(sale.Date)
		if idx < 0 {
			continue
		}
		s := series[sale.ProductID]
		if s == nil {
			s = &BucketSeries{}
			series[sale.ProductID] = s
		}
		s[idx] += sale.Quantity
	}
	return series
}

// MonthlyPoints renders a series against the window's month keys, zeros
// included, oldest to newest.
func MonthlyPoints(s *BucketSeries, w Window) []domain.MonthlyPoint {
	points := make([]domain.MonthlyPoint, WindowMonths)
	for i, month := range w.Months {
		points[i] = domain.MonthlyPoint{Month: month}
		if s != nil {
			points[i].Quantity = s[i]
		}
	}
	return points
}
