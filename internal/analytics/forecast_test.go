package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandlens/internal/domain"
)

func TestForecastAllZeroBuckets(t *testing.T) {
	res := Forecast(BucketSeries{})
	assert.Equal(t, 0.0, res.WeightedAvg)
	assert.Equal(t, 0, res.WeightedMOQ)
	assert.Equal(t, 0.0, res.Sigma)
}

func TestForecastSingleRecentMonth(t *testing.T) {
	// 10 units in the newest month only: weights 1..12, wSum = 78.
	var buckets BucketSeries
	buckets[11] = 10

	res := Forecast(buckets)
	assert.InDelta(t, 120.0/78.0, res.WeightedAvg, 1e-9)
	assert.Equal(t, 7, res.WeightedMOQ)
}

func TestForecastWeightedAvgBoundedByMaxBucket(t *testing.T) {
	cases := []BucketSeries{
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		{100, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3},
	}
	for _, buckets := range cases {
		maxQty := 0.0
		for _, q := range buckets {
			if q > maxQty {
				maxQty = q
			}
		}
		res := Forecast(buckets)
		assert.GreaterOrEqual(t, res.WeightedAvg, 0.0)
		assert.LessOrEqual(t, res.WeightedAvg, maxQty)
	}
}

func TestWeightedMOQMonotonicInAverage(t *testing.T) {
	// Scaling every bucket up scales the average; the MOQ must not shrink.
	prevMOQ := -1
	for scale := 0.0; scale <= 5.0; scale += 0.25 {
		var buckets BucketSeries
		for i := range buckets {
			buckets[i] = scale * float64(i)
		}
		res := Forecast(buckets)
		require.GreaterOrEqual(t, res.WeightedMOQ, prevMOQ, "scale %v", scale)
		prevMOQ = res.WeightedMOQ
	}
}

func TestForecastSigmaUniformSeriesIsZero(t *testing.T) {
	res := Forecast(BucketSeries{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5})
	assert.Equal(t, 0.0, res.Sigma)
	assert.Equal(t, 5.0, res.WeightedAvg)
	assert.Equal(t, 20, res.WeightedMOQ)
}

func TestBucketizeSalesZeroFillsAndIgnoresOutOfWindow(t *testing.T) {
	now := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	w, err := ResolveWindow(domain.WindowTrailing12, 0, now)
	require.NoError(t, err)

	sales := []domain.SaleRecord{
		{ProductID: 1, Date: date(2025, time.February, 5), Quantity: 3},
		{ProductID: 1, Date: date(2025, time.February, 20), Quantity: 2},
		{ProductID: 1, Date: date(2026, time.January, 2), Quantity: 7},
		{ProductID: 1, Date: date(2024, time.December, 31), Quantity: 99}, // before window
		{ProductID: 2, Date: date(2025, time.July, 1), Quantity: 1},
	}

	series := BucketizeSales(sales, w)
	require.Len(t, series, 2)

	p1 := series[1]
	require.NotNil(t, p1)
	assert.Equal(t, 5.0, p1[0])
	assert.Equal(t, 7.0, p1[11])

	// Untouched months are explicit zeros.
	total := 0.0
	for _, q := range p1 {
		total += q
	}
	assert.Equal(t, 12.0, total)

	points := MonthlyPoints(p1, w)
	require.Len(t, points, 12)
	assert.Equal(t, w.Months[0], points[0].Month)
	assert.Equal(t, 5.0, points[0].Quantity)
	assert.Equal(t, 0.0, points[5].Quantity)

	// A missing series still renders 12 zero points.
	empty := MonthlyPoints(nil, w)
	require.Len(t, empty, 12)
	for _, pt := range empty {
		assert.Equal(t, 0.0, pt.Quantity)
	}
}
