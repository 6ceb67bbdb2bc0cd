// internal/analytics/risk.go
package analytics

import (
	"sort"

	"github.com/andresuchdata/demandlens/internal/domain"
)

// StockPosition pairs a product's forecast MOQ with its on-hand stock.
type StockPosition struct {
	OnHand      float64
	WeightedMOQ int
}

// RiskList is the fully sorted at-risk list for one computation. Entries
// are ordered by gap descending; equal gaps keep ascending product id order
// because detection iterates the sorted id union.
type RiskList struct {
	entries []domain.AtRiskEntry
}

// DetectAtRisk evaluates every product in positions (the union of ids seen
// in sales history or inventory) and keeps those whose weighted MOQ exceeds
// on-hand stock. Product names are not resolved here; that is deferred to
// after pagination so lookup cost scales with page size.
func DetectAtRisk(positions map[int64]StockPosition) RiskList {
	ids := make([]int64, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	entries := make([]domain.AtRiskEntry, 0)
	for _, id := range ids {
		pos := positions[id]
		gap := float64(pos.WeightedMOQ) - pos.OnHand
		if gap <= 0 {
			continue
		}
		entries = append(entries, domain.AtRiskEntry{
			ProductID:   id,
			OnHand:      pos.OnHand,
			WeightedMOQ: pos.WeightedMOQ,
			Gap:         gap,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Gap > entries[j].Gap
	})

	return RiskList{entries: entries}
}

// Total is the number of at-risk entries across all pages.
func (l RiskList) Total() int {
	return len(l.entries)
}

// Page slices the sorted list. Pages are 1-based; out-of-range pages return
// an empty slice, and concatenating all pages of a fixed size reproduces
// the full list exactly once per entry.
func (l RiskList) Page(page, pageSize int) []domain.AtRiskEntry {
	if page < 1 || pageSize < 1 {
		return nil
	}
	start := (page - 1) * pageSize
	if start >= len(l.entries) {
		return []domain.AtRiskEntry{}
	}
	end := start + pageSize
	if end > len(l.entries) {
		end = len(l.entries)
	}
	out := make([]domain.AtRiskEntry, end-start)
	copy(out, l.entries[start:end])
	return out
}

// PageProductIDs lists the product ids on one page, in page order, for the
// deferred display-name lookup.
func (l RiskList) PageProductIDs(page, pageSize int) []int64 {
	entries := l.Page(page, pageSize)
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ProductID
	}
	return ids
}
