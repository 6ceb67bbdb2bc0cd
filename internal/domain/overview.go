package domain

import "time"

// WindowMode selects how the 12-month reporting window is anchored.
type WindowMode string

const (
	// WindowTrailing12 covers the 12 calendar months ending at the current month.
	WindowTrailing12 WindowMode = "trailing12"
	// WindowCalendarYear covers January through December of a given year.
	WindowCalendarYear WindowMode = "calendar_year"
)

// MonthlyPoint is one month of a demand series. Months with no sales carry
// an explicit zero.
type MonthlyPoint struct {
	Month    time.Time `json:"month"`
	Quantity float64   `json:"quantity"`
}

// DashboardTotals are the headline counts and window aggregates.
type DashboardTotals struct {
	Products      int     `json:"products"`
	Customers     int     `json:"customers"`
	WindowUnits   float64 `json:"window_units"`
	WindowRevenue float64 `json:"window_revenue"`
	WindowProfit  float64 `json:"window_profit"`
}

// AtRiskPage is one page of the fully sorted at-risk list.
type AtRiskPage struct {
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Total    int           `json:"total"`
	Items    []AtRiskEntry `json:"items"`
}

// DashboardOverview is the response of the dashboard computation.
type DashboardOverview struct {
	AsOf        time.Time         `json:"as_of"`
	Totals      DashboardTotals   `json:"totals"`
	AtRisk      AtRiskPage        `json:"at_risk"`
	TopProducts []TopProductEntry `json:"top_products"`
}

// ForecastStats summarizes 12 months of demand for one product.
type ForecastStats struct {
	WeightedAvg12M float64 `json:"weighted_avg_12m"`
	Sigma12M       float64 `json:"sigma_12m"`
	WeightedMOQ    int     `json:"weighted_moq"`
}

// ProfitWindow carries both gross-profit renditions for a window. The two
// figures come from different formulas and are reported side by side;
// callers pick one intentionally.
type ProfitWindow struct {
	TotalQuantity         float64 `json:"total_qty"`
	TotalRevenue          float64 `json:"total_revenue"`
	TotalCost             float64 `json:"total_cost"`
	GrossProfitHistorical float64 `json:"gross_profit_historical"`
	AverageSellingPrice   float64 `json:"average_selling_price"`
	CurrentUnitCost       float64 `json:"current_unit_cost"`
	GrossProfitDisplay    float64 `json:"gross_profit_display"`
}

// ProductCustomerEntry is a customer's share of one product's window sales.
type ProductCustomerEntry struct {
	CustomerID   int64   `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Quantity     float64 `json:"qty"`
	Revenue      float64 `json:"revenue"`
}

// InventoryPosition is the latest known stock position of a product.
type InventoryPosition struct {
	OnHand    float64   `json:"on_hand"`
	Backorder float64   `json:"backorder"`
	AsOf      time.Time `json:"as_of"`
}

// ProductOverview is the response of the per-product computation.
type ProductOverview struct {
	Product   Product                `json:"product"`
	Mode      WindowMode             `json:"mode"`
	Monthly   []MonthlyPoint         `json:"monthly"`
	Stats12   ForecastStats          `json:"stats_12m"`
	Profit    ProfitWindow           `json:"profit_window"`
	Inventory InventoryPosition      `json:"inventory"`
	Customers []ProductCustomerEntry `json:"customers"`
}

// CustomerSummary aggregates a customer's trailing-12 activity.
type CustomerSummary struct {
	TotalQuantity float64 `json:"total_qty"`
	TotalRevenue  float64 `json:"total_revenue"`
	ProductCount  int     `json:"product_count"`
}

// CustomerProductEntry is a product's share of one customer's window sales.
type CustomerProductEntry struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"qty"`
	Revenue     float64 `json:"revenue"`
}

// CustomerOverview is the response of the per-customer computation.
type CustomerOverview struct {
	Customer Customer               `json:"customer"`
	Summary  CustomerSummary        `json:"summary"`
	Monthly  []MonthlyPoint         `json:"monthly"`
	Products []CustomerProductEntry `json:"products"`
}
