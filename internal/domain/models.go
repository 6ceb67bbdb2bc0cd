// internal/domain/models.go
package domain

import "time"

// Product is a catalog entry.
type Product struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Customer is a catalog entry.
type Customer struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// SaleRecord is one immutable sales transaction line.
type SaleRecord struct {
	ProductID  int64     `json:"product_id" db:"product_id"`
	CustomerID int64     `json:"customer_id" db:"customer_id"`
	Date       time.Time `json:"date" db:"sale_date"`
	Quantity   float64   `json:"quantity" db:"quantity"`
	UnitPrice  float64   `json:"unit_price" db:"unit_price"`
}

// PriceRecord is one immutable price history entry. UnitCost may be absent
// in the source data; it still occupies a timeline position with cost 0.
type PriceRecord struct {
	ProductID     int64     `json:"product_id" db:"product_id"`
	EffectiveDate time.Time `json:"effective_date" db:"effective_date"`
	UnitCost      *float64  `json:"unit_cost" db:"unit_cost"`
	UnitPrice     float64   `json:"unit_price" db:"unit_price"`
}

// InventorySnapshot is the stock position of a product as of a point in time.
type InventorySnapshot struct {
	ProductID int64     `json:"product_id" db:"product_id"`
	OnHand    float64   `json:"on_hand" db:"on_hand"`
	Backorder float64   `json:"backorder" db:"backorder"`
	AsOf      time.Time `json:"as_of" db:"as_of"`
}

// AtRiskEntry is a product whose weighted MOQ exceeds its on-hand stock.
type AtRiskEntry struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	OnHand      float64 `json:"on_hand"`
	WeightedMOQ int     `json:"weighted_moq"`
	Gap         float64 `json:"gap"`
}

// TopProductEntry ranks a product by gross profit over a window.
type TopProductEntry struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"qty"`
	Revenue     float64 `json:"revenue"`
	GrossProfit float64 `json:"gross_profit"`
}
