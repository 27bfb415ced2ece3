package models

import "time"

// SaleRecord is one row of the synthetic sales ledger.
type SaleRecord struct {
	Date       time.Time
	Product    string
	Category   string
	Region     string
	City       string
	Channel    string
	Quantity   int
	UnitPrice  float64
	UnitCost   float64
	TotalSales float64
	TotalCost  float64
	Profit     float64
}

// LedgerColumns is the CSV/XLSX header of the sales ledger, in column order.
var LedgerColumns = []string{
	"date", "product", "category", "region", "city", "channel",
	"quantity", "unit_price", "unit_cost", "total_sales", "total_cost", "profit",
}

// ProductRow is one row of the processed product sheet (款号/产品名称/品目).
type ProductRow struct {
	StyleNumber string
	ProductName string
	Category    string
}
