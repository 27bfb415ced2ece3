package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dimchansky/utfbom"
	"github.com/go-gota/gota/dataframe"
	"github.com/retailops/salesuite-app/log"
	"github.com/retailops/salesuite-app/salesuite/models"
	"github.com/retailops/salesuite-app/salesuite/utils"
)

const dateLayout = "2006-01-02"

// Aggregate is one row of a grouped analysis table: sums of the money
// columns plus the mean per-record profit margin.
type Aggregate struct {
	Key          string
	TotalSales   float64
	TotalCost    float64
	Profit       float64
	ProfitMargin float64
	Quantity     int
}

// Analysis holds the five grouped tables the report prints and charts.
type Analysis struct {
	Monthly []Aggregate
	City    []Aggregate
	Region  []Aggregate
	Channel []Aggregate
	Product []Aggregate
}

// LoadLatestLedger finds the newest sales_data_*.csv in dataDir and parses it
// into sale records. Returns the records and the file that was read.
func LoadLatestLedger(dataDir string) ([]models.SaleRecord, string, error) {
	matches, err := filepath.Glob(filepath.Join(dataDir, "sales_data_*.csv"))
	if err != nil {
		return nil, "", err
	}
	if len(matches) == 0 {
		return nil, "", fmt.Errorf("no sales_data_*.csv files found in %s", dataDir)
	}
	sort.Strings(matches)
	latest := matches[len(matches)-1]

	records, err := readLedger(latest)
	if err != nil {
		return nil, "", err
	}

	log.Report.Infof("Loaded %d records from %s", len(records), latest)
	return records, latest, nil
}

func readLedger(name string) ([]models.SaleRecord, error) {
	f, err := os.Open(filepath.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	// Trim the Byte Order Marker if it's present
	reader := utfbom.SkipOnly(f)

	df := dataframe.ReadCSV(reader, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read ledger CSV: %w", df.Err)
	}
	for _, required := range models.LedgerColumns {
		if !utils.ContainsString(df.Names(), required) {
			return nil, fmt.Errorf("ledger is missing required column %q", required)
		}
	}

	rows := df.Records()
	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[h] = i
	}

	records := make([]models.SaleRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r, err := parseRecord(row, idx)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, nil
}

func parseRecord(row []string, idx map[string]int) (models.SaleRecord, error) {
	var r models.SaleRecord
	var err error

	if r.Date, err = time.Parse(dateLayout, row[idx["date"]]); err != nil {
		return r, fmt.Errorf("bad date %q: %w", row[idx["date"]], err)
	}
	r.Product = row[idx["product"]]
	r.Category = row[idx["category"]]
	r.Region = row[idx["region"]]
	r.City = row[idx["city"]]
	r.Channel = row[idx["channel"]]
	if r.Quantity, err = strconv.Atoi(row[idx["quantity"]]); err != nil {
		return r, fmt.Errorf("bad quantity %q: %w", row[idx["quantity"]], err)
	}
	for _, field := range []struct {
		name string
		dst  *float64
	}{
		{"unit_price", &r.UnitPrice},
		{"unit_cost", &r.UnitCost},
		{"total_sales", &r.TotalSales},
		{"total_cost", &r.TotalCost},
		{"profit", &r.Profit},
	} {
		if *field.dst, err = strconv.ParseFloat(row[idx[field.name]], 64); err != nil {
			return r, fmt.Errorf("bad %s %q: %w", field.name, row[idx[field.name]], err)
		}
	}

	return r, nil
}

// margin returns the profit margin of one record as a percentage.
func margin(r models.SaleRecord) float64 {
	if r.TotalSales == 0 {
		return 0
	}
	return r.Profit / r.TotalSales * 100
}

// Analyze builds the five grouped tables. Monthly is sorted by month
// ascending; the others by total sales descending.
func Analyze(records []models.SaleRecord) *Analysis {
	return &Analysis{
		Monthly: aggregateBy(records, func(r models.SaleRecord) string {
			return r.Date.Format("2006-01")
		}, false),
		City:    aggregateBy(records, func(r models.SaleRecord) string { return r.City }, true),
		Region:  aggregateBy(records, func(r models.SaleRecord) string { return r.Region }, true),
		Channel: aggregateBy(records, func(r models.SaleRecord) string { return r.Channel }, true),
		Product: aggregateBy(records, func(r models.SaleRecord) string { return r.Product }, true),
	}
}

func aggregateBy(records []models.SaleRecord, key func(models.SaleRecord) string, bySales bool) []Aggregate {
	groups := make(map[string]*Aggregate)
	counts := make(map[string]int)
	var order []string

	for _, r := range records {
		k := key(r)
		agg, ok := groups[k]
		if !ok {
			agg = &Aggregate{Key: k}
			groups[k] = agg
			order = append(order, k)
		}
		agg.TotalSales += r.TotalSales
		agg.TotalCost += r.TotalCost
		agg.Profit += r.Profit
		agg.ProfitMargin += margin(r)
		agg.Quantity += r.Quantity
		counts[k]++
	}

	out := make([]Aggregate, 0, len(order))
	for _, k := range order {
		agg := *groups[k]
		agg.ProfitMargin = round2(agg.ProfitMargin / float64(counts[k]))
		agg.TotalSales = round2(agg.TotalSales)
		agg.TotalCost = round2(agg.TotalCost)
		agg.Profit = round2(agg.Profit)
		out = append(out, agg)
	}

	if bySales {
		sort.SliceStable(out, func(i, j int) bool { return out[i].TotalSales > out[j].TotalSales })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	}

	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// topN returns the first n aggregates (or all of them when fewer).
func topN(aggs []Aggregate, n int) []Aggregate {
	if len(aggs) < n {
		n = len(aggs)
	}
	return aggs[:n]
}

// Run loads the latest ledger, prints the analysis tables and renders every
// chart into outputDir.
func Run(dataDir, outputDir string, w io.Writer) error {
	records, source, err := LoadLatestLedger(dataDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Analyzing %s (%d records)\n", source, len(records))

	analysis := Analyze(records)
	PrintAnalysis(w, analysis)

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	written, err := RenderCharts(records, analysis, outputDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nCharts written to %s:\n", outputDir)
	for i, name := range written {
		fmt.Fprintf(w, "%d. %s\n", i+1, name)
	}

	return nil
}

// PrintAnalysis writes the five tables in a fixed order.
func PrintAnalysis(w io.Writer, a *Analysis) {
	printTable(w, "Monthly analysis", a.Monthly)
	printTable(w, "Region analysis", a.Region)
	printTable(w, "City analysis (top 10)", topN(a.City, 10))
	printTable(w, "Channel analysis", a.Channel)
	printTable(w, "Product analysis", a.Product)
}

func printTable(w io.Writer, title string, aggs []Aggregate) {
	fmt.Fprintf(w, "\n=== %s ===\n", title)
	fmt.Fprintf(w, "%-12s %14s %14s %12s %10s %8s\n",
		"key", "total_sales", "total_cost", "profit", "margin%", "qty")
	for _, a := range aggs {
		fmt.Fprintf(w, "%-12s %14.2f %14.2f %12.2f %10.2f %8d\n",
			a.Key, a.TotalSales, a.TotalCost, a.Profit, a.ProfitMargin, a.Quantity)
	}
}
