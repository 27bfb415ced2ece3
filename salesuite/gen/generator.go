package gen

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	randomdata "github.com/Pallinder/go-randomdata"
	"github.com/retailops/salesuite-app/log"
	"github.com/retailops/salesuite-app/salesuite/models"
	"github.com/xuri/excelize/v2"
)

// Output formats for the generated ledger.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const dateLayout = "2006-01-02"

// Product vocabulary of the ledger. Cities are keyed by the region they
// belong to so every record stays geographically consistent.
var (
	products   = []string{"笔记本电脑", "手机", "平板电脑", "耳机", "智能手表"}
	categories = []string{"电子产品", "配件"}
	regions    = []string{"华北", "华南", "华东", "华西"}
	cities     = map[string][]string{
		"华北": {"北京", "天津", "石家庄", "太原"},
		"华南": {"广州", "深圳", "珠海", "厦门"},
		"华东": {"上海", "南京", "杭州", "苏州"},
		"华西": {"成都", "重庆", "西安", "昆明"},
	}
	channels = []string{"线下门店", "电商平台", "代理商", "直营网站", "团购渠道"}
)

// Config controls the shape of the generated ledger.
type Config struct {
	Days      int
	MinPerDay int
	MaxPerDay int
	OutputDir string
	Format    string
	Seed      int64
	// EndDate anchors the ledger; records span the Days days ending here.
	// Zero value means today.
	EndDate time.Time
}

// Generate synthesizes a sales ledger and writes it under cfg.OutputDir as
// sales_data_<timestamp>.<format>. The same seed always produces the same
// ledger. Returns the records and the written file path.
func Generate(cfg Config) ([]models.SaleRecord, string, error) {
	if cfg.Days <= 0 {
		return nil, "", fmt.Errorf("days must be positive, got %d", cfg.Days)
	}
	if cfg.MinPerDay <= 0 || cfg.MaxPerDay < cfg.MinPerDay {
		return nil, "", fmt.Errorf("invalid records-per-day range [%d, %d]",
			cfg.MinPerDay, cfg.MaxPerDay)
	}
	switch cfg.Format {
	case FormatCSV, FormatXLSX:
	default:
		return nil, "", fmt.Errorf("unsupported output format %q", cfg.Format)
	}

	randomdata.CustomRand(rand.New(rand.NewSource(cfg.Seed)))

	endDate := cfg.EndDate
	if endDate.IsZero() {
		endDate = time.Now()
	}
	endDate = time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 0, 0, 0, 0, time.UTC)
	startDate := endDate.AddDate(0, 0, -(cfg.Days - 1))

	var records []models.SaleRecord
	for day := 0; day < cfg.Days; day++ {
		date := startDate.AddDate(0, 0, day)
		daily := randomdata.Number(cfg.MinPerDay, cfg.MaxPerDay+1)
		for i := 0; i < daily; i++ {
			records = append(records, newRecord(date))
		}
	}

	if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
		return nil, "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("sales_data_%s.%s", time.Now().Format("20060102_150405"), cfg.Format)
	outputPath := filepath.Join(cfg.OutputDir, name)

	var err error
	if cfg.Format == FormatCSV {
		err = writeCSV(outputPath, records)
	} else {
		err = writeXLSX(outputPath, records)
	}
	if err != nil {
		return nil, "", err
	}

	log.Gen.Infof("Generated %d records over %d days: %s", len(records), cfg.Days, outputPath)
	return records, outputPath, nil
}

func newRecord(date time.Time) models.SaleRecord {
	region := randomdata.StringSample(regions...)
	quantity := randomdata.Number(1, 50)
	unitPrice := round2(randomdata.Decimal(100, 10000, 2))
	unitCost := round2(unitPrice * randomdata.Decimal(40, 80, 2) / 100)
	totalSales := round2(float64(quantity) * unitPrice)
	totalCost := round2(float64(quantity) * unitCost)

	return models.SaleRecord{
		Date:       date,
		Product:    randomdata.StringSample(products...),
		Category:   randomdata.StringSample(categories...),
		Region:     region,
		City:       randomdata.StringSample(cities[region]...),
		Channel:    randomdata.StringSample(channels...),
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		UnitCost:   unitCost,
		TotalSales: totalSales,
		TotalCost:  totalCost,
		Profit:     round2(totalSales - totalCost),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func writeCSV(name string, records []models.SaleRecord) error {
	file, err := os.Create(filepath.Clean(name))
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write(models.LedgerColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date.Format(dateLayout),
			r.Product, r.Category, r.Region, r.City, r.Channel,
			strconv.Itoa(r.Quantity),
			formatAmount(r.UnitPrice),
			formatAmount(r.UnitCost),
			formatAmount(r.TotalSales),
			formatAmount(r.TotalCost),
			formatAmount(r.Profit),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV data: %w", err)
		}
	}

	return w.Error()
}

func writeXLSX(name string, records []models.SaleRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(models.LedgerColumns))
	for i, col := range models.LedgerColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write XLSX header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Date.Format(dateLayout),
			r.Product, r.Category, r.Region, r.City, r.Channel,
			r.Quantity, r.UnitPrice, r.UnitCost, r.TotalSales, r.TotalCost, r.Profit,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write XLSX row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(name); err != nil {
		return fmt.Errorf("failed to save XLSX file: %w", err)
	}

	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// PrintSummary writes a preview of the ledger plus per-day record statistics,
// mirroring what the reporting side expects to find.
func PrintSummary(w io.Writer, records []models.SaleRecord) {
	fmt.Fprintf(w, "=== Preview (%d records) ===\n", len(records))
	for i, r := range records {
		if i >= 5 {
			break
		}
		fmt.Fprintf(w, "%s  %s  %s/%s  %s  qty=%d  sales=%.2f  profit=%.2f\n",
			r.Date.Format(dateLayout), r.Product, r.Region, r.City, r.Channel,
			r.Quantity, r.TotalSales, r.Profit)
	}

	perDay := make(map[string]int)
	for _, r := range records {
		perDay[r.Date.Format(dateLayout)]++
	}
	min, max, total := 0, 0, 0
	for _, n := range perDay {
		if min == 0 || n < min {
			min = n
		}
		if n > max {
			max = n
		}
		total += n
	}
	if len(perDay) > 0 {
		fmt.Fprintf(w, "=== Records per day: days=%d min=%d max=%d mean=%.2f ===\n",
			len(perDay), min, max, float64(total)/float64(len(perDay)))
	}
}
