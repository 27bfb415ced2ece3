package gen

import (
	"bytes"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/retailops/salesuite-app/salesuite/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testEnd = time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) Config {
	return Config{
		Days:      10,
		MinPerDay: 3,
		MaxPerDay: 8,
		OutputDir: t.TempDir(),
		Format:    FormatCSV,
		Seed:      42,
		EndDate:   testEnd,
	}
}

func TestGenerateDeterministic(t *testing.T) {
	first, _, err := Generate(testConfig(t))
	require.NoError(t, err)
	second, _, err := Generate(testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateRecordShape(t *testing.T) {
	records, _, err := Generate(testConfig(t))
	require.NoError(t, err)
	require.NotEmpty(t, records)

	perDay := make(map[string]int)
	for _, r := range records {
		perDay[r.Date.Format("2006-01-02")]++

		assert.Contains(t, products, r.Product)
		assert.Contains(t, regions, r.Region)
		assert.Contains(t, cities[r.Region], r.City, "city must belong to its region")
		assert.Contains(t, channels, r.Channel)

		assert.GreaterOrEqual(t, r.Quantity, 1)
		assert.Less(t, r.Quantity, 50)
		assert.GreaterOrEqual(t, r.UnitPrice, 100.0)
		assert.Less(t, r.UnitPrice, 10000.0)
		assert.Less(t, r.UnitCost, r.UnitPrice)

		assert.InDelta(t, r.TotalSales-r.TotalCost, r.Profit, 0.001)
	}

	// Exactly Days distinct dates, each within the configured record range.
	assert.Len(t, perDay, 10)
	for day, n := range perDay {
		assert.GreaterOrEqual(t, n, 3, day)
		assert.LessOrEqual(t, n, 8, day)
	}

	// Oldest and newest dates span the requested window.
	assert.Equal(t, testEnd, records[len(records)-1].Date)
	assert.Equal(t, testEnd.AddDate(0, 0, -9), records[0].Date)
}

func TestGenerateCSVRoundTrip(t *testing.T) {
	records, path, err := Generate(testConfig(t))
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(records)+1)
	assert.Equal(t, models.LedgerColumns, rows[0])
	assert.Equal(t, records[0].Product, rows[1][1])
	assert.Equal(t, records[0].Date.Format("2006-01-02"), rows[1][0])
}

func TestGenerateXLSX(t *testing.T) {
	cfg := testConfig(t)
	cfg.Format = FormatXLSX

	records, path, err := Generate(cfg)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, len(records)+1)
	assert.Equal(t, models.LedgerColumns, rows[0])
}

func TestGenerateBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero days", func(c *Config) { c.Days = 0 }},
		{"inverted range", func(c *Config) { c.MinPerDay = 8; c.MaxPerDay = 3 }},
		{"unknown format", func(c *Config) { c.Format = "parquet" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			_, _, err := Generate(cfg)
			assert.Error(t, err)
		})
	}
}

func TestPrintSummary(t *testing.T) {
	records, _, err := Generate(testConfig(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSummary(&buf, records)
	assert.Contains(t, buf.String(), "Records per day")
	assert.Contains(t, buf.String(), "days=10")
}
