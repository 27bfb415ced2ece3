package report

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/retailops/salesuite-app/salesuite/models"
	chart "github.com/wcharczuk/go-chart/v2"
)

// renderDailyTrend draws daily total sales on the primary axis and the daily
// profit margin percentage on the secondary axis.
func renderDailyTrend(records []models.SaleRecord, name string) error {
	type daily struct {
		sales  float64
		profit float64
	}
	byDate := make(map[time.Time]*daily)
	for _, r := range records {
		d, ok := byDate[r.Date]
		if !ok {
			d = &daily{}
			byDate[r.Date] = d
		}
		d.sales += r.TotalSales
		d.profit += r.Profit
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	sales := make([]float64, len(dates))
	margins := make([]float64, len(dates))
	for i, d := range dates {
		sales[i] = byDate[d].sales
		if byDate[d].sales > 0 {
			margins[i] = byDate[d].profit / byDate[d].sales * 100
		}
	}

	graph := chart.Chart{
		Title:  "销售额和利润率趋势",
		Width:  1200,
		Height: 500,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "销售额（元）",
		},
		YAxisSecondary: chart.YAxis{
			Name: "利润率(%)",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "销售额",
				XValues: dates,
				YValues: sales,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					FillColor:   chart.ColorBlue.WithAlpha(60),
				},
			},
			chart.TimeSeries{
				Name:    "利润率",
				YAxis:   chart.YAxisSecondary,
				XValues: dates,
				YValues: margins,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	f, err := os.Create(filepath.Clean(name))
	if err != nil {
		return err
	}
	defer f.Close()

	return graph.Render(chart.PNG, f)
}
