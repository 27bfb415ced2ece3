package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/retailops/salesuite-app/conf"
	"github.com/retailops/salesuite-app/log"
	"github.com/retailops/salesuite-app/salesuite/models"
	charts "github.com/vicanso/go-charts/v2"
)

// Chart file names, kept identical to the report consumers' expectations.
const (
	fileMonthlyTrend   = "monthly_sales_trend.png"
	fileRegionBar      = "region_sales_distribution.png"
	fileChannelPie     = "channel_sales_pie.png"
	fileTopCitiesBar   = "top10_cities_sales.png"
	fileProfitMatrix   = "product_profit_matrix.png"
	fileRegionHeatmap  = "region_channel_heatmap.png"
	fileCitiesHBar     = "city_sales_top10_horizontal.png"
	fileChannelRadar   = "channel_profit_radar.png"
	fileDualAxisTrend  = "sales_profit_trend.png"
	fileCostScatter    = "cost_profit_scatter.png"
	cjkFontFamily      = "salesuite-cjk"
	cjkFontEnvVariable = "SALESUITE_CJK_FONT"
)

var fontOptions []charts.OptionFunc

func init() {
	// CJK glyphs need a font the chart library does not bundle. Point
	// SALESUITE_CJK_FONT at a TTF to render the Chinese labels; without it
	// charts still render, just with fallback glyphs.
	fontFile := conf.GetEnv(cjkFontEnvVariable)
	if fontFile == "" {
		return
	}
	data, err := os.ReadFile(filepath.Clean(fontFile))
	if err != nil {
		log.Report.Warnf("Failed to read CJK font %s: %s", fontFile, err)
		return
	}
	if err := charts.InstallFont(cjkFontFamily, data); err != nil {
		log.Report.Warnf("Failed to install CJK font: %s", err)
		return
	}
	fontOptions = []charts.OptionFunc{charts.FontFamilyOptionFunc(cjkFontFamily)}
}

// RenderCharts writes all ten report charts into outputDir and returns the
// file names in render order.
func RenderCharts(records []models.SaleRecord, a *Analysis, outputDir string) ([]string, error) {
	renders := []struct {
		name   string
		render func(string) error
	}{
		{fileMonthlyTrend, func(p string) error { return renderMonthlyTrend(a.Monthly, p) }},
		{fileRegionBar, func(p string) error { return renderRegionBar(a.Region, p) }},
		{fileChannelPie, func(p string) error { return renderChannelPie(a.Channel, p) }},
		{fileTopCitiesBar, func(p string) error { return renderTopCitiesBar(topN(a.City, 10), p) }},
		{fileProfitMatrix, func(p string) error { return renderProfitMatrix(a.Product, p) }},
		{fileRegionHeatmap, func(p string) error { return renderRegionChannelHeatmap(records, p) }},
		{fileCitiesHBar, func(p string) error { return renderCitiesHorizontalBar(topN(a.City, 10), p) }},
		{fileChannelRadar, func(p string) error { return renderChannelRadar(a.Channel, p) }},
		{fileDualAxisTrend, func(p string) error { return renderDailyTrend(records, p) }},
		{fileCostScatter, func(p string) error { return renderCostProfitScatter(records, p) }},
	}

	written := make([]string, 0, len(renders))
	for _, r := range renders {
		if err := r.render(filepath.Join(outputDir, r.name)); err != nil {
			return written, fmt.Errorf("failed to render %s: %w", r.name, err)
		}
		log.Report.Infof("Rendered %s", r.name)
		written = append(written, r.name)
	}

	return written, nil
}

func keysOf(aggs []Aggregate) []string {
	keys := make([]string, len(aggs))
	for i, a := range aggs {
		keys[i] = a.Key
	}
	return keys
}

func salesOf(aggs []Aggregate) []float64 {
	sales := make([]float64, len(aggs))
	for i, a := range aggs {
		sales[i] = a.TotalSales
	}
	return sales
}

func writePainter(p *charts.Painter, name string) error {
	buf, err := p.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(name, buf, 0640)
}

func chartOptions(opts ...charts.OptionFunc) []charts.OptionFunc {
	base := []charts.OptionFunc{
		charts.PNGTypeOption(),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(500),
	}
	base = append(base, fontOptions...)
	return append(base, opts...)
}

func renderMonthlyTrend(monthly []Aggregate, name string) error {
	p, err := charts.LineRender(
		[][]float64{salesOf(monthly)},
		chartOptions(
			charts.TitleTextOptionFunc("月度销售趋势"),
			charts.XAxisDataOptionFunc(keysOf(monthly)),
			charts.LegendLabelsOptionFunc([]string{"销售额"}),
		)...,
	)
	if err != nil {
		return err
	}
	return writePainter(p, name)
}

func renderRegionBar(region []Aggregate, name string) error {
	p, err := charts.BarRender(
		[][]float64{salesOf(region)},
		chartOptions(
			charts.TitleTextOptionFunc("各地区销售额分布"),
			charts.XAxisDataOptionFunc(keysOf(region)),
			charts.LegendLabelsOptionFunc([]string{"销售额"}),
		)...,
	)
	if err != nil {
		return err
	}
	return writePainter(p, name)
}

func renderChannelPie(channel []Aggregate, name string) error {
	p, err := charts.PieRender(
		salesOf(channel),
		chartOptions(
			charts.TitleTextOptionFunc("各渠道销售额占比"),
			charts.LegendLabelsOptionFunc(keysOf(channel)),
			charts.PieSeriesShowLabel(),
		)...,
	)
	if err != nil {
		return err
	}
	return writePainter(p, name)
}

func renderTopCitiesBar(cities []Aggregate, name string) error {
	p, err := charts.BarRender(
		[][]float64{salesOf(cities)},
		chartOptions(
			charts.TitleTextOptionFunc("销售额TOP10城市"),
			charts.XAxisDataOptionFunc(keysOf(cities)),
			charts.LegendLabelsOptionFunc([]string{"销售额"}),
		)...,
	)
	if err != nil {
		return err
	}
	return writePainter(p, name)
}

func renderCitiesHorizontalBar(cities []Aggregate, name string) error {
	// Horizontal bars read bottom-up; reverse so the largest city sits on top.
	reversed := make([]Aggregate, len(cities))
	for i, a := range cities {
		reversed[len(cities)-1-i] = a
	}

	p, err := charts.HorizontalBarRender(
		[][]float64{salesOf(reversed)},
		chartOptions(
			charts.TitleTextOptionFunc("城市销售额Top10"),
			charts.YAxisDataOptionFunc(keysOf(reversed)),
			charts.LegendLabelsOptionFunc([]string{"销售额"}),
		)...,
	)
	if err != nil {
		return err
	}
	return writePainter(p, name)
}

func renderChannelRadar(channel []Aggregate, name string) error {
	margins := make([]float64, len(channel))
	maxMargin := 0.0
	for i, a := range channel {
		margins[i] = a.ProfitMargin
		if a.ProfitMargin > maxMargin {
			maxMargin = a.ProfitMargin
		}
	}
	indicatorMax := make([]float64, len(channel))
	for i := range indicatorMax {
		indicatorMax[i] = maxMargin * 1.2
	}

	p, err := charts.RadarRender(
		[][]float64{margins},
		chartOptions(
			charts.TitleTextOptionFunc("各渠道利润率分析"),
			charts.LegendLabelsOptionFunc([]string{"利润率(%)"}),
			charts.RadarIndicatorOptionFunc(keysOf(channel), indicatorMax),
		)...,
	)
	if err != nil {
		return err
	}
	return writePainter(p, name)
}
