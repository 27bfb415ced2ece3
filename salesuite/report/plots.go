package report

import (
	"image/color"
	"sort"

	"github.com/retailops/salesuite-app/salesuite/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// profitGrid is the region (rows) x channel (columns) profit surface backing
// the heatmap.
type profitGrid struct {
	channels []string
	regions  []string
	z        [][]float64
}

func (g profitGrid) Dims() (c, r int)   { return len(g.channels), len(g.regions) }
func (g profitGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g profitGrid) X(c int) float64    { return float64(c) }
func (g profitGrid) Y(r int) float64    { return float64(r) }

func buildProfitGrid(records []models.SaleRecord) profitGrid {
	channelSet := make(map[string]struct{})
	regionSet := make(map[string]struct{})
	for _, r := range records {
		channelSet[r.Channel] = struct{}{}
		regionSet[r.Region] = struct{}{}
	}

	grid := profitGrid{
		channels: sortedKeys(channelSet),
		regions:  sortedKeys(regionSet),
	}
	channelIdx := indexOf(grid.channels)
	regionIdx := indexOf(grid.regions)

	grid.z = make([][]float64, len(grid.regions))
	for i := range grid.z {
		grid.z[i] = make([]float64, len(grid.channels))
	}
	for _, r := range records {
		grid.z[regionIdx[r.Region]][channelIdx[r.Channel]] += r.Profit
	}

	return grid
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(keys []string) map[string]int {
	idx := make(map[string]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return idx
}

func categoryTicks(keys []string) []plot.Tick {
	ticks := make([]plot.Tick, len(keys))
	for i, k := range keys {
		ticks[i] = plot.Tick{Value: float64(i), Label: k}
	}
	return ticks
}

func renderRegionChannelHeatmap(records []models.SaleRecord, name string) error {
	grid := buildProfitGrid(records)

	pal := moreland.SmoothBlueRed().Palette(255)
	h := plotter.NewHeatMap(grid, pal)

	p := plot.New()
	p.Title.Text = "区域渠道利润热力图"
	p.X.Label.Text = "销售渠道"
	p.Y.Label.Text = "区域"
	p.X.Tick.Marker = plot.ConstantTicks(categoryTicks(grid.channels))
	p.Y.Tick.Marker = plot.ConstantTicks(categoryTicks(grid.regions))
	p.Add(h)

	return p.Save(10*vg.Inch, 7*vg.Inch, name)
}

// renderProfitMatrix draws the product portfolio as a bubble chart: sales
// share on X, profit margin on Y, bubble size proportional to quantity sold.
func renderProfitMatrix(products []Aggregate, name string) error {
	totalSales := 0.0
	maxQuantity := 0
	for _, a := range products {
		totalSales += a.TotalSales
		if a.Quantity > maxQuantity {
			maxQuantity = a.Quantity
		}
	}
	if totalSales == 0 || maxQuantity == 0 {
		totalSales, maxQuantity = 1, 1
	}

	xys := make(plotter.XYs, len(products))
	labels := make([]string, len(products))
	for i, a := range products {
		xys[i].X = a.TotalSales / totalSales * 100
		if a.TotalSales > 0 {
			xys[i].Y = a.Profit / a.TotalSales * 100
		}
		labels[i] = a.Key
	}

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		radius := vg.Points(4 + 16*float64(products[i].Quantity)/float64(maxQuantity))
		return draw.GlyphStyle{
			Color:  color.NRGBA{R: 65, G: 105, B: 225, A: 150},
			Radius: radius,
			Shape:  draw.CircleGlyph{},
		}
	}

	lbls, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "产品利润矩阵分析"
	p.X.Label.Text = "销售额占比(%)"
	p.Y.Label.Text = "利润率(%)"
	p.Add(plotter.NewGrid(), sc, lbls)

	return p.Save(10*vg.Inch, 7*vg.Inch, name)
}

// renderCostProfitScatter plots every record's cost against its profit, one
// color per product, with a star-sized mean marker per product.
func renderCostProfitScatter(records []models.SaleRecord, name string) error {
	byProduct := make(map[string]plotter.XYs)
	var products []string
	for _, r := range records {
		if _, ok := byProduct[r.Product]; !ok {
			products = append(products, r.Product)
		}
		byProduct[r.Product] = append(byProduct[r.Product], plotter.XY{X: r.TotalCost, Y: r.Profit})
	}
	sort.Strings(products)

	p := plot.New()
	p.Title.Text = "产品成本-利润分布"
	p.X.Label.Text = "成本（元）"
	p.Y.Label.Text = "利润（元）"
	p.Add(plotter.NewGrid())

	for i, product := range products {
		xys := byProduct[product]

		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(sc)
		p.Legend.Add(product, sc)

		// Mean marker for the product cluster.
		var sumX, sumY float64
		for _, xy := range xys {
			sumX += xy.X
			sumY += xy.Y
		}
		mean, err := plotter.NewScatter(plotter.XYs{{
			X: sumX / float64(len(xys)),
			Y: sumY / float64(len(xys)),
		}})
		if err != nil {
			return err
		}
		mean.GlyphStyle.Color = plotutil.Color(i)
		mean.GlyphStyle.Radius = vg.Points(6)
		mean.GlyphStyle.Shape = draw.PyramidGlyph{}
		p.Add(mean)
	}

	p.Legend.Top = true
	return p.Save(10*vg.Inch, 7*vg.Inch, name)
}
