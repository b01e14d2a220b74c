package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"dicipfinance/internal/core"
)

var ErrNoChartData = errors.New("no spending data to chart")

const (
	chartWidth  = 800
	chartHeight = 800
)

// RenderSpendingChart draws the spending slices as a PNG pie chart, one
// wedge per category in the category's color.
func RenderSpendingChart(slices []core.ChartSlice) ([]byte, error) {
	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s", s.Name, formatAmount(s.Value)),
			Value: s.Value,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(s.Fill),
				StrokeColor: chart.ColorWhite,
				FontSize:    12,
				FontColor:   chart.ColorBlack,
			},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoChartData
	}

	pie := chart.PieChart{
		Title:  "Gastos por Categoría",
		Width:  chartWidth,
		Height: chartHeight,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render spending chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("$%.0f", v)
}
