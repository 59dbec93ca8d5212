package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ascvd-risk-server/internal/domain"
)

// WriteChartHTML renders a horizontal bar of the adjusted risk on a fixed
// 0 to chart-max percentage axis, colored by the category color token
func (a *Assembler) WriteChartHTML(w io.Writer, assessment *domain.Assessment) error {
	bar := a.newRiskBar(assessment)
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("rendering risk chart: %w", err)
	}
	return nil
}

func (a *Assembler) newRiskBar(assessment *domain.Assessment) *charts.Bar {
	result := assessment.Result

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: a.title,
			Width:     "600px",
			Height:    "180px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    ChartTitle,
			Subtitle: Summary(assessment),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: ChartAxisName,
			Type: "value",
			Min:  0,
			Max:  a.chartMaxPct,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "category",
		}),
	)

	bar.SetXAxis([]string{""}).
		AddSeries("Adjusted risk", []opts.BarData{{
			Name:  string(result.Category),
			Value: result.AdjustedRiskPercent,
			ItemStyle: &opts.ItemStyle{
				Color: result.CategoryColor,
			},
		}})
	bar.XYReversal()

	return bar
}
