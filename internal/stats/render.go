package stats

import (
	"encoding/json"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ChartTitle is the default title of the query chart.
const ChartTitle = "Query statistics"

// Pie returns the pie chart of the result.
func (r Result) Pie(title string) *charts.Pie {
	data := make([]opts.PieData, 0, len(r.Chart))
	for _, s := range r.Chart {
		data = append(data, opts.PieData{Name: s.Name, Value: s.Value})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
	)
	pie.AddSeries("queries", data)
	pie.Validate()
	return pie
}

// ChartJSON returns the chart option document the page hands to echarts.
func (r Result) ChartJSON(title string) ([]byte, error) {
	return json.Marshal(r.Pie(title).JSON())
}

// NewPrinter returns the number printer for tag, e.g. language.English
// for "1,234.50".
func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Format writes the result as a table with localized numbers.
func (r Result) Format(w io.Writer, p *message.Printer) error {
	if p == nil {
		p = NewPrinter(language.English)
	}

	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, []string{
			row.Name,
			p.Sprintf("%d", row.Value),
			p.Sprintf("%.2f", row.PerHour),
			p.Sprintf("%.2f%%", row.Percentage),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Statement", "#", "ø per hour", "%").
		Rows(rows...)

	summary := p.Sprintf("Total %d queries over %d seconds: %.2f per hour, %.2f per minute, %.2f per second\n",
		r.Total, r.Uptime, r.PerHour, r.PerMinute, r.PerSecond)

	if _, err := io.WriteString(w, summary); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := io.WriteString(w, t.Render()+"\n")
	return err
}
