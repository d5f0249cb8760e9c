// Package stats computes the query statistics page of a database server:
// per-statement counts, hourly rates, shares of the total and the pie chart
// that accompanies them.
package stats

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
)

const (
	// CounterPrefix marks statement counters in server status variables.
	CounterPrefix = "Com_"

	// UptimeVariable is the status variable holding server uptime in seconds.
	UptimeVariable = "Uptime"

	// OtherSlice names the chart slice that collects small statements.
	OtherSlice = "Other"

	// Small slices are folded into OtherSlice once the chart already has
	// more than foldAfterSlices slices.
	foldAfterSlices = 6
	foldBelowShare  = 0.02
)

// Row is one statement type.
type Row struct {
	Counter    string  `json:"counter"`
	Name       string  `json:"name"`
	Value      int64   `json:"value"`
	PerHour    float64 `json:"per_hour"`
	Percentage float64 `json:"percentage"`
}

// Slice is one pie chart slice.
type Slice struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Result holds the computed statistics.
type Result struct {
	Rows      []Row   `json:"rows"`
	Chart     []Slice `json:"chart"`
	Total     int64   `json:"total"`
	Uptime    int64   `json:"uptime"`
	PerHour   float64 `json:"per_hour"`
	PerMinute float64 `json:"per_minute"`
	PerSecond float64 `json:"per_second"`
}

// DisplayName turns a counter into its display name: "Com_show_tables"
// becomes "show tables".
func DisplayName(counter string) string {
	return strings.ReplaceAll(strings.ReplaceAll(counter, CounterPrefix, ""), "_", " ")
}

// Compute builds the statistics for counters collected over uptime seconds.
// Counters that are zero or negative are left out. Rows are sorted by value,
// largest first, ties by counter name. A non-positive uptime yields zero
// rates.
func Compute(counters map[string]int64, uptime int64) Result {
	res := Result{Rows: []Row{}, Chart: []Slice{}, Uptime: uptime}

	for counter, value := range counters {
		if value <= 0 {
			continue
		}
		res.Rows = append(res.Rows, Row{Counter: counter, Name: DisplayName(counter), Value: value})
		res.Total += value
	}
	sort.Slice(res.Rows, func(i, j int) bool {
		if res.Rows[i].Value != res.Rows[j].Value {
			return res.Rows[i].Value > res.Rows[j].Value
		}
		return res.Rows[i].Counter < res.Rows[j].Counter
	})

	var hourFactor float64
	if uptime > 0 {
		hourFactor = 3600 / float64(uptime)
		res.PerHour = float64(res.Total) * hourFactor
		res.PerMinute = float64(res.Total) * 60 / float64(uptime)
		res.PerSecond = float64(res.Total) / float64(uptime)
	}

	var other int64
	for i := range res.Rows {
		row := &res.Rows[i]
		row.PerHour = float64(row.Value) * hourFactor
		row.Percentage = float64(row.Value) * 100 / float64(res.Total)

		if float64(row.Value) < float64(res.Total)*foldBelowShare && len(res.Chart) > foldAfterSlices {
			other += row.Value
			continue
		}
		res.Chart = append(res.Chart, Slice{Name: row.Name, Value: row.Value})
	}
	if other > 0 {
		res.Chart = append(res.Chart, Slice{Name: OtherSlice, Value: other})
	}

	return res
}

// QueryCounters selects the statement counters from server status
// variables.
func QueryCounters(vars map[string]int64) map[string]int64 {
	out := make(map[string]int64)
	for k, v := range vars {
		if strings.HasPrefix(k, CounterPrefix) {
			out[k] = v
		}
	}
	return out
}

// ParseStatus decodes a YAML or JSON mapping of status variable to value,
// such as a dump of SHOW GLOBAL STATUS. Values may be numbers or numeric
// strings.
func ParseStatus(data []byte) (map[string]int64, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	vars := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, fmt.Errorf("status variable %s: %w", k, err)
		}
		vars[k] = n
	}
	return vars, nil
}

// LoadStatus reads status variables from a file. The returned uptime is the
// Uptime variable, or 0 when absent.
func LoadStatus(path string) (counters map[string]int64, uptime int64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, dberrors.ValidationError(fmt.Sprintf("failed to read status file %s", path), err).
			WithDetail("path", path)
	}

	vars, err := ParseStatus(data)
	if err != nil {
		return nil, 0, dberrors.ValidationError(fmt.Sprintf("failed to parse status file %s", path), err).
			WithDetail("path", path)
	}

	return QueryCounters(vars), vars[UptimeVariable], nil
}
