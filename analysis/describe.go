// Package analysis は数値列の記述統計を計算する
package analysis

import (
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/sortinghat/dataset"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

// Rows は表に出力する統計量の順序
var Rows = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Summary は1つの列の記述統計。値がない列はカウント以外すべて NaN。
type Summary struct {
	Name  string
	Count int
	Mean  float64
	// Std は母標準偏差（count で割る）
	Std float64
	Min float64
	Q25 float64
	Q50 float64
	Q75 float64
	Max float64
}

// Values は Rows の順に値を返す
func (s Summary) Values() []float64 {
	return []float64{float64(s.Count), s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max}
}

// Summarize は NaN を欠損として除いた値から統計量を計算する
func Summarize(name string, values []float64) Summary {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}

	s := Summary{Name: name, Count: len(present)}
	if len(present) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	sort.Float64s(present)
	s.Mean = stat.Mean(present, nil)
	s.Std = stat.PopStdDev(present, nil)
	s.Min = floats.Min(present)
	s.Max = floats.Max(present)
	s.Q25 = Percentile(present, 25)
	s.Q50 = Percentile(present, 50)
	s.Q75 = Percentile(present, 75)
	return s
}

// Percentile は昇順に並んだ値の p パーセンタイルを返す。
// rank = p/100 * n の整数部の要素と次の要素を小数部で線形補間する。
// 次の要素がない場合は整数部の要素をそのまま使う。
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	rank := p / 100 * float64(n)
	whole, frac := math.Modf(rank)
	lo := int(whole)
	if lo >= n {
		lo = n - 1
	}
	lower := sorted[lo]
	upper := lower
	if lo+1 < n {
		upper = sorted[lo+1]
	}
	return lower + frac*(upper-lower)
}

// Describe はデータセットの全数値列を要約する
func Describe(ds *dataset.Dataset) ([]Summary, error) {
	if ds.NFeatures() == 0 {
		return nil, errors.NewValueError("Describe", "dataset has no numeric column")
	}
	out := make([]Summary, 0, ds.NFeatures())
	for _, name := range ds.FeatureNames {
		col, err := ds.Column(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Summarize(name, col))
	}
	return out, nil
}

// WriteTable は統計量を行、列名を列とした表を書き出す
func WriteTable(w io.Writer, summaries []Summary) {
	table := tablewriter.NewWriter(w)
	header := make([]string, 0, len(summaries)+1)
	header = append(header, "")
	for _, s := range summaries {
		header = append(header, s.Name)
	}
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)

	for i, row := range Rows {
		line := make([]string, 0, len(summaries)+1)
		line = append(line, row)
		for _, s := range summaries {
			line = append(line, format(s.Values()[i]))
		}
		table.Append(line)
	}
	table.Render()
}

func format(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
