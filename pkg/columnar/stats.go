package columnar

import "math"

// ColumnStats summarises one numeric column. Missing entries (NaN or absent)
// are counted in Missing, infinite ones in Infinite. Neither takes part in
// Min, Max and Mean, so the summary is always finite.
type ColumnStats struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Missing  int     `json:"missing"`
	Infinite int     `json:"infinite"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
}

// Describe computes summary statistics for the numeric columns of t. Min,
// Max and Mean are zero when a column has no finite values.
func Describe(t *Table) []ColumnStats {
	pop := newStats("population")
	for i := 0; i < t.Population.Len(); i++ {
		v, ok := t.Population.Value(i)
		pop.add(float64(v), ok)
	}
	lat := newStats("latitude")
	for _, v := range t.Latitude.Values() {
		lat.add(v, !math.IsNaN(v))
	}
	lon := newStats("longitude")
	for _, v := range t.Longitude.Values() {
		lon.add(v, !math.IsNaN(v))
	}
	return []ColumnStats{pop.done(), lat.done(), lon.done()}
}

type accum struct {
	ColumnStats
	sum     float64
	present int
}

func newStats(name string) *accum {
	return &accum{ColumnStats: ColumnStats{Name: name, Min: math.Inf(1), Max: math.Inf(-1)}}
}

func (a *accum) add(v float64, ok bool) {
	a.Count++
	if !ok {
		a.Missing++
		return
	}
	if math.IsInf(v, 0) {
		a.Infinite++
		return
	}
	a.present++
	a.sum += v
	a.Min = math.Min(a.Min, v)
	a.Max = math.Max(a.Max, v)
}

func (a *accum) done() ColumnStats {
	if a.present == 0 {
		a.Min, a.Max = 0, 0
		return a.ColumnStats
	}
	a.Mean = a.sum / float64(a.present)
	return a.ColumnStats
}
