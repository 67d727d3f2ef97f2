package domain

import "math"

// ColumnStats summarizes one numeric column over its non-NaN cells.
type ColumnStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Summarize computes count/min/max/mean over the non-NaN entries. A column
// with no usable entries returns a zero-count summary with NaN bounds.
func Summarize(values []float64) ColumnStats {
	s := ColumnStats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	sum := 0.0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if s.Count == 0 {
			s.Min, s.Max = v, v
		} else {
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
		sum += v
		s.Count++
	}
	if s.Count > 0 {
		s.Mean = sum / float64(s.Count)
	}
	return s
}

// CorrelationMatrix computes pairwise Pearson correlations between columns.
// Rows where either column is NaN are excluded pairwise. Pairs with fewer
// than two shared rows, or with a zero-variance column, yield NaN.
func CorrelationMatrix(columns [][]float64) [][]float64 {
	n := len(columns)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			if i == j {
				out[i][j] = 1
				continue
			}
			if j < i {
				out[i][j] = out[j][i]
				continue
			}
			out[i][j] = pearson(columns[i], columns[j])
		}
	}
	return out
}

func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}

	var count int
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		sumX += xs[i]
		sumY += ys[i]
		count++
	}
	if count < 2 {
		return math.NaN()
	}

	meanX := sumX / float64(count)
	meanY := sumY / float64(count)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}

// Histogram buckets the non-NaN values into the given number of equal-width
// bins between the column min and max. A degenerate column produces a single
// bin holding every value.
type Histogram struct {
	BinEdges []float64 // len = bins+1
	Counts   []int     // len = bins
}

// BuildHistogram computes a fixed-bin histogram over the non-NaN values.
func BuildHistogram(values []float64, bins int) Histogram {
	if bins < 1 {
		bins = 1
	}
	s := Summarize(values)
	if s.Count == 0 {
		return Histogram{BinEdges: []float64{0, 0}, Counts: make([]int, 1)}
	}
	if s.Max == s.Min {
		return Histogram{
			BinEdges: []float64{s.Min, s.Max},
			Counts:   []int{s.Count},
		}
	}

	h := Histogram{
		BinEdges: make([]float64, bins+1),
		Counts:   make([]int, bins),
	}
	width := (s.Max - s.Min) / float64(bins)
	for i := 0; i <= bins; i++ {
		h.BinEdges[i] = s.Min + width*float64(i)
	}
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		idx := int((v - s.Min) / width)
		if idx >= bins { // max value lands in the last bin
			idx = bins - 1
		}
		h.Counts[idx]++
	}
	return h
}
