package domain

import "math"

// ScaleRadii maps a value column into display radii in [minR, maxR] by
// linear scaling: the column minimum lands on minR and the maximum on maxR.
// A degenerate column (max == min, including a single row) cannot be scaled,
// so every row receives defaultR. NaN values also fall back to defaultR.
func ScaleRadii(values []float64, minR, maxR, defaultR float64) []float64 {
	out := make([]float64, len(values))

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if !(hi > lo) {
		for i := range out {
			out[i] = defaultR
		}
		return out
	}

	span := hi - lo
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = defaultR
			continue
		}
		out[i] = minR + (maxR-minR)*(v-lo)/span
	}
	return out
}
