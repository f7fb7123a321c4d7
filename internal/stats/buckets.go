package stats

import (
	"fmt"
	"math"
)

// Buckets maps values to labels over half-open intervals (lower, upper]
// between consecutive boundaries. Use math.Inf boundaries for unbounded
// outer intervals.
type Buckets struct {
	boundaries []float64
	labels     []string
}

// NewBuckets builds a bucket map from strictly increasing boundaries and one
// label per interval, so len(labels) must equal len(boundaries)-1.
func NewBuckets(boundaries []float64, labels []string) (*Buckets, error) {
	if len(boundaries) < 2 {
		return nil, fmt.Errorf("need at least 2 boundaries, got %d", len(boundaries))
	}
	if len(labels) != len(boundaries)-1 {
		return nil, fmt.Errorf("need %d labels for %d boundaries, got %d", len(boundaries)-1, len(boundaries), len(labels))
	}
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] <= boundaries[i-1] {
			return nil, fmt.Errorf("boundaries must be strictly increasing, got %g after %g", boundaries[i], boundaries[i-1])
		}
	}
	return &Buckets{boundaries: boundaries, labels: labels}, nil
}

// Label returns the label of the interval containing v. The second return is
// false for values outside every interval and for NaN, which callers leave
// unlabeled rather than force into a bucket.
func (b *Buckets) Label(v float64) (string, bool) {
	if math.IsNaN(v) {
		return "", false
	}
	for i := 0; i < len(b.labels); i++ {
		if v > b.boundaries[i] && v <= b.boundaries[i+1] {
			return b.labels[i], true
		}
	}
	return "", false
}
