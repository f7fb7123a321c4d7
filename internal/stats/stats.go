// Package stats provides grouped summary statistics, min-max scoring and
// bucket labeling for course measurements.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Observation is one measured value tagged with its group key. Multi-field
// grouping uses one key element per field, in a fixed order chosen by the
// caller.
type Observation struct {
	Key   []string
	Value float64
}

// GroupStats summarizes the observations sharing one group key.
type GroupStats struct {
	Key   []string `json:"key"`
	Count int      `json:"count"`
	Mean  float64  `json:"mean"`
	Min   float64  `json:"min"`
	Max   float64  `json:"max"`
	Std   float64  `json:"std"` // sample standard deviation, NaN when Count < 2
}

// groupKeySep joins key elements into a map key. Key fields come from
// normalized records which never contain NUL bytes.
const groupKeySep = "\x00"

// Aggregate computes per-group count, mean, min, max and sample standard
// deviation. Groups are returned in ascending key order so repeated runs over
// the same data produce identical output.
func Aggregate(obs []Observation) []GroupStats {
	if len(obs) == 0 {
		return nil
	}

	values := make(map[string][]float64)
	keys := make(map[string][]string)
	for _, o := range obs {
		k := strings.Join(o.Key, groupKeySep)
		values[k] = append(values[k], o.Value)
		if _, ok := keys[k]; !ok {
			keys[k] = o.Key
		}
	}

	order := make([]string, 0, len(values))
	for k := range values {
		order = append(order, k)
	}
	sort.Strings(order)

	groups := make([]GroupStats, 0, len(order))
	for _, k := range order {
		vals := values[k]
		min, max := vals[0], vals[0]
		for _, v := range vals {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		std := math.NaN()
		if len(vals) >= 2 {
			std = stat.StdDev(vals, nil)
		}
		groups = append(groups, GroupStats{
			Key:   keys[k],
			Count: len(vals),
			Mean:  stat.Mean(vals, nil),
			Min:   min,
			Max:   max,
			Std:   std,
		})
	}
	return groups
}

// Rate reports the fraction of values satisfying pred. The second return is
// false when values is empty, in which case no rate is defined.
func Rate[T any](values []T, pred func(T) bool) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	matched := 0
	for _, v := range values {
		if pred(v) {
			matched++
		}
	}
	return float64(matched) / float64(len(values)), true
}

// Measure selects which statistic of a GroupStats feeds scoring.
type Measure int

const (
	MeasureMean Measure = iota
	MeasureMin
	MeasureMax
)

func (m Measure) String() string {
	switch m {
	case MeasureMean:
		return "mean"
	case MeasureMin:
		return "min"
	case MeasureMax:
		return "max"
	default:
		return fmt.Sprintf("measure(%d)", int(m))
	}
}

func (g GroupStats) measure(m Measure) float64 {
	switch m {
	case MeasureMin:
		return g.Min
	case MeasureMax:
		return g.Max
	default:
		return g.Mean
	}
}

// UndefinedMetricError reports a scoring request where every group carries
// the same measure value, leaving the min-max ratio undefined. Callers decide
// what a flat field means, typically by assigning every group the top score.
type UndefinedMetricError struct {
	Measure Measure
	Value   float64
	Groups  int
}

func (e *UndefinedMetricError) Error() string {
	return fmt.Sprintf("score undefined: all %d groups share %s = %g", e.Groups, e.Measure, e.Value)
}

// ScoredGroup is a GroupStats with its 0-100 score attached.
type ScoredGroup struct {
	GroupStats
	Score float64 `json:"score"`
}

// RankAndScore assigns each group a score between 0 (worst) and 100 (best)
// by min-max scaling the chosen measure, and returns the groups sorted best
// first. With ascendingIsBetter the lowest measure scores 100 (lap times);
// without it the highest does (notes). Ties sort by key for stable output.
// When every group shares the same value the scale is undefined and an
// UndefinedMetricError is returned instead of a slice of NaN.
func RankAndScore(groups []GroupStats, measure Measure, ascendingIsBetter bool) ([]ScoredGroup, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	best, worst := groups[0].measure(measure), groups[0].measure(measure)
	for _, g := range groups[1:] {
		v := g.measure(measure)
		if ascendingIsBetter {
			if v < best {
				best = v
			}
			if v > worst {
				worst = v
			}
		} else {
			if v > best {
				best = v
			}
			if v < worst {
				worst = v
			}
		}
	}
	if best == worst {
		return nil, &UndefinedMetricError{Measure: measure, Value: best, Groups: len(groups)}
	}

	scored := make([]ScoredGroup, 0, len(groups))
	for _, g := range groups {
		v := g.measure(measure)
		scored = append(scored, ScoredGroup{
			GroupStats: g,
			Score:      100 * (1 - (v-best)/(worst-best)),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return strings.Join(scored[i].Key, groupKeySep) < strings.Join(scored[j].Key, groupKeySep)
	})
	return scored, nil
}
