package scoring

import (
	"fmt"
	"sort"
)

// BandRange maps every raw score in [Min, Max] to Band.
type BandRange struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Band float64 `json:"band"`
}

// BandTable is an ordered set of ranges. The first matching range wins.
type BandTable []BandRange

// ComputeBand returns the band of the first range containing raw. Raw scores
// outside every range (negative, above the table, or an empty table) score 0.
func ComputeBand(raw int, table BandTable) float64 {
	for _, r := range table {
		if raw >= r.Min && raw <= r.Max {
			return r.Band
		}
	}
	return 0
}

// MaxRaw is the highest raw score covered by the table.
func (t BandTable) MaxRaw() int {
	max := 0
	for _, r := range t {
		if r.Max > max {
			max = r.Max
		}
	}
	return max
}

// Validate checks that the table partitions [0, maxRaw]: every integer raw
// score falls into exactly one range and no range reaches outside the domain.
func Validate(table BandTable, maxRaw int) error {
	if len(table) == 0 {
		return fmt.Errorf("band table is empty")
	}
	ranges := make(BandTable, len(table))
	copy(ranges, table)
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Min < ranges[j].Min })

	next := 0
	for _, r := range ranges {
		if r.Min > r.Max {
			return fmt.Errorf("range [%d,%d] is inverted", r.Min, r.Max)
		}
		if r.Band < 0 || r.Band > MaxBand {
			return fmt.Errorf("range [%d,%d] has band %.1f outside [0,%.0f]", r.Min, r.Max, r.Band, MaxBand)
		}
		if r.Min < next {
			return fmt.Errorf("range [%d,%d] overlaps raw score %d", r.Min, r.Max, r.Min)
		}
		if r.Min > next {
			return fmt.Errorf("raw scores %d..%d are not covered", next, r.Min-1)
		}
		next = r.Max + 1
	}
	if next-1 != maxRaw {
		return fmt.Errorf("table covers [0,%d], want [0,%d]", next-1, maxRaw)
	}
	return nil
}
