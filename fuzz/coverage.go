package fuzz

import (
	"hash/fnv"
)

// coverageSize is the bitmap size in cells; a power of two so location
// hashes truncate with a mask.
const coverageSize = 1 << 10

// Coverage is a map of 8-bit saturating hit counters indexed by a
// deterministic hash of (method, pc). One instance accumulates a single
// run; a second instance serves as the campaign-wide map.
type Coverage struct {
	bitmap [coverageSize]uint8
}

// Hit bumps the counter for one executed location.
func (c *Coverage) Hit(method string, pc int) {
	loc := locID(method, pc)
	if c.bitmap[loc] < 0xFF {
		c.bitmap[loc]++
	}
}

// Reset clears the map for the next run.
func (c *Coverage) Reset() {
	c.bitmap = [coverageSize]uint8{}
}

// Score counts the covered locations.
func (c *Coverage) Score() int {
	n := 0
	for _, b := range c.bitmap {
		if b != 0 {
			n++
		}
	}
	return n
}

// Absorb merges a run's map into the campaign map and reports whether
// the run was interesting: it covered a new location, or pushed a known
// location's hit count into a higher bucket.
func (c *Coverage) Absorb(run *Coverage) bool {
	interesting := false
	for i, cnt := range run.bitmap {
		if cnt == 0 {
			continue
		}
		if c.bitmap[i] == 0 || bucket(cnt) > bucket(c.bitmap[i]) {
			c.bitmap[i] = cnt
			interesting = true
		}
	}
	return interesting
}

func locID(method string, pc int) uint32 {
	h := fnv.New32a()
	h.Write([]byte(method))
	h.Write([]byte{byte(pc), byte(pc >> 8), byte(pc >> 16), byte(pc >> 24)})
	return h.Sum32() & (coverageSize - 1)
}

// bucket folds a hit count into its AFL-style bucket so that only order
// of magnitude changes count as new coverage.
func bucket(x uint8) int {
	if x == 0 {
		return 0
	}
	thresholds := [...]uint8{1, 2, 4, 8, 16, 32, 128}
	for i, t := range thresholds {
		if x <= t {
			return i + 1
		}
	}
	return len(thresholds) + 1
}
