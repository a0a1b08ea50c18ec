// Package cms implements a Count-Min Sketch: a fixed-shape two-dimensional
// counter table that estimates how many times a key has been seen, trading
// a one-sided (overestimate-only) error for sublinear memory.
package cms

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"sync"
)

// Sketch is a thread-safe Count-Min Sketch of shape (depth rows, width
// columns). Counters are uint64 and saturate at math.MaxUint64 instead of
// wrapping.
//
// Concurrency: Sketch guards its whole counter table with a single
// sync.RWMutex held for the duration of Update/Estimate/Reset (the "coarse
// granularity" option from the design notes). Per-row atomics were
// considered and rejected: Estimate must read all d rows as of a single
// instant relative to concurrent Updates, and an RWMutex makes concurrent
// Estimate calls (the extract path) cheap while still serializing the rarer
// Reset against everything else.
type Sketch struct {
	mu       sync.RWMutex
	depth    int
	width    int
	counters [][]uint64
	seeds    []uint64
}

// NewWithDW builds a sketch with an explicit shape. Both d and w must be >=1.
func NewWithDW(d, w int) *Sketch {
	if d < 1 {
		d = 1
	}
	if w < 1 {
		w = 1
	}
	s := &Sketch{
		depth:    d,
		width:    w,
		counters: make([][]uint64, d),
		seeds:    make([]uint64, d),
	}
	for i := 0; i < d; i++ {
		s.counters[i] = make([]uint64, w)
		// Distinct per-row constant, mixed with the golden-ratio constant
		// the way the teacher sketch seeds its rows.
		s.seeds[i] = uint64(i)*0x9E3779B97F4A7C15 + 0x517CC1B727220A95
	}
	return s
}

// NewWithGammaEpsilon derives (d, w) from the usual CMS error bounds:
// d = ceil(ln(1/gamma)), w = ceil(e/epsilon). Both gamma and epsilon must be
// in (0, 1]; out-of-range values are clamped to that interval.
func NewWithGammaEpsilon(gamma, epsilon float64) *Sketch {
	gamma = clamp01(gamma)
	epsilon = clamp01(epsilon)
	d := int(math.Ceil(math.Log(1 / gamma)))
	w := int(math.Ceil(math.E / epsilon))
	return NewWithDW(d, w)
}

func clamp01(v float64) float64 {
	if v <= 0 {
		return math.SmallestNonzeroFloat64
	}
	if v > 1 {
		return 1
	}
	return v
}

// GammaFromDepth returns the gamma implied by a given depth: 1/exp(d).
func GammaFromDepth(d int) float64 {
	return 1 / math.Exp(float64(d))
}

// EpsilonFromWidth returns the epsilon implied by a given width: e/w, raised
// by one ulp where floating-point rounding would otherwise make
// ceil(e/epsilon) come out as w+1.
func EpsilonFromWidth(w int) float64 {
	eps := math.E / float64(w)
	if math.Ceil(math.E/eps) > float64(w) {
		eps = math.Nextafter(eps, math.Inf(1))
	}
	return eps
}

// Depth returns the number of hash rows.
func (s *Sketch) Depth() int { return s.depth }

// Width returns the number of columns per row.
func (s *Sketch) Width() int { return s.width }

// SizeBytes returns d*w*8, the fixed memory cost of the counter table.
func (s *Sketch) SizeBytes() int {
	return s.depth * s.width * 8
}

// Update adds delta to every row's counter for key, saturating at
// math.MaxUint64 instead of wrapping.
func (s *Sketch) Update(key []byte, delta uint64) {
	if delta == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < s.depth; i++ {
		col := s.index(i, key)
		row := s.counters[i]
		sum := row[col] + delta
		if sum < row[col] {
			sum = math.MaxUint64
		}
		row[col] = sum
	}
}

// Estimate returns the minimum counter across all rows for key, i.e. the
// CMS frequency estimate. It is always >= the true count.
func (s *Sketch) Estimate(key []byte) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var min uint64 = math.MaxUint64
	for i := 0; i < s.depth; i++ {
		col := s.index(i, key)
		if v := s.counters[i][col]; v < min {
			min = v
		}
	}
	return min
}

// Reset zeroes every counter. It holds the write lock, so it is serialized
// with Update and Estimate; increments made before it are discarded.
func (s *Sketch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.counters {
		row := s.counters[i]
		for j := range row {
			row[j] = 0
		}
	}
}

// index computes the column for hash row i and key, via a seeded xxhash
// reduced mod width.
func (s *Sketch) index(row int, key []byte) int {
	var seedBuf [8]byte
	binary.LittleEndian.PutUint64(seedBuf[:], s.seeds[row])

	h := xxhash.New()
	_, _ = h.Write(seedBuf[:])
	_, _ = h.Write(key)
	return int(h.Sum64() % uint64(s.width))
}
