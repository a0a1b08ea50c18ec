package cms

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicCount(t *testing.T) {
	s := NewWithDW(5, 2048)
	for i := 0; i < 1000; i++ {
		s.Update([]byte("/bin/sh"), 1)
	}
	assert.Equal(t, uint64(1000), s.Estimate([]byte("/bin/sh")))
}

func TestCollisionOverestimateBound(t *testing.T) {
	s := NewWithDW(2, 4)
	keys := make([]string, 100)
	for i := range keys {
		keys[i] = "/usr/bin/app-" + strconv.Itoa(i)
	}
	for _, k := range keys {
		for i := 0; i < 10; i++ {
			s.Update([]byte(k), 1)
		}
	}
	for _, k := range keys {
		est := s.Estimate([]byte(k))
		assert.GreaterOrEqual(t, est, uint64(10))
		assert.LessOrEqual(t, est, uint64(1000))
	}
}

func TestResetZeroesEstimates(t *testing.T) {
	s := NewWithDW(4, 256)
	s.Update([]byte("k"), 42)
	require.Equal(t, uint64(42), s.Estimate([]byte("k")))
	s.Reset()
	assert.Equal(t, uint64(0), s.Estimate([]byte("k")))
}

func TestSizeBytesUnaffectedByUpdates(t *testing.T) {
	s := NewWithDW(4, 256)
	before := s.SizeBytes()
	for i := 0; i < 10000; i++ {
		s.Update([]byte("k"), 1)
	}
	assert.Equal(t, before, s.SizeBytes())
	assert.Equal(t, 4*256*8, before)
}

func TestGammaEpsilonInverses(t *testing.T) {
	for d := 1; d < 20; d++ {
		gamma := GammaFromDepth(d)
		gotD := int(math.Ceil(math.Log(1 / gamma)))
		assert.Equal(t, d, gotD)
	}
	for w := 1; w < 5000; w += 37 {
		eps := EpsilonFromWidth(w)
		gotW := int(math.Ceil(math.E / eps))
		assert.Equal(t, w, gotW)
	}
}

func TestGammaEpsilonConstructorShape(t *testing.T) {
	s := NewWithGammaEpsilon(0.01, 0.001)
	wantD := int(math.Ceil(math.Log(1 / 0.01)))
	wantW := int(math.Ceil(math.E / 0.001))
	assert.Equal(t, wantD, s.Depth())
	assert.Equal(t, wantW, s.Width())
}

func TestDeterminism(t *testing.T) {
	s1 := NewWithDW(4, 128)
	s2 := NewWithDW(4, 128)
	seq := []struct {
		key   string
		delta uint64
	}{
		{"a", 1}, {"b", 2}, {"a", 3}, {"c", 5}, {"b", 1},
	}
	for _, u := range seq {
		s1.Update([]byte(u.key), u.delta)
		s2.Update([]byte(u.key), u.delta)
	}
	for _, k := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, s1.Estimate([]byte(k)), s2.Estimate([]byte(k)))
	}
}

func TestSaturatingAddition(t *testing.T) {
	s := NewWithDW(1, 1)
	s.Update([]byte("k"), math.MaxUint64)
	s.Update([]byte("k"), 100)
	assert.Equal(t, uint64(math.MaxUint64), s.Estimate([]byte("k")))
}

func TestEstimateNeverDecreasesBetweenUpdates(t *testing.T) {
	s := NewWithDW(3, 64)
	var last uint64
	for i := 0; i < 50; i++ {
		s.Update([]byte("k"), 1)
		cur := s.Estimate([]byte("k"))
		assert.GreaterOrEqual(t, cur, last)
		last = cur
	}
}

func TestZeroDeltaIsNoop(t *testing.T) {
	s := NewWithDW(2, 8)
	s.Update([]byte("k"), 0)
	assert.Equal(t, uint64(0), s.Estimate([]byte("k")))
}

func TestDegenerateShapeClampedToOne(t *testing.T) {
	s := NewWithDW(0, 0)
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, 1, s.Width())
}
