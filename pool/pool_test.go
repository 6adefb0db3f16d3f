package pool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowlinego/flowline/pool"
)

func TestSliceGetReturnsClearedInstance(t *testing.T) {
	p := pool.NewSlice[int]()
	s := p.Get()
	require.Len(t, s, 0)
	s = append(s, 1, 2, 3)
	p.Put(s)

	s2 := p.Get()
	require.Len(t, s2, 0)
}

func TestSliceOversizedIsDropped(t *testing.T) {
	p := pool.NewSlice[int]()
	big := make([]int, 0, pool.MaxPooledCapacity+1)
	for i := 0; i <= pool.MaxPooledCapacity; i++ {
		big = append(big, i)
	}
	require.NotPanics(t, func() { p.Put(big) })
	require.LessOrEqual(t, cap(p.Get()), pool.MaxPooledCapacity)
}

func TestMapGetReturnsClearedInstance(t *testing.T) {
	p := pool.NewMap[string, int]()
	m := p.Get()
	m["a"] = 1
	p.Put(m)

	m2 := p.Get()
	require.Len(t, m2, 0)
}

func TestSetRoundTrip(t *testing.T) {
	p := pool.NewSet[string]()
	s := p.Get()
	s["x"] = struct{}{}
	require.Len(t, s, 1)
	p.Put(s)

	s2 := p.Get()
	require.Len(t, s2, 0)
}
