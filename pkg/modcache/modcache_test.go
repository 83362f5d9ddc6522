package modcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCache_ResolveHitsCachedRange(t *testing.T) {
	c := New()
	info := ModuleInfo{Name: "libfoo.so", BuildID: "deadbeef"}
	c.ranges = append(c.ranges, moduleRange{Info: info, Low: 0x1000, High: 0x1010, LoadBase: 0x1000})

	got, rel, ok := c.Resolve(0x1008)
	require.True(t, ok)
	require.Equal(t, info, got)
	require.Equal(t, uintptr(0x8), rel)
}

func TestCache_ResolveMissWithoutMapping(t *testing.T) {
	c := New()
	// An address vanishingly unlikely to fall inside any mapped object in
	// the test process's address space.
	_, _, ok := c.Resolve(0x1)
	require.False(t, ok)
}

func TestCache_ResolveSelectsContainingRange(t *testing.T) {
	c := New()
	info := ModuleInfo{Name: "a.out", BuildID: "cafef00d"}
	c.ranges = append(c.ranges,
		moduleRange{Info: info, Low: 0x2000, High: 0x2010, LoadBase: 0x2000},
		moduleRange{Info: ModuleInfo{Name: "b.so", BuildID: "babababa"}, Low: 0x3000, High: 0x3010, LoadBase: 0x3000},
	)

	require.Len(t, c.ranges, 2)

	got, rel, ok := c.Resolve(0x2005)
	require.True(t, ok)
	require.Equal(t, info, got)
	require.Equal(t, uintptr(0x5), rel)
}
