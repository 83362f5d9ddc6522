package canon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTable_InternIsIdempotent(t *testing.T) {
	tbl := New[string]()

	first := tbl.Intern("libc.so.6")
	second := tbl.Intern("libc.so.6")
	require.Equal(t, first, second)

	third := tbl.Intern("libm.so.6")
	require.NotEqual(t, first, third)
}

func TestTable_SnapshotPreservesInsertionOrder(t *testing.T) {
	tbl := New[uint64]()
	tbl.Intern(100)
	tbl.Intern(200)
	tbl.Intern(100)
	tbl.Intern(300)

	require.Equal(t, []uint64{100, 200, 300}, tbl.Snapshot())
	require.Equal(t, 3, tbl.Len())
}

func TestTable_IndicesAreStableDenseSequence(t *testing.T) {
	tbl := New[int]()
	for i := 0; i < 10; i++ {
		got := tbl.Intern(i * 7)
		require.Equal(t, uint32(i), got)
	}
}
