//go:build linux && cgo

package unwind

/*
#include <ucontext.h>
*/
import "C"

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

type selfContext struct {
	raw C.ucontext_t
}

func (c *selfContext) Pointer() unsafe.Pointer { return unsafe.Pointer(&c.raw) }

// captureSelf grabs the calling thread's own context via getcontext(3),
// giving the test a real unw_context_t without needing a signal handler —
// getcontext fills exactly the ucontext_t a SIGPROF handler would have
// copied.
func captureSelf(t *testing.T) *selfContext {
	t.Helper()
	var c selfContext
	if rc := C.getcontext(&c.raw); rc != 0 {
		t.Fatalf("getcontext failed: %d", int(rc))
	}
	return &c
}

func TestLibunwind_UnwindsSelf(t *testing.T) {
	u := NewLibunwind(64)
	frames, err := u.Unwind(captureSelf(t))
	require.NoError(t, err)
	require.NotEmpty(t, frames)
	require.LessOrEqual(t, len(frames), 64)
}

func TestLibunwind_ZeroMaxFrames(t *testing.T) {
	u := NewLibunwind(0)
	frames, err := u.Unwind(captureSelf(t))
	require.NoError(t, err)
	require.Empty(t, frames)
}

func TestLibunwind_ReusesBuffer(t *testing.T) {
	u := NewLibunwind(64)
	first, err := u.Unwind(captureSelf(t))
	require.NoError(t, err)
	require.NotEmpty(t, first)

	impl := u.(*libunwindUnwinder)
	require.Equal(t, 64, cap(impl.buf))
}
