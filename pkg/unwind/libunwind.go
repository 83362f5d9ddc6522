//go:build (linux || darwin) && cgo

package unwind

/*
#cgo linux LDFLAGS: -lunwind
#cgo darwin LDFLAGS: -lunwind
#define UNW_LOCAL_ONLY
#include <libunwind.h>
*/
import "C"

import "fmt"

// libunwindUnwinder walks a suspended thread's call stack using
// libunwind's local-unwind interface: unw_init_local followed by
// alternating unw_step/unw_get_reg, exactly as described in the
// specification's unwinder contract.
type libunwindUnwinder struct {
	max int
	buf []Frame
}

// NewLibunwind returns an Unwinder bounded to maxFrames per call. The frame
// buffer is allocated once, here, and reused across every subsequent
// Unwind call — construction may allocate, Unwind must not. Callers must
// finish consuming (or copying) the returned slice before the next Unwind
// call, since it aliases the same backing array.
func NewLibunwind(maxFrames int) Unwinder {
	return &libunwindUnwinder{max: maxFrames, buf: make([]Frame, maxFrames)}
}

// Unwind produces 0..=max frames, innermost first. It returns an error if
// libunwind reports a negative step or register-read code; any frames
// collected before the failure are discarded rather than returned as a
// partial prefix (the specification leaves this as an open choice — see
// DESIGN.md for the recorded decision). No test in this package exercises
// the error path.
func (u *libunwindUnwinder) Unwind(ctx Context) ([]Frame, error) {
	if u.max == 0 {
		return nil, nil
	}

	var cursor C.unw_cursor_t
	if rc := C.unw_init_local(&cursor, (*C.unw_context_t)(ctx.Pointer())); rc < 0 {
		return nil, fmt.Errorf("unwind: unw_init_local: %d", int(rc))
	}

	n := 0
	for n < u.max {
		step := C.unw_step(&cursor)
		if step == 0 {
			break
		}
		if step < 0 {
			return nil, fmt.Errorf("unwind: unw_step: %d", int(step))
		}

		var ip C.unw_word_t
		if rr := C.unw_get_reg(&cursor, C.UNW_REG_IP, &ip); rr < 0 {
			return nil, fmt.Errorf("unwind: unw_get_reg: %d", int(rr))
		}
		u.buf[n] = Frame(ip)
		n++
	}
	return u.buf[:n], nil
}
