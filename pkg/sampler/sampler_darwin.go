//go:build darwin

package sampler

/*
#cgo LDFLAGS: -lunwind
#define UNW_LOCAL_ONLY
#include <string.h>
#include <mach/mach.h>
#include <mach/thread_act.h>
#include <libunwind.h>

// wc_capture_context reads t's register state and copies it into ctx, a
// libunwind unw_context_t. On Darwin unw_context_t is layout-compatible
// with ucontext_t, whose mcontext begins with the same machine-specific
// thread state thread_get_state hands back; copying the raw bytes in is
// the same trick the reference implementation this package is modeled on
// uses, in place of a real getcontext(3) call for a thread that is not
// the caller.
static kern_return_t wc_capture_context(thread_act_t t, unw_context_t *ctx) {
	mach_msg_type_number_t count;
	kern_return_t kr;

	memset(ctx, 0, sizeof(*ctx));

#if defined(__x86_64__)
	x86_thread_state64_t state;
	count = x86_THREAD_STATE64_COUNT;
	kr = thread_get_state(t, x86_THREAD_STATE64, (thread_state_t)&state, &count);
	if (kr == KERN_SUCCESS) {
		memcpy(ctx, &state, sizeof(state) < sizeof(*ctx) ? sizeof(state) : sizeof(*ctx));
	}
#elif defined(__arm64__)
	arm_thread_state64_t state;
	count = ARM_THREAD_STATE64_COUNT;
	kr = thread_get_state(t, ARM_THREAD_STATE64, (thread_state_t)&state, &count);
	if (kr == KERN_SUCCESS) {
		memcpy(ctx, &state, sizeof(state) < sizeof(*ctx) ? sizeof(state) : sizeof(*ctx));
	}
#else
#error "unsupported darwin architecture"
#endif

	return kr;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ja7ad/wallclock/pkg/threadid"
	"github.com/ja7ad/wallclock/pkg/werr"
)

// MachineContext holds a libunwind-compatible context captured from a
// suspended thread's register state. Unlike the Linux ucontext_t path
// there is no signal handler involved: the sampler reads the state
// directly via thread_get_state while the thread is suspended, then
// copies it into the same unw_context_t shape the unwinder expects.
type MachineContext struct {
	raw C.unw_context_t
}

// Pointer exposes the context's address for consumption by an Unwinder.
func (m *MachineContext) Pointer() unsafe.Pointer {
	return unsafe.Pointer(&m.raw)
}

var installMu sync.Mutex
var installed bool

// Sampler marks that at most one Sampler may be live process-wide, mirroring
// the Linux variant even though macOS needs no signal disposition.
type Sampler struct{}

// New claims the single process-wide Sampler slot. macOS needs no signal
// handler installation, but the single-instance restriction still applies:
// suspend/resume ordering across concurrent Samplers is not supported.
func New() (*Sampler, error) {
	installMu.Lock()
	defer installMu.Unlock()
	if installed {
		return nil, werr.ErrSamplerInstalled
	}
	installed = true
	return &Sampler{}, nil
}

// Close releases the Sampler slot.
func (s *Sampler) Close() error {
	installMu.Lock()
	defer installMu.Unlock()
	installed = false
	return nil
}

// SuspendAndResume freezes tid, invokes callback with its register state,
// then resumes it. Panics if tid names the calling thread.
func SuspendAndResume[T any](s *Sampler, tid threadid.ID, callback func(*MachineContext) T) (T, error) {
	var zero T

	if tid.IsCurrent() {
		panic(werr.ErrSelfSample.Error())
	}

	if err := tid.Suspend(); err != nil {
		return zero, fmt.Errorf("sampler: %w", err)
	}

	var ctx MachineContext
	kr := C.wc_capture_context(C.thread_act_t(tid), &ctx.raw)
	if kr != C.KERN_SUCCESS {
		_ = tid.Resume()
		return zero, fmt.Errorf("sampler: thread_get_state: kern_return_t %d", int(kr))
	}

	result := callback(&ctx)

	if err := tid.Resume(); err != nil {
		return zero, fmt.Errorf("sampler: %w", err)
	}
	return result, nil
}
