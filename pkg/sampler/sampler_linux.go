//go:build linux

// Package sampler owns the rendezvous that freezes one target thread long
// enough to capture its machine context.
//
// On Linux this is signal-based: the Sampler installs a process-wide
// SIGPROF handler and drives a four-cell handshake (the signal itself plays
// the role of message 1; S2/S3/S4 are POSIX semaphores — see pkg/sema) with
// the target thread. Only one Sampler may be live per process, and only one
// rendezvous may be outstanding at a time, because both rely on a single
// slot of process-wide state.
package sampler

/*
#include <signal.h>
#include <string.h>
#include <ucontext.h>

extern void wallclockHandleSigprof(void *uctx);

static void wallclock_trampoline(int sig, siginfo_t *info, void *uctxp) {
	(void)sig;
	(void)info;
	wallclockHandleSigprof(uctxp);
}

static int wallclock_install(struct sigaction *old) {
	struct sigaction sa;
	memset(&sa, 0, sizeof(sa));
	sa.sa_sigaction = wallclock_trampoline;
	sa.sa_flags = SA_SIGINFO | SA_RESTART;
	sigemptyset(&sa.sa_mask);
	// Block a second SIGPROF from landing on the target thread while it is
	// still inside our handler (spec's recorded open question on nested
	// signals): without this, a second rendezvous racing the first could
	// reenter the handler and alias the Go-side shared rendezvous state.
	sigaddset(&sa.sa_mask, SIGPROF);
	return sigaction(SIGPROF, &sa, old);
}

static int wallclock_restore(struct sigaction *old) {
	return sigaction(SIGPROF, old, (void*)0);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ja7ad/wallclock/pkg/sema"
	"github.com/ja7ad/wallclock/pkg/threadid"
	"github.com/ja7ad/wallclock/pkg/werr"
)

// MachineContext is a captured snapshot of a thread's CPU register state,
// copied by value out of signal-handler-owned memory. The Sampler never
// retains a pointer into the handler's stack once the callback returns.
type MachineContext struct {
	raw C.ucontext_t
}

// Pointer exposes the context's address for consumption by an Unwinder.
// libunwind's unw_context_t is defined to be layout-compatible with
// ucontext_t, so an unwinder package can reinterpret this pointer as its
// own cgo-generated type without copying.
func (m *MachineContext) Pointer() unsafe.Pointer {
	return unsafe.Pointer(&m.raw)
}

// StackSize reports the size in bytes of the alternate/thread stack this
// context was captured on; callers use it as a sanity check that a real
// context was copied (ss_size is zero only for an uninitialized context).
func (m *MachineContext) StackSize() uint64 {
	return uint64(m.raw.uc_stack.ss_size)
}

type sharedState struct {
	s2, s3, s4 *sema.Semaphore
	ctx        MachineContext
}

var (
	installMu sync.Mutex
	installed bool

	// rendezvousMu serializes rendezvous across calls on this Sampler,
	// and process-wide: only one rendezvous may be outstanding because
	// the shared context slot below has a single slot.
	rendezvousMu sync.Mutex
	shared       sharedState
)

// Sampler owns the process-wide SIGPROF disposition for its lifetime.
type Sampler struct {
	old C.struct_sigaction
}

// New installs the SIGPROF handler, saving the previous disposition.
// Only one Sampler may exist process-wide; a second call while the first is
// still alive returns werr.ErrSamplerInstalled (a FatalConfiguration per the
// specification's error taxonomy).
func New() (*Sampler, error) {
	installMu.Lock()
	defer installMu.Unlock()

	if installed {
		return nil, werr.ErrSamplerInstalled
	}

	s2, err := sema.New(0)
	if err != nil {
		return nil, fmt.Errorf("sampler: init s2: %w", err)
	}
	s3, err := sema.New(0)
	if err != nil {
		_ = s2.Close()
		return nil, fmt.Errorf("sampler: init s3: %w", err)
	}
	s4, err := sema.New(0)
	if err != nil {
		_ = s2.Close()
		_ = s3.Close()
		return nil, fmt.Errorf("sampler: init s4: %w", err)
	}

	shared = sharedState{s2: s2, s3: s3, s4: s4}

	var old C.struct_sigaction
	if rc, errno := C.wallclock_install(&old); rc != 0 {
		_ = s2.Close()
		_ = s3.Close()
		_ = s4.Close()
		return nil, fmt.Errorf("sampler: sigaction install: %w", errno)
	}

	installed = true
	return &Sampler{old: old}, nil
}

// Close restores the previous SIGPROF disposition and releases the
// rendezvous semaphores. The Sampler must not be used afterwards.
func (s *Sampler) Close() error {
	installMu.Lock()
	defer installMu.Unlock()

	if !installed {
		return nil
	}

	rc, errno := C.wallclock_restore(&s.old)

	_ = shared.s2.Close()
	_ = shared.s3.Close()
	_ = shared.s4.Close()
	shared = sharedState{}
	installed = false

	if rc != 0 {
		return fmt.Errorf("sampler: sigaction restore: %w", errno)
	}
	return nil
}

// SuspendAndResume freezes tid, invokes callback with its captured machine
// context, then resumes it. It panics if tid names the calling thread — a
// ProgrammerError, never recoverable. callback must not acquire any lock a
// sampled thread could hold, and runs on the sampling thread rather than in
// signal context, so it may allocate.
//
// Go methods cannot carry their own type parameters, so the generic result
// type is threaded through a package-level function instead of a method.
func SuspendAndResume[T any](s *Sampler, tid threadid.ID, callback func(*MachineContext) T) (T, error) {
	var zero T

	if tid.IsCurrent() {
		panic(werr.ErrSelfSample.Error())
	}

	rendezvousMu.Lock()
	defer rendezvousMu.Unlock()

	if !tid.Exists() {
		return zero, werr.ErrThreadVanished
	}

	if err := tid.Signal(unix.SIGPROF); err != nil {
		return zero, fmt.Errorf("sampler: deliver signal to %d: %w", tid, err)
	}

	if err := shared.s2.WaitThroughIntr(); err != nil {
		return zero, fmt.Errorf("sampler: wait for context copy: %w", err)
	}

	result := callback(&shared.ctx)

	if err := shared.s3.Post(); err != nil {
		return zero, fmt.Errorf("sampler: release target: %w", err)
	}
	if err := shared.s4.WaitThroughIntr(); err != nil {
		return zero, fmt.Errorf("sampler: wait for handler exit: %w", err)
	}

	shared.ctx = MachineContext{}
	return result, nil
}

//export wallclockHandleSigprof
func wallclockHandleSigprof(uctxp unsafe.Pointer) {
	shared.ctx.raw = *(*C.ucontext_t)(uctxp)
	_ = shared.s2.Post()
	_ = shared.s3.WaitThroughIntr()
	_ = shared.s4.Post()
	// DO NOT touch shared state beyond this point: the sampler may begin
	// tearing it down the instant s4 is posted.
}
