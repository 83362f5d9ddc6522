// Package unwind turns a captured machine context into a bounded sequence
// of instruction-pointer frames.
package unwind

import "unsafe"

// Frame is a single captured instruction pointer, innermost-first within a
// Sample. Its width matches the target pointer size because it is a
// uintptr, so it is comparable and usable as a map key.
type Frame uintptr

// Context is anything that can hand out a pointer to a platform machine
// context suitable for unw_init_local. pkg/sampler.MachineContext (both the
// Linux ucontext_t variant and the Darwin unw_context_t variant filled from
// the Mach thread state) implements
// this, so the unwinder depends only on the capability, not on a concrete
// platform type — the polymorphic "Unwinder as capability" design spec
// section 9 calls for, generalized one level further: Context is the
// capability the Unwinder itself consumes.
type Context interface {
	Pointer() unsafe.Pointer
}

// Unwinder produces a bounded sequence of frames from a Context. It is
// safe to construct outside the stop window (construction may allocate);
// Unwind itself must not allocate on the heap while a thread is frozen, so
// callers should construct one Unwinder and reuse it across samples.
type Unwinder interface {
	Unwind(ctx Context) ([]Frame, error)
}
