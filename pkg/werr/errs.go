// Package werr groups the sentinel errors shared across the profiler core,
// following the same flat var-block convention as the teacher repo's
// per-package errs.go files.
package werr

import "errors"

var (
	// ErrSelfSample is returned when a caller asks the Sampler to suspend
	// the very thread that is calling it. This is a ProgrammerError: the
	// Sampler panics rather than returning this to the caller, but it is
	// named here so the panic message and any defensive checks agree on
	// wording.
	ErrSelfSample = errors.New("sampler: cannot suspend the sampling thread itself")

	// ErrSamplerInstalled is returned by sampler.New when a Sampler is
	// already live in this process. Only one signal disposition slot
	// exists process-wide.
	ErrSamplerInstalled = errors.New("sampler: a Sampler is already installed in this process")

	// ErrThreadVanished means the target thread terminated between
	// enumeration and signal delivery or suspension.
	ErrThreadVanished = errors.New("sampler: target thread vanished before rendezvous completed")

	// ErrSessionClosed is returned when SampleThread is called on a
	// Session that has already been finished.
	ErrSessionClosed = errors.New("profiler: session already finished")

	// ErrNoBuildID means a module's build-ID could not be extracted from
	// its on-disk binary (missing NT_GNU_BUILD_ID note or LC_UUID command).
	ErrNoBuildID = errors.New("modcache: no build-id found for module")

	// ErrNoMapping means dladdr(3) found no shared object containing the
	// queried address.
	ErrNoMapping = errors.New("modcache: address is not in any mapped module")
)
