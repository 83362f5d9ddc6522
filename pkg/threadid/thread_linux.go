//go:build linux

package threadid

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// ID is a Linux kernel task id, addressable via tgkill(2).
type ID int32

// Current returns the calling goroutine's underlying OS thread id.
//
// Callers that need a stable identity across the lifetime of a rendezvous
// must pin the goroutine to its OS thread first (runtime.LockOSThread),
// otherwise the Go scheduler may migrate it before the id is used.
func Current() ID {
	return ID(unix.Gettid())
}

// IsCurrent reports whether id names the calling OS thread.
func (id ID) IsCurrent() bool {
	return id == Current()
}

// Exists reports whether the task directory for id is still present under
// /proc/self/task. A negative result means the thread has already exited;
// this is the cheap pre-check the profiler uses to avoid signalling a
// thread that vanished between enumeration and sampling.
func (id ID) Exists() bool {
	_, err := os.Stat(fmt.Sprintf("/proc/self/task/%d", id))
	return err == nil
}

// Signal delivers sig to id via tgkill(2), addressed to this process and
// this specific task. It is the Linux thread adapter's suspend/resume
// primitive: the profiler's Sampler uses it to deliver the stop signal that
// starts a rendezvous (see pkg/sampler).
func (id ID) Signal(sig unix.Signal) error {
	return unix.Tgkill(os.Getpid(), int(id), sig)
}

// Enumerate lists every task currently known under /proc/self/task,
// including the calling thread itself — callers that must not target
// themselves filter with IsCurrent.
//
// This does not guarantee a complete or stable snapshot: threads created
// after the directory listing began may be missing, and returned ids may
// have already exited by the time the caller acts on them.
func Enumerate() ([]ID, error) {
	entries, err := os.ReadDir("/proc/self/task")
	if err != nil {
		return nil, fmt.Errorf("threadid: list task dir: %w", err)
	}

	ids := make([]ID, 0, len(entries))
	for _, entry := range entries {
		tid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		ids = append(ids, ID(tid))
	}
	return ids, nil
}
