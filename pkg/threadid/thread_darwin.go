//go:build darwin

package threadid

/*
#cgo LDFLAGS: -framework CoreFoundation
#include <mach/mach.h>
#include <mach/mach_init.h>
#include <mach/task.h>
#include <mach/thread_act.h>

static kern_return_t wc_task_threads(thread_act_array_t *threads, mach_msg_type_number_t *count) {
	return task_threads(mach_task_self(), threads, count);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// ID is a Mach thread port naming a thread within this task.
type ID uint32

// Current returns the calling goroutine's underlying Mach thread port.
//
// As on Linux, pin the goroutine to its OS thread with runtime.LockOSThread
// before relying on this value across a rendezvous.
func Current() ID {
	return ID(C.mach_thread_self())
}

// IsCurrent reports whether id names the calling OS thread.
func (id ID) IsCurrent() bool {
	return id == Current()
}

// Suspend increments id's suspend count, freezing the thread. It is the
// macOS thread adapter's suspend primitive (see pkg/sampler's direct
// rendezvous on Darwin, spec section 4.3).
func (id ID) Suspend() error {
	if kr := C.thread_suspend(C.thread_act_t(id)); kr != C.KERN_SUCCESS {
		return fmt.Errorf("threadid: thread_suspend: kern_return_t %d", int(kr))
	}
	return nil
}

// Resume decrements id's suspend count. Once it reaches zero the thread
// continues execution.
func (id ID) Resume() error {
	if kr := C.thread_resume(C.thread_act_t(id)); kr != C.KERN_SUCCESS {
		return fmt.Errorf("threadid: thread_resume: kern_return_t %d", int(kr))
	}
	return nil
}

// Enumerate lists every thread in the current task, including the caller.
func Enumerate() ([]ID, error) {
	var threads C.thread_act_array_t
	var count C.mach_msg_type_number_t

	if kr := C.wc_task_threads(&threads, &count); kr != C.KERN_SUCCESS {
		return nil, fmt.Errorf("threadid: task_threads: kern_return_t %d", int(kr))
	}
	defer C.vm_deallocate(C.mach_task_self_, C.vm_address_t(uintptr(unsafe.Pointer(threads))), C.vm_size_t(uintptr(count)*unsafe.Sizeof(C.thread_act_t(0))))

	n := int(count)
	ids := make([]ID, n)
	slice := unsafe.Slice(threads, n)
	for i := 0; i < n; i++ {
		ids[i] = ID(slice[i])
	}
	return ids, nil
}
