//go:build linux && cgo

package modcache

/*
#cgo LDFLAGS: -ldl
#define _GNU_SOURCE
#include <dlfcn.h>
*/
import "C"

import "unsafe"

// dladdrLookup asks the dynamic linker which mapped object owns addr. It
// returns the object's path on disk and its load base (dli_fbase), the
// same address libunwind and /proc/self/maps agree on for that mapping.
func dladdrLookup(addr uintptr) (path string, loadBase uintptr, ok bool) {
	var info C.Dl_info
	if C.dladdr(unsafe.Pointer(addr), &info) == 0 {
		return "", 0, false
	}
	if info.dli_fname == nil {
		return "", 0, false
	}
	return C.GoString(info.dli_fname), uintptr(info.dli_fbase), true
}
