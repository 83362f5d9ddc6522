//go:build darwin && cgo

package modcache

/*
#include <dlfcn.h>
*/
import "C"

import "unsafe"

// dladdrLookup asks the dynamic linker which loaded Mach-O image owns addr.
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
