// Package threadid identifies and enumerates the native OS threads of the
// current process.
//
// This is the "external collaborator" the profiler core depends on but does
// not own: on Linux an ID is a kernel task id addressable via tgkill(2); on
// macOS it is a Mach thread port. Equality is value equality on the
// underlying identifier. An ID stays valid until the OS thread terminates;
// callers that signal a stale ID degrade to a "thread vanished" condition
// rather than a crash (see pkg/werr).
package threadid
