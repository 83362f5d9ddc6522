//go:build linux

// Package sema provides an async-signal-safe counting semaphore.
//
// POSIX guarantees only sem_post is safe to call from a signal handler, so
// this thin wrapper over an unnamed sem_t is the sole synchronization
// primitive the stop-signal handler in pkg/sampler is allowed to touch.
package sema

/*
#include <errno.h>
#include <semaphore.h>
*/
import "C"

import (
	"fmt"
	"syscall"
)

// Semaphore wraps a POSIX unnamed semaphore (sem_t).
type Semaphore struct {
	sem C.sem_t
}

// New creates a semaphore initialized to value, private to this process.
func New(value uint32) (*Semaphore, error) {
	s := &Semaphore{}
	if rc, errno := C.sem_init(&s.sem, 0, C.uint(value)); rc != 0 {
		return nil, fmt.Errorf("sema: sem_init: %w", errno)
	}
	return s, nil
}

// Post increments the semaphore. It is the only operation on this type that
// is safe to call from within a signal handler.
func (s *Semaphore) Post() error {
	if rc, errno := C.sem_post(&s.sem); rc != 0 {
		return fmt.Errorf("sema: sem_post: %w", errno)
	}
	return nil
}

// Wait blocks until the semaphore is non-zero, then decrements it. It
// returns immediately with EINTR if interrupted by a signal; use
// WaitThroughIntr from non-signal context.
func (s *Semaphore) Wait() error {
	if rc, errno := C.sem_wait(&s.sem); rc != 0 {
		return fmt.Errorf("sema: sem_wait: %w", errno)
	}
	return nil
}

// WaitThroughIntr retries Wait across EINTR, returning only once sem_wait
// truly succeeds or fails for a reason other than interruption. The
// sampling thread needs this because other signals in the process — not
// just the profiling signal targeted at a different thread — can interrupt
// its wait.
func (s *Semaphore) WaitThroughIntr() error {
	for {
		err := s.Wait()
		if err == nil {
			return nil
		}
		if errno, ok := asErrno(err); ok && errno == syscall.EINTR {
			continue
		}
		return err
	}
}

// Close destroys the underlying semaphore object.
func (s *Semaphore) Close() error {
	if rc, errno := C.sem_destroy(&s.sem); rc != 0 {
		return fmt.Errorf("sema: sem_destroy: %w", errno)
	}
	return nil
}

func asErrno(err error) (syscall.Errno, bool) {
	for {
		if errno, ok := err.(syscall.Errno); ok {
			return errno, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0, false
		}
		err = u.Unwrap()
	}
}
