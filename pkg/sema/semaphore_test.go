//go:build linux

package sema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSemaphore_PostWait(t *testing.T) {
	s, err := New(0)
	require.NoError(t, err)
	defer s.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		require.NoError(t, s.Post())
	}()

	require.NoError(t, s.WaitThroughIntr())
	<-done
}

func TestSemaphore_InitialValueUnblocksImmediately(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)
	defer s.Close()

	waited := make(chan error, 1)
	go func() { waited <- s.Wait() }()

	select {
	case err := <-waited:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait on a pre-posted semaphore should not block")
	}
}
