//go:build linux

package sampler

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ja7ad/wallclock/pkg/threadid"
	"github.com/ja7ad/wallclock/pkg/werr"
)

func TestSampler_SuspendAndResume(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Close()

	tidCh := make(chan threadid.ID, 1)
	doneCh := make(chan struct{})
	quit := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		tidCh <- threadid.Current()
		<-quit
		close(doneCh)
	}()

	target := <-tidCh

	stackSize, err := SuspendAndResume(s, target, func(ctx *MachineContext) uint64 {
		return ctx.StackSize()
	})
	require.NoError(t, err)
	require.Greater(t, stackSize, uint64(0))

	close(quit)
	<-doneCh
}

func TestSampler_SuspendAndResume_PanicsOnSelf(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Close()

	require.Panics(t, func() {
		_, _ = SuspendAndResume(s, threadid.Current(), func(ctx *MachineContext) struct{} {
			return struct{}{}
		})
	})
}

func TestSampler_SecondInstallFails(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Close()

	_, err = New()
	require.ErrorIs(t, err, werr.ErrSamplerInstalled)
}
