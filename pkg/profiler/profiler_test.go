//go:build linux

package profiler

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ja7ad/wallclock/pkg/threadid"
	"github.com/ja7ad/wallclock/pkg/werr"
)

func spawnSpinner(t *testing.T) (tid threadid.ID, quit chan<- struct{}, done <-chan struct{}) {
	t.Helper()
	tidCh := make(chan threadid.ID, 1)
	quitCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		tidCh <- threadid.Current()
		for {
			select {
			case <-quitCh:
				close(doneCh)
				return
			default:
			}
		}
	}()

	return <-tidCh, quitCh, doneCh
}

func TestSession_SampleThreadAccumulatesSamples(t *testing.T) {
	p, err := New(64)
	require.NoError(t, err)
	defer p.Close()

	tid, quit, done := spawnSpinner(t)
	defer func() { close(quit); <-done }()

	sess := p.Session()
	for i := 0; i < 5; i++ {
		require.NoError(t, sess.SampleThread(tid))
	}

	profile := sess.Finish()
	require.Len(t, profile.Threads[tid], 5)
}

func TestSession_RejectsSampleThreadAfterFinish(t *testing.T) {
	p, err := New(64)
	require.NoError(t, err)
	defer p.Close()

	tid, quit, done := spawnSpinner(t)
	defer func() { close(quit); <-done }()

	sess := p.Session()
	require.NoError(t, sess.SampleThread(tid))
	sess.Finish()

	require.ErrorIs(t, sess.SampleThread(tid), werr.ErrSessionClosed)
}

func TestSession_MultiThreadSampling(t *testing.T) {
	const numThreads = 10
	const samplesPerThread = 20

	p, err := New(150)
	require.NoError(t, err)
	defer p.Close()

	tids := make([]threadid.ID, numThreads)
	quits := make([]chan<- struct{}, numThreads)
	dones := make([]<-chan struct{}, numThreads)
	for i := 0; i < numThreads; i++ {
		tids[i], quits[i], dones[i] = spawnSpinner(t)
	}
	defer func() {
		for i := 0; i < numThreads; i++ {
			close(quits[i])
			<-dones[i]
		}
	}()

	sess := p.Session()
	for _, tid := range tids {
		for i := 0; i < samplesPerThread; i++ {
			require.NoError(t, sess.SampleThread(tid))
		}
	}

	profile := sess.Finish()
	require.Len(t, profile.Threads, numThreads)
	for _, tid := range tids {
		require.Len(t, profile.Threads[tid], samplesPerThread)
	}
}
