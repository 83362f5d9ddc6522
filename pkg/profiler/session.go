package profiler

import (
	"log/slog"

	"github.com/ja7ad/wallclock/pkg/sampler"
	"github.com/ja7ad/wallclock/pkg/threadid"
	"github.com/ja7ad/wallclock/pkg/unwind"
	"github.com/ja7ad/wallclock/pkg/werr"
)

// Sample is one captured call stack, innermost frame first, still in
// raw-IP form — canonicalization into module-relative indices happens in
// pkg/output, not here.
type Sample struct {
	Frames []unwind.Frame
}

// Profile is a Session's finalized output: every thread sampled, each
// with the ordered sequence of Samples collected for it.
type Profile struct {
	Threads map[threadid.ID][]Sample
}

// Session accumulates samples for zero or more threads before being
// finished. A Session must not be shared across goroutines driving
// concurrent sample_thread calls; the underlying Sampler allows only one
// rendezvous in flight at a time.
type Session struct {
	profiler *Profiler
	threads  map[threadid.ID][]Sample
	closed   bool
}

// SampleThread runs one rendezvous-unwind cycle against tid and appends
// the resulting Sample. It returns werr.ErrSessionClosed if called after
// Finish, and propagates werr.ErrThreadVanished or a ProgrammerError panic
// from the underlying Sampler unchanged.
func (s *Session) SampleThread(tid threadid.ID) error {
	if s.closed {
		return werr.ErrSessionClosed
	}

	frames, err := sampler.SuspendAndResume(s.profiler.sampler, tid, func(ctx *sampler.MachineContext) []unwind.Frame {
		raw, uerr := s.profiler.unwinder.Unwind(ctx)
		if uerr != nil {
			slog.Warn("profiler: unwind failed, dropping sample", "thread_id", tid, "err", uerr)
			return nil
		}
		// Unwind reuses its internal buffer across calls; the callback
		// still runs on the sampler thread (off signal context), so it
		// is free to allocate a copy that outlives the next rendezvous.
		frames := make([]unwind.Frame, len(raw))
		copy(frames, raw)
		return frames
	})
	if err != nil {
		return err
	}

	s.threads[tid] = append(s.threads[tid], Sample{Frames: frames})
	return nil
}

// Finish consumes the Session and returns its accumulated Profile. A
// closed Session cannot be reopened; subsequent SampleThread calls return
// werr.ErrSessionClosed.
func (s *Session) Finish() Profile {
	s.closed = true
	return Profile{Threads: s.threads}
}
