// Package profiler binds the sampler and unwinder into a session-oriented
// façade: one Profiler owns the process-wide Sampler, and each Session
// accumulates raw-IP samples per thread until finished.
package profiler

import (
	"github.com/ja7ad/wallclock/pkg/sampler"
	"github.com/ja7ad/wallclock/pkg/threadid"
	"github.com/ja7ad/wallclock/pkg/unwind"
)

// Profiler owns exactly one Sampler for the lifetime of the process. Call
// Close to release the signal disposition it installed.
type Profiler struct {
	sampler  *sampler.Sampler
	unwinder unwind.Unwinder
}

// New installs the process-wide sampler and prepares an unwinder bounded
// to maxFrames frames per sample. Only one Profiler may be live at a time
// (mirroring the single Sampler restriction); a second call before Close
// returns werr.ErrSamplerInstalled.
func New(maxFrames int) (*Profiler, error) {
	s, err := sampler.New()
	if err != nil {
		return nil, err
	}
	return &Profiler{
		sampler:  s,
		unwinder: unwind.NewLibunwind(maxFrames),
	}, nil
}

// Close restores the previous signal disposition.
func (p *Profiler) Close() error {
	return p.sampler.Close()
}

// Session opens a new accumulation scope borrowing this Profiler's sampler
// and unwinder.
func (p *Profiler) Session() *Session {
	return &Session{
		profiler: p,
		threads:  make(map[threadid.ID][]Sample),
	}
}
