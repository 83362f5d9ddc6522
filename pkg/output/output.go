// Package output canonicalizes a raw-IP Profile into the compact, indexed
// JSON artifact consumed by offline symbolication tooling.
package output

import (
	"github.com/ja7ad/wallclock/pkg/canon"
	"github.com/ja7ad/wallclock/pkg/modcache"
	"github.com/ja7ad/wallclock/pkg/profiler"
	"github.com/ja7ad/wallclock/pkg/threadid"
)

// Module is a canonicalized module entry: the wire form of a
// modcache.ModuleInfo.
type Module struct {
	Name    string `json:"name"`
	BuildID string `json:"build_id"`
}

// Frame is a canonicalized frame entry: a module index paired with an
// offset relative to that module's load base.
type Frame struct {
	ModuleIndex uint32 `json:"module_index"`
	RelativeIP  uint64 `json:"relative_ip"`
}

// Outputter owns the module and frame interning tables for one profiling
// run. It is not safe for concurrent use, and is meant to be used once per
// profiler.Profile: construct, call Output, discard.
type Outputter struct {
	cache   *modcache.Cache
	modules *canon.Table[Module]
	frames  *canon.Table[Frame]
}

// New returns an Outputter backed by a fresh module cache and empty
// interning tables.
func New() *Outputter {
	return &Outputter{
		cache:   modcache.New(),
		modules: canon.New[Module](),
		frames:  canon.New[Frame](),
	}
}

// Output resolves every frame in p against the module cache, interns
// modules and frames, and assembles the serializable Profile: modules and
// frames in index order, and per-thread samples referencing frame
// indices. Frames that fail to resolve to a module (an unmapped address,
// or a module with no extractable build-ID) are dropped from their
// sample rather than failing the whole run.
func (o *Outputter) Output(p profiler.Profile) Profile {
	threads := make([]Thread, 0, len(p.Threads))
	for tid, samples := range p.Threads {
		sampleDocs := make([]Sample, 0, len(samples))
		for _, sample := range samples {
			sampleDocs = append(sampleDocs, Sample{Frames: o.internSample(sample)})
		}
		threads = append(threads, Thread{ThreadID: tid, Samples: sampleDocs})
	}

	return Profile{
		Modules: o.modules.Snapshot(),
		Frames:  o.frames.Snapshot(),
		Threads: threads,
	}
}

func (o *Outputter) internSample(sample profiler.Sample) []uint32 {
	indices := make([]uint32, 0, len(sample.Frames))
	for _, ip := range sample.Frames {
		info, rel, ok := o.cache.Resolve(uintptr(ip))
		if !ok {
			continue
		}
		moduleIdx := o.modules.Intern(Module{Name: info.Name, BuildID: info.BuildID})
		frameIdx := o.frames.Intern(Frame{ModuleIndex: moduleIdx, RelativeIP: uint64(rel)})
		indices = append(indices, frameIdx)
	}
	return indices
}

// Profile is the top-level serializable profile artifact.
type Profile struct {
	Modules []Module `json:"modules"`
	Frames  []Frame  `json:"frames"`
	Threads []Thread `json:"threads"`
}

// Thread is one thread's contribution to a Profile.
type Thread struct {
	ThreadID threadid.ID `json:"thread_id"`
	Samples  []Sample    `json:"samples"`
}

// Sample is one captured call stack, serialized as frame indices into the
// Profile's top-level frames array.
type Sample struct {
	Frames []uint32 `json:"frames"`
}
