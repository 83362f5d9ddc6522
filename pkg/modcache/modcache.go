// Package modcache resolves raw instruction pointers to the loaded binary
// module that contains them, identified by a cryptographic build-ID, with
// lookup cost amortized across many samples via an ordered range cache.
package modcache

import (
	"log/slog"
	"path/filepath"

	"github.com/ja7ad/wallclock/pkg/werr"
)

// ModuleInfo identifies a loaded binary: its on-disk basename and a
// build-ID derived from the binary itself (an ELF NT_GNU_BUILD_ID note on
// Linux, a Mach-O LC_UUID load command on Darwin). Two ModuleInfos are
// equal iff both fields are equal — the zero value is never a valid
// resolution result.
type ModuleInfo struct {
	Name    string `json:"name"`
	BuildID string `json:"build_id"`
}

// moduleRange pairs a ModuleInfo with a half-open address range covering
// every IP observed so far to fall inside this module's mapping, plus its
// load base. dladdr reveals the mapping's base but not its length, so the
// cache conservatively extends High upward as larger IPs are observed;
// cross-module misattribution cannot occur because every range originates
// from dladdr on an address already known to be inside it.
type moduleRange struct {
	Info     ModuleInfo
	Low      uintptr
	High     uintptr
	LoadBase uintptr
}

// Cache maps addresses to (ModuleInfo, relative offset) pairs. It is not
// safe for concurrent use — callers must not share a Cache across sampling
// threads, matching the specification's single-sampler-per-process model.
type Cache struct {
	ranges []moduleRange
}

// New returns an empty module cache.
func New() *Cache {
	return &Cache{}
}

// Resolve answers: does addr lie within a loaded binary mapping? If so it
// returns the module's identity and addr's offset relative to that
// module's load base. It returns ok=false if no build-ID could be
// extracted for the containing mapping (a TransientSampleFailure, logged
// and treated as an unmappable sample by the caller) or if dladdr found no
// mapping at all.
func (c *Cache) Resolve(addr uintptr) (info ModuleInfo, relativeIP uintptr, ok bool) {
	for i := range c.ranges {
		r := &c.ranges[i]
		if addr >= r.Low && addr < r.High {
			return r.Info, addr - r.LoadBase, true
		}
	}
	return c.resolveMiss(addr)
}

func (c *Cache) resolveMiss(addr uintptr) (ModuleInfo, uintptr, bool) {
	path, loadBase, found := dladdrLookup(addr)
	if !found {
		slog.Debug("modcache: dladdr found no mapping", "addr", addr, "err", werr.ErrNoMapping)
		return ModuleInfo{}, 0, false
	}

	buildID, err := buildIDFor(path)
	if err != nil {
		slog.Warn("modcache: could not extract build-id", "path", path, "err", err)
		return ModuleInfo{}, 0, false
	}

	info := ModuleInfo{Name: filepath.Base(path), BuildID: buildID}

	for i := range c.ranges {
		r := &c.ranges[i]
		if r.Info == info && r.LoadBase == loadBase {
			if high := addr + 1; high > r.High {
				r.High = high
			}
			return r.Info, addr - r.LoadBase, true
		}
	}

	c.ranges = append(c.ranges, moduleRange{
		Info:     info,
		Low:      loadBase,
		High:     addr + 1,
		LoadBase: loadBase,
	})
	return info, addr - loadBase, true
}
