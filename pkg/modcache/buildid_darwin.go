//go:build darwin

package modcache

import (
	"debug/macho"
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"

	"github.com/ja7ad/wallclock/pkg/werr"
)

// loadCmdUUID is LC_UUID. The stdlib debug/macho package has no typed
// representation for it (it falls through File.Loads as a raw LoadBytes
// load command), so its layout is decoded by hand here: a 4-byte command
// id, a 4-byte command size, and a 16-byte UUID payload.
const loadCmdUUID = 0x1b

// buildIDFor opens path and returns the hex-encoded LC_UUID load command,
// Mach-O's equivalent of an ELF build-ID. If path is a fat (universal)
// binary, the slice matching the running architecture is selected; the
// specification leaves cross-architecture profiling out of scope, so any
// other slice is ignored rather than erroring.
func buildIDFor(path string) (string, error) {
	ff, err := macho.OpenFat(path)
	if err == nil {
		defer ff.Close()
		return buildIDFromFat(ff)
	}

	f, err := macho.Open(path)
	if err != nil {
		return "", fmt.Errorf("modcache: open macho %s: %w", path, err)
	}
	defer f.Close()
	return buildIDFromFile(f)
}

func buildIDFromFat(ff *macho.FatFile) (string, error) {
	want := fatArchFor(runtime.GOARCH)
	for _, arch := range ff.Arches {
		if arch.Cpu == want {
			return buildIDFromFile(arch.File)
		}
	}
	return "", fmt.Errorf("modcache: no fat slice for %s: %w", runtime.GOARCH, werr.ErrNoBuildID)
}

func buildIDFromFile(f *macho.File) (string, error) {
	for _, load := range f.Loads {
		raw, ok := load.(macho.LoadBytes)
		if !ok || len(raw) < 24 {
			continue
		}
		if f.ByteOrder.Uint32(raw[0:4]) != loadCmdUUID {
			continue
		}
		return strings.ToUpper(hex.EncodeToString(raw[8:24])), nil
	}
	return "", fmt.Errorf("modcache: no LC_UUID: %w", werr.ErrNoBuildID)
}

func fatArchFor(goarch string) macho.Cpu {
	if goarch == "arm64" {
		return macho.CpuArm64
	}
	return macho.CpuAmd64
}
