//go:build linux

package modcache

import (
	"debug/elf"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ja7ad/wallclock/pkg/werr"
)

// buildIDFor opens path and extracts its ELF NT_GNU_BUILD_ID note, the
// same identifier readelf -n and `file` report, and the same one the Rust
// implementation this package is modeled on reads out of .note.gnu.build-id.
func buildIDFor(path string) (string, error) {
	f, err := elf.Open(path)
	if err != nil {
		return "", fmt.Errorf("modcache: open elf %s: %w", path, err)
	}
	defer f.Close()

	for _, sec := range f.Sections {
		if sec.Type != elf.SHT_NOTE {
			continue
		}
		id, err := readGNUBuildID(sec)
		if err != nil {
			continue
		}
		if id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("modcache: %s: %w", path, werr.ErrNoBuildID)
}

// readGNUBuildID scans one SHT_NOTE section for a note named "GNU" with
// type NT_GNU_BUILD_ID (3), per the ELF note layout: namesz, descsz, type,
// name (padded to 4 bytes), desc (padded to 4 bytes).
func readGNUBuildID(sec *elf.Section) (string, error) {
	data, err := sec.Data()
	if err != nil {
		return "", err
	}

	const noteHeaderSize = 12
	for len(data) >= noteHeaderSize {
		nameSize := binary.LittleEndian.Uint32(data[0:4])
		descSize := binary.LittleEndian.Uint32(data[4:8])
		noteType := binary.LittleEndian.Uint32(data[8:12])
		data = data[noteHeaderSize:]

		namePadded := align4(nameSize)
		descPadded := align4(descSize)
		if uint64(len(data)) < uint64(namePadded)+uint64(descPadded) {
			return "", fmt.Errorf("modcache: truncated note")
		}

		name := data[:nameSize]
		desc := data[namePadded : namePadded+descSize]
		data = data[namePadded+descPadded:]

		if noteType == 3 && string(trimNUL(name)) == "GNU" {
			return strings.ToUpper(hex.EncodeToString(desc)), nil
		}
	}
	return "", nil
}

func align4(n uint32) uint32 {
	return (n + 3) &^ 3
}

func trimNUL(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
