// Package debug formats the linker/simulator's internal state for human
// and tooling consumption: the code-dump format of spec.md §6 and a
// disassembler used both by dump verbosity and by the assemble/
// disassemble/reassemble round-trip property of spec.md §8. Grounded on
// original_source's Linker.java Settings.DUMP writer and
// dubcc/debug/objdump.go's CLI shape.
package debug

import (
	"fmt"
	"io"

	"github.com/inesrs/Jupiter/assembler"
)

// WriteDump emits every unit's text segment as one 8-hex-digit,
// big-endian machine word per line. When more than one unit is present,
// each unit's block is preceded by a "<path>:" separator line, matching
// original_source's multi-program dump format.
func WriteDump(w io.Writer, units []*assembler.TranslationUnit) error {
	multi := len(units) > 1
	for _, u := range units {
		if multi {
			if _, err := fmt.Fprintf(w, "%s:\n", u.Path); err != nil {
				return err
			}
		}
		for i := 0; i+4 <= len(u.Text); i += 4 {
			word := uint32(u.Text[i]) | uint32(u.Text[i+1])<<8 | uint32(u.Text[i+2])<<16 | uint32(u.Text[i+3])<<24
			if _, err := fmt.Fprintf(w, "%08x\n", word); err != nil {
				return err
			}
		}
	}
	return nil
}
