// Package linker turns a set of assembler.TranslationUnits into one
// linked, loaded program: it lays out rodata, bss and data back to back,
// merges every unit's global symbols into one table, patches every
// pending relocation, and emits the two-instruction far call that
// bootstraps execution at the entry symbol. Grounded line-for-line on
// original_source's vsim.linker.Linker (linkRodata/linkBss/linkData/
// linkSymbols/linkPrograms), reimplemented over the assembler's
// TranslationUnit/Memory types instead of Java static singletons.
package linker

import (
	"fmt"

	jupiter "github.com/inesrs/Jupiter"
	"github.com/inesrs/Jupiter/assembler"
	"github.com/inesrs/Jupiter/isa"
)

// GlobalSymbol is one entry of the linked program's merged symbol table.
type GlobalSymbol struct {
	Name    string
	Unit    string
	Address uint32
	Segment assembler.Segment
}

// LinkedProgram is the result of a successful link: segment boundaries
// and the merged global symbol table, sufficient for the simulation
// driver to reset its architectural state and for the debug package to
// annotate a dump with symbol names.
type LinkedProgram struct {
	TextBegin, TextEnd     uint32
	RodataBegin, RodataEnd uint32
	HasRodata              bool
	HeapStart              uint32
	Entry                  uint32
	Globals                map[string]GlobalSymbol
	Units                  []*assembler.TranslationUnit
	UnitTextStart          map[string]uint32
}

// Link lays out every unit's segments into mem, patches all relocations,
// emits the bootstrap far call, and stores the final program image via
// mem's privileged store path. Diagnostics accumulate in the returned
// ErrorList (spec.md §7); a non-nil LinkedProgram is only returned when
// the list has no errors.
func Link(session *jupiter.Session, units []*assembler.TranslationUnit, mem *jupiter.Memory) (*LinkedProgram, *jupiter.ErrorList) {
	errs := jupiter.NewErrorList(session.Flags.Extrict)
	if len(units) == 0 {
		errs.Add(jupiter.NewDiagnostic(jupiter.KindLink, jupiter.DebugInfo{}, "no translation units to link"))
		return nil, errs
	}

	entryName := session.Flags.Entry
	if entryName == "" {
		entryName = jupiter.DefaultEntry
	}

	n := len(units)
	rodataStarts := make([]uint32, n)
	bssStarts := make([]uint32, n)
	dataStarts := make([]uint32, n)
	textStarts := make([]uint32, n)

	cursor := uint32(jupiter.StaticSegment)

	// rodata layout (byte content is stored to memory later, once every
	// RelAbsWord relocation into u.Rodata/u.Data has been patched in place).
	rodataBegin := cursor
	hasRodata := false
	for i, u := range units {
		start := cursor
		rodataStarts[i] = start
		cursor += uint32(len(u.Rodata))
		if cursor != start {
			hasRodata = true
			cursor = jupiter.AlignToWordBoundary(cursor)
		}
	}
	rodataEnd := cursor
	if hasRodata {
		cursor += jupiter.WordLength
	} else {
		rodataBegin, rodataEnd = 0, 0
	}

	// bss layout
	for i, u := range units {
		start := cursor
		bssStarts[i] = start
		cursor += u.BSS
		if cursor != start {
			cursor = jupiter.AlignToWordBoundary(cursor)
		}
	}

	// data layout
	for i, u := range units {
		start := cursor
		dataStarts[i] = start
		cursor += uint32(len(u.Data))
		if cursor != start {
			cursor = jupiter.AlignToWordBoundary(cursor)
		}
	}
	heapStart := cursor

	// text layout: two reserved words for the bootstrap far call, then
	// each unit's statements back to back.
	textCursor := uint32(jupiter.TextBegin) + 2*jupiter.WordLength
	for i, u := range units {
		textStarts[i] = textCursor
		textCursor += uint32(len(u.Text))
	}
	textEnd := textCursor

	resolveAddr := func(sym assembler.Symbol, unitIdx int) uint32 {
		switch sym.Segment {
		case assembler.SegText:
			return textStarts[unitIdx] + sym.Offset
		case assembler.SegRodata:
			return rodataStarts[unitIdx] + sym.Offset
		case assembler.SegData:
			return dataStarts[unitIdx] + sym.Offset
		case assembler.SegBSS:
			return bssStarts[unitIdx] + sym.Offset
		}
		return 0
	}

	globals := make(map[string]GlobalSymbol)
	for i, u := range units {
		for name, sym := range u.Symbols {
			if !sym.Global {
				continue
			}
			if existing, dup := globals[name]; dup {
				errs.Add(jupiter.NewDiagnostic(jupiter.KindLink, jupiter.DebugInfo{File: u.Path},
					"duplicate global symbol %q (also defined in %s)", name, existing.Unit))
				continue
			}
			globals[name] = GlobalSymbol{Name: name, Unit: u.Path, Address: resolveAddr(sym, i), Segment: sym.Segment}
		}
	}

	resolve := func(unitIdx int, name string) (uint32, bool) {
		if sym, ok := units[unitIdx].Symbols[name]; ok {
			return resolveAddr(sym, unitIdx), true
		}
		if g, ok := globals[name]; ok {
			return g.Address, true
		}
		return 0, false
	}

	for i, u := range units {
		for _, r := range u.Relocations {
			addr, ok := resolve(i, r.Symbol)
			if !ok {
				errs.Add(jupiter.NewDiagnostic(jupiter.KindLink, jupiter.DebugInfo{File: u.Path}, "undefined reference to %q", r.Symbol))
				continue
			}
			if err := applyRelocation(u, r, addr, textStarts[i]); err != nil {
				errs.Add(jupiter.NewDiagnostic(jupiter.KindLink, jupiter.DebugInfo{File: u.Path}, "%v", err))
			}
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}

	entry, ok := globals[entryName]
	if !ok || entry.Segment != assembler.SegText {
		errs.Add(jupiter.NewDiagnostic(jupiter.KindLink, jupiter.DebugInfo{}, "linker: no global start label: %q set", entryName))
		return nil, errs
	}

	if textEnd > jupiter.TextBegin+jupiter.TextCeiling {
		errs.Add(jupiter.NewDiagnostic(jupiter.KindLink, jupiter.DebugInfo{}, "linker: program too large > ~256MiB"))
		return nil, errs
	}

	// Store rodata/bss/data now that every RelAbsWord relocation has
	// patched u.Rodata/u.Data in place: storing before relocation would
	// commit the pre-patch (zero-filled) bytes to memory.
	for i, u := range units {
		for j, b := range u.Rodata {
			mem.PrivStoreByte(rodataStarts[i]+uint32(j), b)
		}
	}
	for i, u := range units {
		for j := uint32(0); j < u.BSS; j++ {
			mem.PrivStoreByte(bssStarts[i]+j, 0)
		}
	}
	for i, u := range units {
		for j, b := range u.Data {
			mem.PrivStoreByte(dataStarts[i]+uint32(j), b)
		}
	}

	// bootstrap far call: auipc x6, %pcrel_hi(entry); jalr ra, %pcrel_lo(entry)(x6)
	bootstrapAddr := uint32(jupiter.TextBegin)
	diff := int32(int64(entry.Address) - int64(bootstrapAddr))
	hi20, lo12 := jupiter.SplitHiLo(diff)
	auipcWord, _ := isa.Encode("auipc", isa.Fields{Rd: 6, Imm: hi20 << 12})
	mem.PrivStoreWord(bootstrapAddr, auipcWord)
	jalrWord, _ := isa.Encode("jalr", isa.Fields{Rd: 1, Rs1: 6, Imm: lo12})
	mem.PrivStoreWord(bootstrapAddr+jupiter.WordLength, jalrWord)

	for i, u := range units {
		for j := 0; j+4 <= len(u.Text); j += 4 {
			word := uint32(u.Text[j]) | uint32(u.Text[j+1])<<8 | uint32(u.Text[j+2])<<16 | uint32(u.Text[j+3])<<24
			mem.PrivStoreWord(textStarts[i]+uint32(j), word)
		}
	}

	mem.SetLayout(textEnd, rodataBegin, rodataEnd, heapStart, hasRodata, true)

	unitTextStart := make(map[string]uint32, n)
	for i, u := range units {
		unitTextStart[u.Path] = textStarts[i]
	}

	return &LinkedProgram{
		TextBegin:     bootstrapAddr,
		TextEnd:       textEnd,
		RodataBegin:   rodataBegin,
		RodataEnd:     rodataEnd,
		HasRodata:     hasRodata,
		HeapStart:     heapStart,
		Entry:         entry.Address,
		Globals:       globals,
		Units:         units,
		UnitTextStart: unitTextStart,
	}, errs
}

// applyRelocation patches u's text (or data/rodata for an absolute word
// reference) in place, given the resolved symbol address symAddr and the
// unit's final text base address textStart.
func applyRelocation(u *assembler.TranslationUnit, r assembler.Relocation, symAddr, textStart uint32) error {
	switch r.Kind {
	case assembler.RelAbsWord:
		return patchAbsWord(u, r.Segment, r.Offset, symAddr)
	case assembler.RelHi20:
		siteAddr := textStart + r.Offset
		diff := int32(int64(symAddr) - int64(siteAddr))
		hi20, _ := jupiter.SplitHiLo(diff)
		return patchTextImm(u, r.Offset, hi20<<12)
	case assembler.RelLo12I, assembler.RelLo12S:
		hiAddr := textStart + r.HiOffset
		diff := int32(int64(symAddr) - int64(hiAddr))
		_, lo12 := jupiter.SplitHiLo(diff)
		return patchTextImm(u, r.Offset, lo12)
	case assembler.RelBranch:
		siteAddr := textStart + r.Offset
		diff := int64(symAddr) - int64(siteAddr)
		if !jupiter.FitsSigned(diff, 13) {
			return fmt.Errorf("branch target out of range at offset %d", r.Offset)
		}
		return patchTextImm(u, r.Offset, int32(diff))
	case assembler.RelJal:
		siteAddr := textStart + r.Offset
		diff := int64(symAddr) - int64(siteAddr)
		if !jupiter.FitsSigned(diff, 21) {
			return fmt.Errorf("jump target out of range at offset %d", r.Offset)
		}
		return patchTextImm(u, r.Offset, int32(diff))
	}
	return fmt.Errorf("unknown relocation kind %d", r.Kind)
}

// patchTextImm decodes the placeholder word already emitted at offset,
// overwrites its immediate field and re-encodes, generically handling
// every format that carries a PC-relative or absolute immediate.
func patchTextImm(u *assembler.TranslationUnit, offset uint32, imm int32) error {
	if int(offset)+4 > len(u.Text) {
		return fmt.Errorf("relocation offset %d out of range", offset)
	}
	word := uint32(u.Text[offset]) | uint32(u.Text[offset+1])<<8 | uint32(u.Text[offset+2])<<16 | uint32(u.Text[offset+3])<<24
	def, fields, ok := isa.Decode(word)
	if !ok {
		return fmt.Errorf("cannot patch relocation at offset %d: word 0x%08x decodes to no instruction", offset, word)
	}
	fields.Imm = imm
	newWord := def.Encode(fields)
	u.Text[offset] = byte(newWord)
	u.Text[offset+1] = byte(newWord >> 8)
	u.Text[offset+2] = byte(newWord >> 16)
	u.Text[offset+3] = byte(newWord >> 24)
	return nil
}

func patchAbsWord(u *assembler.TranslationUnit, seg assembler.Segment, offset, value uint32) error {
	var buf []byte
	switch seg {
	case assembler.SegRodata:
		buf = u.Rodata
	case assembler.SegData:
		buf = u.Data
	default:
		return fmt.Errorf("absolute word relocation in unsupported segment %d", seg)
	}
	if int(offset)+4 > len(buf) {
		return fmt.Errorf("relocation offset %d out of range", offset)
	}
	buf[offset] = byte(value)
	buf[offset+1] = byte(value >> 8)
	buf[offset+2] = byte(value >> 16)
	buf[offset+3] = byte(value >> 24)
	return nil
}
