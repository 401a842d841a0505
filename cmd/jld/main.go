// Command jld assembles and links a set of RV32IMF source files into one
// program image and reports its layout, exercising the linker package the
// way dubcc/linker/linker.go exercises Link from a bare main().
package main

import (
	"flag"
	"log"
	"os"

	"github.com/k0kubun/pp/v3"

	jupiter "github.com/inesrs/Jupiter"
	"github.com/inesrs/Jupiter/assembler"
	"github.com/inesrs/Jupiter/debug"
	"github.com/inesrs/Jupiter/linker"
)

func main() {
	entry := flag.String("entry", jupiter.DefaultEntry, "entry symbol")
	extrict := flag.Bool("extrict", true, "promote warnings to errors")
	dump := flag.Bool("dump", false, "print the linked text segment as a hex dump")
	disasm := flag.Bool("disasm", false, "print the linked text segment disassembled")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: jld [flags] file.s [file.s ...]")
	}

	session := jupiter.NewSession()
	session.Flags.Extrict = *extrict
	session.Flags.Entry = *entry

	var units []*assembler.TranslationUnit
	for _, path := range flag.Args() {
		src, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}
		a := assembler.NewAssembler(session)
		tu, errs := a.Assemble(path, string(src))
		if errs.HasErrors() {
			log.Fatal(errs.Error())
		}
		units = append(units, tu)
	}

	mem := jupiter.NewMemory(session.Flags, nil)
	program, errs := linker.Link(session, units, mem)
	if errs.HasErrors() {
		log.Fatal(errs.Error())
	}

	switch {
	case *dump:
		if err := debug.WriteDump(os.Stdout, units); err != nil {
			log.Fatal(err)
		}
	case *disasm:
		for _, line := range debug.DisassembleUnit(program.TextBegin, textImage(program, mem)) {
			os.Stdout.WriteString(line + "\n")
		}
	default:
		pp.Println(program)
	}
}

// textImage reconstructs the full linked text segment (bootstrap far call
// plus every unit's code) directly from memory, since LinkedProgram itself
// only records segment boundaries.
func textImage(program *linker.LinkedProgram, mem *jupiter.Memory) []byte {
	n := program.TextEnd - program.TextBegin
	buf := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		buf[i] = mem.Load(program.TextBegin + i)
	}
	return buf
}
