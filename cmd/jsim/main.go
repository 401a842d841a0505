// Command jsim assembles, links and runs a set of RV32IMF source files,
// exercising the sim package's Driver end to end. Debug tracing follows
// dubcc/debug/objdump.go's pp.Println usage; plain run failures use log,
// matching every dubcc binary's error-reporting style.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/k0kubun/pp/v3"

	jupiter "github.com/inesrs/Jupiter"
	"github.com/inesrs/Jupiter/assembler"
	"github.com/inesrs/Jupiter/linker"
	"github.com/inesrs/Jupiter/sim"
)

func main() {
	entry := flag.String("entry", jupiter.DefaultEntry, "entry symbol")
	bare := flag.Bool("bare", false, "disable pseudo-instruction expansion")
	debugTrace := flag.Bool("debug", false, "print a step-by-step register/PC trace")
	selfModifying := flag.Bool("self-modifying", false, "allow writes to the text segment")
	histSize := flag.Int("history", 2000, "back-step history size")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: jsim [flags] file.s [file.s ...]")
	}

	session := jupiter.NewSession()
	session.Flags.Bare = *bare
	session.Flags.Entry = *entry
	session.Flags.SelfModifying = *selfModifying
	session.Flags.Debug = *debugTrace
	session.Flags.HistorySize = *histSize

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

	state := jupiter.NewState(session.Flags, nil)
	program, errs := linker.Link(session, units, state.Mem)
	if errs.HasErrors() {
		log.Fatal(errs.Error())
	}

	io := sim.NewIO()
	state.Syscall = io.Syscall

	driver := sim.NewDriver(state, program.Entry)

	for {
		if *debugTrace {
			pp.Printf("pc=0x%08x x10(a0)=%d x11(a1)=%d\n", state.PC, int32(state.X.Get(10)), int32(state.X.Get(11)))
		}
		err := driver.Step()
		if err == nil {
			continue
		}
		fault, ok := err.(*jupiter.SimulationFault)
		if !ok {
			log.Fatal(err)
		}
		if fault.Kind == jupiter.FaultHalt {
			os.Exit(int(fault.Code))
		}
		log.Fatal(fault.Error())
	}
}
