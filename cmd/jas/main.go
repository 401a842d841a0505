// Command jas assembles one or more RV32IMF source files into translation
// units and pretty-prints the result, exercising the assembler package the
// way dubcc/assembler/assembler.go exercises FirstPass/SecondPass from a
// bare main().
package main

import (
	"flag"
	"log"
	"os"

	"github.com/k0kubun/pp/v3"

	jupiter "github.com/inesrs/Jupiter"
	"github.com/inesrs/Jupiter/assembler"
	"github.com/inesrs/Jupiter/debug"
)

func main() {
	bare := flag.Bool("bare", false, "disable pseudo-instruction expansion")
	extrict := flag.Bool("extrict", true, "promote warnings to errors")
	dump := flag.Bool("dump", false, "print the assembled text segment as a hex dump instead of the object")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: jas [flags] file.s [file.s ...]")
	}

	session := jupiter.NewSession()
	session.Flags.Bare = *bare
	session.Flags.Extrict = *extrict

	var units []*assembler.TranslationUnit
	failed := false
	for _, path := range flag.Args() {
		src, err := os.ReadFile(path)
		if err != nil {
			log.Printf("%v", err)
			failed = true
			continue
		}
		a := assembler.NewAssembler(session)
		tu, errs := a.Assemble(path, string(src))
		if errs.HasErrors() {
			log.Print(errs.Error())
			failed = true
			continue
		}
		units = append(units, tu)
	}
	if failed {
		os.Exit(1)
	}

	if *dump {
		if err := debug.WriteDump(os.Stdout, units); err != nil {
			log.Fatal(err)
		}
		return
	}

	for _, u := range units {
		pp.Println(u)
	}
}
