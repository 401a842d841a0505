package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	jupiter "github.com/inesrs/Jupiter"
	"github.com/inesrs/Jupiter/assembler"
	"github.com/inesrs/Jupiter/linker"
)

func buildDriver(t *testing.T, src string) (*Driver, *jupiter.State) {
	t.Helper()
	session := jupiter.NewSession()
	a := assembler.NewAssembler(session)
	tu, errs := a.Assemble("t.s", src)
	assert.False(t, errs.HasErrors(), "%v", errs)

	state := jupiter.NewState(session.Flags, nil)
	program, errs := linker.Link(session, []*assembler.TranslationUnit{tu}, state.Mem)
	assert.False(t, errs.HasErrors(), "%v", errs)

	state.Syscall = NewIO().Syscall
	driver := NewDriver(state, program.Entry)
	return driver, state
}

func TestDriverStepExecutesOneInstruction(t *testing.T) {
	assert := assert.New(t)
	d, st := buildDriver(t, ".globl __start\n__start:\n  addi a0, zero, 5\n  addi a0, a0, 1\n")

	assert.NoError(d.Step())
	assert.Equal(uint32(5), st.X.Get(10))
	assert.NoError(d.Step())
	assert.Equal(uint32(6), st.X.Get(10))
}

func TestDriverRunHaltsOnExitSyscall(t *testing.T) {
	assert := assert.New(t)
	d, _ := buildDriver(t, ".globl __start\n__start:\n  addi a7, zero, 10\n  ecall\n")

	err := d.Run()
	assert.Error(err)
	fault, ok := err.(*jupiter.SimulationFault)
	assert.True(ok)
	assert.Equal(jupiter.FaultHalt, fault.Kind)
	assert.True(d.Halted())
	assert.Equal(int32(0), d.ExitCode())
}

func TestDriverExitCodeSyscall17(t *testing.T) {
	assert := assert.New(t)
	d, _ := buildDriver(t, ".globl __start\n__start:\n  addi a0, zero, 7\n  addi a7, zero, 17\n  ecall\n")

	err := d.Run()
	assert.Error(err)
	assert.True(d.Halted())
	assert.Equal(int32(7), d.ExitCode())
}

func TestDriverBreakpointFiresOnceThenRunsThrough(t *testing.T) {
	assert := assert.New(t)
	d, st := buildDriver(t, ".globl __start\n__start:\n  addi a0, zero, 1\n  addi a0, a0, 1\n  addi a7, zero, 10\n  ecall\n")

	d.SetBreakpoint(st.PC)
	err := d.Step()
	fault, ok := err.(*jupiter.SimulationFault)
	assert.True(ok)
	assert.Equal(jupiter.FaultBreakpoint, fault.Kind)
	assert.Equal(uint32(0), st.X.Get(10)) // the breakpointed instruction did not execute yet

	// The same PC steps through cleanly the second time.
	assert.NoError(d.Step())
	assert.Equal(uint32(1), st.X.Get(10))
}

func TestDriverClearBreakpoint(t *testing.T) {
	assert := assert.New(t)
	d, st := buildDriver(t, ".globl __start\n__start:\n  addi a0, zero, 1\n")
	d.SetBreakpoint(st.PC)
	d.ClearBreakpoint(st.PC)
	assert.NoError(d.Step())
}

func TestDriverBackstepRestoresRegisters(t *testing.T) {
	assert := assert.New(t)
	d, st := buildDriver(t, ".globl __start\n__start:\n  addi a0, zero, 5\n  addi a0, a0, 1\n")

	assert.NoError(d.Step())
	assert.NoError(d.Step())
	assert.Equal(uint32(6), st.X.Get(10))

	assert.True(d.Backstep())
	assert.Equal(uint32(5), st.X.Get(10))

	assert.True(d.Backstep())
	assert.Equal(uint32(0), st.X.Get(10))

	assert.False(d.Backstep(), "history is empty")
}

func TestDriverBackstepClearsHaltedFlag(t *testing.T) {
	assert := assert.New(t)
	d, _ := buildDriver(t, ".globl __start\n__start:\n  addi a7, zero, 10\n  ecall\n")

	assert.Error(d.Run())
	assert.True(d.Halted())

	assert.True(d.Backstep())
	assert.False(d.Halted())
}

func TestDriverResetRestoresInitialImageAndPC(t *testing.T) {
	assert := assert.New(t)
	d, st := buildDriver(t, ".globl __start\n__start:\n  addi a0, zero, 5\n  addi a0, a0, 1\n")
	entry := st.PC

	assert.NoError(d.Step())
	assert.NoError(d.Step())
	assert.Equal(uint32(6), st.X.Get(10))

	d.Reset()
	assert.Equal(uint32(0), st.X.Get(10))
	assert.Equal(entry, st.PC)
	assert.False(d.Halted())
	assert.Equal(0, d.History.Len())
}

func TestDriverCancelStopsRun(t *testing.T) {
	assert := assert.New(t)
	d, _ := buildDriver(t, ".globl __start\n__start:\nloop:\n  jal zero, loop\n")

	done := make(chan error, 1)
	go func() { done <- d.Run() }()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case err := <-done:
			assert.NoError(err)
			return
		case <-deadline:
			t.Fatal("Run did not observe Cancel")
		default:
			d.Cancel()
		}
	}
}

func TestDriverStepAfterHaltReturnsFault(t *testing.T) {
	assert := assert.New(t)
	d, _ := buildDriver(t, ".globl __start\n__start:\n  addi a7, zero, 10\n  ecall\n")

	assert.Error(d.Run())
	err := d.Step()
	assert.Error(err)
	fault, ok := err.(*jupiter.SimulationFault)
	assert.True(ok)
	assert.Equal(jupiter.FaultHalt, fault.Kind)
}
