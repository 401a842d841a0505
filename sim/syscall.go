package sim

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	jupiter "github.com/inesrs/Jupiter"
)

// IO backs the ecall syscall dispatch table of spec.md §6: it owns
// stdin/stdout buffering and an open-file table for the file-descriptor
// selectors, and is wired to State.Syscall by whoever constructs a
// Driver so the isa package itself never touches I/O.
type IO struct {
	Stdin  *bufio.Reader
	Stdout io.Writer
	Stderr io.Writer

	files  map[int32]*os.File
	nextFD int32
}

// NewIO creates an IO backed by the process's real stdin/stdout/stderr.
func NewIO() *IO {
	return &IO{
		Stdin:  bufio.NewReader(os.Stdin),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		files:  make(map[int32]*os.File),
		nextFD: 3,
	}
}

// Syscall dispatches on a7's selector, per spec.md §6's table. Selectors
// 10 and 17 signal program exit by returning a FaultHalt, mirroring
// ecall's own contract with the isa package.
func (sio *IO) Syscall(st *jupiter.State) error {
	switch st.X.Get(17) {
	case 1: // print integer (a0)
		fmt.Fprintf(sio.Stdout, "%d", int32(st.X.Get(10)))
	case 2: // print float (fa0)
		fmt.Fprintf(sio.Stdout, "%g", st.F.GetFloat(10))
	case 4: // print string (a0 = address of NUL-terminated string)
		sio.printString(st, st.X.Get(10))
	case 5: // read integer into a0
		var v int32
		fmt.Fscan(sio.Stdin, &v)
		st.X.Set(10, uint32(v))
	case 6: // read float into fa0
		var v float32
		fmt.Fscan(sio.Stdin, &v)
		st.F.SetFloat(10, v)
	case 8: // read string (a0 = buffer, a1 = max length)
		sio.readString(st, st.X.Get(10), st.X.Get(11))
	case 9: // sbrk: a0 = byte count, returns base address in a0
		st.X.Set(10, st.Mem.AllocateFromHeap(st.X.Get(10)))
	case 10: // exit(0)
		return &jupiter.SimulationFault{Kind: jupiter.FaultHalt, Code: 0}
	case 11: // print character (a0)
		fmt.Fprintf(sio.Stdout, "%c", byte(st.X.Get(10)))
	case 12: // read character into a0
		b, _ := sio.Stdin.ReadByte()
		st.X.Set(10, uint32(b))
	case 13: // open(path, flags) -> fd in a0
		sio.open(st)
	case 14: // read(fd, buf, len) -> bytes read in a0
		sio.read(st)
	case 15: // write(fd, buf, len) -> bytes written in a0
		sio.write(st)
	case 16: // close(fd)
		sio.close(st)
	case 17: // exit(code)
		return &jupiter.SimulationFault{Kind: jupiter.FaultHalt, Code: int32(st.X.Get(10))}
	case 30: // current time, milliseconds since epoch, split into a0 (low) / a1 (high)
		now := time.Now().UnixMilli()
		st.X.Set(10, uint32(now))
		st.X.Set(11, uint32(now>>32))
	case 34: // print hex
		fmt.Fprintf(sio.Stdout, "0x%08x", st.X.Get(10))
	case 35: // print binary
		fmt.Fprintf(sio.Stdout, "%032b", st.X.Get(10))
	case 36: // print unsigned
		fmt.Fprintf(sio.Stdout, "%d", st.X.Get(10))
	default:
		return &jupiter.SimulationFault{Kind: jupiter.FaultIllegalInstruction, Message: fmt.Sprintf("unknown syscall %d", st.X.Get(17))}
	}
	return nil
}

func (sio *IO) printString(st *jupiter.State, addr uint32) {
	for {
		b, err := st.Mem.LoadByteUnsigned(addr)
		if err != nil || b == 0 {
			return
		}
		fmt.Fprintf(sio.Stdout, "%c", byte(b))
		addr++
	}
}

func (sio *IO) readString(st *jupiter.State, addr, maxLen uint32) {
	if maxLen == 0 {
		return
	}
	line, _ := sio.Stdin.ReadString('\n')
	data := []byte(line)
	n := maxLen - 1
	if uint32(len(data)) < n {
		n = uint32(len(data))
	}
	for i := uint32(0); i < n; i++ {
		st.Mem.StoreByte(addr+i, data[i])
	}
	st.Mem.StoreByte(addr+n, 0)
}

func (sio *IO) readCString(st *jupiter.State, addr uint32) string {
	var b []byte
	for {
		v, err := st.Mem.LoadByteUnsigned(addr)
		if err != nil || v == 0 {
			break
		}
		b = append(b, byte(v))
		addr++
	}
	return string(b)
}

func (sio *IO) open(st *jupiter.State) {
	path := sio.readCString(st, st.X.Get(10))
	flags := st.X.Get(11)
	var f *os.File
	var err error
	if flags&1 != 0 {
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	} else {
		f, err = os.Open(path)
	}
	if err != nil {
		st.X.Set(10, 0xffffffff)
		return
	}
	fd := sio.nextFD
	sio.nextFD++
	sio.files[fd] = f
	st.X.Set(10, uint32(fd))
}

func (sio *IO) read(st *jupiter.State) {
	fd := int32(st.X.Get(10))
	addr := st.X.Get(11)
	n := st.X.Get(12)
	f, ok := sio.files[fd]
	if !ok {
		st.X.Set(10, 0xffffffff)
		return
	}
	buf := make([]byte, n)
	r, err := f.Read(buf)
	if err != nil && r == 0 {
		st.X.Set(10, 0xffffffff)
		return
	}
	for i := 0; i < r; i++ {
		st.Mem.StoreByte(addr+uint32(i), buf[i])
	}
	st.X.Set(10, uint32(r))
}

func (sio *IO) write(st *jupiter.State) {
	fd := int32(st.X.Get(10))
	addr := st.X.Get(11)
	n := st.X.Get(12)
	buf := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		v, _ := st.Mem.LoadByteUnsigned(addr + i)
		buf[i] = byte(v)
	}
	var w int
	var err error
	switch fd {
	case 1:
		w, err = sio.writeTo(sio.Stdout, buf)
	case 2:
		w, err = sio.writeTo(sio.Stderr, buf)
	default:
		f, ok := sio.files[fd]
		if !ok {
			st.X.Set(10, 0xffffffff)
			return
		}
		w, err = f.Write(buf)
	}
	if err != nil {
		st.X.Set(10, 0xffffffff)
		return
	}
	st.X.Set(10, uint32(w))
}

func (sio *IO) writeTo(w io.Writer, buf []byte) (int, error) { return w.Write(buf) }

func (sio *IO) close(st *jupiter.State) {
	fd := int32(st.X.Get(10))
	f, ok := sio.files[fd]
	if !ok {
		st.X.Set(10, 0xffffffff)
		return
	}
	f.Close()
	delete(sio.files, fd)
	st.X.Set(10, 0)
}
