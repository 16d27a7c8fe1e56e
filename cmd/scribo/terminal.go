package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Logical key tokens produced by the decoder.
const (
	keyCtrlSpace = "\x00"
	keyBackspace = "\x7f"
	keyEnter     = "\r"
	keyDelete    = "\x1b[3~"
	keyUp        = "\x1b[A"
	keyDown      = "\x1b[B"
	keyRight     = "\x1b[C"
	keyLeft      = "\x1b[D"

	// keyResize is a pseudo-key reported when SIGWINCH wakes a blocked read.
	// The decoder never produces a multi-byte token without an ESC prefix,
	// so this cannot collide with real input.
	keyResize = "resize"
)

var (
	errNotATTY     = errors.New("stdin and stdout must be a terminal")
	errInterrupted = errors.New("interrupted")
)

// resizePending is set by the SIGWINCH goroutine and drained by readByte.
var resizePending int32

// escAccept holds the accepted byte set for each lookahead position after an
// ESC byte. The first byte outside its position's set ends the token; after
// all three positions accept, one final byte is read unconditionally.
var escAccept = [...]string{
	"\x4f\x5b",                         // CSI / SS3 introducer
	"\x31\x32\x33\x35\x36",             // parameter digit
	"\x30\x31\x33\x34\x35\x37\x38\x39", // second parameter digit
}

// decodeKey reads exactly one logical key token (1-5 raw bytes) from next.
// ETX aborts the whole program via errInterrupted. Partial or unknown escape
// sequences come back as the bytes accumulated so far rather than blocking
// past the lookahead bound.
func decodeKey(next func() (byte, error)) (string, error) {
	c, err := next()
	if err != nil {
		return "", err
	}
	if c == 0x03 {
		return "", errInterrupted
	}
	if c != 0x1b {
		return string(c), nil
	}
	seq := []byte{c}
	for _, accept := range escAccept {
		b, err := next()
		if err != nil {
			return "", err
		}
		seq = append(seq, b)
		if strings.IndexByte(accept, b) < 0 {
			return string(seq), nil
		}
	}
	b, err := next()
	if err != nil {
		return "", err
	}
	return string(append(seq, b)), nil
}

type termSize struct {
	rows, cols int
}

// terminal owns the raw-mode session on stdin/stdout: the saved attribute
// set, the buffered output writer and the byte-level input path.
type terminal struct {
	in   *os.File
	out  *os.File
	w    *bufio.Writer
	orig unix.Termios
	raw  bool
}

func newTerminal(in, out *os.File) (*terminal, error) {
	if !term.IsTerminal(int(in.Fd())) || !term.IsTerminal(int(out.Fd())) {
		return nil, errNotATTY
	}
	return &terminal{in: in, out: out, w: bufio.NewWriter(out)}, nil
}

// enterRaw captures the current attribute set and disables echo, canonical
// mode, the break-signal pair and signal generation, so every keystroke
// (ETX included) reaches the decoder as bytes. VMIN=0/VTIME=1 lets the read
// loop poll the resize flag without ever dropping input.
func (t *terminal) enterRaw() error {
	fd := int(t.in.Fd())
	st, err := ioctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("read terminal attributes: %w", err)
	}
	t.orig = *st
	raw := *st
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 1
	if err := ioctlSetTermios(fd, unix.TCSETSF, &raw); err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	t.raw = true
	return nil
}

// restore clears the screen and puts the terminal back the way it was found.
// Idempotent, so every exit path may call it.
func (t *terminal) restore() {
	if !t.raw {
		return
	}
	t.clear()
	t.flush()
	_ = ioctlSetTermios(int(t.in.Fd()), unix.TCSETSW, &t.orig)
	t.raw = false
}

// readByte blocks until one input byte arrives. A pending resize surfaces as
// EINTR so the caller can re-render without waiting for a keystroke.
func (t *terminal) readByte() (byte, error) {
	fd := int(t.in.Fd())
	var b [1]byte
	for {
		if atomic.SwapInt32(&resizePending, 0) != 0 {
			return 0, syscall.EINTR
		}
		n, err := syscall.Read(fd, b[:])
		if err != nil {
			if errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) {
				continue
			}
			return 0, err
		}
		if n == 0 {
			// VTIME expiry; check the resize flag and keep waiting.
			continue
		}
		return b[0], nil
	}
}

// readKey returns one logical key, or keyResize when a window change
// interrupted the blocked read.
func (t *terminal) readKey() (string, error) {
	key, err := decodeKey(t.readByte)
	if err != nil {
		if errors.Is(err, syscall.EINTR) {
			return keyResize, nil
		}
		return "", err
	}
	return key, nil
}

func (t *terminal) size() (termSize, error) {
	ws, err := ioctlGetWinsize(int(t.out.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return termSize{}, fmt.Errorf("query terminal size: %w", err)
	}
	return termSize{rows: int(ws.Row), cols: int(ws.Col)}, nil
}

func (t *terminal) write(s string) {
	_, _ = t.w.WriteString(s)
}

func (t *terminal) flush() {
	_ = t.w.Flush()
}

func (t *terminal) ansi(code string) {
	t.write("\x1b" + code)
}

func (t *terminal) clear() {
	t.ansi("[H")
	t.ansi("[J")
}

func (t *terminal) moveCursor(line, column int) error {
	size, err := t.size()
	if err != nil {
		return err
	}
	if line < 1 || line > size.rows || column < 1 || column > size.cols {
		return fmt.Errorf("cursor (%d,%d) outside %dx%d terminal", line, column, size.rows, size.cols)
	}
	t.ansi(fmt.Sprintf("[%d;%dH", line, column))
	return nil
}

func ioctlGetWinsize(fd int, req uint) (*unix.Winsize, error) {
	return unix.IoctlGetWinsize(fd, req)
}

func ioctlGetTermios(fd int, req uint) (*unix.Termios, error) {
	return unix.IoctlGetTermios(fd, req)
}

func ioctlSetTermios(fd int, req uint, t *unix.Termios) error {
	return unix.IoctlSetTermios(fd, req, t)
}
