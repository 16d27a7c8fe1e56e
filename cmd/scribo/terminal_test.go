package main

import (
	"errors"
	"io"
	"os"
	"testing"
)

func pipeFiles(t *testing.T) (*os.File, *os.File, error) {
	t.Helper()
	r, w, err := os.Pipe()
	if err == nil {
		t.Cleanup(func() {
			r.Close()
			w.Close()
		})
	}
	return r, w, err
}

func byteSource(bs []byte) func() (byte, error) {
	i := 0
	return func() (byte, error) {
		if i >= len(bs) {
			return 0, io.EOF
		}
		b := bs[i]
		i++
		return b, nil
	}
}

func TestDecodePlainByte(t *testing.T) {
	key, err := decodeKey(byteSource([]byte("x")))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if key != "x" {
		t.Fatalf("key %q, want %q", key, "x")
	}
}

func TestDecodeDeleteKeyIsOneToken(t *testing.T) {
	next := byteSource([]byte("\x1b[3~"))
	key, err := decodeKey(next)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if key != keyDelete {
		t.Fatalf("key %q, want delete token", key)
	}
	if _, err := next(); !errors.Is(err, io.EOF) {
		t.Fatalf("token split: bytes left in source")
	}
}

func TestDecodeInterrupt(t *testing.T) {
	_, err := decodeKey(byteSource([]byte{0x03}))
	if !errors.Is(err, errInterrupted) {
		t.Fatalf("err %v, want errInterrupted", err)
	}
}

// TestDecodeLookaheadTable exercises each position of the escape state
// machine: accepted bytes extend the token, rejected bytes end it.
func TestDecodeLookaheadTable(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare escape pair", "\x1bx", "\x1bx"},
		{"arrow up ends at position 3", "\x1b[A", "\x1b[A"},
		{"ss3 home ends at position 3", "\x1bOH", "\x1bOH"},
		{"delete ends at position 4", "\x1b[3~", "\x1b[3~"},
		{"home ends at position 4", "\x1b[1~", "\x1b[1~"},
		{"page up ends at position 4", "\x1b[5~", "\x1b[5~"},
		{"function key reads all five", "\x1b[15~", "\x1b[15~"},
		{"f9 reads all five", "\x1b[20~", "\x1b[20~"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next := byteSource([]byte(tc.input))
			key, err := decodeKey(next)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if key != tc.want {
				t.Fatalf("key %q, want %q", key, tc.want)
			}
			if _, err := next(); !errors.Is(err, io.EOF) {
				t.Fatalf("decoder left bytes unread")
			}
		})
	}
}

func TestDecodeOneTokenPerCall(t *testing.T) {
	next := byteSource([]byte("\x1b[Dq"))
	first, err := decodeKey(next)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if first != keyLeft {
		t.Fatalf("first key %q, want left arrow", first)
	}
	second, err := decodeKey(next)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if second != "q" {
		t.Fatalf("second key %q, want %q", second, "q")
	}
}

func TestDecodePropagatesSourceError(t *testing.T) {
	if _, err := decodeKey(byteSource(nil)); !errors.Is(err, io.EOF) {
		t.Fatalf("err %v, want EOF", err)
	}
	// Error mid-sequence surfaces too.
	if _, err := decodeKey(byteSource([]byte{0x1b})); !errors.Is(err, io.EOF) {
		t.Fatalf("err %v, want EOF", err)
	}
}

func TestNewTerminalRejectsNonTTY(t *testing.T) {
	r, w, err := pipeFiles(t)
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if _, err := newTerminal(r, w); !errors.Is(err, errNotATTY) {
		t.Fatalf("err %v, want errNotATTY", err)
	}
}
