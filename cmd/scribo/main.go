package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sync/atomic"
	"syscall"
)

var Version = "dev"

type fileContents struct {
	text string
	path string
}

// loadFile reads the whole file; a missing path yields an empty buffer bound
// to that path so the first save creates it.
func loadFile(path string) (fileContents, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileContents{path: path}, nil
		}
		return fileContents{}, fmt.Errorf("open %s: %w", path, err)
	}
	return fileContents{text: string(data), path: path}, nil
}

// controller owns the event loop: render, block on one key, dispatch per the
// current mode.
type controller struct {
	view *view
	ed   *editor
}

func newController(v *view, ed *editor) *controller {
	return &controller{view: v, ed: ed}
}

func (c *controller) rerender() error {
	return c.view.rerender(viewData{
		lines:        c.ed.lineStrings(),
		mode:         c.ed.mode,
		cursorLine:   c.ed.cursorLine(),
		cursorColumn: c.ed.cursorColumn(),
	})
}

func (c *controller) loop() error {
	for {
		if err := c.rerender(); err != nil {
			return err
		}
		key, err := c.view.readKey()
		if err != nil {
			return err
		}
		if key == keyResize {
			continue
		}
		switch c.ed.mode {
		case modeNormal:
			quit, err := c.dispatchNormal(key)
			if quit || err != nil {
				return err
			}
		case modeInsert:
			c.dispatchInsert(key)
		}
	}
}

// dispatchNormal runs one normal-mode command. Unrecognized keys are no-ops.
func (c *controller) dispatchNormal(key string) (quit bool, err error) {
	switch key {
	case "h", keyLeft:
		c.ed.moveLeft()
	case "j", keyDown:
		c.ed.moveDown()
	case "k", keyUp:
		c.ed.moveUp()
	case "l", keyRight:
		c.ed.moveRight()
	case "w":
		c.ed.moveWordForward()
	case "b":
		c.ed.moveWordBackward()
	case "e":
		c.ed.moveToEndOfWord()
	case "0":
		c.ed.moveToBeginningOfLine()
	case "$":
		c.ed.moveToEndOfLine()
	case "{":
		c.ed.moveParagraphBackward()
	case "}":
		c.ed.moveParagraphForward()
	case "a":
		c.ed.switchToInsertMode(true)
	case "A":
		c.ed.moveToEndOfLine()
		c.ed.switchToInsertMode(true)
	case "i":
		c.ed.switchToInsertMode(false)
	case "I":
		c.ed.moveToBeginningOfLine()
		c.ed.switchToInsertMode(false)
	case "o":
		c.ed.insertNewlineBelow()
		c.ed.switchToInsertMode(false)
	case "O":
		c.ed.insertNewlineAbove()
		c.ed.switchToInsertMode(false)
	case "x", keyDelete:
		c.ed.deleteCharacter()
	case "d":
		c.ed.deleteLine()
	case "s":
		if err := c.ed.save(); err != nil {
			return false, err
		}
	case "q":
		return true, nil
	}
	return false, nil
}

func (c *controller) dispatchInsert(key string) {
	switch key {
	case keyCtrlSpace:
		c.ed.switchToNormalMode()
	case keyBackspace:
		c.ed.backDeleteCharacter()
	case keyDelete:
		c.ed.deleteCharacter()
	case keyLeft:
		c.ed.moveLeft()
	case keyRight:
		c.ed.moveRight()
	case keyUp:
		c.ed.moveUp()
	case keyDown:
		c.ed.moveDown()
	case keyEnter:
		c.ed.insert("\n")
	default:
		if isPrintableKey(key) {
			c.ed.insert(key)
		}
	}
}

func isPrintableKey(key string) bool {
	if len(key) != 1 {
		return false
	}
	c := key[0]
	return (c >= 0x20 && c < 0x7f) || c == '\n' || c == '\t'
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: scribo FILE")
}

func run(args []string) int {
	for _, arg := range args {
		if arg == "--version" || arg == "-V" {
			fmt.Printf("scribo %s\n", Version)
			return 0
		}
	}
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "ERROR: no input file provided")
		usage()
		return 1
	}
	path := args[0]

	f, err := loadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}

	t, err := newTerminal(os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: please run in a terminal")
		return 1
	}
	if err := t.enterRaw(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	defer t.restore()
	defer func() {
		if r := recover(); r != nil {
			t.restore()
			fmt.Fprintf(os.Stderr, "scribo panic: %v\n", r)
			_, _ = os.Stderr.Write(debug.Stack())
			os.Exit(2)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGWINCH)
	go func() {
		for range sig {
			atomic.StoreInt32(&resizePending, 1)
		}
	}()

	ctl := newController(newView(t), newEditor(f))
	if err := ctl.loop(); err != nil {
		t.restore()
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
