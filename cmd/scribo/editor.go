package main

import (
	"fmt"
	"iter"
	"os"
	"strings"
)

const tabWidth = 4

var tabSpaces = strings.Repeat(" ", tabWidth)

const (
	modeNormal = iota
	modeInsert
)

// span is one logical line as a half-open [begin,end) byte range into the
// document text, terminator included. A zero-length span is an empty line;
// that only occurs for an empty buffer or after a trailing newline.
type span struct {
	begin, end int
}

func (s span) length() int { return max(s.end-s.begin, 0) }

// editor owns the document: a flat byte string, the derived line index and
// the absolute cursor offset. The line index is recomputed wholesale after
// every mutation, so each edit is O(document length).
type editor struct {
	mode    int
	text    string
	path    string
	cursor  int
	lines   []span
	lineIdx int
}

func newEditor(f fileContents) *editor {
	e := &editor{mode: modeNormal, text: f.text, path: f.path}
	e.recomputeLines()
	return e
}

// cursorLine is the 1-based line the cursor rests on.
func (e *editor) cursorLine() int { return e.lineIdx + 1 }

// cursorColumn is the 1-based column within the current line.
func (e *editor) cursorColumn() int {
	return e.cursor - e.currentLine().begin + 1
}

func (e *editor) currentLine() span { return e.lines[e.lineIdx] }

func (e *editor) switchToInsertMode(appendAfterCursor bool) {
	if e.mode == modeInsert {
		return
	}
	e.mode = modeInsert
	if appendAfterCursor {
		if e.cursor < e.currentLine().end {
			e.cursor++
		}
	}
}

func (e *editor) switchToNormalMode() {
	if e.mode == modeNormal {
		return
	}
	e.mode = modeNormal
	e.correctCursor()
}

// insert splices s at the cursor. Tabs expand to spaces before splicing;
// that is the only normalization done. When the edit adds a line, the cursor
// lands at the beginning of the new current line.
func (e *editor) insert(s string) {
	s = strings.ReplaceAll(s, "\t", tabSpaces)
	e.text = e.text[:e.cursor] + s + e.text[e.cursor:]
	e.cursor += len(s)
	total := len(e.lines)
	e.recomputeLines()
	if len(e.lines) > total {
		e.lineIdx = max(min(e.lineIdx+1, len(e.lines)-1), 0)
		e.cursor = e.currentLine().begin
	}
}

func (e *editor) backDeleteCharacter() {
	if e.cursor <= 0 {
		return
	}
	idx := e.cursor - 1
	e.text = e.text[:idx] + e.text[idx+1:]
	total := len(e.lines)
	e.recomputeLines()
	if total > len(e.lines) {
		e.lineIdx = max(e.lineIdx-1, 0)
	}
	e.cursor = idx
}

func (e *editor) deleteCharacter() {
	if e.currentLine().length() <= 0 {
		return
	}
	idx := e.cursor
	// Append-style insert can park the cursor one past the final character;
	// there is nothing under it to delete.
	if idx >= len(e.text) {
		return
	}
	e.text = e.text[:idx] + e.text[idx+1:]
	total := len(e.lines)
	e.recomputeLines()
	if total > len(e.lines) {
		e.lineIdx = max(e.lineIdx-1, 0)
	}
	e.cursor = min(e.cursor, e.currentLine().end)
}

// deleteLine removes the current line's full span, terminator included.
func (e *editor) deleteLine() {
	l := e.currentLine()
	e.text = e.text[:l.begin] + e.text[l.end:]
	e.recomputeLines()
	e.lineIdx = min(e.lineIdx, len(e.lines)-1)
	e.cursor = e.currentLine().begin
}

func (e *editor) insertNewlineAbove() {
	e.moveToBeginningOfLine()
	e.insert("\n")
	e.moveUp()
}

func (e *editor) insertNewlineBelow() {
	e.cursor = e.currentLine().end
	e.insert("\n")
}

// save overwrites the file wholesale; the caller decides what a failure means.
func (e *editor) save() error {
	if err := os.WriteFile(e.path, []byte(e.text), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", e.path, err)
	}
	return nil
}

// lineStrings yields each line's text, terminator included, for the renderer.
// The sequence reads through the live index and is only valid until the next
// mutation.
func (e *editor) lineStrings() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, l := range e.lines {
			if !yield(e.text[l.begin:l.end]) {
				return
			}
		}
	}
}

func (e *editor) moveLeft() {
	if e.cursor > e.currentLine().begin {
		e.cursor--
	}
}

func (e *editor) moveRight() {
	l := e.currentLine()
	nc := e.cursor + 1
	if nc < l.end && e.text[nc] != '\n' {
		e.cursor = nc
	}
}

func (e *editor) moveDown() { e.goToLine(e.lineIdx + 1) }

func (e *editor) moveUp() { e.goToLine(e.lineIdx - 1) }

func (e *editor) moveWordForward() {
	e.moveToEndOfWord()
	e.skipWhitespaceForward()
	e.correctCursor()
}

func (e *editor) moveWordBackward() {
	cursor := e.skipWhitespaceBackward()
	next := 0
	for cursor > 0 {
		if isSpaceByte(e.text[cursor]) {
			next = cursor + 1
			break
		}
		cursor--
	}
	e.cursor = next
	e.correctCursor()
}

func (e *editor) moveToEndOfWord() {
	cursor := e.skipWhitespaceForward()
	l := e.currentLine()
	newCursor := l.end - 1
	for cursor < l.end-1 {
		if isSpaceByte(e.text[cursor]) {
			newCursor = cursor - 1
			break
		}
		cursor++
	}
	e.cursor = newCursor
	e.correctCursor()
}

func (e *editor) moveParagraphForward() {
	next := e.cursor + 1
	for next+1 < len(e.text) {
		if e.text[next] == '\n' {
			e.lineIdx++
			if e.text[next-1] == '\n' {
				break
			}
		}
		next++
	}
	e.cursor = min(next, len(e.text)-1)
	e.correctCursor()
}

func (e *editor) moveParagraphBackward() {
	next := e.cursor - 1
	for next > 0 {
		if e.text[next] == '\n' {
			e.lineIdx--
			if e.text[next+1] == '\n' {
				break
			}
		}
		next--
	}
	e.cursor = max(next, 0)
	e.correctCursor()
}

func (e *editor) moveToBeginningOfLine() {
	e.cursor = e.currentLine().begin
}

func (e *editor) moveToEndOfLine() {
	e.cursor = e.currentLine().end - 1
	e.correctCursor()
}

// recomputeLines rebuilds the span index from scratch: one span per newline,
// one for a final unterminated line, and a zero-length trailing span when the
// text ends in a newline. An empty buffer has exactly one empty line.
func (e *editor) recomputeLines() {
	e.lines = e.lines[:0]
	if len(e.text) == 0 {
		e.lines = append(e.lines, span{})
		return
	}
	for idx := 0; idx < len(e.text); idx++ {
		isNewline := e.text[idx] == '\n'
		isLast := idx+1 == len(e.text)
		if isNewline || isLast {
			begin := 0
			if len(e.lines) > 0 {
				begin = e.lines[len(e.lines)-1].end
			}
			e.lines = append(e.lines, span{begin, idx + 1})
		}
		if isLast && isNewline {
			begin := e.lines[len(e.lines)-1].end
			e.lines = append(e.lines, span{begin, begin})
		}
	}
}

// goToLine moves to the given line, keeping the horizontal offset from the
// line's begin where the target line allows it. The offset is taken from the
// pre-move cursor each call; there is no sticky-column memory across moves.
func (e *editor) goToLine(line int) {
	l := e.currentLine()
	offset := max(e.cursor-l.begin, 0)
	e.lineIdx = max(min(line, len(e.lines)-1), 0)
	l = e.currentLine()
	e.cursor = max(min(l.begin+offset, max(l.end-1, l.begin)), 0)
	e.correctCursor()
}

// correctCursor clamps the cursor into the current line and forbids resting
// on a newline unless the newline is the line's only character.
func (e *editor) correctCursor() {
	l := e.currentLine()
	e.cursor = min(e.cursor, l.end-1)
	if l.length() > 1 && e.text[e.cursor] == '\n' {
		e.cursor--
	}
	e.cursor = max(e.cursor, l.begin)
}

func (e *editor) skipWhitespaceForward() int {
	idx := e.cursor + 1
	for idx+1 < len(e.text) && isSpaceByte(e.text[idx]) {
		if e.text[idx] == '\n' {
			e.lineIdx++
		}
		idx++
	}
	e.cursor = idx
	return idx
}

func (e *editor) skipWhitespaceBackward() int {
	idx := e.cursor - 1
	for idx > 0 && isSpaceByte(e.text[idx]) {
		if e.text[idx] == '\n' {
			e.lineIdx--
		}
		idx--
	}
	e.cursor = idx
	return idx
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
