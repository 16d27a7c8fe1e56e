package main

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
)

const minGutterWidth = 5

// viewData is the buffer snapshot a frame is rendered from. Cursor line and
// column are 1-based logical coordinates.
type viewData struct {
	lines        iter.Seq[string]
	mode         int
	cursorLine   int
	cursorColumn int
}

// viewCursor is the on-screen cursor in 1-based terminal coordinates.
type viewCursor struct {
	line, column int
}

type view struct {
	term *terminal
}

func newView(t *terminal) *view {
	return &view{term: t}
}

func (v *view) readKey() (string, error) {
	return v.term.readKey()
}

// rerender composes a full frame and writes it in one flush.
func (v *view) rerender(data viewData) error {
	size, err := v.term.size()
	if err != nil {
		return err
	}
	if size.rows < 2 {
		return fmt.Errorf("terminal too small: %d rows, need at least 2", size.rows)
	}
	rows, cursor := renderFrame(size, data)
	if err := checkFrameFits(size, cursor); err != nil {
		return err
	}
	v.term.clear()
	v.term.write(strings.Join(rows, ""))
	if err := v.term.moveCursor(cursor.line, cursor.column); err != nil {
		return err
	}
	v.term.flush()
	return nil
}

// renderFrame is a pure mapping from terminal size and buffer snapshot to
// exactly size.rows display lines plus the on-screen cursor. The last row is
// the status line; short files pad with filler rows above it.
func renderFrame(size termSize, data viewData) ([]string, viewCursor) {
	lines := slices.Collect(data.lines)
	gutter := gutterWidth(len(lines))
	textCols := max(size.cols-gutter, 1)
	height := size.rows - 1
	begin := max(data.cursorLine-height, 0)
	hoff := max(data.cursorColumn-textCols, 0)

	out := make([]string, 0, size.rows)
	for i := begin; i < begin+height && i < len(lines); i++ {
		number := formatLineNumber(i+1, data.cursorLine, gutter)
		out = append(out, viewLine(lines[i], hoff, textCols, number))
	}
	for len(out) < height {
		out = append(out, "~\n")
	}
	out = append(out, statusLine(size.cols, data))
	if len(out) != size.rows {
		panic(fmt.Sprintf("view: produced %d rows for a %d-row terminal", len(out), size.rows))
	}

	cursor := viewCursor{
		line:   data.cursorLine - begin,
		column: gutter + data.cursorColumn - hoff,
	}
	return out, cursor
}

// checkFrameFits reports a terminal too narrow to place the cursor past the
// line-number gutter, so narrow terminals fail the same way short ones do.
func checkFrameFits(size termSize, cursor viewCursor) error {
	if cursor.column > size.cols {
		return fmt.Errorf("terminal too small: %d columns cannot fit the line-number gutter", size.cols)
	}
	return nil
}

// gutterWidth sizes the line-number gutter for the largest line number,
// never narrower than the fixed minimum.
func gutterWidth(totalLines int) int {
	return max(len(strconv.Itoa(totalLines))+2, minGutterWidth)
}

// formatLineNumber right-justifies n inside the gutter. The cursor line gets
// an extra trailing pad space to stand out.
func formatLineNumber(n, cursorLine, width int) string {
	pad := 1
	if n == cursorLine {
		pad = 2
	}
	s := strconv.Itoa(n)
	return strings.Repeat(" ", max(width-pad-len(s), 0)) + s + strings.Repeat(" ", pad)
}

func viewLine(line string, hoff, textCols int, number string) string {
	begin := min(hoff, len(line))
	end := min(begin+textCols, len(line))
	s := number + line[begin:end]
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func statusLine(cols int, data viewData) string {
	mode := "NORMAL"
	if data.mode == modeInsert {
		mode = "INSERT"
	}
	left := "-- " + mode + " --"
	pos := fmt.Sprintf("Ln %d, Col %d", data.cursorLine, data.cursorColumn)
	pad := max(cols-len(left)-len(pos), 0)
	return left + strings.Repeat(" ", pad) + pos
}
