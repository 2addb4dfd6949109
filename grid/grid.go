// Package grid implements the screen-grid collaborator: a fixed-size array
// of styled cells, a clamped cursor, and a bounded scrollback buffer. It is
// the only thing terminal.Terminal is allowed to mutate (see vtparser and
// terminal for the parser/dispatch split that enforces that).
package grid

import (
	"strings"
	"sync"
)

// MaxScrollback bounds how many scrolled-off rows are retained.
const MaxScrollback = 10000

// RGB is a 24-bit color triple.
type RGB struct {
	R, G, B uint8
}

// Attrs is the complete cell-attribute struct: every cell carries one, never
// a partial assignment of it.
type Attrs struct {
	Fg, Bg                                   RGB
	Bold, Underline, Inverse, Blink, Protect bool
}

// DefaultAttrs returns the attribute block new cells start with: white on
// black, no flags set.
func DefaultAttrs() Attrs {
	return Attrs{
		Fg: RGB{255, 255, 255},
		Bg: RGB{0, 0, 0},
	}
}

// Cell is a single grid position: a code point plus its rendering attrs.
type Cell struct {
	Rune  rune
	Attrs Attrs
}

func blankCell() Cell {
	return Cell{Rune: ' ', Attrs: DefaultAttrs()}
}

// EraseMode selects which part of the screen or line an erase operation
// clears.
type EraseMode int

const (
	EraseCursorToEnd EraseMode = iota
	EraseHomeToCursor
	EraseCurrentLine
	EraseCursorToScreen
	EraseScreenToCursor
	EraseWholeScreen
)

// Screen is the capability set the VT dispatcher (terminal.Terminal) needs
// from a grid. Grid is its concrete, synchronous, always-succeeding
// implementation.
type Screen interface {
	Write(r rune, a Attrs)
	MoveCursor(dCol, dRow int, allowScroll bool)
	CursorHome()
	Newline()
	CarriageReturn()
	Erase(mode EraseMode)
	HardReset()
	Width() int
	Height() int
	Cursor() (col, row int)
	SetCursor(col, row int)
	ScrollbackUp(n int)
	ScrollbackDown(n int)
	ScrollbackPageUp()
	ScrollbackPageDown()
	ScrollbackReset()
}

// Grid is the concrete Screen: a flat cell array, cursor, scroll region,
// saved-cursor slot and scrollback ring. Adapted from RavenTerminal's
// grid.Grid, narrowed to the Cell/Attrs model (no indexed colors, no
// italic/hidden/strikethrough).
type Grid struct {
	cells        []Cell
	Cols         int
	Rows         int
	cursorCol    int
	cursorRow    int
	scrollback   [][]Cell
	scrollOffset int
	mu           sync.RWMutex

	savedCursorCol int
	savedCursorRow int

	// Scroll region (1-based, inclusive); full screen by default.
	scrollTop    int
	scrollBottom int

	lastRune  rune
	lastAttrs Attrs
}

// NewGrid creates a grid of the given size, cells cleared to default attrs.
func NewGrid(cols, rows int) *Grid {
	g := &Grid{
		Cols:         cols,
		Rows:         rows,
		scrollback:   make([][]Cell, 0, MaxScrollback),
		scrollTop:    1,
		scrollBottom: rows,
		lastRune:     ' ',
		lastAttrs:    DefaultAttrs(),
	}
	g.cells = make([]Cell, cols*rows)
	for i := range g.cells {
		g.cells[i] = blankCell()
	}
	return g
}

func (g *Grid) index(col, row int) int { return row*g.Cols + col }

func (g *Grid) clampCursor() {
	if g.cursorCol < 0 {
		g.cursorCol = 0
	}
	if g.cursorCol >= g.Cols {
		g.cursorCol = g.Cols - 1
	}
	if g.cursorRow < 0 {
		g.cursorRow = 0
	}
	if g.cursorRow >= g.Rows {
		g.cursorRow = g.Rows - 1
	}
}

// Width returns the number of columns.
func (g *Grid) Width() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Cols
}

// Height returns the number of rows.
func (g *Grid) Height() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Rows
}

// Cursor returns the current 0-indexed cursor position.
func (g *Grid) Cursor() (col, row int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cursorCol, g.cursorRow
}

// SetCursor sets the 0-indexed cursor position, clamped to bounds.
func (g *Grid) SetCursor(col, row int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursorCol, g.cursorRow = col, row
	g.clampCursor()
}

// Write writes r at the cursor with the given attrs, then advances the
// cursor (wrapping to the next line when it runs past the right margin).
// Double-width runes (per RuneWidth) advance the cursor by two, leaving a
// zero-rune spacer cell behind the leading half.
func (g *Grid) Write(r rune, a Attrs) {
	g.mu.Lock()
	defer g.mu.Unlock()

	w := RuneWidth(r)
	if w <= 0 {
		w = 1
	}
	if g.cursorCol+w > g.Cols {
		g.cursorNewline()
	}

	idx := g.index(g.cursorCol, g.cursorRow)
	g.cells[idx] = Cell{Rune: r, Attrs: a}
	g.cursorCol++
	if w == 2 && g.cursorCol < g.Cols {
		g.cells[g.index(g.cursorCol, g.cursorRow)] = Cell{Rune: 0, Attrs: a}
		g.cursorCol++
	}

	g.lastRune = r
	g.lastAttrs = a
}

func (g *Grid) cursorNewline() {
	g.cursorCol = 0
	g.cursorRow++
	if g.cursorRow >= g.scrollBottom {
		g.scrollUpRegion()
		g.cursorRow = g.scrollBottom - 1
	} else if g.cursorRow >= g.Rows {
		g.scrollUpInternal()
		g.cursorRow = g.Rows - 1
	}
}

func (g *Grid) scrollUpRegion() {
	if g.scrollTop == 1 && g.scrollBottom == g.Rows {
		g.scrollUpInternal()
		return
	}

	top := g.scrollTop - 1
	bottom := g.scrollBottom - 1
	for row := top; row < bottom; row++ {
		for col := 0; col < g.Cols; col++ {
			g.cells[g.index(col, row)] = g.cells[g.index(col, row+1)]
		}
	}
	for col := 0; col < g.Cols; col++ {
		g.cells[g.index(col, bottom)] = blankCell()
	}
}

func (g *Grid) scrollUpInternal() {
	topRow := make([]Cell, g.Cols)
	copy(topRow, g.cells[0:g.Cols])
	g.scrollback = append(g.scrollback, topRow)
	if len(g.scrollback) > MaxScrollback {
		g.scrollback = g.scrollback[1:]
	}

	copy(g.cells, g.cells[g.Cols:])
	for i := (g.Rows - 1) * g.Cols; i < g.Rows*g.Cols; i++ {
		g.cells[i] = blankCell()
	}
}

// Newline moves the cursor to column 0 of the next line, scrolling if the
// scroll region's bottom is reached.
func (g *Grid) Newline() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursorCol = 0
	g.cursorNewline()
}

// CarriageReturn moves the cursor to column 0 of the current line.
func (g *Grid) CarriageReturn() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursorCol = 0
}

// CursorHome moves the cursor to (0,0).
func (g *Grid) CursorHome() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursorCol, g.cursorRow = 0, 0
}

// MoveCursor moves the cursor by the given column/row delta. When
// allowScroll is true and the move would carry the cursor above the top
// margin (a reverse-index) or below the bottom margin (an index), the grid
// scrolls instead of clamping in place, mirroring IND/RI.
func (g *Grid) MoveCursor(dCol, dRow int, allowScroll bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cursorCol += dCol
	if g.cursorCol < 0 {
		g.cursorCol = 0
	}
	if g.cursorCol >= g.Cols {
		g.cursorCol = g.Cols - 1
	}

	if allowScroll && dRow > 0 {
		for i := 0; i < dRow; i++ {
			if g.cursorRow+1 >= g.scrollBottom {
				g.scrollUpRegion()
			} else {
				g.cursorRow++
			}
		}
		return
	}
	if allowScroll && dRow < 0 {
		for i := 0; i < -dRow; i++ {
			if g.cursorRow-1 < g.scrollTop-1 {
				g.scrollDownRegion()
			} else {
				g.cursorRow--
			}
		}
		return
	}

	g.cursorRow += dRow
	if g.cursorRow < 0 {
		g.cursorRow = 0
	}
	if g.cursorRow >= g.Rows {
		g.cursorRow = g.Rows - 1
	}
}

func (g *Grid) scrollDownRegion() {
	top := g.scrollTop - 1
	bottom := g.scrollBottom - 1
	for row := bottom; row > top; row-- {
		for col := 0; col < g.Cols; col++ {
			g.cells[g.index(col, row)] = g.cells[g.index(col, row-1)]
		}
	}
	for col := 0; col < g.Cols; col++ {
		g.cells[g.index(col, top)] = blankCell()
	}
}

// Erase implements ED/EL's six-way mode.
func (g *Grid) Erase(mode EraseMode) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch mode {
	case EraseCursorToEnd:
		for col := g.cursorCol; col < g.Cols; col++ {
			g.cells[g.index(col, g.cursorRow)] = blankCell()
		}
	case EraseHomeToCursor:
		for col := 0; col <= g.cursorCol && col < g.Cols; col++ {
			g.cells[g.index(col, g.cursorRow)] = blankCell()
		}
	case EraseCurrentLine:
		for col := 0; col < g.Cols; col++ {
			g.cells[g.index(col, g.cursorRow)] = blankCell()
		}
	case EraseCursorToScreen:
		for col := g.cursorCol; col < g.Cols; col++ {
			g.cells[g.index(col, g.cursorRow)] = blankCell()
		}
		for row := g.cursorRow + 1; row < g.Rows; row++ {
			for col := 0; col < g.Cols; col++ {
				g.cells[g.index(col, row)] = blankCell()
			}
		}
	case EraseScreenToCursor:
		for row := 0; row < g.cursorRow; row++ {
			for col := 0; col < g.Cols; col++ {
				g.cells[g.index(col, row)] = blankCell()
			}
		}
		for col := 0; col <= g.cursorCol && col < g.Cols; col++ {
			g.cells[g.index(col, g.cursorRow)] = blankCell()
		}
	case EraseWholeScreen:
		for i := range g.cells {
			g.cells[i] = blankCell()
		}
	}
}

// HardReset clears the grid, homes the cursor, drops the scroll region and
// saved cursor, but keeps the allocated scrollback slice.
func (g *Grid) HardReset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.cells {
		g.cells[i] = blankCell()
	}
	g.cursorCol, g.cursorRow = 0, 0
	g.savedCursorCol, g.savedCursorRow = 0, 0
	g.scrollTop, g.scrollBottom = 1, g.Rows
	g.scrollOffset = 0
}

// Resize reflows the grid onto a new size, preserving the top-left overlap.
func (g *Grid) Resize(cols, rows int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	newCells := make([]Cell, cols*rows)
	for i := range newCells {
		newCells[i] = blankCell()
	}
	for row := 0; row < minInt(rows, g.Rows); row++ {
		for col := 0; col < minInt(cols, g.Cols); col++ {
			newCells[row*cols+col] = g.cells[row*g.Cols+col]
		}
	}

	g.cells = newCells
	g.Cols, g.Rows = cols, rows
	g.scrollTop, g.scrollBottom = 1, rows
	g.clampCursor()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// SaveCursor/RestoreCursor back ESC 7 / ESC 8 and CSI s / CSI u.
func (g *Grid) SaveCursor() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.savedCursorCol, g.savedCursorRow = g.cursorCol, g.cursorRow
}

func (g *Grid) RestoreCursor() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursorCol, g.cursorRow = g.savedCursorCol, g.savedCursorRow
	g.clampCursor()
}

// SetScrollRegion sets the 1-based, inclusive scrolling region used by
// DECSTBM (CSI r) and homes the cursor, per ECMA-48.
func (g *Grid) SetScrollRegion(top, bottom int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if top < 1 {
		top = 1
	}
	if bottom > g.Rows {
		bottom = g.Rows
	}
	if top < bottom {
		g.scrollTop, g.scrollBottom = top, bottom
	}
	g.cursorCol, g.cursorRow = 0, 0
}

// InsertLines/DeleteLines/InsertChars/DeleteChars/EraseChars/RepeatChar back
// IL/DL/ICH/DCH/ECH/REP.
func (g *Grid) InsertLines(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for row := g.Rows - 1; row >= g.cursorRow+n; row-- {
		for col := 0; col < g.Cols; col++ {
			g.cells[g.index(col, row)] = g.cells[g.index(col, row-n)]
		}
	}
	for row := g.cursorRow; row < g.cursorRow+n && row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			g.cells[g.index(col, row)] = blankCell()
		}
	}
}

func (g *Grid) DeleteLines(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for row := g.cursorRow; row < g.Rows-n; row++ {
		for col := 0; col < g.Cols; col++ {
			g.cells[g.index(col, row)] = g.cells[g.index(col, row+n)]
		}
	}
	for row := g.Rows - n; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			g.cells[g.index(col, row)] = blankCell()
		}
	}
}

func (g *Grid) InsertChars(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for col := g.Cols - 1; col >= g.cursorCol+n; col-- {
		g.cells[g.index(col, g.cursorRow)] = g.cells[g.index(col-n, g.cursorRow)]
	}
	for col := g.cursorCol; col < g.cursorCol+n && col < g.Cols; col++ {
		g.cells[g.index(col, g.cursorRow)] = blankCell()
	}
}

func (g *Grid) DeleteChars(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for col := g.cursorCol; col < g.Cols-n; col++ {
		g.cells[g.index(col, g.cursorRow)] = g.cells[g.index(col+n, g.cursorRow)]
	}
	for col := g.Cols - n; col < g.Cols; col++ {
		g.cells[g.index(col, g.cursorRow)] = blankCell()
	}
}

func (g *Grid) EraseChars(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < n && g.cursorCol+i < g.Cols; i++ {
		g.cells[g.index(g.cursorCol+i, g.cursorRow)] = blankCell()
	}
}

func (g *Grid) RepeatChar(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < n; i++ {
		if g.cursorCol >= g.Cols {
			g.cursorNewline()
		}
		g.cells[g.index(g.cursorCol, g.cursorRow)] = Cell{Rune: g.lastRune, Attrs: g.lastAttrs}
		g.cursorCol++
	}
}

// GetCell returns the cell at the given buffer position, or a blank cell if
// out of bounds.
func (g *Grid) GetCell(col, row int) Cell {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return blankCell()
	}
	return g.cells[g.index(col, row)]
}

// ScrollbackUp/Down/PageUp/PageDown/Reset move the viewport into and out of
// scrollback without touching the live grid.
func (g *Grid) ScrollbackUp(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollOffset += n
	if g.scrollOffset > len(g.scrollback) {
		g.scrollOffset = len(g.scrollback)
	}
}

func (g *Grid) ScrollbackDown(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollOffset -= n
	if g.scrollOffset < 0 {
		g.scrollOffset = 0
	}
}

func (g *Grid) ScrollbackPageUp() { g.ScrollbackUp(g.Height()) }

func (g *Grid) ScrollbackPageDown() { g.ScrollbackDown(g.Height()) }

func (g *Grid) ScrollbackReset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollOffset = 0
}

func (g *Grid) displayCellLocked(col, row int) Cell {
	if g.scrollOffset == 0 {
		if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
			return blankCell()
		}
		return g.cells[g.index(col, row)]
	}

	scrollbackRow := len(g.scrollback) - g.scrollOffset + row
	if scrollbackRow < 0 {
		return blankCell()
	}
	if scrollbackRow < len(g.scrollback) {
		if col < len(g.scrollback[scrollbackRow]) {
			return g.scrollback[scrollbackRow][col]
		}
		return blankCell()
	}

	gridRow := scrollbackRow - len(g.scrollback)
	if gridRow >= g.Rows || col >= g.Cols {
		return blankCell()
	}
	return g.cells[g.index(col, gridRow)]
}

// VisibleText renders the current viewport (live grid or scrollback,
// depending on scroll offset) as plain text, with trailing spaces trimmed.
func (g *Grid) VisibleText() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	lines := make([]string, g.Rows)
	for row := 0; row < g.Rows; row++ {
		var b strings.Builder
		b.Grow(g.Cols)
		for col := 0; col < g.Cols; col++ {
			cell := g.displayCellLocked(col, row)
			r := cell.Rune
			if r == 0 {
				r = ' '
			}
			b.WriteRune(r)
		}
		lines[row] = strings.TrimRight(b.String(), " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// Snapshot is a minimal, JSON-able screen capture: size, cursor, and plain
// text lines. A pared-down cousin of go-headless-term's richer
// Snapshot/SnapshotLine types, trimmed to what this core actually tracks (no
// hyperlinks, no images, no per-segment styling).
type Snapshot struct {
	Cols, Rows int
	CursorCol  int
	CursorRow  int
	Lines      []string
}

// Snapshot captures the current viewport for tests and for cmd/vtcore's
// repaint after each chunk of PTY output.
func (g *Grid) Snapshot() Snapshot {
	g.mu.RLock()
	cols, rows := g.Cols, g.Rows
	cursorCol, cursorRow := g.cursorCol, g.cursorRow
	g.mu.RUnlock()

	text := g.VisibleText()
	return Snapshot{
		Cols:      cols,
		Rows:      rows,
		CursorCol: cursorCol,
		CursorRow: cursorRow,
		Lines:     strings.Split(text, "\n"),
	}
}
