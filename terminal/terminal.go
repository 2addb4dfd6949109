// Package terminal wires a vtparser.Parser to a grid.Grid: it is the
// vtparser.Handler implementation that owns cell attributes and terminal
// modes and is the only thing allowed to call grid.Grid's mutating
// methods. Adapted from RavenTerminal's parser.Terminal, which played the
// same role against its own hand-rolled (non-Williams) parser.
package terminal

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/javanhut/vtcore/grid"
	"github.com/javanhut/vtcore/internal/vtlog"
	"github.com/javanhut/vtcore/utf8"
	"github.com/javanhut/vtcore/vtparser"
)

// Modes holds the terminal modes that change how input is interpreted
// elsewhere in the system (keyboard translation in particular).
type Modes struct {
	CursorKeyMode          bool // DECCKM
	KeypadApplicationMode  bool // DECKPAM/DECKPNM
	LineFeedNewLineMode    bool // LNM
	CursorVisible          bool // DECTCEM, defaults true
}

// Terminal dispatches parsed VT sequences onto a grid.Grid. It implements
// vtparser.Handler.
type Terminal struct {
	Grid  *grid.Grid
	attrs grid.Attrs
	modes Modes

	alternateScreen bool
	savedMainGrid   *grid.Grid

	workingDir     string
	responseWriter func([]byte)

	oscBuf []byte

	decoder *utf8.Decoder
	parser  *vtparser.Parser

	mu sync.Mutex
}

// New creates a terminal of the given size in ground state, default attrs,
// main screen, cursor visible.
func New(cols, rows int) *Terminal {
	t := &Terminal{
		Grid:    grid.NewGrid(cols, rows),
		attrs:   grid.DefaultAttrs(),
		modes:   Modes{CursorVisible: true},
		decoder: utf8.New(),
	}
	t.parser = vtparser.New(t)
	return t
}

// Write feeds raw PTY bytes through the UTF-8 decoder and the VT parser.
func (t *Terminal) Write(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range data {
		switch t.decoder.Feed(b) {
		case utf8.StateAccept, utf8.StateReject:
			t.parser.Feed(t.decoder.Get())
		}
	}
}

// SetResponseWriter sets the callback used to write ENQ/DSR replies back to
// the PTY.
func (t *Terminal) SetResponseWriter(w func([]byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responseWriter = w
}

// Modes returns a snapshot of the current terminal modes.
func (t *Terminal) Modes() Modes {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.modes
}

// WorkingDir returns the last path reported via OSC 7.
func (t *Terminal) WorkingDir() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.workingDir
}

// Resize resizes the live grid and, if present, the saved main-screen grid.
func (t *Terminal) Resize(cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Grid.Resize(cols, rows)
	if t.savedMainGrid != nil {
		t.savedMainGrid.Resize(cols, rows)
	}
}

// HardReset implements RIS (ESC c): clear screen, home cursor, default
// attrs and modes, leave the alternate screen.
func (t *Terminal) HardReset() {
	t.exitAlternateScreenLocked()
	t.Grid.HardReset()
	t.attrs = grid.DefaultAttrs()
	t.modes = Modes{CursorVisible: true}
}

// ---- vtparser.Handler ----

// Print writes a single code point at the cursor with the current attrs.
func (t *Terminal) Print(r rune) {
	t.Grid.Write(r, t.attrs)
}

// Execute dispatches a single C0/C1 control code, following
// kmscon_vte.c's do_execute.
func (t *Terminal) Execute(b byte) {
	switch b {
	case 0x05: // ENQ: answerback
		t.reply([]byte("\x06"))
	case 0x08: // BS
		t.Grid.MoveCursor(-1, 0, false)
	case 0x0a, 0x0b, 0x0c: // LF, VT, FF
		if t.modes.LineFeedNewLineMode {
			t.Grid.Newline()
		} else {
			t.Grid.MoveCursor(0, 1, true)
		}
	case 0x0d: // CR
		t.Grid.CarriageReturn()
	case 0x1a: // SUB: write inverted question mark
		t.Grid.Write(0xbf, t.attrs)
	case 0x84: // IND
		t.Grid.MoveCursor(0, 1, true)
	case 0x85: // NEL
		t.Grid.CarriageReturn()
		t.Grid.MoveCursor(0, 1, true)
	case 0x8d: // RI
		t.Grid.MoveCursor(0, -1, true)
	default:
		// NUL, BEL, HT, SO/SI, XON/XOFF, HTS, SS2/SS3, DECID, ST, DEL and
		// anything else unselected: no-ops, logged at debug per spec.
		vtlog.Debugf("terminal: no-op C0/C1 code %#02x", b)
	}
}

// Clear is a no-op: Terminal keeps no parser-adjacent state of its own
// (attrs/modes persist across sequences; only vtparser's own param vector
// needs clearing, which it does itself).
func (t *Terminal) Clear() {}

// Collect and Param are no-ops: the parser hands the fully-parsed
// intermediates/params to EscDispatch/CSIDispatch/DCSHook.
func (t *Terminal) Collect(b byte) {}
func (t *Terminal) Param(b byte)   {}

// EscDispatch handles plain (non-CSI) escape sequences.
func (t *Terminal) EscDispatch(final byte, intermediates []byte) {
	switch final {
	case '7': // DECSC
		t.Grid.SaveCursor()
	case '8': // DECRC
		t.Grid.RestoreCursor()
	case 'c': // RIS
		t.HardReset()
	case 'D': // IND
		t.Grid.MoveCursor(0, 1, true)
	case 'M': // RI
		t.Grid.MoveCursor(0, -1, true)
	case 'E': // NEL
		t.Grid.CarriageReturn()
		t.Grid.MoveCursor(0, 1, true)
	case '=': // DECKPAM
		t.modes.KeypadApplicationMode = true
	case '>': // DECKPNM
		t.modes.KeypadApplicationMode = false
	default:
		vtlog.Debugf("terminal: unhandled ESC final byte %q", final)
	}
}

// CSIDispatch handles CSI sequences: cursor movement, erase, SGR, mode
// set/reset, scroll region, and DSR, adapted from RavenTerminal's
// executeCSI/executeSGR/setMode/handleDSR onto grid.Attrs' RGB model.
func (t *Terminal) CSIDispatch(final byte, params []int, intermediates []byte) {
	private := hasByte(intermediates, '?')

	switch final {
	case 'A': // CUU
		t.Grid.MoveCursor(0, -param(params, 0, 1), false)
	case 'B': // CUD
		t.Grid.MoveCursor(0, param(params, 0, 1), false)
	case 'C': // CUF
		t.Grid.MoveCursor(param(params, 0, 1), 0, false)
	case 'D': // CUB
		t.Grid.MoveCursor(-param(params, 0, 1), 0, false)
	case 'E': // CNL
		t.Grid.CarriageReturn()
		t.Grid.MoveCursor(0, param(params, 0, 1), false)
	case 'F': // CPL
		t.Grid.CarriageReturn()
		t.Grid.MoveCursor(0, -param(params, 0, 1), false)
	case 'G': // CHA
		_, row := t.Grid.Cursor()
		t.Grid.SetCursor(param(params, 0, 1)-1, row)
	case 'H', 'f': // CUP / HVP
		row := param(params, 0, 1)
		col := param(params, 1, 1)
		t.Grid.SetCursor(col-1, row-1)
	case 'J': // ED
		switch param(params, 0, 0) {
		case 0:
			t.Grid.Erase(grid.EraseCursorToScreen)
		case 1:
			t.Grid.Erase(grid.EraseScreenToCursor)
		case 2, 3:
			t.Grid.Erase(grid.EraseWholeScreen)
		}
	case 'K': // EL
		switch param(params, 0, 0) {
		case 0:
			t.Grid.Erase(grid.EraseCursorToEnd)
		case 1:
			t.Grid.Erase(grid.EraseHomeToCursor)
		case 2:
			t.Grid.Erase(grid.EraseCurrentLine)
		}
	case 'L': // IL
		t.Grid.InsertLines(param(params, 0, 1))
	case 'M': // DL
		t.Grid.DeleteLines(param(params, 0, 1))
	case 'P': // DCH
		t.Grid.DeleteChars(param(params, 0, 1))
	case '@': // ICH
		t.Grid.InsertChars(param(params, 0, 1))
	case 'X': // ECH
		t.Grid.EraseChars(param(params, 0, 1))
	case 'b': // REP
		t.Grid.RepeatChar(param(params, 0, 1))
	case 'd': // VPA
		col, _ := t.Grid.Cursor()
		t.Grid.SetCursor(col, param(params, 0, 1)-1)
	case 'm': // SGR
		t.executeSGR(params)
	case 'h': // SM
		t.setMode(params, private, true)
	case 'l': // RM
		t.setMode(params, private, false)
	case 'r': // DECSTBM
		top := param(params, 0, 1)
		bottom := param(params, 1, t.Grid.Height())
		t.Grid.SetScrollRegion(top, bottom)
	case 's': // SCP
		t.Grid.SaveCursor()
	case 'u': // RCP
		t.Grid.RestoreCursor()
	case 'n': // DSR
		t.handleDSR(params)
	case 'q':
		if hasByte(intermediates, '"') { // DECSCA
			t.attrs.Protect = param(params, 0, 2) == 1
		}
	case 'p': // DECSCL: levels 61 and 62 are accepted without effect
		if level := param(params, 0, 0); level != 61 && level != 62 {
			vtlog.Debugf("terminal: unhandled DECSCL level %d", level)
		}
	default:
		vtlog.Debugf("terminal: unhandled CSI final byte %q", final)
	}
}

func hasByte(bs []byte, b byte) bool {
	for _, x := range bs {
		if x == b {
			return true
		}
	}
	return false
}

func param(params []int, index, def int) int {
	if index < len(params) && params[index] > 0 {
		return params[index]
	}
	return def
}

var ansiColors = [16]grid.RGB{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {255, 255, 255},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

func ansi256ToRGB(n int) grid.RGB {
	switch {
	case n < 16:
		return ansiColors[n]
	case n < 232:
		n -= 16
		cube := n / 36
		rem := n % 36
		g := rem / 6
		b := rem % 6
		levels := [6]uint8{0, 95, 135, 175, 215, 255}
		return grid.RGB{R: levels[cube], G: levels[g], B: levels[b]}
	default:
		level := uint8(8 + (n-232)*10)
		return grid.RGB{R: level, G: level, B: level}
	}
}

func (t *Terminal) executeSGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}

	i := 0
	for i < len(params) {
		p := params[i]
		switch {
		case p == 0 || p == vtparser.ParamUnset: // an empty slot (bare CSI m) means 0
			t.attrs = grid.DefaultAttrs()
		case p == 1:
			t.attrs.Bold = true
		case p == 4:
			t.attrs.Underline = true
		case p == 5:
			t.attrs.Blink = true
		case p == 7:
			t.attrs.Inverse = true
		case p == 22:
			t.attrs.Bold = false
		case p == 24:
			t.attrs.Underline = false
		case p == 25:
			t.attrs.Blink = false
		case p == 27:
			t.attrs.Inverse = false
		case p >= 30 && p <= 37:
			t.attrs.Fg = ansiColors[p-30]
		case p == 38:
			if i+1 < len(params) {
				if params[i+1] == 5 && i+2 < len(params) {
					t.attrs.Fg = ansi256ToRGB(params[i+2])
					i += 2
				} else if params[i+1] == 2 && i+4 < len(params) {
					t.attrs.Fg = grid.RGB{R: uint8(params[i+2]), G: uint8(params[i+3]), B: uint8(params[i+4])}
					i += 4
				}
			}
		case p == 39:
			t.attrs.Fg = grid.DefaultAttrs().Fg
		case p >= 40 && p <= 47:
			t.attrs.Bg = ansiColors[p-40]
		case p == 48:
			if i+1 < len(params) {
				if params[i+1] == 5 && i+2 < len(params) {
					t.attrs.Bg = ansi256ToRGB(params[i+2])
					i += 2
				} else if params[i+1] == 2 && i+4 < len(params) {
					t.attrs.Bg = grid.RGB{R: uint8(params[i+2]), G: uint8(params[i+3]), B: uint8(params[i+4])}
					i += 4
				}
			}
		case p == 49:
			t.attrs.Bg = grid.DefaultAttrs().Bg
		case p >= 90 && p <= 97:
			t.attrs.Fg = ansiColors[p-90+8]
		case p >= 100 && p <= 107:
			t.attrs.Bg = ansiColors[p-100+8]
		}
		i++
	}
}

func (t *Terminal) setMode(params []int, private, set bool) {
	for _, p := range params {
		if !private {
			continue
		}
		switch p {
		case 1: // DECCKM
			t.modes.CursorKeyMode = set
		case 20: // LNM
			t.modes.LineFeedNewLineMode = set
		case 25: // DECTCEM
			t.modes.CursorVisible = set
		case 47, 1047:
			if set {
				t.enterAlternateScreenLocked()
			} else {
				t.exitAlternateScreenLocked()
			}
		case 1049:
			if set {
				t.Grid.SaveCursor()
				t.enterAlternateScreenLocked()
			} else {
				t.exitAlternateScreenLocked()
				t.Grid.RestoreCursor()
			}
		}
	}
}

func (t *Terminal) enterAlternateScreenLocked() {
	if t.alternateScreen {
		return
	}
	t.savedMainGrid = t.Grid
	t.Grid = grid.NewGrid(t.Grid.Width(), t.Grid.Height())
	t.alternateScreen = true
}

func (t *Terminal) exitAlternateScreenLocked() {
	if !t.alternateScreen || t.savedMainGrid == nil {
		return
	}
	t.Grid = t.savedMainGrid
	t.savedMainGrid = nil
	t.alternateScreen = false
}

func (t *Terminal) handleDSR(params []int) {
	switch param(params, 0, 0) {
	case 5:
		t.reply([]byte("\x1b[0n"))
	case 6:
		col, row := t.Grid.Cursor()
		t.reply([]byte(fmt.Sprintf("\x1b[%d;%dR", row+1, col+1)))
	}
}

func (t *Terminal) reply(b []byte) {
	if t.responseWriter != nil {
		t.responseWriter(b)
	}
}

// DCSHook/DCSPut/DCSUnhook: this core implements no device control strings
// (DECRQSS, Sixel, etc.); data is consumed and discarded so the parser
// still reaches ST cleanly.
func (t *Terminal) DCSHook(final byte, params []int, intermediates []byte) {}
func (t *Terminal) DCSPut(b byte)                                          {}
func (t *Terminal) DCSUnhook()                                             {}

// OSCStart/OSCPut/OSCEnd collect an OSC payload and, on OSCEnd, handle the
// sequences this core understands (OSC 7 working-directory tracking).
func (t *Terminal) OSCStart() {
	t.oscBuf = t.oscBuf[:0]
}

func (t *Terminal) OSCPut(b byte) {
	t.oscBuf = append(t.oscBuf, b)
}

func (t *Terminal) OSCEnd() {
	s := string(t.oscBuf)
	if strings.HasPrefix(s, "7;") {
		if path := parseOSC7Path(strings.TrimPrefix(s, "7;")); path != "" {
			t.workingDir = path
		}
	}
}

func parseOSC7Path(value string) string {
	if strings.HasPrefix(value, "file://") {
		parsed, err := url.Parse(value)
		if err != nil || parsed.Path == "" {
			return ""
		}
		path, err := url.PathUnescape(parsed.Path)
		if err != nil {
			return ""
		}
		return path
	}
	if strings.HasPrefix(value, "/") {
		return value
	}
	return ""
}
