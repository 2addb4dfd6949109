// Package keyboard translates key events into the byte sequences a VT
// emulator writes to its PTY. It replaces RavenTerminal's
// keybindings.TranslateKey/TranslateChar (which spoke glfw.Key/
// glfw.ModifierKey) with an X11-keysym-shaped vocabulary, since this
// module has no GLFW event loop to produce glfw key codes from. The
// mapping itself is ported from kmscon's kmscon_vte_handle_keyboard.
package keyboard

import (
	"github.com/javanhut/vtcore/terminal"
	"github.com/javanhut/vtcore/utf8"
)

// ModMask is a bitmask of held modifier keys.
type ModMask uint8

const (
	ModShift ModMask = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

func (m ModMask) has(o ModMask) bool { return m&o != 0 }

// KeySym names a key, using the same names as the X11
// keysym table kmscon's vte.c switches on (XK_BackSpace, XK_Up, and so
// on, with the XK_ prefix dropped).
type KeySym int

const (
	KeyNone KeySym = iota
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	KeySpace
	KeyBackSpace
	KeyTab
	KeyLinefeed
	KeyClear
	KeyPause
	KeyScrollLock
	KeySysReq
	KeyEscape
	KeyReturn
	KeyInsert
	KeyDelete
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyKPEnter
	KeyKPSpace
	KeyKP0
	KeyKP1
	KeyKP2
	KeyKP3
	KeyKP4
	KeyKP5
	KeyKP6
	KeyKP7
	KeyKP8
	KeyKP9
	KeyKPSubtract
	KeyKPSeparator
	KeyKPDelete
	KeyKPDecimal
	KeyKPEqual
	KeyKPDivide
	KeyKPMultiply
	KeyKPAdd
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
)

// InvalidRune marks "no printable character," the Go-side analog of
// UTERM_INPUT_INVALID.
const InvalidRune = rune(-1)

// ctrlTable maps a lowercase ASCII letter/digit/punctuation rune to the C0
// code Control produces for it, transcribed from the XK_a..XK_z/XK_2..XK_8
// branch of kmscon_vte_handle_keyboard. Letters a-z map the same whether or
// not Shift is also held (XK_a and XK_A share a case in the original).
var ctrlTable = map[rune]byte{
	' ': 0x00, '2': 0x00,
	'a': 0x01, 'b': 0x02, 'c': 0x03, 'd': 0x04, 'e': 0x05, 'f': 0x06,
	'g': 0x07, 'h': 0x08, 'i': 0x09, 'j': 0x0a, 'k': 0x0b, 'l': 0x0c,
	'm': 0x0d, 'n': 0x0e, 'o': 0x0f, 'p': 0x10, 'q': 0x11, 'r': 0x12,
	's': 0x13, 't': 0x14, 'u': 0x15, 'v': 0x16, 'w': 0x17, 'x': 0x18,
	'y': 0x19, 'z': 0x1a,
	'3': 0x1b, '[': 0x1b, '{': 0x1b,
	'4': 0x1c, '\\': 0x1c, '|': 0x1c,
	'5': 0x1d, ']': 0x1d, '}': 0x1d,
	'6': 0x1e, '`': 0x1e, '~': 0x1e,
	'7': 0x1f, '/': 0x1f, '?': 0x1f,
	'8': 0x7f,
}

// Translate maps a key event to the bytes that should be written to the
// PTY. r is the key's printable rune (InvalidRune if the key has none);
// sym identifies a non-printable key when r is InvalidRune or when a named
// key takes priority over its rune (Tab, Return, the cursor keys, etc., the
// same priority kmscon gives its keysym switch over ev->unicode). modes
// carries the terminal modes that change cursor-key and keypad encoding.
func Translate(mods ModMask, sym KeySym, r rune, modes terminal.Modes) []byte {
	if mods.has(ModControl) {
		lower := r
		if lower >= 'A' && lower <= 'Z' {
			lower = lower - 'A' + 'a'
		}
		if b, ok := ctrlTable[lower]; ok {
			return []byte{b}
		}
	}

	if b := translateNamed(sym, modes); b != nil {
		return b
	}

	if r != InvalidRune {
		var buf [4]byte
		return utf8.Encode(buf[:0], r)
	}

	return nil
}

func translateNamed(sym KeySym, modes terminal.Modes) []byte {
	switch sym {
	case KeyBackSpace:
		return []byte{0x08}
	case KeyTab:
		return []byte{0x09}
	case KeyLinefeed:
		return []byte{0x0a}
	case KeyClear:
		return []byte{0x0b}
	case KeyPause:
		return []byte{0x13}
	case KeyScrollLock:
		return []byte{0x14}
	case KeySysReq:
		return []byte{0x15}
	case KeyEscape:
		return []byte{0x1b}
	case KeyKPEnter:
		if modes.KeypadApplicationMode {
			return []byte("\x1bOM")
		}
		fallthrough
	case KeyReturn:
		if modes.LineFeedNewLineMode {
			return []byte("\x0d\x0a")
		}
		return []byte{0x0d}
	case KeyInsert:
		return []byte("\x1b[2~")
	case KeyDelete:
		return []byte("\x1b[3~")
	case KeyPageUp:
		return []byte("\x1b[5~")
	case KeyPageDown:
		return []byte("\x1b[6~")
	// CURSOR_KEY_MODE changes the encoding of Left/Home/End below, but
	// Up/Down/Right always send the same ANSI cursor sequence regardless
	// of the mode: this reproduces an asymmetry present in the reference
	// implementation rather than "fixing" it, since the three branches
	// are genuinely identical there too.
	case KeyUp:
		return []byte("\x1b[A")
	case KeyDown:
		return []byte("\x1b[B")
	case KeyRight:
		return []byte("\x1b[C")
	case KeyLeft:
		if modes.CursorKeyMode {
			return []byte("\x1bOD")
		}
		return []byte("\x1b[D")
	case KeyHome:
		if modes.CursorKeyMode {
			return []byte("\x1bOH")
		}
		return []byte("\x1b[H")
	case KeyEnd:
		if modes.CursorKeyMode {
			return []byte("\x1bOF")
		}
		return []byte("\x1b[F")
	case KeyKPSpace:
		return []byte(" ")
	case KeyKP0, KeyKP1, KeyKP2, KeyKP3, KeyKP4, KeyKP5, KeyKP6, KeyKP7, KeyKP8, KeyKP9:
		return keypadDigit(sym, modes)
	case KeyKPSubtract:
		return keypadOp(modes, '-', 'm')
	case KeyKPSeparator:
		return keypadOp(modes, ',', 'l')
	case KeyKPDecimal, KeyKPDelete:
		return keypadOp(modes, '.', 'n')
	case KeyKPDivide, KeyKPEqual:
		return keypadOp(modes, '/', 'j')
	case KeyKPMultiply:
		return keypadOp(modes, '*', 'o')
	case KeyKPAdd:
		return keypadOp(modes, '+', 'k')
	case KeyF1:
		return []byte("\x1bOP")
	case KeyF2:
		return []byte("\x1bOQ")
	case KeyF3:
		return []byte("\x1bOR")
	case KeyF4:
		return []byte("\x1bOS")
	case KeyF5:
		return []byte("\x1b[15~")
	case KeyF6:
		return []byte("\x1b[17~")
	case KeyF7:
		return []byte("\x1b[18~")
	case KeyF8:
		return []byte("\x1b[19~")
	case KeyF9:
		return []byte("\x1b[20~")
	case KeyF10:
		return []byte("\x1b[21~")
	case KeyF11:
		return []byte("\x1b[23~")
	case KeyF12:
		return []byte("\x1b[24~")
	case KeyF13:
		return []byte("\x1b[25~")
	case KeyF14:
		return []byte("\x1b[26~")
	case KeyF15:
		return []byte("\x1b[28~")
	case KeyF16:
		return []byte("\x1b[29~")
	case KeyF17:
		return []byte("\x1b[31~")
	case KeyF18:
		return []byte("\x1b[32~")
	case KeyF19:
		return []byte("\x1b[33~")
	case KeyF20:
		return []byte("\x1b[34~")
	}
	return nil
}

// keypadDigit encodes KP_0..KP_9: application mode sends SS3-prefixed
// letters p..y, normal mode sends the digit itself.
func keypadDigit(sym KeySym, modes terminal.Modes) []byte {
	digit := byte('0' + (sym - KeyKP0))
	if modes.KeypadApplicationMode {
		return []byte{0x1b, 'O', byte('p' + (sym - KeyKP0))}
	}
	return []byte{digit}
}

func keypadOp(modes terminal.Modes, normal, appFinal byte) []byte {
	if modes.KeypadApplicationMode {
		return []byte{0x1b, 'O', appFinal}
	}
	return []byte{normal}
}
