// Package utf8 implements a byte-at-a-time UTF-8 decoder state machine.
//
// It mirrors the classic DFA used by terminal emulators (kmscon's
// tsm_utf8_mach, libtsm's descendants): feed one byte, get back the current
// state, and read the accumulated code point once the state reaches Accept.
// Invalid or overlong sequences reach Reject instead of panicking or
// silently returning garbage; callers are expected to substitute
// ReplacementChar and keep going.
package utf8

// State is a UTF-8 decoder state.
type State int

const (
	StateStart State = iota
	StateAccept
	StateReject
	StateExpect1
	StateExpect2
	StateExpect3
)

// ReplacementChar is substituted for invalid or incomplete sequences.
const ReplacementChar = rune(0xFFFD)

// Decoder is a byte-level UTF-8 decoding state machine.
type Decoder struct {
	state State
	accum rune
}

// New returns a decoder ready to accept the first byte of a sequence.
func New() *Decoder {
	return &Decoder{state: StateStart}
}

// Reset returns the decoder to its initial state, discarding any
// in-progress sequence.
func (d *Decoder) Reset() {
	d.state = StateStart
	d.accum = 0
}

// Feed processes one byte and returns the resulting state. Callers should
// call Get after every Feed that returns StateAccept or StateReject.
func (d *Decoder) Feed(b byte) State {
	switch d.state {
	case StateStart, StateAccept, StateReject:
		switch {
		case b == 0xC0 || b == 0xC1:
			// Overlong encoding of ASCII.
			d.state = StateReject
		case b&0x80 == 0:
			d.accum = rune(b)
			d.state = StateAccept
		case b&0xC0 == 0x80:
			// Stray continuation byte: resync without emitting anything.
			d.state = StateStart
		case b&0xE0 == 0xC0:
			d.accum = rune(b&0x1F) << 6
			d.state = StateExpect1
		case b&0xF0 == 0xE0:
			d.accum = rune(b&0x0F) << 12
			d.state = StateExpect2
		case b&0xF8 == 0xF0:
			d.accum = rune(b&0x07) << 18
			d.state = StateExpect3
		default:
			d.state = StateReject
		}
	case StateExpect3:
		d.accum |= rune(b&0x3F) << 12
		d.state = continuationState(b, StateExpect2)
	case StateExpect2:
		d.accum |= rune(b&0x3F) << 6
		d.state = continuationState(b, StateExpect1)
	case StateExpect1:
		d.accum |= rune(b & 0x3F)
		d.state = continuationState(b, StateAccept)
	default:
		d.state = StateReject
	}
	return d.state
}

func continuationState(b byte, next State) State {
	if b&0xC0 == 0x80 {
		return next
	}
	return StateReject
}

// Get returns the decoded code point, or ReplacementChar if the decoder is
// not currently in the Accept state.
func (d *Decoder) Get() rune {
	if d.state != StateAccept {
		return ReplacementChar
	}
	return d.accum
}

// DecodeString feeds every byte of s through a fresh Decoder and returns the
// decoded code points, substituting ReplacementChar for invalid bytes. It is
// a convenience for tests and for the CLI; the hot path (terminal.Terminal
// reading PTY bytes) drives the Decoder directly.
func DecodeString(s string) []rune {
	d := New()
	var out []rune
	for i := 0; i < len(s); i++ {
		switch d.Feed(s[i]) {
		case StateAccept:
			out = append(out, d.Get())
		case StateReject:
			out = append(out, ReplacementChar)
		}
	}
	return out
}

// Encode appends the UTF-8 encoding of r to buf and returns the result,
// mirroring the keyboard package's rune encoding needs without requiring a
// second copy of the same four branches.
func Encode(buf []byte, r rune) []byte {
	switch {
	case r < 0x80:
		return append(buf, byte(r))
	case r < 0x800:
		return append(buf, byte(0xC0|(r>>6)), byte(0x80|(r&0x3F)))
	case r < 0x10000:
		return append(buf,
			byte(0xE0|(r>>12)),
			byte(0x80|((r>>6)&0x3F)),
			byte(0x80|(r&0x3F)))
	default:
		return append(buf,
			byte(0xF0|(r>>18)),
			byte(0x80|((r>>12)&0x3F)),
			byte(0x80|((r>>6)&0x3F)),
			byte(0x80|(r&0x3F)))
	}
}
