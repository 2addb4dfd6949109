// Package ime implements a pinyin-style input method: a preedit buffer of
// a-z keystrokes, a dictionary mapping preedit strings to candidate
// characters, and a candidate selection cursor. Adapted from kmscon's
// im_keyboard/im_ime_load (original_source/src/kmscon_im.c).
package ime

import (
	"sort"
	"strings"

	"github.com/javanhut/vtcore/keyboard"
	"github.com/javanhut/vtcore/utf8"
)

// Entry is one dictionary row: a preedit string (e.g. "ni") mapped to the
// candidate runes it can produce (e.g. "你拟泥匿").
type Entry struct {
	Key        string
	Candidates []rune
}

// Loader populates a dictionary, the Go analog of kmscon's im_ime_load_cb.
type Loader func() []Entry

// IME holds preedit/candidate state for one input session.
type IME struct {
	dict     []Entry
	preedit  []rune
	candidates []rune
	selected int
	active   bool
}

// New builds an IME with its dictionary sorted for binary search, the same
// preprocessing im_ime_load does after calling the load callback.
func New(load Loader) *IME {
	dict := load()
	sort.Slice(dict, func(i, j int) bool { return dict[i].Key < dict[j].Key })
	return &IME{dict: dict, selected: -1}
}

// SetActive toggles whether Handle consumes keys at all.
func (m *IME) SetActive(active bool) {
	m.active = active
	if !active {
		m.Reset()
	}
}

// Active reports whether the IME is currently composing.
func (m *IME) Active() bool { return m.active }

// Reset clears preedit and candidate state, mirroring im_reset.
func (m *IME) Reset() {
	m.preedit = m.preedit[:0]
	m.candidates = m.candidates[:0]
	m.selected = -1
}

// Preedit returns the current composition buffer.
func (m *IME) Preedit() string { return string(m.preedit) }

// Candidates returns the current candidate list for the preedit buffer.
func (m *IME) Candidates() []rune { return m.candidates }

// Selected returns the index of the highlighted candidate, or -1 if none.
func (m *IME) Selected() int { return m.selected }

// letterRunes maps the KeyA..KeyZ keysyms to their lowercase ASCII letter,
// the preedit alphabet im_keyboard accepts (uppercase keys are assumed
// already folded to lowercase by the caller, matching kmscon's keycode
// switch which only defines KEY_A..KEY_Z once).
var letterRunes = map[keyboard.KeySym]rune{
	keyboard.KeyA: 'a', keyboard.KeyB: 'b', keyboard.KeyC: 'c', keyboard.KeyD: 'd',
	keyboard.KeyE: 'e', keyboard.KeyF: 'f', keyboard.KeyG: 'g', keyboard.KeyH: 'h',
	keyboard.KeyI: 'i', keyboard.KeyJ: 'j', keyboard.KeyK: 'k', keyboard.KeyL: 'l',
	keyboard.KeyM: 'm', keyboard.KeyN: 'n', keyboard.KeyO: 'o', keyboard.KeyP: 'p',
	keyboard.KeyQ: 'q', keyboard.KeyR: 'r', keyboard.KeyS: 's', keyboard.KeyT: 't',
	keyboard.KeyU: 'u', keyboard.KeyV: 'v', keyboard.KeyW: 'w', keyboard.KeyX: 'x',
	keyboard.KeyY: 'y', keyboard.KeyZ: 'z',
}

// Handle processes one key event. handled reports whether the IME consumed
// the key (the caller should not also forward it to the terminal); commit
// holds UTF-8 bytes to write to the PTY when a candidate or the raw preedit
// buffer is committed. Any key not recognized here is left unhandled so the
// caller falls back to keyboard.Translate.
func (m *IME) Handle(sym keyboard.KeySym) (handled bool, commit []byte) {
	if !m.active {
		return false, nil
	}

	changed := false

	switch {
	case letterRunes[sym] != 0:
		m.preedit = append(m.preedit, letterRunes[sym])
		changed = true
		handled = true
	case sym == keyboard.KeySpace || sym == keyboard.KeyKPSpace:
		if m.selected >= 0 && m.selected < len(m.candidates) {
			commit = utf8.Encode(nil, m.candidates[m.selected])
			m.preedit = m.preedit[:0]
			changed = true
		}
		handled = true
	case sym == keyboard.KeyRight:
		if m.selected < len(m.candidates)-1 {
			m.selected++
		}
		handled = true
	case sym == keyboard.KeyLeft:
		if m.selected > 0 {
			m.selected--
		}
		handled = true
	case sym == keyboard.KeyHome:
		if m.selected > 0 {
			m.selected = 0
		}
		handled = true
	case sym == keyboard.KeyEnd:
		if m.selected < len(m.candidates)-1 {
			m.selected = len(m.candidates) - 1
		}
		handled = true
	case sym == keyboard.KeyReturn || sym == keyboard.KeyKPEnter:
		if len(m.preedit) > 0 {
			commit = []byte(string(m.preedit))
			m.preedit = m.preedit[:0]
			changed = true
			handled = true
		}
	case sym == keyboard.KeyEscape:
		m.Reset()
		handled = true
	case sym == keyboard.KeyBackSpace:
		if len(m.preedit) > 0 {
			m.preedit = m.preedit[:len(m.preedit)-1]
			changed = true
			handled = true
		}
	}

	if !changed {
		return handled, commit
	}

	m.candidates = m.candidates[:0]
	m.selected = -1

	if len(m.preedit) == 0 {
		return handled, commit
	}

	if e, ok := m.lookup(string(m.preedit)); ok {
		m.candidates = append(m.candidates, e.Candidates...)
		m.selected = 0
	}

	return handled, commit
}

// lookup performs a byte-lexicographic binary search over the sorted
// dictionary, the same strcmp-based search im_keyboard runs over its
// shl_array. Only an exact preedit match yields candidates; there is no
// prefix search. Among entries with equal keys the left-most one wins.
func (m *IME) lookup(preedit string) (Entry, bool) {
	lo, hi := 0, len(m.dict)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		cmp := strings.Compare(preedit, m.dict[mid].Key)
		switch {
		case cmp == 0:
			for mid > 0 && m.dict[mid-1].Key == preedit {
				mid--
			}
			return m.dict[mid], true
		case cmp > 0:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return Entry{}, false
}
