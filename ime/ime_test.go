package ime

import (
	"testing"

	"github.com/javanhut/vtcore/keyboard"
	"github.com/stretchr/testify/require"
)

func testDict() []Entry {
	return []Entry{
		{Key: "ni", Candidates: []rune{'你', '拟', '泥'}},
		{Key: "hao", Candidates: []rune{'好', '号'}},
		{Key: "a", Candidates: []rune{'啊', '阿'}},
	}
}

func newTestIME() *IME {
	m := New(func() []Entry { return testDict() })
	m.SetActive(true)
	return m
}

var letterKeys = map[rune]keyboard.KeySym{
	'a': keyboard.KeyA, 'h': keyboard.KeyH, 'i': keyboard.KeyI,
	'n': keyboard.KeyN, 'o': keyboard.KeyO, 'x': keyboard.KeyX,
}

func feedLetters(m *IME, s string) {
	for _, r := range s {
		m.Handle(letterKeys[r])
	}
}

func TestInactiveIMEIgnoresInput(t *testing.T) {
	m := New(func() []Entry { return testDict() })
	handled, commit := m.Handle(keyboard.KeyN)
	require.False(t, handled)
	require.Nil(t, commit)
	require.Equal(t, "", m.Preedit())
}

func TestLettersAppendToPreedit(t *testing.T) {
	m := newTestIME()
	feedLetters(m, "ni")
	require.Equal(t, "ni", m.Preedit())
}

func TestExactMatchPopulatesCandidates(t *testing.T) {
	m := newTestIME()
	feedLetters(m, "ni")
	require.Equal(t, []rune{'你', '拟', '泥'}, m.Candidates())
	require.Equal(t, 0, m.Selected())
}

func TestNoMatchLeavesCandidatesEmpty(t *testing.T) {
	m := newTestIME()
	feedLetters(m, "xo")
	require.Empty(t, m.Candidates())
	require.Equal(t, -1, m.Selected())
}

func TestRightLeftMoveSelection(t *testing.T) {
	m := newTestIME()
	feedLetters(m, "ni")
	handled, _ := m.Handle(keyboard.KeyRight)
	require.True(t, handled)
	require.Equal(t, 1, m.Selected())
	m.Handle(keyboard.KeyLeft)
	require.Equal(t, 0, m.Selected())
}

func TestHomeEndJumpSelection(t *testing.T) {
	m := newTestIME()
	feedLetters(m, "ni")
	m.Handle(keyboard.KeyEnd)
	require.Equal(t, 2, m.Selected())
	m.Handle(keyboard.KeyHome)
	require.Equal(t, 0, m.Selected())
}

func TestSpaceCommitsSelectedCandidate(t *testing.T) {
	m := newTestIME()
	feedLetters(m, "ni")
	m.Handle(keyboard.KeyRight) // select second candidate
	_, commit := m.Handle(keyboard.KeySpace)
	require.Equal(t, "拟", string(commit))
	require.Equal(t, "", m.Preedit())
}

func TestSpaceWithNoSelectionDoesNothing(t *testing.T) {
	m := newTestIME()
	handled, commit := m.Handle(keyboard.KeySpace)
	require.True(t, handled)
	require.Nil(t, commit)
}

func TestEnterCommitsRawPreeditVerbatim(t *testing.T) {
	m := newTestIME()
	feedLetters(m, "xo")
	_, commit := m.Handle(keyboard.KeyReturn)
	require.Equal(t, "xo", string(commit))
	require.Equal(t, "", m.Preedit())
}

func TestEscapeResetsComposition(t *testing.T) {
	m := newTestIME()
	feedLetters(m, "ni")
	handled, _ := m.Handle(keyboard.KeyEscape)
	require.True(t, handled)
	require.Equal(t, "", m.Preedit())
	require.Empty(t, m.Candidates())
	require.Equal(t, -1, m.Selected())
}

func TestBackspacePopsLastLetterAndReLooksUp(t *testing.T) {
	m := newTestIME()
	feedLetters(m, "nix")
	require.Empty(t, m.Candidates())
	m.Handle(keyboard.KeyBackSpace)
	require.Equal(t, "ni", m.Preedit())
	require.Equal(t, []rune{'你', '拟', '泥'}, m.Candidates())
}

func TestBackspaceOnEmptyPreeditIsNoop(t *testing.T) {
	m := newTestIME()
	handled, _ := m.Handle(keyboard.KeyBackSpace)
	require.False(t, handled)
}

func TestSingleLetterDictionaryEntry(t *testing.T) {
	m := newTestIME()
	feedLetters(m, "a")
	require.Equal(t, []rune{'啊', '阿'}, m.Candidates())
}

func TestUnhandledKeyFallsThrough(t *testing.T) {
	m := newTestIME()
	handled, commit := m.Handle(keyboard.KeyF1)
	require.False(t, handled)
	require.Nil(t, commit)
}
