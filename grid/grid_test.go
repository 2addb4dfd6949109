package grid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAdvancesCursor(t *testing.T) {
	g := NewGrid(10, 5)
	g.Write('A', DefaultAttrs())
	col, row := g.Cursor()
	require.Equal(t, 1, col)
	require.Equal(t, 0, row)
	require.Equal(t, 'A', g.GetCell(0, 0).Rune)
}

func TestWriteWrapsAtRightMargin(t *testing.T) {
	g := NewGrid(3, 3)
	g.Write('A', DefaultAttrs())
	g.Write('B', DefaultAttrs())
	g.Write('C', DefaultAttrs())
	g.Write('D', DefaultAttrs())
	col, row := g.Cursor()
	require.Equal(t, 1, col)
	require.Equal(t, 1, row)
	require.Equal(t, 'D', g.GetCell(0, 1).Rune)
}

func TestWideRuneAdvancesTwoCells(t *testing.T) {
	g := NewGrid(10, 2)
	g.Write('你', DefaultAttrs()) // 你, East Asian Wide
	col, _ := g.Cursor()
	require.Equal(t, 2, col)
	require.Equal(t, rune(0), g.GetCell(1, 0).Rune)
}

func TestNewlineScrollsWhenAtBottomMargin(t *testing.T) {
	g := NewGrid(3, 2)
	g.SetCursor(0, 1)
	g.Write('X', DefaultAttrs())
	g.Newline()
	_, row := g.Cursor()
	require.Equal(t, 1, row)
	require.Equal(t, ' ', g.GetCell(0, 1).Rune)
}

func TestEraseWholeScreenClearsEveryCell(t *testing.T) {
	g := NewGrid(4, 2)
	g.Write('A', DefaultAttrs())
	g.Erase(EraseWholeScreen)
	require.Equal(t, ' ', g.GetCell(0, 0).Rune)
}

func TestEraseCursorToEndClearsOnlyFromCursor(t *testing.T) {
	g := NewGrid(5, 1)
	for _, r := range "ABCDE" {
		g.Write(r, DefaultAttrs())
	}
	g.SetCursor(2, 0)
	g.Erase(EraseCursorToEnd)
	require.Equal(t, 'A', g.GetCell(0, 0).Rune)
	require.Equal(t, 'B', g.GetCell(1, 0).Rune)
	require.Equal(t, ' ', g.GetCell(2, 0).Rune)
	require.Equal(t, ' ', g.GetCell(4, 0).Rune)
}

func TestSaveRestoreCursor(t *testing.T) {
	g := NewGrid(10, 10)
	g.SetCursor(3, 4)
	g.SaveCursor()
	g.SetCursor(7, 8)
	g.RestoreCursor()
	col, row := g.Cursor()
	require.Equal(t, 3, col)
	require.Equal(t, 4, row)
}

func TestScrollRegionConfinesScroll(t *testing.T) {
	g := NewGrid(3, 5)
	g.SetScrollRegion(2, 4)
	for row := 0; row < 5; row++ {
		g.SetCursor(0, row)
		g.Write(rune('0'+row), DefaultAttrs())
	}
	g.SetCursor(0, 3)
	g.Newline()
	require.Equal(t, '0', g.GetCell(0, 0).Rune)
	require.Equal(t, '4', g.GetCell(0, 4).Rune)
	require.Equal(t, ' ', g.GetCell(0, 3).Rune)
}

func TestScrollbackCollectsScrolledLines(t *testing.T) {
	g := NewGrid(3, 2)
	g.SetCursor(0, 1)
	g.Write('A', DefaultAttrs())
	g.Newline()
	g.SetCursor(0, 1)
	g.Write('B', DefaultAttrs())
	g.Newline()
	require.Len(t, g.scrollback, 2)
	require.Equal(t, 'A', g.scrollback[1][0].Rune)
}

func TestResizePreservesTopLeftOverlap(t *testing.T) {
	g := NewGrid(5, 5)
	g.Write('A', DefaultAttrs())
	g.Resize(3, 3)
	require.Equal(t, 3, g.Width())
	require.Equal(t, 3, g.Height())
	require.Equal(t, 'A', g.GetCell(0, 0).Rune)
}

func TestHardResetClearsGridAndCursor(t *testing.T) {
	g := NewGrid(4, 4)
	g.Write('A', DefaultAttrs())
	g.SetCursor(2, 2)
	g.HardReset()
	col, row := g.Cursor()
	require.Equal(t, 0, col)
	require.Equal(t, 0, row)
	require.Equal(t, ' ', g.GetCell(0, 0).Rune)
}

func TestInsertAndDeleteChars(t *testing.T) {
	g := NewGrid(5, 1)
	for _, r := range "ABCDE" {
		g.Write(r, DefaultAttrs())
	}
	g.SetCursor(1, 0)
	g.InsertChars(2)
	require.Equal(t, 'A', g.GetCell(0, 0).Rune)
	require.Equal(t, ' ', g.GetCell(1, 0).Rune)
	require.Equal(t, 'B', g.GetCell(3, 0).Rune)

	g.SetCursor(0, 0)
	g.DeleteChars(1)
	require.Equal(t, ' ', g.GetCell(0, 0).Rune)
}

func TestRepeatCharRepeatsLastWrittenRune(t *testing.T) {
	g := NewGrid(5, 1)
	g.Write('X', DefaultAttrs())
	g.RepeatChar(3)
	require.Equal(t, 'X', g.GetCell(1, 0).Rune)
	require.Equal(t, 'X', g.GetCell(3, 0).Rune)
}

func TestVisibleTextTrimsTrailingSpaces(t *testing.T) {
	g := NewGrid(5, 2)
	g.Write('H', DefaultAttrs())
	g.Write('I', DefaultAttrs())
	text := g.VisibleText()
	require.Equal(t, "HI", text)
}

func TestSnapshotReportsCursorAndLines(t *testing.T) {
	g := NewGrid(5, 2)
	g.Write('H', DefaultAttrs())
	snap := g.Snapshot()
	require.Equal(t, 5, snap.Cols)
	require.Equal(t, 2, snap.Rows)
	require.Equal(t, 1, snap.CursorCol)
	require.Equal(t, "H", snap.Lines[0])
}
