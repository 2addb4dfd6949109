package vtparser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	printed       []rune
	executed      []byte
	cleared       int
	collected     []byte
	escDispatches [][2]interface{}
	csiParams     []int
	csiFinal      byte
	csiIntermed   []byte
	dcsParams     []int
	dcsFinal      byte
	dcsData       []byte
	dcsHooked     bool
	dcsUnhooked   bool
	oscStarted    bool
	oscData       []byte
	oscEnded      bool
}

func (h *recordingHandler) Print(r rune)  { h.printed = append(h.printed, r) }
func (h *recordingHandler) Execute(b byte) { h.executed = append(h.executed, b) }
func (h *recordingHandler) Clear()         { h.cleared++ }
func (h *recordingHandler) Collect(b byte) { h.collected = append(h.collected, b) }
func (h *recordingHandler) Param(b byte)   {}
func (h *recordingHandler) EscDispatch(final byte, intermediates []byte) {
	h.escDispatches = append(h.escDispatches, [2]interface{}{final, append([]byte{}, intermediates...)})
}
func (h *recordingHandler) CSIDispatch(final byte, params []int, intermediates []byte) {
	h.csiFinal = final
	h.csiParams = append([]int{}, params...)
	h.csiIntermed = append([]byte{}, intermediates...)
}
func (h *recordingHandler) DCSHook(final byte, params []int, intermediates []byte) {
	h.dcsHooked = true
	h.dcsFinal = final
	h.dcsParams = append([]int{}, params...)
}
func (h *recordingHandler) DCSPut(b byte)  { h.dcsData = append(h.dcsData, b) }
func (h *recordingHandler) DCSUnhook()     { h.dcsUnhooked = true }
func (h *recordingHandler) OSCStart()      { h.oscStarted = true }
func (h *recordingHandler) OSCPut(b byte)  { h.oscData = append(h.oscData, b) }
func (h *recordingHandler) OSCEnd()        { h.oscEnded = true }

func feedString(p *Parser, s string) {
	for _, r := range s {
		p.Feed(r)
	}
}

func TestGroundPrintsPlainText(t *testing.T) {
	h := &recordingHandler{}
	p := New(h)
	feedString(p, "hi")
	require.Equal(t, []rune{'h', 'i'}, h.printed)
	require.Equal(t, StateGround, p.State())
}

func TestGroundExecutesC0Control(t *testing.T) {
	h := &recordingHandler{}
	p := New(h)
	p.Feed(0x0a)
	require.Equal(t, []byte{0x0a}, h.executed)
	require.Empty(t, h.printed)
}

func TestCSIDispatchParsesParams(t *testing.T) {
	h := &recordingHandler{}
	p := New(h)
	feedString(p, "\x1b[1;31m")
	require.Equal(t, byte('m'), h.csiFinal)
	require.Equal(t, []int{1, 31}, h.csiParams)
	require.Equal(t, StateGround, p.State())
}

func TestCSIDispatchWithUnsetParamDefaults(t *testing.T) {
	h := &recordingHandler{}
	p := New(h)
	feedString(p, "\x1b[;5H")
	require.Equal(t, byte('H'), h.csiFinal)
	require.Equal(t, []int{ParamUnset, 5}, h.csiParams)
}

func TestCSIPrivateMarkerCollectedAsIntermediate(t *testing.T) {
	h := &recordingHandler{}
	p := New(h)
	feedString(p, "\x1b[?25h")
	require.Equal(t, byte('h'), h.csiFinal)
	require.Equal(t, []int{25}, h.csiParams)
	require.Equal(t, []byte{'?'}, h.csiIntermed)
}

func TestEscDispatchFires(t *testing.T) {
	h := &recordingHandler{}
	p := New(h)
	feedString(p, "\x1bD")
	require.Len(t, h.escDispatches, 1)
	require.Equal(t, byte('D'), h.escDispatches[0][0])
}

func TestOSCStringCollectsUntilST(t *testing.T) {
	h := &recordingHandler{}
	p := New(h)
	feedString(p, "\x1b]0;title")
	p.Feed(0x9c)
	require.True(t, h.oscStarted)
	require.True(t, h.oscEnded)
	require.Equal(t, "0;title", string(h.oscData))
	require.Equal(t, StateGround, p.State())
}

func TestDCSPassthroughHooksAndUnhooks(t *testing.T) {
	h := &recordingHandler{}
	p := New(h)
	feedString(p, "\x1bP1$q")
	feedString(p, "hello")
	p.Feed(0x9c)
	require.True(t, h.dcsHooked)
	require.True(t, h.dcsUnhooked)
	require.Equal(t, byte('q'), h.dcsFinal)
	require.Equal(t, []int{1}, h.dcsParams)
	require.Equal(t, []byte{'$'}, h.collected)
	require.Equal(t, "hello", string(h.dcsData))
}

func TestMalformedCSISwitchesToIgnore(t *testing.T) {
	h := &recordingHandler{}
	p := New(h)
	p.Feed(0x9b) // CSI
	p.Feed(':')  // 0x3a triggers CSI_IGNORE
	require.Equal(t, StateCSIIgnore, p.State())
	p.Feed('1')
	require.Equal(t, StateCSIIgnore, p.State())
	p.Feed('m')
	require.Equal(t, StateGround, p.State())
	require.Equal(t, byte(0), h.csiFinal)
}

func TestCanAbortsToGround(t *testing.T) {
	h := &recordingHandler{}
	p := New(h)
	feedString(p, "\x1b[1;2")
	p.Feed(0x18) // CAN
	require.Equal(t, StateGround, p.State())
}

func TestParamOverflowSaturates(t *testing.T) {
	h := &recordingHandler{}
	p := New(h)
	feedString(p, "\x1b[999999m")
	require.Equal(t, []int{65535}, h.csiParams)
}
