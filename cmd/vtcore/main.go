// Command vtcore wires a pseudo-terminal shell session through the parser
// stack: PTY bytes flow through utf8/vtparser/terminal into a grid.Grid,
// and stdin is decoded into keyboard/ime events that flow back to the PTY.
// Adapted from RavenTerminal's root main.go, minus the GLFW window.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/javanhut/vtcore/config"
	"github.com/javanhut/vtcore/ime"
	"github.com/javanhut/vtcore/keyboard"
	"github.com/javanhut/vtcore/ptyio"
	"github.com/javanhut/vtcore/terminal"
)

type options struct {
	Cols       uint16 `long:"cols" default:"80" description:"initial terminal width in columns"`
	Rows       uint16 `long:"rows" default:"24" description:"initial terminal height in rows"`
	Dictionary string `long:"dictionary" description:"path to a YAML pinyin dictionary (overrides config file)"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("vtcore: load config: %v", err)
	}
	if opts.Dictionary != "" {
		cfg.DictionaryPath = opts.Dictionary
	}

	session, err := ptyio.NewSession(opts.Cols, opts.Rows)
	if err != nil {
		log.Fatalf("vtcore: start shell: %v", err)
	}
	defer session.Close()
	log.Printf("vtcore: session %s started", session.ID)

	vt := terminal.New(int(opts.Cols), int(opts.Rows))
	vt.SetResponseWriter(func(b []byte) {
		if _, err := session.Write(b); err != nil {
			log.Printf("vtcore: reply write: %v", err)
		}
	})

	im := ime.New(cfg.LoadDictionary())

	stdinFd := int(os.Stdin.Fd())
	if state, err := term.MakeRaw(stdinFd); err != nil {
		log.Printf("vtcore: stdin is not a terminal, running without raw mode: %v", err)
	} else {
		defer term.Restore(stdinFd, state)
	}

	done := make(chan struct{})
	go pumpPTYToTerminal(session, vt, done)
	go pumpStdinToPTY(os.Stdin, session, vt, im)

	<-done
}

func pumpPTYToTerminal(session *ptyio.Session, vt *terminal.Terminal, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, 4096)
	for {
		n, err := session.Read(buf)
		if n > 0 {
			vt.Write(buf[:n])
			renderToStdout(vt)
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("vtcore: pty read: %v", err)
			}
			return
		}
	}
}

// renderToStdout redraws the visible grid. A production embedder would
// diff against the previous frame; this core only guarantees the grid
// snapshot is correct, so vtcore repaints the whole screen each chunk.
func renderToStdout(vt *terminal.Terminal) {
	snap := vt.Grid.Snapshot()
	fmt.Print("\x1b[H\x1b[2J")
	for _, line := range snap.Lines {
		fmt.Print(line, "\r\n")
	}
}

func pumpStdinToPTY(in *os.File, session *ptyio.Session, vt *terminal.Terminal, im *ime.IME) {
	reader := bufio.NewReader(in)
	for {
		sym, r, err := decodeKeyEvent(reader)
		if err != nil {
			if err != io.EOF {
				log.Printf("vtcore: stdin read: %v", err)
			}
			return
		}

		if sym == keyboard.KeyF12 {
			im.SetActive(!im.Active())
			continue
		}

		if im.Active() {
			if handled, commit := im.Handle(sym); handled {
				if len(commit) > 0 {
					session.Write(commit)
				}
				continue
			}
		}

		if out := keyboard.Translate(0, sym, r, vt.Modes()); out != nil {
			session.Write(out)
		}
	}
}

// decodeKeyEvent reads one key event off raw stdin, recognizing the
// classic ANSI escape sequences a terminal emulator sends for named keys
// and otherwise decoding a single UTF-8 rune.
func decodeKeyEvent(r *bufio.Reader) (keyboard.KeySym, rune, error) {
	b, err := r.ReadByte()
	if err != nil {
		return keyboard.KeyNone, keyboard.InvalidRune, err
	}

	if b == 0x1b {
		return decodeEscapeSequence(r)
	}

	if b < 0x80 {
		return runeToSym(rune(b)), rune(b), nil
	}

	r.UnreadByte()
	decoded, _, err := r.ReadRune()
	if err != nil {
		return keyboard.KeyNone, keyboard.InvalidRune, errors.Wrap(err, "vtcore: decode stdin rune")
	}
	return keyboard.KeyNone, decoded, nil
}

// runeToSym maps a-z and A-Z (both to KeyA..KeyZ), space, BS/DEL, CR and
// ESC bytes to their named KeySym so the IME path can recognize them;
// everything else is left as KeyNone and carried through the rune, same as
// keyboard.Translate's own fallback.
func runeToSym(r rune) keyboard.KeySym {
	if r >= 'a' && r <= 'z' {
		return keyboard.KeyA + keyboard.KeySym(r-'a')
	}
	if r >= 'A' && r <= 'Z' {
		return keyboard.KeyA + keyboard.KeySym(r-'A')
	}
	switch r {
	case ' ':
		return keyboard.KeySpace
	case 0x08, 0x7f:
		return keyboard.KeyBackSpace
	case 0x0d:
		return keyboard.KeyReturn
	case 0x1b:
		return keyboard.KeyEscape
	}
	return keyboard.KeyNone
}

func decodeEscapeSequence(r *bufio.Reader) (keyboard.KeySym, rune, error) {
	b, err := r.ReadByte()
	if err != nil {
		return keyboard.KeyEscape, keyboard.InvalidRune, nil
	}
	if b != '[' && b != 'O' {
		r.UnreadByte()
		return keyboard.KeyEscape, keyboard.InvalidRune, nil
	}

	final, err := r.ReadByte()
	if err != nil {
		return keyboard.KeyEscape, keyboard.InvalidRune, nil
	}

	switch final {
	case 'A':
		return keyboard.KeyUp, keyboard.InvalidRune, nil
	case 'B':
		return keyboard.KeyDown, keyboard.InvalidRune, nil
	case 'C':
		return keyboard.KeyRight, keyboard.InvalidRune, nil
	case 'D':
		return keyboard.KeyLeft, keyboard.InvalidRune, nil
	case 'H':
		return keyboard.KeyHome, keyboard.InvalidRune, nil
	case 'F':
		return keyboard.KeyEnd, keyboard.InvalidRune, nil
	case 'P':
		return keyboard.KeyF1, keyboard.InvalidRune, nil
	case 'Q':
		return keyboard.KeyF2, keyboard.InvalidRune, nil
	case 'R':
		return keyboard.KeyF3, keyboard.InvalidRune, nil
	case 'S':
		return keyboard.KeyF4, keyboard.InvalidRune, nil
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		// CSI <n> ~ sequences (Insert/Delete/Page_Up/Page_Down/F12); the
		// remaining digits and the trailing '~' are consumed and discarded.
		n := int(final - '0')
		for {
			c, err := r.ReadByte()
			if err != nil || c < '0' || c > '9' {
				break
			}
			n = n*10 + int(c-'0')
		}
		switch n {
		case 2:
			return keyboard.KeyInsert, keyboard.InvalidRune, nil
		case 3:
			return keyboard.KeyDelete, keyboard.InvalidRune, nil
		case 5:
			return keyboard.KeyPageUp, keyboard.InvalidRune, nil
		case 6:
			return keyboard.KeyPageDown, keyboard.InvalidRune, nil
		case 24:
			return keyboard.KeyF12, keyboard.InvalidRune, nil
		}
	}
	return keyboard.KeyNone, keyboard.InvalidRune, nil
}
