package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PausePrompt matches the prompt of the cmd.exe pause builtin.
const PausePrompt = "Press any key to continue . . . "

// WaitForKey prints PausePrompt to out and blocks until a single key is read
// from in. A terminal stdin is switched to raw mode so any key, not only
// Enter, releases the wait. EOF on a non-interactive stdin also returns.
func WaitForKey(in io.Reader, out io.Writer) error {
	fmt.Fprint(out, PausePrompt)
	defer fmt.Fprintln(out)

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		if state, err := term.MakeRaw(fd); err == nil {
			defer func() { _ = term.Restore(fd, state) }()
		}
	}

	buf := make([]byte, 1)
	if _, err := in.Read(buf); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
