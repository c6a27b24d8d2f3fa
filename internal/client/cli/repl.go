package cli

import (
	"context"
	"fmt"
	"strings"
)

// runREPL reads commands line by line until EOF, "exit" or "quit". Command
// errors are printed by exec and do not end the loop.
func (a *App) runREPL(ctx context.Context) {
	fmt.Fprintln(a.out, "authctl (type 'help' for commands)")

	for {
		fmt.Fprint(a.out, "authctl> ")

		line, err := a.reader.ReadString('\n')
		parts := strings.Fields(line)

		if len(parts) > 0 {
			cmd := parts[0]
			if cmd == "exit" || cmd == "quit" {
				fmt.Fprintln(a.out, "Bye!")
				return
			}
			_ = a.exec(ctx, cmd, parts[1:])
		}

		if err != nil {
			fmt.Fprintln(a.out)
			return
		}
	}
}
