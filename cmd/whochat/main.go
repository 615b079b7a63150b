// Command whochat serves and manipulates password-protected chats.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+describeError(err))
		os.Exit(1)
	}
}
