package cmd

import (
	"fmt"
	"os"

	"github.com/etnz/statement/renderer"
	"golang.org/x/term"
)

// printMarkdown prints md to the standard output, styled when it is a terminal.
func printMarkdown(md string) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		fmt.Print(md)
		return
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		width = 100
	}
	out, err := renderer.Terminal(md, width)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
