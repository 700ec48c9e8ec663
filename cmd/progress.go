package cmd

import (
	"fmt"

	"github.com/canadaduane/jj-ryu/internal/ui"
)

// cliProgress renders executor progress as compact indented lines.
type cliProgress struct{}

func (cliProgress) Update(msg string) {
	fmt.Printf("  %s\n", msg)
}

func (cliProgress) Success(msg string) {
	fmt.Printf("  %s %s\n", ui.Success("✓"), msg)
}
