package main

import (
	"fmt"
	"os"

	"github.com/canadaduane/jj-ryu/cmd"
	"github.com/canadaduane/jj-ryu/internal/logs"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logs.Error("CLI error: %v", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
