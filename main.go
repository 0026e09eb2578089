package main

import (
	"fmt"
	"os"

	"github.com/zeu5/forage-rl/commands"
)

// main entry point to training and running the controller
func main() {
	rootCommand := commands.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
