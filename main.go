package main

import (
	"causalbridge/cmd"
)

// main is the entry point for the causalbridge CLI. All command-line
// parsing, configuration, and execution lives in the cmd package.
func main() {
	cmd.Execute()
}
