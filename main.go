package main

import "github.com/agentic-research/lifecards/cmd"

func main() {
	cmd.Execute()
}
