package main

import "github.com/necroscout/necroscout/cmd"

func main() {
	cmd.Execute()
}
