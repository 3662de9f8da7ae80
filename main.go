package main

import "pattern-studio/cmd"

func main() {
	cmd.Execute()
}
