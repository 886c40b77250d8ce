package main

import "github.com/glyphtech/symscan/cmd/symscan/cmd"

func main() {
	cmd.Execute()
}
