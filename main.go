package main

import "github.com/outbound-caller/cli/cmd"

func main() {
	cmd.Execute()
}
