package main

import "github.com/nfrund/announcer/cmd/announcer-cli/cmd"

func main() {
	cmd.Execute()
}
