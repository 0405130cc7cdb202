package main

import "sessionkeeper/cmd/sessionkeeper-cli/cmd"

func main() {
	cmd.Execute()
}
