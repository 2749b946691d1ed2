package main

import "github.com/motis-project/paxmon-client/internal/cli"

func main() {
	cli.Execute()
}
