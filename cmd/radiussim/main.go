package main

import "github.com/samirrijal/roomradar/cmd/radiussim/cmd"

func main() {
	cmd.Execute()
}
