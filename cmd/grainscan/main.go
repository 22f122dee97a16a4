package main

import "github.com/MeKo-Tech/grainscan/cmd/grainscan/cmd"

func main() {
	cmd.Execute()
}
