package main

import (
	"os"

	"github.com/ridedata/bikeqc/cmd/bikeqc/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
