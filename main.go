package main

import (
	"os"

	"backhaul/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
