package main

import (
	"os"

	"vroot/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
