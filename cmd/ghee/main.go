package main

import (
	"os"

	"github.com/raoulx24/ghee/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
