package main

import (
	"os"

	"github.com/hearthly/hearth/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
