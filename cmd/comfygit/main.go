package main

import (
	"os"

	"github.com/comfyhub-org/comfygit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
