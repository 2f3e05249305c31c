package main

import (
	"os"

	"github.com/danmuck/fitconv/internal/cli"
)

func main() {
	os.Exit(cli.Main(cli.CSVToFit, os.Args[1:], os.Stdout, os.Stderr))
}
