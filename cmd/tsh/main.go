package main

import (
	"context"
	"os"

	"github.com/marcelocantos/tsh/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Main(context.Background(), version, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
