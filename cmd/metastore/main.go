package main

import (
	"context"
	"os"

	"github.com/gear6io/metastore/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
