package main

import (
	"os"

	"github.com/jqphu/zksync-era/version"
	"github.com/urfave/cli/v2"
)

func versionCmd(*cli.Context) error {
	version.PrintVersion(os.Stdout)
	return nil
}
