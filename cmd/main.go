package main

import (
	"os"

	"github.com/jqphu/zksync-era/common"
	"github.com/jqphu/zksync-era/config"
	"github.com/jqphu/zksync-era/log"
	"github.com/jqphu/zksync-era/version"
	"github.com/urfave/cli/v2"
)

const appName = "zksync-node"

const (
	// flagComponents selects the components started by run
	flagComponents = "components"
	// flagSchema prints the JSON schema of the configuration instead of the defaults
	flagSchema = "schema"
)

var (
	configFileFlag = cli.StringSliceFlag{
		Name:     config.FlagCfg,
		Aliases:  []string{"c"},
		Usage:    "Configuration file(s)",
		Required: true,
	}
	componentsFlag = cli.StringSliceFlag{
		Name:     flagComponents,
		Aliases:  []string{"co"},
		Usage:    "List of components to run",
		Required: false,
		Value:    cli.NewStringSlice(common.MULTIVM, common.SETTLEMENT),
	}
	saveConfigFlag = cli.StringFlag{
		Name:     config.FlagSaveConfigPath,
		Aliases:  []string{"s"},
		Usage:    "Save final configuration into to the indicated path (name: zksync_config.toml)",
		Required: false,
	}
	minConfigFlag = cli.BoolFlag{
		Name:     config.FlagMinConfig,
		Aliases:  []string{"m"},
		Usage:    "Only print the vars that have no default value",
		Required: false,
	}
	schemaFlag = cli.BoolFlag{
		Name:     flagSchema,
		Usage:    "Print the JSON schema of the configuration file",
		Required: false,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Version = version.Version
	app.Commands = []*cli.Command{
		{
			Name:    "version",
			Aliases: []string{},
			Usage:   "Application version and build",
			Action:  versionCmd,
		},
		{
			Name:    "config",
			Aliases: []string{},
			Usage:   "Print the default configuration",
			Action:  configCmd,
			Flags:   []cli.Flag{&minConfigFlag, &schemaFlag},
		},
		{
			Name:    "run",
			Aliases: []string{},
			Usage:   "Run the node",
			Action:  start,
			Flags:   []cli.Flag{&configFileFlag, &componentsFlag, &saveConfigFlag},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
		os.Exit(1)
	}
}
