package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/jqphu/zksync-era/common"
	"github.com/jqphu/zksync-era/config"
	"github.com/jqphu/zksync-era/dal"
	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/log"
	"github.com/jqphu/zksync-era/multivm"
	"github.com/jqphu/zksync-era/node"
	"github.com/jqphu/zksync-era/settlement"
	"github.com/jqphu/zksync-era/version"
	"github.com/urfave/cli/v2"
)

// vmAdapters are the VM engines linked into the binary. Engines live outside this module;
// a build linking them appends their adapters here from an init function. Programs
// embedding the node as a library call node.New directly.
var vmAdapters []multivm.Adapter

func start(cliCtx *cli.Context) error {
	c, err := config.Load(cliCtx)
	if err != nil {
		return err
	}

	log.Init(c.Log)

	if c.Log.Environment == log.EnvironmentDevelopment {
		version.PrintVersion(os.Stdout)
		log.Info("Starting application")
	} else if c.Log.Environment == log.EnvironmentProduction {
		logVersion()
	}

	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(c.DB)
	if err != nil {
		return fmt.Errorf("error opening %s database: %w", c.DB.Driver, err)
	}
	defer database.Close()
	storage, err := dal.NewStorage(log.WithFields("module", "dal"), database, c.DB.Driver)
	if err != nil {
		return err
	}

	components := cliCtx.StringSlice(flagComponents)
	var l1Client settlement.L1Client
	if isEnabled(components, common.SETTLEMENT) {
		log.Debugf("dialing L1 client at: %s", c.Settlement.L1URL)
		client, err := ethclient.Dial(c.Settlement.L1URL)
		if err != nil {
			return fmt.Errorf("failed to create client for L1 using URL %s: %w", c.Settlement.L1URL, err)
		}
		defer client.Close()
		l1Client = client
	}

	n, err := node.New(c, storage, l1Client, components, vmAdapters...)
	if err != nil {
		return err
	}
	return n.Run(ctx)
}

func isEnabled(components []string, component string) bool {
	for _, c := range components {
		if c == component {
			return true
		}
	}
	return false
}

func logVersion() {
	log.Infow("Starting application",
		// version is already logged by default
		"gitRevision", version.GitRev,
		"gitBranch", version.GitBranch,
		"goVersion", runtime.Version(),
		"built", version.BuildDate,
		"os/arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	)
}

