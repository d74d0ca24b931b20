package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	zkcommon "github.com/jqphu/zksync-era/common"
	"github.com/jqphu/zksync-era/config"
	"github.com/jqphu/zksync-era/dal"
	"github.com/jqphu/zksync-era/log"
	"github.com/jqphu/zksync-era/multivm"
	"github.com/jqphu/zksync-era/settlement"
	"github.com/jqphu/zksync-era/types"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrComponentDisabled is returned when calling into a component the node wasn't started with
	ErrComponentDisabled = errors.New("component not enabled")
	// ErrUnknownComponent is returned for component names New doesn't know
	ErrUnknownComponent = errors.New("unknown component")
)

// Node ties the storage to the components selected at start. The embedding program reaches
// block execution and block details through it.
type Node struct {
	logger   *log.Logger
	storage  *dal.Storage
	router   *multivm.Router
	tracker  *settlement.ConfirmationTracker
	operator common.Address
}

// New builds the components named in components. l1Client is only needed by the
// settlement component; adapters are the VM engines linked into the program.
func New(
	cfg *config.Config,
	storage *dal.Storage,
	l1Client settlement.L1Client,
	components []string,
	adapters ...multivm.Adapter,
) (*Node, error) {
	n := &Node{
		logger:   log.WithFields("module", "node"),
		storage:  storage,
		operator: cfg.Operator.Address,
	}
	for _, component := range components {
		switch component {
		case zkcommon.MULTIVM:
			router := multivm.NewRouter(log.WithFields("module", zkcommon.MULTIVM))
			missing, err := router.RegisterEnabled(cfg.Multivm, adapters...)
			if err != nil {
				return nil, err
			}
			for _, v := range missing {
				n.logger.Warnf("vm version %s is enabled but no engine is linked for it, its blocks can't be executed", v)
			}
			n.router = router
		case zkcommon.SETTLEMENT:
			if l1Client == nil {
				return nil, fmt.Errorf("%s needs an L1 client", zkcommon.SETTLEMENT)
			}
			n.tracker = settlement.New(log.WithFields("module", zkcommon.SETTLEMENT), cfg.Settlement, l1Client, storage)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, component)
		}
	}
	return n, nil
}

// Storage returns the node storage
func (n *Node) Storage() *dal.Storage {
	return n.storage
}

// Router returns nil when the multivm component is not enabled
func (n *Node) Router() *multivm.Router {
	return n.router
}

// Operator is the address reported for blocks of the open batch and used for blocks
// executed without an explicit operator
func (n *Node) Operator() common.Address {
	return n.operator
}

// Execute runs txs with the VM of the block's protocol version. A block context without
// an operator address runs with the node operator.
func (n *Node) Execute(
	ctx context.Context, job multivm.BootloaderJobType, mode multivm.BlockContextMode, txs []multivm.Transaction,
) (*multivm.ExecutionOutput, error) {
	if n.router == nil {
		return nil, fmt.Errorf("%w: %s", ErrComponentDisabled, zkcommon.MULTIVM)
	}
	if mode.Context.OperatorAddress == (common.Address{}) {
		mode.Context.OperatorAddress = n.operator
	}
	return n.router.Execute(ctx, job, mode, txs)
}

// GetBlockDetails returns the details of a miniblock, with the node operator for miniblocks
// of the open batch
func (n *Node) GetBlockDetails(ctx context.Context, number types.MiniblockNumber) (*types.BlockDetails, error) {
	return n.storage.GetBlockDetails(ctx, number, n.operator, nil)
}

// Run runs the background components until ctx is done
func (n *Node) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if n.tracker != nil {
		g.Go(func() error {
			n.tracker.Start(ctx)
			return nil
		})
	}
	<-ctx.Done()
	n.logger.Info("terminating node gracefully...")
	return g.Wait()
}
