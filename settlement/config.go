package settlement

import (
	"github.com/jqphu/zksync-era/config/types"
)

// Config is the configuration of the confirmation tracker
type Config struct {
	// L1URL is the RPC endpoint of the L1 node execute txs are looked up on
	L1URL string `mapstructure:"L1URL"`
	// CheckInterval is how often unconfirmed execute txs are checked
	CheckInterval types.Duration `mapstructure:"CheckInterval"`
	// ConfirmationsRequired is the number of L1 blocks, the inclusion block included, a receipt
	// must be buried under before the tx counts as confirmed
	ConfirmationsRequired uint64 `mapstructure:"ConfirmationsRequired"`
}
