package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrUnsupportedBlockTag is returned for block tags that have no meaning on this chain
	ErrUnsupportedBlockTag = errors.New("unsupported block tag")
	// ErrBlockNumberOutOfRange is returned for exact numbers no miniblock can have
	ErrBlockNumberOutOfRange = errors.New("block number out of range")
)

// BlockNumberKind is the tag of a block reference
type BlockNumberKind uint8

const (
	// BlockNumberExact is an explicit miniblock number
	BlockNumberExact BlockNumberKind = iota
	// BlockNumberEarliest is the genesis miniblock
	BlockNumberEarliest
	// BlockNumberLatest is the highest known miniblock
	BlockNumberLatest
	// BlockNumberCommitted is an alias of BlockNumberLatest
	BlockNumberCommitted
	// BlockNumberPending is one past the highest known miniblock
	BlockNumberPending
	// BlockNumberFinalized is the highest miniblock whose batch execution is confirmed on L1
	BlockNumberFinalized
)

var blockNumberKindNames = map[BlockNumberKind]string{
	BlockNumberEarliest:  "earliest",
	BlockNumberLatest:    "latest",
	BlockNumberCommitted: "committed",
	BlockNumberPending:   "pending",
	BlockNumberFinalized: "finalized",
}

// BlockNumber is a reference to a miniblock, either exact or symbolic
type BlockNumber struct {
	Kind   BlockNumberKind
	Number uint64
}

var (
	// EarliestBlock references the genesis miniblock
	EarliestBlock = BlockNumber{Kind: BlockNumberEarliest}
	// LatestBlock references the highest known miniblock
	LatestBlock = BlockNumber{Kind: BlockNumberLatest}
	// CommittedBlock references the highest known miniblock
	CommittedBlock = BlockNumber{Kind: BlockNumberCommitted}
	// PendingBlock references the miniblock after the highest known one
	PendingBlock = BlockNumber{Kind: BlockNumberPending}
	// FinalizedBlock references the highest finalized miniblock
	FinalizedBlock = BlockNumber{Kind: BlockNumberFinalized}
)

// ExactBlock references the miniblock with the given number
func ExactBlock(number uint64) BlockNumber {
	return BlockNumber{Kind: BlockNumberExact, Number: number}
}

// IsExact reports whether the reference is a fixed number
func (b BlockNumber) IsExact() bool {
	return b.Kind == BlockNumberExact
}

// Validate fails for exact numbers that don't fit a MiniblockNumber
func (b BlockNumber) Validate() error {
	if b.Kind == BlockNumberExact && b.Number > math.MaxUint32 {
		return fmt.Errorf("%w: %d", ErrBlockNumberOutOfRange, b.Number)
	}
	return nil
}

func (b BlockNumber) String() string {
	if b.Kind == BlockNumberExact {
		return fmt.Sprintf("%d", b.Number)
	}
	return blockNumberKindNames[b.Kind]
}

// UnmarshalJSON accepts the standard tags, "committed" and hex numbers
func (b *BlockNumber) UnmarshalJSON(data []byte) error {
	input := strings.TrimSpace(string(data))
	if len(input) >= 2 && input[0] == '"' && input[len(input)-1] == '"' {
		input = input[1 : len(input)-1]
	}
	if input == "committed" {
		*b = CommittedBlock
		return nil
	}
	var bn rpc.BlockNumber
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	if err := bn.UnmarshalJSON(raw); err != nil {
		return err
	}
	parsed, err := BlockNumberFromRPC(bn)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalJSON encodes tags as strings and numbers as hex quantities
func (b BlockNumber) MarshalJSON() ([]byte, error) {
	if b.Kind == BlockNumberExact {
		return json.Marshal(fmt.Sprintf("0x%x", b.Number))
	}
	return json.Marshal(blockNumberKindNames[b.Kind])
}

// BlockNumberFromRPC converts the go-ethereum block tag representation
func BlockNumberFromRPC(bn rpc.BlockNumber) (BlockNumber, error) {
	switch bn {
	case rpc.EarliestBlockNumber:
		return EarliestBlock, nil
	case rpc.LatestBlockNumber:
		return LatestBlock, nil
	case rpc.PendingBlockNumber:
		return PendingBlock, nil
	case rpc.FinalizedBlockNumber:
		return FinalizedBlock, nil
	case rpc.SafeBlockNumber:
		return BlockNumber{}, fmt.Errorf("%w: %s", ErrUnsupportedBlockTag, bn.String())
	}
	if bn < 0 {
		return BlockNumber{}, fmt.Errorf("%w: %d", ErrUnsupportedBlockTag, bn.Int64())
	}
	number := ExactBlock(uint64(bn.Int64()))
	if err := number.Validate(); err != nil {
		return BlockNumber{}, err
	}
	return number, nil
}

// BlockID identifies a miniblock by hash or by number reference
type BlockID struct {
	Hash   *common.Hash
	Number BlockNumber
}

// BlockIDFromHash returns a hash based block identifier
func BlockIDFromHash(hash common.Hash) BlockID {
	return BlockID{Hash: &hash}
}

// BlockIDFromNumber returns a number based block identifier
func BlockIDFromNumber(number BlockNumber) BlockID {
	return BlockID{Number: number}
}

// BlockIDFromRPC converts the go-ethereum block-number-or-hash representation
func BlockIDFromRPC(id rpc.BlockNumberOrHash) (BlockID, error) {
	if hash, ok := id.Hash(); ok {
		return BlockIDFromHash(hash), nil
	}
	bn, ok := id.Number()
	if !ok {
		return BlockID{}, fmt.Errorf("%w: empty block id", ErrUnsupportedBlockTag)
	}
	number, err := BlockNumberFromRPC(bn)
	if err != nil {
		return BlockID{}, err
	}
	return BlockIDFromNumber(number), nil
}

// Validate checks the number reference of a number based identifier
func (id BlockID) Validate() error {
	if id.Hash != nil {
		return nil
	}
	return id.Number.Validate()
}

func (id BlockID) String() string {
	if id.Hash != nil {
		return id.Hash.Hex()
	}
	return id.Number.String()
}

// BlockStatus is the status of a block or batch as exposed to API consumers
type BlockStatus string

const (
	// BlockStatusSealed means the block is sealed but not yet executed on L1
	BlockStatusSealed BlockStatus = "sealed"
	// BlockStatusVerified means the block execution is on L1
	BlockStatusVerified BlockStatus = "verified"
)

// BlockDetails is the detail view of a miniblock
type BlockDetails struct {
	Number                    MiniblockNumber
	L1BatchNumber             L1BatchNumber
	Timestamp                 uint64
	L1TxCount                 int
	L2TxCount                 int
	RootHash                  *common.Hash
	Status                    BlockStatus
	CommitTxHash              *common.Hash
	CommittedAt               *time.Time
	ProveTxHash               *common.Hash
	ProvenAt                  *time.Time
	ExecuteTxHash             *common.Hash
	ExecutedAt                *time.Time
	L1GasPrice                uint64
	L2FairGasPrice            uint64
	BaseSystemContractsHashes BaseSystemContractsHashes
	OperatorAddress           common.Address
}

// L1BatchDetails is the detail view of an L1 batch
type L1BatchDetails struct {
	Number                    L1BatchNumber
	Timestamp                 uint64
	L1TxCount                 int
	L2TxCount                 int
	RootHash                  *common.Hash
	Status                    BlockStatus
	CommitTxHash              *common.Hash
	CommittedAt               *time.Time
	ProveTxHash               *common.Hash
	ProvenAt                  *time.Time
	ExecuteTxHash             *common.Hash
	ExecutedAt                *time.Time
	L1GasPrice                uint64
	L2FairGasPrice            uint64
	BaseSystemContractsHashes BaseSystemContractsHashes
}

// BlockPageItem is a miniblock entry of a paginated listing
type BlockPageItem struct {
	Number    MiniblockNumber
	L1TxCount int
	L2TxCount int
	Hash      *common.Hash
	Status    BlockStatus
	Timestamp uint64
}

// L1BatchPageItem is a batch entry of a paginated listing
type L1BatchPageItem struct {
	Number    L1BatchNumber
	L1TxCount int
	L2TxCount int
	RootHash  *common.Hash
	Status    BlockStatus
	Timestamp uint64
}
