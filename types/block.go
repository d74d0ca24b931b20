package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/iden3/go-iden3-crypto/keccak256"

	zkcommon "github.com/jqphu/zksync-era/common"
)

// MiniblockNumber is the sequence number of a miniblock
type MiniblockNumber uint32

// L1BatchNumber is the sequence number of an L1 batch
type L1BatchNumber uint32

// Next returns the number following n
func (n MiniblockNumber) Next() MiniblockNumber {
	return n + 1
}

// Next returns the number following n
func (n L1BatchNumber) Next() L1BatchNumber {
	return n + 1
}

func (n MiniblockNumber) String() string {
	return fmt.Sprintf("#%d", uint32(n))
}

func (n L1BatchNumber) String() string {
	return fmt.Sprintf("#%d", uint32(n))
}

// BaseSystemContractsHashes identifies the bootloader and default account code in force
type BaseSystemContractsHashes struct {
	Bootloader common.Hash
	DefaultAA  common.Hash
}

// BootloaderHeapEntry is one (offset, value) pair of the initial bootloader memory
type BootloaderHeapEntry struct {
	Offset uint64
	Value  uint256.Int
}

// MiniblockHeader is the header of a sealed miniblock
type MiniblockHeader struct {
	Number                    MiniblockNumber
	Timestamp                 uint64
	Hash                      common.Hash
	L1TxCount                 uint16
	L2TxCount                 uint16
	BaseFeePerGas             uint64
	L1GasPrice                uint64
	L2FairGasPrice            uint64
	BaseSystemContractsHashes BaseSystemContractsHashes
}

// L1BatchHeader holds the data of an L1 batch. It is filled while the batch is open and
// stays unchanged once IsFinished is set.
type L1BatchHeader struct {
	Number                    L1BatchNumber
	IsFinished                bool
	Timestamp                 uint64
	FeeAccountAddress         common.Address
	PriorityOpsOnchainData    []PriorityOpOnchainData
	L1TxCount                 uint16
	L2TxCount                 uint16
	L2ToL1Logs                []L2ToL1Log
	L2ToL1Messages            [][]byte
	Bloom                     types.Bloom
	InitialBootloaderContents []BootloaderHeapEntry
	UsedContractHashes        []uint256.Int
	BaseFeePerGas             uint64
	L1GasPrice                uint64
	L2FairGasPrice            uint64
	BaseSystemContractsHashes BaseSystemContractsHashes
}

// NewL1BatchHeader returns the header of a freshly opened batch
func NewL1BatchHeader(
	number L1BatchNumber,
	timestamp uint64,
	feeAccountAddress common.Address,
	baseSystemContractsHashes BaseSystemContractsHashes,
) L1BatchHeader {
	return L1BatchHeader{
		Number:                    number,
		Timestamp:                 timestamp,
		FeeAccountAddress:         feeAccountAddress,
		PriorityOpsOnchainData:    []PriorityOpOnchainData{},
		L2ToL1Logs:                []L2ToL1Log{},
		L2ToL1Messages:            [][]byte{},
		InitialBootloaderContents: []BootloaderHeapEntry{},
		UsedContractHashes:        []uint256.Int{},
		BaseSystemContractsHashes: baseSystemContractsHashes,
	}
}

// TxCount returns the number of transactions of the batch
func (h L1BatchHeader) TxCount() int {
	return int(h.L1TxCount) + int(h.L2TxCount)
}

// WithFinished returns a copy of the header marked as sealed
func (h L1BatchHeader) WithFinished() L1BatchHeader {
	h.IsFinished = true
	return h
}

// MiniblockHash returns the legacy miniblock hash, keccak256 of the big-endian number
func MiniblockHash(number MiniblockNumber) common.Hash {
	return common.BytesToHash(keccak256.Hash(zkcommon.Uint32ToBytes(uint32(number))))
}

// ResolvedL1BatchForMiniblock tells which L1 batch a miniblock belongs to
type ResolvedL1BatchForMiniblock struct {
	// MiniblockL1Batch is the batch the miniblock is explicitly attached to, nil while its batch is open
	MiniblockL1Batch *L1BatchNumber
	// PendingL1Batch is the batch currently open
	PendingL1Batch L1BatchNumber
}

// ExpectedL1Batch returns the batch the miniblock has now or will have once its batch is sealed
func (r ResolvedL1BatchForMiniblock) ExpectedL1Batch() L1BatchNumber {
	if r.MiniblockL1Batch != nil {
		return *r.MiniblockL1Batch
	}
	return r.PendingL1Batch
}
