package dal

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// StorageL1Batch is a row of l1_batches. The commitment fields are nullable: they are filled
// by the sealing pipeline after the header is stored.
type StorageL1Batch struct {
	Number                       int64          `meddler:"number"`
	Timestamp                    int64          `meddler:"timestamp"`
	IsFinished                   bool           `meddler:"is_finished"`
	FeeAccountAddress            common.Address `meddler:"fee_account_address,address"`
	L1TxCount                    int64          `meddler:"l1_tx_count"`
	L2TxCount                    int64          `meddler:"l2_tx_count"`
	Bloom                        ethtypes.Bloom `meddler:"bloom,bloom"`
	PriorityOpsOnchainData       [][]byte       `meddler:"priority_ops_onchain_data,bytesarray"`
	L2ToL1Logs                   [][]byte       `meddler:"l2_to_l1_logs,bytesarray"`
	L2ToL1Messages               [][]byte       `meddler:"l2_to_l1_messages,bytesarray"`
	InitialBootloaderHeapContent string         `meddler:"initial_bootloader_heap_content"`
	UsedContractHashes           string         `meddler:"used_contract_hashes"`
	BaseFeePerGas                *big.Int       `meddler:"base_fee_per_gas,bigint"`
	L1GasPrice                   int64          `meddler:"l1_gas_price"`
	L2FairGasPrice               int64          `meddler:"l2_fair_gas_price"`

	ParentHash               []byte `meddler:"parent_hash,nullbytes"`
	Hash                     []byte `meddler:"hash,nullbytes"`
	RollupLastLeafIndex      *int64 `meddler:"rollup_last_leaf_index"`
	MerkleRootHash           []byte `meddler:"merkle_root_hash,nullbytes"`
	CompressedInitialWrites  []byte `meddler:"compressed_initial_writes,nullbytes"`
	CompressedRepeatedWrites []byte `meddler:"compressed_repeated_writes,nullbytes"`
	L2L1CompressedMessages   []byte `meddler:"l2_l1_compressed_messages,nullbytes"`
	L2L1MerkleRoot           []byte `meddler:"l2_l1_merkle_root,nullbytes"`
	AuxDataHash              []byte `meddler:"aux_data_hash,nullbytes"`
	MetaParametersHash       []byte `meddler:"meta_parameters_hash,nullbytes"`
	PassThroughDataHash      []byte `meddler:"pass_through_data_hash,nullbytes"`
	Commitment               []byte `meddler:"commitment,nullbytes"`
	ZkPorterIsAvailable      *bool  `meddler:"zkporter_is_available"`
	BootloaderCodeHash       []byte `meddler:"bootloader_code_hash,nullbytes"`
	DefaultAACodeHash        []byte `meddler:"default_aa_code_hash,nullbytes"`

	EthCommitTxID  *int64 `meddler:"eth_commit_tx_id"`
	EthProveTxID   *int64 `meddler:"eth_prove_tx_id"`
	EthExecuteTxID *int64 `meddler:"eth_execute_tx_id"`
}

// StorageMiniblockHeader is a row of miniblocks
type StorageMiniblockHeader struct {
	Number             int64       `meddler:"number"`
	L1BatchNumber      *int64      `meddler:"l1_batch_number"`
	Timestamp          int64       `meddler:"timestamp"`
	Hash               common.Hash `meddler:"hash,hash"`
	L1TxCount          int64       `meddler:"l1_tx_count"`
	L2TxCount          int64       `meddler:"l2_tx_count"`
	BaseFeePerGas      *big.Int    `meddler:"base_fee_per_gas,bigint"`
	L1GasPrice         int64       `meddler:"l1_gas_price"`
	L2FairGasPrice     int64       `meddler:"l2_fair_gas_price"`
	BootloaderCodeHash common.Hash `meddler:"bootloader_code_hash,hash"`
	DefaultAACodeHash  common.Hash `meddler:"default_aa_code_hash,hash"`
}

// StorageBlockDetails is the joined view of a miniblock, its batch and the batch L1 transactions
type StorageBlockDetails struct {
	Number             int64       `meddler:"number"`
	L1BatchNumber      int64       `meddler:"l1_batch_number"`
	Timestamp          int64       `meddler:"timestamp"`
	L1TxCount          int64       `meddler:"l1_tx_count"`
	L2TxCount          int64       `meddler:"l2_tx_count"`
	RootHash           *string     `meddler:"root_hash"`
	CommitTxHash       *string     `meddler:"commit_tx_hash"`
	CommittedAt        *time.Time  `meddler:"committed_at"`
	ProveTxHash        *string     `meddler:"prove_tx_hash"`
	ProvenAt           *time.Time  `meddler:"proven_at"`
	ExecuteTxHash      *string     `meddler:"execute_tx_hash"`
	ExecutedAt         *time.Time  `meddler:"executed_at"`
	L1GasPrice         int64       `meddler:"l1_gas_price"`
	L2FairGasPrice     int64       `meddler:"l2_fair_gas_price"`
	BootloaderCodeHash common.Hash `meddler:"bootloader_code_hash,hash"`
	DefaultAACodeHash  common.Hash `meddler:"default_aa_code_hash,hash"`
	// FeeAccountAddress is nil until the miniblock batch is sealed
	FeeAccountAddress *string `meddler:"fee_account_address"`
}

// StorageL1BatchDetails is the joined view of a batch and its L1 transactions
type StorageL1BatchDetails struct {
	Number             int64      `meddler:"number"`
	Timestamp          int64      `meddler:"timestamp"`
	L1TxCount          int64      `meddler:"l1_tx_count"`
	L2TxCount          int64      `meddler:"l2_tx_count"`
	RootHash           []byte     `meddler:"root_hash,nullbytes"`
	CommitTxHash       *string    `meddler:"commit_tx_hash"`
	CommittedAt        *time.Time `meddler:"committed_at"`
	ProveTxHash        *string    `meddler:"prove_tx_hash"`
	ProvenAt           *time.Time `meddler:"proven_at"`
	ExecuteTxHash      *string    `meddler:"execute_tx_hash"`
	ExecutedAt         *time.Time `meddler:"executed_at"`
	L1GasPrice         int64      `meddler:"l1_gas_price"`
	L2FairGasPrice     int64      `meddler:"l2_fair_gas_price"`
	BootloaderCodeHash []byte     `meddler:"bootloader_code_hash,nullbytes"`
	DefaultAACodeHash  []byte     `meddler:"default_aa_code_hash,nullbytes"`
}

type StorageBlockPageItem struct {
	Number    int64   `meddler:"number"`
	L1TxCount int64   `meddler:"l1_tx_count"`
	L2TxCount int64   `meddler:"l2_tx_count"`
	Hash      *string `meddler:"hash"`
	Timestamp int64   `meddler:"timestamp"`
}

// StorageL1BatchPageItem has the same shape as StorageBlockPageItem but the batch hash is
// stored as raw bytes
type StorageL1BatchPageItem struct {
	Number    int64  `meddler:"number"`
	L1TxCount int64  `meddler:"l1_tx_count"`
	L2TxCount int64  `meddler:"l2_tx_count"`
	Hash      []byte `meddler:"hash,nullbytes"`
	Timestamp int64  `meddler:"timestamp"`
}
