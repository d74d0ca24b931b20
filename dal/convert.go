package dal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/jqphu/zksync-era/types"
)

// ErrIncomplete is returned when the commitment metadata of a batch is read before the
// sealing pipeline filled every field
var ErrIncomplete = errors.New("incomplete L1 batch")

// AssembleL1BatchMetadata converts a stored batch into its commitment metadata. Fields are
// checked in declaration order and the first missing one fails the whole assembly.
func AssembleL1BatchMetadata(b *StorageL1Batch) (types.L1BatchMetadata, error) {
	var (
		res types.L1BatchMetadata
		err error
	)
	if res.RootHash, err = requireHash("hash", b.Hash); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if b.RollupLastLeafIndex == nil {
		return types.L1BatchMetadata{}, incomplete("rollup_last_leaf_index")
	}
	if res.RollupLastLeafIndex, err = types.ToUint64("rollup_last_leaf_index", *b.RollupLastLeafIndex); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if res.MerkleRootHash, err = requireHash("merkle_root_hash", b.MerkleRootHash); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if res.InitialWritesCompressed, err = requireBytes("compressed_initial_writes", b.CompressedInitialWrites); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if res.RepeatedWritesCompressed, err = requireBytes("compressed_repeated_writes", b.CompressedRepeatedWrites); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if res.L2L1MessagesCompressed, err = requireBytes("l2_l1_compressed_messages", b.L2L1CompressedMessages); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if res.L2L1MerkleRoot, err = requireHash("l2_l1_merkle_root", b.L2L1MerkleRoot); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if res.AuxDataHash, err = requireHash("aux_data_hash", b.AuxDataHash); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if res.MetaParametersHash, err = requireHash("meta_parameters_hash", b.MetaParametersHash); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if res.PassThroughDataHash, err = requireHash("pass_through_data_hash", b.PassThroughDataHash); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if res.Commitment, err = requireHash("commitment", b.Commitment); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if b.ZkPorterIsAvailable == nil {
		return types.L1BatchMetadata{}, incomplete("zkporter_is_available")
	}
	res.BlockMetaParams.ZkPorterIsAvailable = *b.ZkPorterIsAvailable
	if res.BlockMetaParams.BootloaderCodeHash, err = requireHash("bootloader_code_hash", b.BootloaderCodeHash); err != nil {
		return types.L1BatchMetadata{}, err
	}
	if res.BlockMetaParams.DefaultAACodeHash, err = requireHash("default_aa_code_hash", b.DefaultAACodeHash); err != nil {
		return types.L1BatchMetadata{}, err
	}
	return res, nil
}

func incomplete(field string) error {
	return fmt.Errorf("%w: %s is not set", ErrIncomplete, field)
}

func requireBytes(field string, v []byte) ([]byte, error) {
	if v == nil {
		return nil, incomplete(field)
	}
	return common.CopyBytes(v), nil
}

func requireHash(field string, v []byte) (common.Hash, error) {
	if v == nil {
		return common.Hash{}, incomplete(field)
	}
	return bytesToHash(field, v)
}

func bytesToHash(field string, v []byte) (common.Hash, error) {
	if len(v) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %s has %d bytes, expected %d",
			types.ErrMalformedRecord, field, len(v), common.HashLength)
	}
	return common.BytesToHash(v), nil
}

// AssembleL1BatchHeader decodes the header part of a stored batch. Header columns are never
// null, so the only failure is a value that can't be decoded.
func AssembleL1BatchHeader(b *StorageL1Batch) (types.L1BatchHeader, error) {
	number, err := types.L1BatchNumberFromInt64(b.Number)
	if err != nil {
		return types.L1BatchHeader{}, err
	}
	timestamp, err := types.ToUint64("timestamp", b.Timestamp)
	if err != nil {
		return types.L1BatchHeader{}, err
	}
	l1TxCount, err := types.ToUint16("l1_tx_count", b.L1TxCount)
	if err != nil {
		return types.L1BatchHeader{}, err
	}
	l2TxCount, err := types.ToUint16("l2_tx_count", b.L2TxCount)
	if err != nil {
		return types.L1BatchHeader{}, err
	}
	baseFee, err := types.BigToUint64("base_fee_per_gas", b.BaseFeePerGas)
	if err != nil {
		return types.L1BatchHeader{}, err
	}
	l1GasPrice, err := types.ToUint64("l1_gas_price", b.L1GasPrice)
	if err != nil {
		return types.L1BatchHeader{}, err
	}
	l2FairGasPrice, err := types.ToUint64("l2_fair_gas_price", b.L2FairGasPrice)
	if err != nil {
		return types.L1BatchHeader{}, err
	}

	priorityOps := make([]types.PriorityOpOnchainData, 0, len(b.PriorityOpsOnchainData))
	for i, raw := range b.PriorityOpsOnchainData {
		op, err := types.PriorityOpOnchainDataFromBytes(raw)
		if err != nil {
			return types.L1BatchHeader{}, fmt.Errorf("priority op %d of batch %d: %w", i, b.Number, err)
		}
		priorityOps = append(priorityOps, op)
	}
	logs := make([]types.L2ToL1Log, 0, len(b.L2ToL1Logs))
	for i, raw := range b.L2ToL1Logs {
		l, err := types.L2ToL1LogFromBytes(raw)
		if err != nil {
			return types.L1BatchHeader{}, fmt.Errorf("l2 to l1 log %d of batch %d: %w", i, b.Number, err)
		}
		logs = append(logs, l)
	}
	messages := make([][]byte, len(b.L2ToL1Messages))
	copy(messages, b.L2ToL1Messages)

	heap, err := decodeBootloaderHeap(b.InitialBootloaderHeapContent)
	if err != nil {
		return types.L1BatchHeader{}, err
	}
	usedContractHashes, err := decodeUint256List("used_contract_hashes", b.UsedContractHashes)
	if err != nil {
		return types.L1BatchHeader{}, err
	}

	if b.BootloaderCodeHash == nil || b.DefaultAACodeHash == nil {
		return types.L1BatchHeader{}, fmt.Errorf("%w: batch %d has no base system contracts hashes",
			types.ErrMalformedRecord, b.Number)
	}
	bootloader, err := bytesToHash("bootloader_code_hash", b.BootloaderCodeHash)
	if err != nil {
		return types.L1BatchHeader{}, err
	}
	defaultAA, err := bytesToHash("default_aa_code_hash", b.DefaultAACodeHash)
	if err != nil {
		return types.L1BatchHeader{}, err
	}

	return types.L1BatchHeader{
		Number:                    number,
		IsFinished:                b.IsFinished,
		Timestamp:                 timestamp,
		FeeAccountAddress:         b.FeeAccountAddress,
		PriorityOpsOnchainData:    priorityOps,
		L1TxCount:                 l1TxCount,
		L2TxCount:                 l2TxCount,
		L2ToL1Logs:                logs,
		L2ToL1Messages:            messages,
		Bloom:                     b.Bloom,
		InitialBootloaderContents: heap,
		UsedContractHashes:        usedContractHashes,
		BaseFeePerGas:             baseFee,
		L1GasPrice:                l1GasPrice,
		L2FairGasPrice:            l2FairGasPrice,
		BaseSystemContractsHashes: types.BaseSystemContractsHashes{
			Bootloader: bootloader,
			DefaultAA:  defaultAA,
		},
	}, nil
}

// newStorageL1Batch maps a header to its row, leaving every commitment field null except the
// base system contracts hashes, which are known when the batch is opened
func newStorageL1Batch(h types.L1BatchHeader) (*StorageL1Batch, error) {
	heap, err := encodeBootloaderHeap(h.InitialBootloaderContents)
	if err != nil {
		return nil, err
	}
	usedContractHashes, err := encodeUint256List(h.UsedContractHashes)
	if err != nil {
		return nil, err
	}
	priorityOps := make([][]byte, len(h.PriorityOpsOnchainData))
	for i, op := range h.PriorityOpsOnchainData {
		priorityOps[i] = op.Bytes()
	}
	logs := make([][]byte, len(h.L2ToL1Logs))
	for i, l := range h.L2ToL1Logs {
		logs[i] = l.Bytes()
	}
	messages := h.L2ToL1Messages
	if messages == nil {
		messages = [][]byte{}
	}
	return &StorageL1Batch{
		Number:                       int64(h.Number),
		Timestamp:                    int64(h.Timestamp),
		IsFinished:                   h.IsFinished,
		FeeAccountAddress:            h.FeeAccountAddress,
		L1TxCount:                    int64(h.L1TxCount),
		L2TxCount:                    int64(h.L2TxCount),
		Bloom:                        h.Bloom,
		PriorityOpsOnchainData:       priorityOps,
		L2ToL1Logs:                   logs,
		L2ToL1Messages:               messages,
		InitialBootloaderHeapContent: heap,
		UsedContractHashes:           usedContractHashes,
		BaseFeePerGas:                new(big.Int).SetUint64(h.BaseFeePerGas),
		L1GasPrice:                   int64(h.L1GasPrice),
		L2FairGasPrice:               int64(h.L2FairGasPrice),
		BootloaderCodeHash:           h.BaseSystemContractsHashes.Bootloader.Bytes(),
		DefaultAACodeHash:            h.BaseSystemContractsHashes.DefaultAA.Bytes(),
	}, nil
}

// the heap is stored as [[offset, "0x..."], ...]
func encodeBootloaderHeap(entries []types.BootloaderHeapEntry) (string, error) {
	raw := make([][2]interface{}, len(entries))
	for i, e := range entries {
		raw[i] = [2]interface{}{e.Offset, e.Value.Hex()}
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeBootloaderHeap(data string) ([]types.BootloaderHeapEntry, error) {
	var raw [][2]json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: initial_bootloader_heap_content: %w", types.ErrMalformedRecord, err)
	}
	res := make([]types.BootloaderHeapEntry, len(raw))
	for i, pair := range raw {
		if err := json.Unmarshal(pair[0], &res[i].Offset); err != nil {
			return nil, fmt.Errorf("%w: initial_bootloader_heap_content offset %d: %w", types.ErrMalformedRecord, i, err)
		}
		var value string
		if err := json.Unmarshal(pair[1], &value); err != nil {
			return nil, fmt.Errorf("%w: initial_bootloader_heap_content value %d: %w", types.ErrMalformedRecord, i, err)
		}
		v, err := uint256.FromHex(value)
		if err != nil {
			return nil, fmt.Errorf("%w: initial_bootloader_heap_content value %d: %w", types.ErrMalformedRecord, i, err)
		}
		res[i].Value = *v
	}
	return res, nil
}

func encodeUint256List(values []uint256.Int) (string, error) {
	raw := make([]string, len(values))
	for i := range values {
		raw[i] = values[i].Hex()
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeUint256List(field, data string) ([]uint256.Int, error) {
	var raw []string
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrMalformedRecord, field, err)
	}
	res := make([]uint256.Int, len(raw))
	for i, s := range raw {
		v, err := uint256.FromHex(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s item %d: %w", types.ErrMalformedRecord, field, i, err)
		}
		res[i] = *v
	}
	return res, nil
}

func newStorageMiniblockHeader(h types.MiniblockHeader) *StorageMiniblockHeader {
	return &StorageMiniblockHeader{
		Number:             int64(h.Number),
		Timestamp:          int64(h.Timestamp),
		Hash:               h.Hash,
		L1TxCount:          int64(h.L1TxCount),
		L2TxCount:          int64(h.L2TxCount),
		BaseFeePerGas:      new(big.Int).SetUint64(h.BaseFeePerGas),
		L1GasPrice:         int64(h.L1GasPrice),
		L2FairGasPrice:     int64(h.L2FairGasPrice),
		BootloaderCodeHash: h.BaseSystemContractsHashes.Bootloader,
		DefaultAACodeHash:  h.BaseSystemContractsHashes.DefaultAA,
	}
}

// ToMiniblockHeader decodes a stored miniblock
func (m *StorageMiniblockHeader) ToMiniblockHeader() (types.MiniblockHeader, error) {
	number, err := types.MiniblockNumberFromInt64(m.Number)
	if err != nil {
		return types.MiniblockHeader{}, err
	}
	timestamp, err := types.ToUint64("timestamp", m.Timestamp)
	if err != nil {
		return types.MiniblockHeader{}, err
	}
	l1TxCount, err := types.ToUint16("l1_tx_count", m.L1TxCount)
	if err != nil {
		return types.MiniblockHeader{}, err
	}
	l2TxCount, err := types.ToUint16("l2_tx_count", m.L2TxCount)
	if err != nil {
		return types.MiniblockHeader{}, err
	}
	baseFee, err := types.BigToUint64("base_fee_per_gas", m.BaseFeePerGas)
	if err != nil {
		return types.MiniblockHeader{}, err
	}
	l1GasPrice, err := types.ToUint64("l1_gas_price", m.L1GasPrice)
	if err != nil {
		return types.MiniblockHeader{}, err
	}
	l2FairGasPrice, err := types.ToUint64("l2_fair_gas_price", m.L2FairGasPrice)
	if err != nil {
		return types.MiniblockHeader{}, err
	}
	return types.MiniblockHeader{
		Number:         number,
		Timestamp:      timestamp,
		Hash:           m.Hash,
		L1TxCount:      l1TxCount,
		L2TxCount:      l2TxCount,
		BaseFeePerGas:  baseFee,
		L1GasPrice:     l1GasPrice,
		L2FairGasPrice: l2FairGasPrice,
		BaseSystemContractsHashes: types.BaseSystemContractsHashes{
			Bootloader: m.BootloaderCodeHash,
			DefaultAA:  m.DefaultAACodeHash,
		},
	}, nil
}

func detailsStatus(number int64, executeTxHash *string) types.BlockStatus {
	if number == 0 || executeTxHash != nil {
		return types.BlockStatusVerified
	}
	return types.BlockStatusSealed
}

func pageItemStatus(number int64, lastVerified int64) types.BlockStatus {
	if number > lastVerified {
		return types.BlockStatusSealed
	}
	return types.BlockStatusVerified
}

func hexToHashPtr(field string, v *string) (*common.Hash, error) {
	if v == nil {
		return nil, nil
	}
	b, err := hexutil.Decode(*v)
	if err != nil || len(b) != common.HashLength {
		return nil, fmt.Errorf("%w: incorrect %s %q", types.ErrMalformedRecord, field, *v)
	}
	h := common.BytesToHash(b)
	return &h, nil
}

func bytesToHashPtr(field string, v []byte) (*common.Hash, error) {
	if v == nil {
		return nil, nil
	}
	h, err := bytesToHash(field, v)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

type l1TxHashes struct {
	commit, prove, execute *common.Hash
}

func decodeL1TxHashes(commit, prove, execute *string) (l1TxHashes, error) {
	var (
		res l1TxHashes
		err error
	)
	if res.commit, err = hexToHashPtr("commit_tx_hash", commit); err != nil {
		return l1TxHashes{}, err
	}
	if res.prove, err = hexToHashPtr("prove_tx_hash", prove); err != nil {
		return l1TxHashes{}, err
	}
	if res.execute, err = hexToHashPtr("execute_tx_hash", execute); err != nil {
		return l1TxHashes{}, err
	}
	return res, nil
}

// ToBlockDetails converts the joined row. currentOperator is reported as the operator of
// miniblocks whose batch isn't sealed yet.
func (d *StorageBlockDetails) ToBlockDetails(currentOperator common.Address) (types.BlockDetails, error) {
	number, err := types.MiniblockNumberFromInt64(d.Number)
	if err != nil {
		return types.BlockDetails{}, err
	}
	batch, err := types.L1BatchNumberFromInt64(d.L1BatchNumber)
	if err != nil {
		return types.BlockDetails{}, err
	}
	timestamp, err := types.ToUint64("timestamp", d.Timestamp)
	if err != nil {
		return types.BlockDetails{}, err
	}
	rootHash, err := hexToHashPtr("root_hash", d.RootHash)
	if err != nil {
		return types.BlockDetails{}, err
	}
	txHashes, err := decodeL1TxHashes(d.CommitTxHash, d.ProveTxHash, d.ExecuteTxHash)
	if err != nil {
		return types.BlockDetails{}, err
	}
	l1GasPrice, err := types.ToUint64("l1_gas_price", d.L1GasPrice)
	if err != nil {
		return types.BlockDetails{}, err
	}
	l2FairGasPrice, err := types.ToUint64("l2_fair_gas_price", d.L2FairGasPrice)
	if err != nil {
		return types.BlockDetails{}, err
	}
	operator := currentOperator
	if d.FeeAccountAddress != nil {
		operator = common.HexToAddress(*d.FeeAccountAddress)
	}
	return types.BlockDetails{
		Number:         number,
		L1BatchNumber:  batch,
		Timestamp:      timestamp,
		L1TxCount:      int(d.L1TxCount),
		L2TxCount:      int(d.L2TxCount),
		RootHash:       rootHash,
		Status:         detailsStatus(d.Number, d.ExecuteTxHash),
		CommitTxHash:   txHashes.commit,
		CommittedAt:    utcPtr(d.CommittedAt),
		ProveTxHash:    txHashes.prove,
		ProvenAt:       utcPtr(d.ProvenAt),
		ExecuteTxHash:  txHashes.execute,
		ExecutedAt:     utcPtr(d.ExecutedAt),
		L1GasPrice:     l1GasPrice,
		L2FairGasPrice: l2FairGasPrice,
		BaseSystemContractsHashes: types.BaseSystemContractsHashes{
			Bootloader: d.BootloaderCodeHash,
			DefaultAA:  d.DefaultAACodeHash,
		},
		OperatorAddress: operator,
	}, nil
}

// ToL1BatchDetails converts the joined row
func (d *StorageL1BatchDetails) ToL1BatchDetails() (types.L1BatchDetails, error) {
	number, err := types.L1BatchNumberFromInt64(d.Number)
	if err != nil {
		return types.L1BatchDetails{}, err
	}
	timestamp, err := types.ToUint64("timestamp", d.Timestamp)
	if err != nil {
		return types.L1BatchDetails{}, err
	}
	rootHash, err := bytesToHashPtr("root_hash", d.RootHash)
	if err != nil {
		return types.L1BatchDetails{}, err
	}
	txHashes, err := decodeL1TxHashes(d.CommitTxHash, d.ProveTxHash, d.ExecuteTxHash)
	if err != nil {
		return types.L1BatchDetails{}, err
	}
	l1GasPrice, err := types.ToUint64("l1_gas_price", d.L1GasPrice)
	if err != nil {
		return types.L1BatchDetails{}, err
	}
	l2FairGasPrice, err := types.ToUint64("l2_fair_gas_price", d.L2FairGasPrice)
	if err != nil {
		return types.L1BatchDetails{}, err
	}
	if d.BootloaderCodeHash == nil || d.DefaultAACodeHash == nil {
		return types.L1BatchDetails{}, fmt.Errorf("%w: batch %d has no base system contracts hashes",
			types.ErrMalformedRecord, d.Number)
	}
	bootloader, err := bytesToHash("bootloader_code_hash", d.BootloaderCodeHash)
	if err != nil {
		return types.L1BatchDetails{}, err
	}
	defaultAA, err := bytesToHash("default_aa_code_hash", d.DefaultAACodeHash)
	if err != nil {
		return types.L1BatchDetails{}, err
	}
	return types.L1BatchDetails{
		Number:         number,
		Timestamp:      timestamp,
		L1TxCount:      int(d.L1TxCount),
		L2TxCount:      int(d.L2TxCount),
		RootHash:       rootHash,
		Status:         detailsStatus(d.Number, d.ExecuteTxHash),
		CommitTxHash:   txHashes.commit,
		CommittedAt:    utcPtr(d.CommittedAt),
		ProveTxHash:    txHashes.prove,
		ProvenAt:       utcPtr(d.ProvenAt),
		ExecuteTxHash:  txHashes.execute,
		ExecutedAt:     utcPtr(d.ExecutedAt),
		L1GasPrice:     l1GasPrice,
		L2FairGasPrice: l2FairGasPrice,
		BaseSystemContractsHashes: types.BaseSystemContractsHashes{
			Bootloader: bootloader,
			DefaultAA:  defaultAA,
		},
	}, nil
}

// ToBlockPageItem converts a listing row, lastVerified is the highest verified miniblock
func (p *StorageBlockPageItem) ToBlockPageItem(lastVerified types.MiniblockNumber) (types.BlockPageItem, error) {
	number, err := types.MiniblockNumberFromInt64(p.Number)
	if err != nil {
		return types.BlockPageItem{}, err
	}
	timestamp, err := types.ToUint64("timestamp", p.Timestamp)
	if err != nil {
		return types.BlockPageItem{}, err
	}
	hash, err := hexToHashPtr("hash", p.Hash)
	if err != nil {
		return types.BlockPageItem{}, err
	}
	return types.BlockPageItem{
		Number:    number,
		L1TxCount: int(p.L1TxCount),
		L2TxCount: int(p.L2TxCount),
		Hash:      hash,
		Status:    pageItemStatus(p.Number, int64(lastVerified)),
		Timestamp: timestamp,
	}, nil
}

// ToL1BatchPageItem converts a listing row, lastVerified is the highest verified batch
func (p *StorageL1BatchPageItem) ToL1BatchPageItem(lastVerified types.L1BatchNumber) (types.L1BatchPageItem, error) {
	number, err := types.L1BatchNumberFromInt64(p.Number)
	if err != nil {
		return types.L1BatchPageItem{}, err
	}
	timestamp, err := types.ToUint64("timestamp", p.Timestamp)
	if err != nil {
		return types.L1BatchPageItem{}, err
	}
	hash, err := bytesToHashPtr("hash", p.Hash)
	if err != nil {
		return types.L1BatchPageItem{}, err
	}
	return types.L1BatchPageItem{
		Number:    number,
		L1TxCount: int(p.L1TxCount),
		L2TxCount: int(p.L2TxCount),
		RootHash:  hash,
		Status:    pageItemStatus(p.Number, int64(lastVerified)),
		Timestamp: timestamp,
	}, nil
}
