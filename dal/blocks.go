package dal

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/types"
)

const (
	miniblockColumns = `number, l1_batch_number, timestamp, hash, l1_tx_count, l2_tx_count,
		base_fee_per_gas, l1_gas_price, l2_fair_gas_price, bootloader_code_hash, default_aa_code_hash`

	l1BatchColumns = `number, timestamp, is_finished, fee_account_address, l1_tx_count, l2_tx_count,
		bloom, priority_ops_onchain_data, l2_to_l1_logs, l2_to_l1_messages,
		initial_bootloader_heap_content, used_contract_hashes,
		base_fee_per_gas, l1_gas_price, l2_fair_gas_price,
		parent_hash, hash, rollup_last_leaf_index, merkle_root_hash,
		compressed_initial_writes, compressed_repeated_writes, l2_l1_compressed_messages,
		l2_l1_merkle_root, aux_data_hash, meta_parameters_hash, pass_through_data_hash,
		commitment, zkporter_is_available, bootloader_code_hash, default_aa_code_hash,
		eth_commit_tx_id, eth_prove_tx_id, eth_execute_tx_id`
)

// InsertMiniblock stores a sealed miniblock. It isn't attached to a batch until
// MarkMiniblocksAsExecutedInL1Batch runs.
func (s *Storage) InsertMiniblock(ctx context.Context, header types.MiniblockHeader, dbTx db.Txer) error {
	row := newStorageMiniblockHeader(header)
	if err := s.dialect.Insert(s.getExecQuerier(dbTx), "miniblocks", row); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: miniblock %d", ErrAlreadyExists, header.Number)
		}
		return fmt.Errorf("error inserting miniblock %d: %w", header.Number, err)
	}
	s.logger.Debugf("inserted miniblock %d", header.Number)
	return nil
}

// GetMiniblockHeader returns db.ErrNotFound if the miniblock doesn't exist
func (s *Storage) GetMiniblockHeader(
	ctx context.Context, number types.MiniblockNumber, dbTx db.Txer,
) (*types.MiniblockHeader, error) {
	return s.GetMiniblockHeaderByID(ctx, types.BlockIDFromNumber(types.ExactBlock(uint64(number))), dbTx)
}

// GetMiniblockHeaderByID returns the miniblock matched by a hash, number or block tag
func (s *Storage) GetMiniblockHeaderByID(
	ctx context.Context, id types.BlockID, dbTx db.Txer,
) (*types.MiniblockHeader, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	query := "SELECT " + miniblockColumns + " FROM miniblocks WHERE " + BlockWhereSQL(id, 1)
	args := BindBlockWhereSQLParams(id, nil)

	var row StorageMiniblockHeader
	if err := s.dialect.QueryRow(s.getExecQuerier(dbTx), &row, query, args...); err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	header, err := row.ToMiniblockHeader()
	if err != nil {
		return nil, err
	}
	return &header, nil
}

// GetSealedMiniblockNumber returns the highest stored miniblock
func (s *Storage) GetSealedMiniblockNumber(ctx context.Context, dbTx db.Txer) (types.MiniblockNumber, error) {
	const getSealedMiniblockNumberSQL = `SELECT MAX(number) FROM miniblocks`

	var number *int64
	if err := s.getExecQuerier(dbTx).QueryRowContext(ctx, getSealedMiniblockNumberSQL).Scan(&number); err != nil {
		return 0, err
	}
	if number == nil {
		return 0, db.ErrNotFound
	}
	return types.MiniblockNumberFromInt64(*number)
}

// InsertL1Batch stores a sealed batch header. Commitment metadata is added later with
// SaveL1BatchTreeData and SaveL1BatchMetadata.
func (s *Storage) InsertL1Batch(ctx context.Context, header types.L1BatchHeader, dbTx db.Txer) error {
	if !header.IsFinished {
		return fmt.Errorf("%w: l1 batch %d", ErrUnfinishedL1Batch, header.Number)
	}
	row, err := newStorageL1Batch(header)
	if err != nil {
		return err
	}
	if err := s.dialect.Insert(s.getExecQuerier(dbTx), "l1_batches", row); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: l1 batch %d", ErrAlreadyExists, header.Number)
		}
		return fmt.Errorf("error inserting l1 batch %d: %w", header.Number, err)
	}
	s.logger.Debugf("inserted l1 batch %d", header.Number)
	return nil
}

func (s *Storage) getStorageL1Batch(
	ctx context.Context, number types.L1BatchNumber, dbTx db.Txer,
) (*StorageL1Batch, error) {
	query := "SELECT " + l1BatchColumns + " FROM l1_batches WHERE number = $1"

	var row StorageL1Batch
	if err := s.dialect.QueryRow(s.getExecQuerier(dbTx), &row, query, int64(number)); err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return &row, nil
}

// GetL1BatchHeader returns db.ErrNotFound if the batch doesn't exist
func (s *Storage) GetL1BatchHeader(
	ctx context.Context, number types.L1BatchNumber, dbTx db.Txer,
) (*types.L1BatchHeader, error) {
	row, err := s.getStorageL1Batch(ctx, number, dbTx)
	if err != nil {
		return nil, err
	}
	header, err := AssembleL1BatchHeader(row)
	if err != nil {
		return nil, err
	}
	return &header, nil
}

// GetL1BatchMetadata fails with ErrIncomplete while any commitment field is missing
func (s *Storage) GetL1BatchMetadata(
	ctx context.Context, number types.L1BatchNumber, dbTx db.Txer,
) (*types.L1BatchMetadata, error) {
	row, err := s.getStorageL1Batch(ctx, number, dbTx)
	if err != nil {
		return nil, err
	}
	metadata, err := AssembleL1BatchMetadata(row)
	if err != nil {
		return nil, fmt.Errorf("l1 batch %d: %w", number, err)
	}
	return &metadata, nil
}

// GetL1BatchWithMetadata reads the header and the metadata from the same row
func (s *Storage) GetL1BatchWithMetadata(
	ctx context.Context, number types.L1BatchNumber, dbTx db.Txer,
) (*types.L1BatchWithMetadata, error) {
	row, err := s.getStorageL1Batch(ctx, number, dbTx)
	if err != nil {
		return nil, err
	}
	header, err := AssembleL1BatchHeader(row)
	if err != nil {
		return nil, err
	}
	metadata, err := AssembleL1BatchMetadata(row)
	if err != nil {
		return nil, fmt.Errorf("l1 batch %d: %w", number, err)
	}
	return &types.L1BatchWithMetadata{Header: header, Metadata: metadata}, nil
}

// GetSealedL1BatchNumber returns the highest stored batch
func (s *Storage) GetSealedL1BatchNumber(ctx context.Context, dbTx db.Txer) (types.L1BatchNumber, error) {
	const getSealedL1BatchNumberSQL = `SELECT MAX(number) FROM l1_batches`

	var number *int64
	if err := s.getExecQuerier(dbTx).QueryRowContext(ctx, getSealedL1BatchNumberSQL).Scan(&number); err != nil {
		return 0, err
	}
	if number == nil {
		return 0, db.ErrNotFound
	}
	return types.L1BatchNumberFromInt64(*number)
}

// SaveL1BatchTreeData records the output of the Merkle tree for a batch
func (s *Storage) SaveL1BatchTreeData(
	ctx context.Context, number types.L1BatchNumber, rootHash common.Hash, rollupLastLeafIndex uint64, dbTx db.Txer,
) error {
	const saveL1BatchTreeDataSQL = `
		UPDATE l1_batches SET hash = $1, rollup_last_leaf_index = $2 WHERE number = $3
	`
	leafIndex, err := toInt64("rollup_last_leaf_index", rollupLastLeafIndex)
	if err != nil {
		return err
	}
	res, err := s.getExecQuerier(dbTx).ExecContext(ctx, saveL1BatchTreeDataSQL,
		rootHash.Bytes(), leafIndex, int64(number))
	if err != nil {
		return fmt.Errorf("error saving tree data of l1 batch %d: %w", number, err)
	}
	return expectAffected(res, fmt.Sprintf("l1 batch %d", number))
}

// SaveL1BatchMetadata stores every commitment field of a batch in one statement
func (s *Storage) SaveL1BatchMetadata(
	ctx context.Context, number types.L1BatchNumber, metadata types.L1BatchMetadata, dbTx db.Txer,
) error {
	const saveL1BatchMetadataSQL = `
		UPDATE l1_batches SET
			hash = $1,
			rollup_last_leaf_index = $2,
			merkle_root_hash = $3,
			compressed_initial_writes = $4,
			compressed_repeated_writes = $5,
			l2_l1_compressed_messages = $6,
			l2_l1_merkle_root = $7,
			aux_data_hash = $8,
			meta_parameters_hash = $9,
			pass_through_data_hash = $10,
			commitment = $11,
			zkporter_is_available = $12,
			bootloader_code_hash = $13,
			default_aa_code_hash = $14
		WHERE number = $15
	`
	leafIndex, err := toInt64("rollup_last_leaf_index", metadata.RollupLastLeafIndex)
	if err != nil {
		return err
	}
	res, err := s.getExecQuerier(dbTx).ExecContext(ctx, saveL1BatchMetadataSQL,
		metadata.RootHash.Bytes(),
		leafIndex,
		metadata.MerkleRootHash.Bytes(),
		nonNilBytes(metadata.InitialWritesCompressed),
		nonNilBytes(metadata.RepeatedWritesCompressed),
		nonNilBytes(metadata.L2L1MessagesCompressed),
		metadata.L2L1MerkleRoot.Bytes(),
		metadata.AuxDataHash.Bytes(),
		metadata.MetaParametersHash.Bytes(),
		metadata.PassThroughDataHash.Bytes(),
		metadata.Commitment.Bytes(),
		metadata.BlockMetaParams.ZkPorterIsAvailable,
		metadata.BlockMetaParams.BootloaderCodeHash.Bytes(),
		metadata.BlockMetaParams.DefaultAACodeHash.Bytes(),
		int64(number),
	)
	if err != nil {
		return fmt.Errorf("error saving metadata of l1 batch %d: %w", number, err)
	}
	if err := expectAffected(res, fmt.Sprintf("l1 batch %d", number)); err != nil {
		return err
	}
	s.logger.Debugf("saved metadata of l1 batch %d, commitment %s", number, metadata.Commitment.Hex())
	return nil
}

// MarkMiniblocksAsExecutedInL1Batch attaches every miniblock without a batch to the given one
func (s *Storage) MarkMiniblocksAsExecutedInL1Batch(
	ctx context.Context, number types.L1BatchNumber, dbTx db.Txer,
) error {
	const markMiniblocksSQL = `
		UPDATE miniblocks SET l1_batch_number = $1 WHERE l1_batch_number IS NULL
	`
	res, err := s.getExecQuerier(dbTx).ExecContext(ctx, markMiniblocksSQL, int64(number))
	if err != nil {
		return fmt.Errorf("error attaching miniblocks to l1 batch %d: %w", number, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	s.logger.Debugf("attached %d miniblocks to l1 batch %d", affected, number)
	return nil
}

// SealL1Batch stores the batch and attaches the pending miniblocks to it atomically
func (s *Storage) SealL1Batch(ctx context.Context, header types.L1BatchHeader, dbTx db.Txer) error {
	if !header.IsFinished {
		return fmt.Errorf("%w: can't seal l1 batch %d", ErrUnfinishedL1Batch, header.Number)
	}
	return s.inTx(ctx, dbTx, func(tx db.Txer) error {
		if err := s.InsertL1Batch(ctx, header, tx); err != nil {
			return err
		}
		return s.MarkMiniblocksAsExecutedInL1Batch(ctx, header.Number, tx)
	})
}

func expectAffected(res interface{ RowsAffected() (int64, error) }, what string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, db.ErrNotFound)
	}
	return nil
}

func toInt64(field string, v uint64) (int64, error) {
	if v > uint64(1<<63-1) {
		return 0, fmt.Errorf("%w: %s=%d doesn't fit in int64", types.ErrMalformedRecord, field, v)
	}
	return int64(v), nil
}

// nonNilBytes keeps an empty payload distinguishable from NULL
func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
