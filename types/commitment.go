package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// L1BatchMetaParameters are the batch parameters that are part of the commitment
type L1BatchMetaParameters struct {
	ZkPorterIsAvailable bool
	BootloaderCodeHash  common.Hash
	DefaultAACodeHash   common.Hash
}

// Bytes returns the packed encoding used to compute the meta parameters hash
func (p L1BatchMetaParameters) Bytes() []byte {
	res := make([]byte, 0, 1+common.HashLength*2) //nolint:mnd
	if p.ZkPorterIsAvailable {
		res = append(res, 1)
	} else {
		res = append(res, 0)
	}
	res = append(res, p.BootloaderCodeHash.Bytes()...)
	return append(res, p.DefaultAACodeHash.Bytes()...)
}

// Hash returns keccak256 of the packed meta parameters
func (p L1BatchMetaParameters) Hash() common.Hash {
	return crypto.Keccak256Hash(p.Bytes())
}

// L1BatchMetadata is the commitment data of a batch. Every field is required: a value of
// this type only exists once the whole sealing pipeline has run for the batch.
type L1BatchMetadata struct {
	RootHash                 common.Hash
	RollupLastLeafIndex      uint64
	MerkleRootHash           common.Hash
	InitialWritesCompressed  []byte
	RepeatedWritesCompressed []byte
	L2L1MessagesCompressed   []byte
	L2L1MerkleRoot           common.Hash
	AuxDataHash              common.Hash
	MetaParametersHash       common.Hash
	PassThroughDataHash      common.Hash
	Commitment               common.Hash
	BlockMetaParams          L1BatchMetaParameters
}

// L1BatchWithMetadata pairs a sealed header with its commitment data
type L1BatchWithMetadata struct {
	Header   L1BatchHeader
	Metadata L1BatchMetadata
}
