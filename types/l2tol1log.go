package types

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// L2ToL1LogSize is the serialized size of an L2ToL1Log:
	// shard id (1) + is service (1) + tx number (2) + sender (20) + key (32) + value (32)
	L2ToL1LogSize = 88
	// PriorityOpOnchainDataSize is the serialized size of a PriorityOpOnchainData
	PriorityOpOnchainDataSize = 64
)

// L2ToL1Log is a log emitted on L2 to be processed on L1
type L2ToL1Log struct {
	ShardID         uint8
	IsService       bool
	TxNumberInBlock uint16
	Sender          common.Address
	Key             common.Hash
	Value           common.Hash
}

// L2ToL1LogFromBytes decodes a serialized log. Any width other than L2ToL1LogSize is malformed.
func L2ToL1LogFromBytes(data []byte) (L2ToL1Log, error) {
	if len(data) != L2ToL1LogSize {
		return L2ToL1Log{}, fmt.Errorf("%w: l2 to l1 log has %d bytes, expected %d",
			ErrMalformedRecord, len(data), L2ToL1LogSize)
	}
	return L2ToL1Log{
		ShardID:         data[0],
		IsService:       data[1] != 0,
		TxNumberInBlock: binary.BigEndian.Uint16(data[2:4]),
		Sender:          common.BytesToAddress(data[4:24]),
		Key:             common.BytesToHash(data[24:56]),
		Value:           common.BytesToHash(data[56:88]),
	}, nil
}

// Bytes serializes the log
func (l L2ToL1Log) Bytes() []byte {
	res := make([]byte, 0, L2ToL1LogSize)
	res = append(res, l.ShardID)
	if l.IsService {
		res = append(res, 1)
	} else {
		res = append(res, 0)
	}
	res = binary.BigEndian.AppendUint16(res, l.TxNumberInBlock)
	res = append(res, l.Sender.Bytes()...)
	res = append(res, l.Key.Bytes()...)
	res = append(res, l.Value.Bytes()...)
	return res
}

// PriorityOpOnchainData is the data of a priority operation committed on L1
type PriorityOpOnchainData struct {
	Layer2TipFee    uint256.Int
	OnchainDataHash common.Hash
}

// PriorityOpOnchainDataFromBytes decodes the 64 byte representation stored per priority op
func PriorityOpOnchainDataFromBytes(data []byte) (PriorityOpOnchainData, error) {
	if len(data) != PriorityOpOnchainDataSize {
		return PriorityOpOnchainData{}, fmt.Errorf("%w: priority op data has %d bytes, expected %d",
			ErrMalformedRecord, len(data), PriorityOpOnchainDataSize)
	}
	var res PriorityOpOnchainData
	res.Layer2TipFee.SetBytes32(data[:32])
	res.OnchainDataHash = common.BytesToHash(data[32:])
	return res, nil
}

// Bytes serializes the priority op data
func (p PriorityOpOnchainData) Bytes() []byte {
	fee := p.Layer2TipFee.Bytes32()
	res := make([]byte, 0, PriorityOpOnchainDataSize)
	res = append(res, fee[:]...)
	return append(res, p.OnchainDataHash.Bytes()...)
}
