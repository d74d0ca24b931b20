package types

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

// ErrMalformedRecord is returned when a stored value can't be decoded into its domain shape
var ErrMalformedRecord = errors.New("malformed record")

// ToUint16 narrows a stored integer, failing if it doesn't fit
func ToUint16(field string, v int64) (uint16, error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %s=%d doesn't fit in uint16", ErrMalformedRecord, field, v)
	}
	return uint16(v), nil
}

// ToUint32 narrows a stored integer, failing if it doesn't fit
func ToUint32(field string, v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s=%d doesn't fit in uint32", ErrMalformedRecord, field, v)
	}
	return uint32(v), nil
}

// ToUint64 converts a stored signed integer, failing if it is negative
func ToUint64(field string, v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: %s=%d is negative", ErrMalformedRecord, field, v)
	}
	return uint64(v), nil
}

// BigToUint64 converts a stored big integer, failing if it doesn't fit
func BigToUint64(field string, v *big.Int) (uint64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s is missing", ErrMalformedRecord, field)
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s=%s doesn't fit in uint64", ErrMalformedRecord, field, v.String())
	}
	return v.Uint64(), nil
}

// MiniblockNumberFromInt64 converts a stored miniblock number
func MiniblockNumberFromInt64(v int64) (MiniblockNumber, error) {
	n, err := ToUint32("miniblock number", v)
	return MiniblockNumber(n), err
}

// L1BatchNumberFromInt64 converts a stored batch number
func L1BatchNumberFromInt64(v int64) (L1BatchNumber, error) {
	n, err := ToUint32("l1 batch number", v)
	return L1BatchNumber(n), err
}
