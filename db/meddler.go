package db

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/russross/meddler"
)

// init registers tags to be used to read/write from SQL DBs using meddler
func init() {
	meddler.Default = meddler.SQLite
	meddler.Register("bigint", BigIntMeddler{})
	meddler.Register("hash", HashMeddler{})
	meddler.Register("address", AddressMeddler{})
	meddler.Register("bloom", BloomMeddler{})
	meddler.Register("bytesarray", BytesArrayMeddler{})
	meddler.Register("nullbytes", NullBytesMeddler{})
}

// SliceToSlicePtrs converts any []Foo to []*Foo
func SliceToSlicePtrs(slice interface{}) interface{} {
	v := reflect.ValueOf(slice)
	vLen := v.Len()
	typ := v.Type().Elem()
	res := reflect.MakeSlice(reflect.SliceOf(reflect.PointerTo(typ)), vLen, vLen)
	for i := 0; i < vLen; i++ {
		res.Index(i).Set(v.Index(i).Addr())
	}
	return res.Interface()
}

// SlicePtrsToSlice converts any []*Foo to []Foo
func SlicePtrsToSlice(slice interface{}) interface{} {
	v := reflect.ValueOf(slice)
	vLen := v.Len()
	typ := v.Type().Elem().Elem()
	res := reflect.MakeSlice(reflect.SliceOf(typ), vLen, vLen)
	for i := 0; i < vLen; i++ {
		res.Index(i).Set(v.Index(i).Elem())
	}
	return res.Interface()
}

// BigIntMeddler encodes or decodes the field value to or from string
type BigIntMeddler struct{}

// PreRead is called before a Scan operation for fields that have the BigIntMeddler
func (b BigIntMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	// give a pointer to a byte buffer to grab the raw data
	return new(string), nil
}

// PostRead is called after a Scan operation for fields that have the BigIntMeddler
func (b BigIntMeddler) PostRead(fieldPtr, scanTarget interface{}) error {
	ptr, ok := scanTarget.(*string)
	if !ok {
		return errors.New("scanTarget is not *string")
	}
	if ptr == nil {
		return fmt.Errorf("BigIntMeddler.PostRead: nil pointer")
	}
	field, ok := fieldPtr.(**big.Int)
	if !ok {
		return errors.New("fieldPtr is not *big.Int")
	}
	decimal := 10
	*field, ok = new(big.Int).SetString(*ptr, decimal)
	if !ok {
		return fmt.Errorf("big.Int.SetString failed on \"%v\"", *ptr)
	}
	return nil
}

// PreWrite is called before an Insert or Update operation for fields that have the BigIntMeddler
func (b BigIntMeddler) PreWrite(fieldPtr interface{}) (saveValue interface{}, err error) {
	field, ok := fieldPtr.(*big.Int)
	if !ok {
		return nil, errors.New("fieldPtr is not *big.Int")
	}
	if field == nil {
		return nil, errors.New("BigIntMeddler.PreWrite: nil big.Int")
	}

	return field.String(), nil
}

// HashMeddler encodes or decodes the field value to or from string
type HashMeddler struct{}

// PreRead is called before a Scan operation for fields that have the HashMeddler
func (b HashMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	// give a pointer to a byte buffer to grab the raw data
	return new(string), nil
}

// PostRead is called after a Scan operation for fields that have the HashMeddler
func (b HashMeddler) PostRead(fieldPtr, scanTarget interface{}) error {
	ptr, ok := scanTarget.(*string)
	if !ok {
		return errors.New("scanTarget is not *string")
	}
	if ptr == nil {
		return fmt.Errorf("HashMeddler.PostRead: nil pointer")
	}
	field, ok := fieldPtr.(*common.Hash)
	if !ok {
		return errors.New("fieldPtr is not common.Hash")
	}
	*field = common.HexToHash(*ptr)
	return nil
}

// PreWrite is called before an Insert or Update operation for fields that have the HashMeddler
func (b HashMeddler) PreWrite(fieldPtr interface{}) (saveValue interface{}, err error) {
	field, ok := fieldPtr.(common.Hash)
	if !ok {
		return nil, errors.New("fieldPtr is not common.Hash")
	}
	return field.Hex(), nil
}

// AddressMeddler encodes or decodes the field value to or from string
type AddressMeddler struct{}

// PreRead is called before a Scan operation for fields that have the AddressMeddler
func (b AddressMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	// give a pointer to a byte buffer to grab the raw data
	return new(string), nil
}

// PostRead is called after a Scan operation for fields that have the AddressMeddler
func (b AddressMeddler) PostRead(fieldPtr, scanTarget interface{}) error {
	ptr, ok := scanTarget.(*string)
	if !ok {
		return errors.New("scanTarget is not *string")
	}
	if ptr == nil {
		return errors.New("AddressMeddler.PostRead: nil pointer")
	}
	field, ok := fieldPtr.(*common.Address)
	if !ok {
		return errors.New("fieldPtr is not common.Address")
	}
	*field = common.HexToAddress(*ptr)
	return nil
}

// PreWrite is called before an Insert or Update operation for fields that have the AddressMeddler
func (b AddressMeddler) PreWrite(fieldPtr interface{}) (saveValue interface{}, err error) {
	field, ok := fieldPtr.(common.Address)
	if !ok {
		return nil, errors.New("fieldPtr is not common.Address")
	}
	return field.Hex(), nil
}

// BloomMeddler encodes or decodes a logs bloom to or from its raw bytes
type BloomMeddler struct{}

// PreRead is called before a Scan operation for fields that have the BloomMeddler
func (b BloomMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new([]byte), nil
}

// PostRead is called after a Scan operation for fields that have the BloomMeddler
func (b BloomMeddler) PostRead(fieldPtr, scanTarget interface{}) error {
	ptr, ok := scanTarget.(*[]byte)
	if !ok {
		return errors.New("scanTarget is not *[]byte")
	}
	field, ok := fieldPtr.(*ethtypes.Bloom)
	if !ok {
		return errors.New("fieldPtr is not types.Bloom")
	}
	if len(*ptr) != ethtypes.BloomByteLength {
		return fmt.Errorf("BloomMeddler.PostRead: expected %d bytes, got %d", ethtypes.BloomByteLength, len(*ptr))
	}
	*field = ethtypes.BytesToBloom(*ptr)
	return nil
}

// PreWrite is called before an Insert or Update operation for fields that have the BloomMeddler
func (b BloomMeddler) PreWrite(fieldPtr interface{}) (saveValue interface{}, err error) {
	field, ok := fieldPtr.(ethtypes.Bloom)
	if !ok {
		return nil, errors.New("fieldPtr is not types.Bloom")
	}
	return field.Bytes(), nil
}

// BytesArrayMeddler encodes or decodes a list of byte strings to or from a JSON array of hex strings
type BytesArrayMeddler struct{}

// PreRead is called before a Scan operation for fields that have the BytesArrayMeddler
func (b BytesArrayMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new(string), nil
}

// PostRead is called after a Scan operation for fields that have the BytesArrayMeddler
func (b BytesArrayMeddler) PostRead(fieldPtr, scanTarget interface{}) error {
	ptr, ok := scanTarget.(*string)
	if !ok {
		return errors.New("scanTarget is not *string")
	}
	field, ok := fieldPtr.(*[][]byte)
	if !ok {
		return errors.New("fieldPtr is not [][]byte")
	}
	var items []hexutil.Bytes
	if err := json.Unmarshal([]byte(*ptr), &items); err != nil {
		return fmt.Errorf("BytesArrayMeddler.PostRead: %w", err)
	}
	res := make([][]byte, len(items))
	for i, item := range items {
		res[i] = item
	}
	*field = res
	return nil
}

// PreWrite is called before an Insert or Update operation for fields that have the BytesArrayMeddler
func (b BytesArrayMeddler) PreWrite(fieldPtr interface{}) (saveValue interface{}, err error) {
	field, ok := fieldPtr.([][]byte)
	if !ok {
		return nil, errors.New("fieldPtr is not [][]byte")
	}
	items := make([]hexutil.Bytes, len(field))
	for i, item := range field {
		items[i] = item
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// NullBytesMeddler maps a nil byte slice to SQL NULL and back
type NullBytesMeddler struct{}

// PreRead is called before a Scan operation for fields that have the NullBytesMeddler
func (b NullBytesMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new([]byte), nil
}

// PostRead is called after a Scan operation for fields that have the NullBytesMeddler
func (b NullBytesMeddler) PostRead(fieldPtr, scanTarget interface{}) error {
	ptr, ok := scanTarget.(*[]byte)
	if !ok {
		return errors.New("scanTarget is not *[]byte")
	}
	field, ok := fieldPtr.(*[]byte)
	if !ok {
		return errors.New("fieldPtr is not []byte")
	}
	if *ptr == nil {
		*field = nil
		return nil
	}
	*field = common.CopyBytes(*ptr)
	return nil
}

// PreWrite is called before an Insert or Update operation for fields that have the NullBytesMeddler
func (b NullBytesMeddler) PreWrite(fieldPtr interface{}) (saveValue interface{}, err error) {
	field, ok := fieldPtr.([]byte)
	if !ok {
		return nil, errors.New("fieldPtr is not []byte")
	}
	if field == nil {
		return nil, nil
	}
	return field, nil
}
