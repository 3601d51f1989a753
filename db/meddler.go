package db

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

// init registers tags to be used to read/write from SQL DBs using meddler
func init() {
	meddler.Default = meddler.SQLite
	meddler.Register("hash", HashMeddler{})
	meddler.Register("hashlist", HashListMeddler{})
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

// HashListMeddler encodes or decodes a []common.Hash to or from a comma separated string.
// An empty list is stored as the empty string.
type HashListMeddler struct{}

// PreRead is called before a Scan operation for fields that have the HashListMeddler
func (b HashListMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new(string), nil
}

// PostRead is called after a Scan operation for fields that have the HashListMeddler
func (b HashListMeddler) PostRead(fieldPtr, scanTarget interface{}) error {
	ptr, ok := scanTarget.(*string)
	if !ok {
		return errors.New("scanTarget is not *string")
	}
	if ptr == nil {
		return errors.New("HashListMeddler.PostRead: nil pointer")
	}
	field, ok := fieldPtr.(*[]common.Hash)
	if !ok {
		return errors.New("fieldPtr is not []common.Hash")
	}
	if *ptr == "" {
		*field = []common.Hash{}
		return nil
	}
	strHashes := strings.Split(*ptr, ",")
	hashes := make([]common.Hash, len(strHashes))
	for i, strHash := range strHashes {
		hashes[i] = common.HexToHash(strHash)
	}
	*field = hashes
	return nil
}

// PreWrite is called before an Insert or Update operation for fields that have the HashListMeddler
func (b HashListMeddler) PreWrite(fieldPtr interface{}) (saveValue interface{}, err error) {
	field, ok := fieldPtr.([]common.Hash)
	if !ok {
		return nil, errors.New("fieldPtr is not []common.Hash")
	}
	strHashes := make([]string, len(field))
	for i, h := range field {
		strHashes[i] = h.Hex()
	}
	return strings.Join(strHashes, ","), nil
}
