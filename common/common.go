package common

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"

	"github.com/0xPolygon/cdk-sequencer/config/types"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/iden3/go-iden3-crypto/keccak256"
)

var ErrEmptyKeystore = errors.New("keystore path and password are empty")

// Uint64ToBytes converts a uint64 to a byte slice
func Uint64ToBytes(num uint64) []byte {
	const uint64ByteSize = 8

	bytes := make([]byte, uint64ByteSize)
	binary.BigEndian.PutUint64(bytes, num)

	return bytes
}

// BytesToUint64 converts a byte slice to a uint64
func BytesToUint64(bytes []byte) uint64 {
	return binary.BigEndian.Uint64(bytes)
}

// CalculateBatchHash computes the hash identifying a DA batch: keccak256 over the
// concatenation of the tx hashes in order
func CalculateBatchHash(txHashes []common.Hash) common.Hash {
	data := make([][]byte, len(txHashes))
	for i, h := range txHashes {
		data[i] = h.Bytes()
	}
	return common.BytesToHash(keccak256.Hash(data...))
}

// NewKeyFromKeystore loads the private key stored on an encrypted keystore file
func NewKeyFromKeystore(cfg types.KeystoreFileConfig) (*ecdsa.PrivateKey, error) {
	if cfg.Path == "" && cfg.Password == "" {
		return nil, ErrEmptyKeystore
	}
	keystoreEncrypted, err := os.ReadFile(filepath.Clean(cfg.Path))
	if err != nil {
		return nil, err
	}
	key, err := keystore.DecryptKey(keystoreEncrypted, cfg.Password)
	if err != nil {
		return nil, err
	}

	return key.PrivateKey, nil
}
