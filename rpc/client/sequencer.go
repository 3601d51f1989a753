package client

import (
	"encoding/json"
	"fmt"

	"github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/rpc/types"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Error is an error answered by the server
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

type SequencerClientInterface interface {
	SequenceTx(txData ledger.TxData) (*types.ExecutedTx, error)
	GetSequencerInfo() (*sequencerdb.SequencerInfo, error)
	GetTransactionByOrder(txOrder uint64) (*types.Transaction, error)
	GetTxHashes(txOrders []uint64) ([]*common.Hash, error)
	GetAccumulatorProof(txOrder uint64) (*types.AccumulatorProof, error)
	Status() (*types.Status, error)
}

// ClientFactoryInterface interface for the client factory
type ClientFactoryInterface interface {
	NewClient(url string) SequencerClientInterface
}

// ClientFactory is the implementation of the sequencer client factory
type ClientFactory struct{}

// NewClient returns an implementation of the sequencer client
func (f *ClientFactory) NewClient(url string) SequencerClientInterface {
	return NewClient(url)
}

// Client wraps the endpoints of the sequencer namespace
type Client struct {
	url string
}

var _ SequencerClientInterface = (*Client)(nil)

// NewClient returns a client ready to be used
func NewClient(url string) *Client {
	return &Client{
		url: url,
	}
}

func (c *Client) call(result interface{}, method string, params ...interface{}) error {
	response, err := rpc.JSONRPCCall(c.url, method, params...)
	if err != nil {
		return err
	}
	if response.Error != nil {
		return &Error{Code: response.Error.Code, Message: response.Error.Message}
	}
	if err := json.Unmarshal(response.Result, result); err != nil {
		return fmt.Errorf("error unmarshalling the response calling %s: %w", method, err)
	}
	return nil
}

// SequenceTx orders and executes a tx
func (c *Client) SequenceTx(txData ledger.TxData) (*types.ExecutedTx, error) {
	data, err := ledger.EncodeTxData(txData)
	if err != nil {
		return nil, err
	}
	var result types.ExecutedTx
	if err := c.call(&result, "sequencer_sequenceTx", hexutil.Bytes(data)); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetSequencerInfo() (*sequencerdb.SequencerInfo, error) {
	var result sequencerdb.SequencerInfo
	if err := c.call(&result, "sequencer_getSequencerInfo"); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetTransactionByOrder(txOrder uint64) (*types.Transaction, error) {
	var result types.Transaction
	if err := c.call(&result, "sequencer_getTransactionByOrder", txOrder); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetTxHashes(txOrders []uint64) ([]*common.Hash, error) {
	var result []*common.Hash
	if err := c.call(&result, "sequencer_getTxHashes", txOrders); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAccumulatorProof returns the inclusion proof of a tx order, to be checked with Verify
func (c *Client) GetAccumulatorProof(txOrder uint64) (*types.AccumulatorProof, error) {
	var result types.AccumulatorProof
	if err := c.call(&result, "sequencer_getAccumulatorProof", txOrder); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Status() (*types.Status, error) {
	var result types.Status
	if err := c.call(&result, "sequencer_status"); err != nil {
		return nil, err
	}
	return &result, nil
}
