package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpc.Request
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)

		resp, ok := responses[req.Method]
		if !ok {
			http.Error(w, "method not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newServer(t, map[string]string{
		"sequencer_getSequencerInfo": `{"jsonrpc":"2.0","id":1,"result":{"last_order":7,"last_accumulator_info":` +
			`{"root_hash":"0x0000000000000000000000000000000000000000000000000000000000000001",` +
			`"frozen_subtree_roots":[],"num_leaves":7,"num_nodes":11}}}`,
		"sequencer_getTxHashes": `{"jsonrpc":"2.0","id":1,"result":["0x0000000000000000000000000000000000000000000000000000000000000002",null]}`,
		"sequencer_status":      `{"jsonrpc":"2.0","id":1,"result":{"service_status":"ReadOnly","sequencer_address":"0x0000000000000000000000000000000000000abc","last_order":7}}`,
		"sequencer_sequenceTx":  `{"jsonrpc":"2.0","id":1,"error":{"code":-32050,"message":"service unavailable"}}`,
	})
	c := NewClient(srv.URL)

	info, err := c.GetSequencerInfo()
	require.NoError(t, err)
	require.Equal(t, uint64(7), info.LastOrder)
	require.Equal(t, uint64(11), info.LastAccumulatorInfo.NumNodes)
	require.Equal(t, common.HexToHash("0x01"), info.LastAccumulatorInfo.RootHash)

	hashes, err := c.GetTxHashes([]uint64{1, 2})
	require.NoError(t, err)
	require.Len(t, hashes, 2)
	require.Equal(t, common.HexToHash("0x02"), *hashes[0])
	require.Nil(t, hashes[1])

	status, err := c.Status()
	require.NoError(t, err)
	require.Equal(t, "ReadOnly", status.ServiceStatus)
	require.Equal(t, common.HexToAddress("0xabc"), status.SequencerAddress)

	_, err = c.SequenceTx(ledger.L1BlockData{ChainID: 1, BlockHeight: 1})
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, -32050, rpcErr.Code)

	_, err = c.GetAccumulatorProof(1)
	require.Error(t, err)
}

func TestClientInvalidResponse(t *testing.T) {
	srv := newServer(t, map[string]string{
		"sequencer_getTransactionByOrder": `{"jsonrpc":"2.0","id":1,"result":"not a tx"}`,
	})
	_, err := NewClient(srv.URL).GetTransactionByOrder(1)
	require.ErrorContains(t, err, "error unmarshalling the response calling sequencer_getTransactionByOrder")
}
