package common

const (
	// SEQUENCER name to identify the sequencer component
	SEQUENCER = "sequencer"
	// BATCH_MAKER name to identify the batch maker component
	BATCH_MAKER = "batch-maker" //nolint:stylecheck
	// DA_SUBMITTER name to identify the background DA submitter component
	DA_SUBMITTER = "da-submitter" //nolint:stylecheck
	// RPC name to identify the rpc component
	RPC = "rpc"
	// METRICS name to identify the prometheus endpoint
	METRICS = "metrics"
	// RELAYER name to identify the L1 block relayer
	RELAYER = "relayer"
)
