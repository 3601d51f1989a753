package config

// This values doesnt have a default value because depend on the
// environment / deployment
const DefaultMandatoryVars = `
# SequencerPrivateKeyPath is the path to the keystore of the key signing the tx orders
SequencerPrivateKeyPath = "/app/sequencer.keystore"
# SequencerPrivateKeyPassword is the password of the keystore
SequencerPrivateKeyPassword = "test"
# L1URL is the RPC of the L1 chain imported by the relayer
L1URL = "http://localhost:8545"
`

// This doesn't belong to config, but are the vars used
// to avoid repetition in config-files
const DefaultVars = `
PathRWData = "/tmp/cdk-sequencer"
`

// DefaultValues is the default configuration
const DefaultValues = `
# This is the default configuration for the cdk-sequencer node

# Log configuration
[Log]
  # Environment is the environment where the node is running
  Environment = "development" # "production" or "development"
  # Level is the log level
  Level = "info"
  # Outputs are the outputs where the logs will be written
  Outputs = ["stderr"]

[Sequencer]
  # KeyStore is the keystore of the key signing the tx orders
  KeyStore = { Path = "{{SequencerPrivateKeyPath}}", Password = "{{SequencerPrivateKeyPassword}}"}
  # ServiceStatus the sequencer starts with: Active, ReadOnly, Maintenance or DateImport
  ServiceStatus = "Active"
  # MailboxSize is the number of requests that can wait for the sequencer
  MailboxSize = 1024

[BatchMaker]
  # Interval is the minimum time between the first tx of a DA block and the tx closing it
  Interval = "1h"

[Pipeline]
  # RevertOnExecutionFailure reverts a sequenced tx whose execution failed.
  # When false the node stops sequencing and the db tools must be used
  RevertOnExecutionFailure = false

[DB]
  # Path of the SQLite file holding every table of the node
  Path = "{{PathRWData}}/sequencer.sqlite"
  # NodeCacheSize is the number of accumulator nodes cached in memory
  NodeCacheSize = 4096

[DA]
  # Backend receiving the DA blocks: localfs or none
  Backend = "localfs"
  # LocalFSDir is the directory of the localfs backend
  LocalFSDir = "{{PathRWData}}/da"
  # SubmitInterval is the time between two rounds of the background submitter
  SubmitInterval = "10s"
  # PageSize is the max number of blocks submitted per round
  PageSize = 100
  # SyncMode follows DA blocks produced elsewhere, no batch is made by this node
  SyncMode = false
  # MinBlockToSubmit lowers the background submit cursor at startup, unset keeps it
  # MinBlockToSubmit = 0

[RPC]
  # Host defines the network adapter that will be used to serve the HTTP requests
  Host = "0.0.0.0"
  # Port defines the port to serve the endpoints via HTTP
  Port = 5576
  # ReadTimeout is the HTTP server read timeout
  # check net/http.server.ReadTimeout and net/http.server.ReadHeaderTimeout
  ReadTimeout = "2s"
  # WriteTimeout is the HTTP server write timeout
  # check net/http.server.WriteTimeout
  WriteTimeout = "2s"
  # MaxRequestsPerIPAndSecond defines how much requests a single IP can
  # send within a single second
  MaxRequestsPerIPAndSecond = 500

[Metrics]
  # Enabled starts the prometheus endpoint
  Enabled = true
  # Host to listen on
  Host = "0.0.0.0"
  # Port to listen on
  Port = 9091

[Relayer]
  # URL of the L1 RPC node
  URL = "{{L1URL}}"
  # ChainID recorded on every relayed block
  ChainID = 1
  # BlockFinality of the relayed blocks: LatestBlock, SafeBlock or FinalizedBlock
  BlockFinality = "FinalizedBlock"
  # StartBlock is the first block relayed on an empty ledger
  StartBlock = 0
  # SyncBlockChunkSize is the max number of blocks relayed between two head checks
  SyncBlockChunkSize = 100
  # WaitForNewBlocksPeriod is the polling period of the L1 head
  WaitForNewBlocksPeriod = "3s"
  # RetryAfterErrorPeriod is the time waited after a failed call
  RetryAfterErrorPeriod = "1s"
  # MaxRetryAttemptsAfterError stops the node after that many consecutive failures, -1 retries forever
  MaxRetryAttemptsAfterError = -1
`
