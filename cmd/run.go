package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	jRPC "github.com/0xPolygon/cdk-rpc/rpc"
	cdksequencer "github.com/0xPolygon/cdk-sequencer"
	"github.com/0xPolygon/cdk-sequencer/batchmaker"
	cdkcommon "github.com/0xPolygon/cdk-sequencer/common"
	"github.com/0xPolygon/cdk-sequencer/config"
	"github.com/0xPolygon/cdk-sequencer/dataavailability"
	"github.com/0xPolygon/cdk-sequencer/dataavailability/localfs"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/pipeline"
	"github.com/0xPolygon/cdk-sequencer/relayer"
	"github.com/0xPolygon/cdk-sequencer/rpc"
	"github.com/0xPolygon/cdk-sequencer/sequencer"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

const metricsReadHeaderTimeout = 5 * time.Second

var errNotExecuted = errors.New("last sequenced tx was not executed, run the db revert-tx command")

func start(cliCtx *cli.Context) error {
	c, err := config.Load(cliCtx)
	if err != nil {
		return err
	}

	log.Init(c.Log)

	if c.Log.Environment == log.EnvironmentDevelopment {
		cdksequencer.PrintVersion(os.Stdout)
		log.Info("Starting application")
	} else if c.Log.Environment == log.EnvironmentProduction {
		logVersion()
	}

	ctx, cancel := context.WithCancel(cliCtx.Context)
	components := cliCtx.StringSlice(config.FlagComponents)

	store, err := sequencerdb.New(log.WithFields("module", "sequencerdb"), c.DB.Path, c.DB.NodeCacheSize)
	if err != nil {
		cancel()
		return err
	}
	key, err := cdkcommon.NewKeyFromKeystore(c.Sequencer.KeyStore)
	if err != nil {
		cancel()
		return fmt.Errorf("error loading sequencer key: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	seq, err := sequencer.New(ctx, log.WithFields("module", cdkcommon.SEQUENCER), c.Sequencer, store, key, reg)
	if err != nil {
		cancel()
		return err
	}
	executor, err := newExecutor(store, seq.GetSequencerInfo().LastOrder)
	if err != nil {
		seq.Stop()
		cancel()
		return err
	}
	if err := repairDAMeta(ctx, store, seq.GetSequencerInfo().LastOrder, c.DA); err != nil {
		seq.Stop()
		cancel()
		return err
	}
	var batchMaker *batchmaker.BatchMaker
	if !c.DA.SyncMode {
		batchMaker = batchmaker.New(log.WithFields("module", cdkcommon.BATCH_MAKER), c.BatchMaker, store)
	}
	txPipeline := pipeline.New(log.WithFields("module", "pipeline"), c.Pipeline, seq, executor, store, batchMaker)

	for _, component := range components {
		switch component {
		case cdkcommon.DA_SUBMITTER:
			da, err := newDataAvailability(c.DA, store, reg)
			if err != nil {
				log.Fatal(err)
			}
			if da != nil {
				go da.Start(ctx)
			}
		case cdkcommon.RPC:
			server := createRPC(c.RPC, txPipeline, seq)
			go func() {
				if err := server.Start(); err != nil {
					log.Fatal(err)
				}
			}()
		case cdkcommon.RELAYER:
			l1Relayer, err := newRelayer(ctx, c.Relayer, txPipeline, store)
			if err != nil {
				log.Fatal(err)
			}
			go func() {
				if err := l1Relayer.Start(ctx); err != nil {
					log.Fatal(err)
				}
			}()
		case cdkcommon.METRICS:
			if c.Metrics.Enabled {
				go startMetricsHTTPServer(c.Metrics, reg)
			}
		}
	}

	waitSignal([]context.CancelFunc{cancel, seq.Stop, func() {
		if err := store.Close(); err != nil {
			log.Errorf("error closing sequencer db: %v", err)
		}
	}})

	return nil
}

// newExecutor resumes the execution engine from the stored startup checkpoint. The last
// sequenced tx must have been executed, otherwise the checkpoint is one tx behind.
func newExecutor(store *sequencerdb.Store, lastOrder uint64) (*pipeline.HashChainExecutor, error) {
	startup, err := store.GetStartupInfo()
	if err != nil && !errors.Is(err, sequencerdb.ErrNotFound) {
		return nil, fmt.Errorf("error loading startup info: %w", err)
	}
	if lastOrder > 0 {
		hash, err := store.GetTxHashByOrder(lastOrder)
		if err != nil {
			return nil, fmt.Errorf("error loading tx hash of order %d: %w", lastOrder, err)
		}
		if _, err := store.GetExecutionInfo(hash); err != nil {
			if errors.Is(err, sequencerdb.ErrNotFound) {
				return nil, fmt.Errorf("tx order %d: %w", lastOrder, errNotExecuted)
			}
			return nil, err
		}
	}
	return pipeline.NewHashChainExecutor(startup, lastOrder), nil
}

// repairDAMeta reconciles the DA blocks with the sequencer tip before the batch maker starts.
// The pending tx of the previous run is covered by a catch-up block, so the next batch starts
// right after the last block end.
func repairDAMeta(ctx context.Context, store *sequencerdb.Store, lastOrder uint64, c dataavailability.Config) error {
	issues, fixed, err := store.TryRepairDAMeta(ctx, lastOrder, false, c.MinBlockToSubmit, false, c.SyncMode)
	if err != nil {
		return fmt.Errorf("error repairing DA meta: %w", err)
	}
	if issues > 0 {
		log.Warnf("DA meta repaired at startup, last_order: %d, issues: %d, fixed: %d", lastOrder, issues, fixed)
	}
	return nil
}

func newDataAvailability(c dataavailability.Config, store *sequencerdb.Store,
	reg prometheus.Registerer) (*dataavailability.DataAvailability, error) {
	logger := log.WithFields("module", cdkcommon.DA_SUBMITTER)
	var backend dataavailability.DABackender
	switch c.Backend {
	case dataavailability.LocalFS:
		backend = localfs.New(logger, c.LocalFSDir)
	case dataavailability.None, "":
		logger.Warn("no DA backend configured, blocks stay pending")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported DA backend %q", c.Backend)
	}
	return dataavailability.New(logger, c, store, backend, reg)
}

func newRelayer(ctx context.Context, c relayer.Config, executor relayer.L1Executor,
	store relayer.RelayStore) (*relayer.Relayer, error) {
	client, err := ethclient.DialContext(ctx, c.URL)
	if err != nil {
		return nil, fmt.Errorf("error dialing L1 %s: %w", c.URL, err)
	}
	return relayer.New(log.WithFields("module", cdkcommon.RELAYER), c, client, executor, store)
}

func createRPC(cfg jRPC.Config, executor rpc.TxExecutor, seq rpc.SequencerReader) *jRPC.Server {
	logger := log.WithFields("module", cdkcommon.RPC)
	services := []jRPC.Service{
		{
			Name: rpc.SEQUENCER,
			Service: rpc.NewSequencerEndpoints(
				logger,
				cfg.WriteTimeout.Duration,
				cfg.ReadTimeout.Duration,
				executor,
				seq,
			),
		},
	}

	return jRPC.NewServer(cfg, services, jRPC.WithLogger(logger.GetSugaredLogger()))
}

func startMetricsHTTPServer(c config.MetricsConfig, gatherer prometheus.Gatherer) {
	mux := http.NewServeMux()
	address := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	lis, err := net.Listen("tcp", address)
	if err != nil {
		log.Errorf("failed to create tcp listener for metrics: %v", err)
		return
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	metricsServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}
	log.Infof("metrics server listening on port %d", c.Port)
	if err := metricsServer.Serve(lis); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Warnf("http server for metrics stopped")
			return
		}
		log.Errorf("closed http connection for metrics server: %v", err)
	}
}

func logVersion() {
	log.GetDefaultLogger().Infow("Starting application", cdksequencer.GetBuildInfo().Fields()...)
}

func waitSignal(cancelFuncs []context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	for sig := range signals {
		switch sig {
		case os.Interrupt, syscall.SIGTERM:
			log.Info("terminating application gracefully...")

			exitStatus := 0
			for _, cancel := range cancelFuncs {
				cancel()
			}
			os.Exit(exitStatus)
		}
	}
}
