package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/0xPolygon/cdk-sequencer/config"
	"github.com/0xPolygon/cdk-sequencer/dbtools"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/rpc/types"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/urfave/cli/v2"
)

var (
	txOrderFlag = cli.Uint64Flag{
		Name:     config.FlagTxOrder,
		Aliases:  []string{"o"},
		Usage:    "Tx order",
		Required: true,
	}
	leafIndexFlag = cli.Uint64Flag{
		Name:     config.FlagLeafIndex,
		Aliases:  []string{"i"},
		Usage:    "Index of the accumulator leaf, the leaf of tx order N has index N-1",
		Required: true,
	}
	thoroughFlag = cli.BoolFlag{
		Name:  config.FlagThorough,
		Usage: "Check every accumulator leaf, the execution continuity and every DA block",
	}
	execFlag = cli.BoolFlag{
		Name:  config.FlagExec,
		Usage: "Apply the fixes, otherwise the issues are only reported",
	}
	fastFailFlag = cli.BoolFlag{
		Name:  config.FlagFastFail,
		Usage: "Stop at the first step with unfixed issues",
	}
	syncModeFlag = cli.BoolFlag{
		Name:  config.FlagSyncMode,
		Usage: "The node doesn't generate DA blocks",
	}
	minBlockToSubmitFlag = cli.Uint64Flag{
		Name:  config.FlagMinBlockToSubmit,
		Usage: "Lower the background submit cursor so the submitter restarts from this block",
	}
)

var errAborted = errors.New("aborted by the user")

func dbCommands() []*cli.Command {
	cfgFlags := []cli.Flag{&configFileFlag}
	writeFlags := []cli.Flag{&configFileFlag, &yesFlag, &txOrderFlag}
	return []*cli.Command{
		{
			Name:   "get-sequencer-info",
			Usage:  "Print the stored sequencer info",
			Action: withTools(getSequencerInfoCmd),
			Flags:  cfgFlags,
		},
		{
			Name:   "get-tx-by-order",
			Usage:  "Print the ledger tx sequenced at an order",
			Action: withTools(getTxByOrderCmd),
			Flags:  []cli.Flag{&configFileFlag, &txOrderFlag},
		},
		{
			Name:   "get-accumulator-leaf-by-index",
			Usage:  "Print a leaf of the accumulator",
			Action: withTools(getLeafCmd),
			Flags:  []cli.Flag{&configFileFlag, &leafIndexFlag},
		},
		{
			Name:   "revert-tx",
			Usage:  "Remove the last tx, which must not be followed by any other",
			Action: withTools(revertTxCmd),
			Flags:  writeFlags,
		},
		{
			Name:   "rollback",
			Usage:  "Move the tip back to an executed tx, dropping the execution of the later ones",
			Action: withTools(rollbackCmd),
			Flags:  writeFlags,
		},
		{
			Name:   "repair",
			Usage:  "Check the DB and, with --exec, fix what can be fixed",
			Action: withTools(repairCmd),
			Flags: []cli.Flag{&configFileFlag, &thoroughFlag, &execFlag, &fastFailFlag, &syncModeFlag,
				&minBlockToSubmitFlag},
		},
	}
}

type toolsAction func(cliCtx *cli.Context, store *sequencerdb.Store, tools *dbtools.Tools) error

// withTools opens the DB configured on the command line. The node must not be running.
func withTools(action toolsAction) cli.ActionFunc {
	return func(cliCtx *cli.Context) error {
		c, err := config.Load(cliCtx)
		if err != nil {
			return err
		}
		log.Init(c.Log)
		logger := log.WithFields("module", "dbtools")
		store, err := sequencerdb.New(logger, c.DB.Path, c.DB.NodeCacheSize)
		if err != nil {
			return err
		}
		defer store.Close()
		return action(cliCtx, store, dbtools.New(logger, store))
	}
}

func getSequencerInfoCmd(cliCtx *cli.Context, store *sequencerdb.Store, _ *dbtools.Tools) error {
	info, err := store.GetSequencerInfo()
	if err != nil {
		return err
	}
	return printJSON(cliCtx.App.Writer, info)
}

func getTxByOrderCmd(cliCtx *cli.Context, store *sequencerdb.Store, _ *dbtools.Tools) error {
	tx, err := store.GetLedgerTxByOrder(cliCtx.Uint64(config.FlagTxOrder))
	if err != nil {
		return err
	}
	rpcTx, err := types.NewTransaction(tx)
	if err != nil {
		return err
	}
	return printJSON(cliCtx.App.Writer, rpcTx)
}

func getLeafCmd(cliCtx *cli.Context, _ *sequencerdb.Store, tools *dbtools.Tools) error {
	leaf, err := tools.GetAccumulatorLeafByIndex(cliCtx.Uint64(config.FlagLeafIndex))
	if err != nil {
		return err
	}
	fmt.Fprintln(cliCtx.App.Writer, leaf.Hex())
	return nil
}

func revertTxCmd(cliCtx *cli.Context, _ *sequencerdb.Store, tools *dbtools.Tools) error {
	order := cliCtx.Uint64(config.FlagTxOrder)
	if !confirm(cliCtx, fmt.Sprintf("revert tx order %d", order)) {
		return errAborted
	}
	return tools.RevertTx(cliCtx.Context, order)
}

func rollbackCmd(cliCtx *cli.Context, _ *sequencerdb.Store, tools *dbtools.Tools) error {
	order := cliCtx.Uint64(config.FlagTxOrder)
	if !confirm(cliCtx, fmt.Sprintf("rollback to tx order %d", order)) {
		return errAborted
	}
	return tools.Rollback(cliCtx.Context, order)
}

func repairCmd(cliCtx *cli.Context, _ *sequencerdb.Store, tools *dbtools.Tools) error {
	opts := dbtools.RepairOptions{
		Thorough: cliCtx.Bool(config.FlagThorough),
		Exec:     cliCtx.Bool(config.FlagExec),
		FastFail: cliCtx.Bool(config.FlagFastFail),
		SyncMode: cliCtx.Bool(config.FlagSyncMode),
	}
	if cliCtx.IsSet(config.FlagMinBlockToSubmit) {
		minBlock := cliCtx.Uint64(config.FlagMinBlockToSubmit)
		opts.MinBlockToSubmit = &minBlock
	}
	issues, fixed, err := tools.Repair(cliCtx.Context, opts)
	fmt.Fprintf(cliCtx.App.Writer, "issues found: %d, fixed: %d\n", issues, fixed)
	return err
}

func confirm(cliCtx *cli.Context, action string) bool {
	if cliCtx.Bool(config.FlagYes) {
		return true
	}
	fmt.Fprintf(cliCtx.App.Writer, "%s? This can't be undone and the node must be stopped [y/N]: ", action)
	var answer string
	if _, err := fmt.Fscanln(cliCtx.App.Reader, &answer); err != nil {
		return false
	}
	return answer == "y" || answer == "Y"
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
