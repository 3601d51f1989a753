package main

import (
	"os"

	cdksequencer "github.com/0xPolygon/cdk-sequencer"
	"github.com/0xPolygon/cdk-sequencer/common"
	"github.com/0xPolygon/cdk-sequencer/config"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/urfave/cli/v2"
)

const appName = "cdk-sequencer"

var (
	configFileFlag = cli.StringSliceFlag{
		Name:     config.FlagCfg,
		Aliases:  []string{"c"},
		Usage:    "Configuration file(s)",
		Required: true,
	}
	optionalConfigFileFlag = cli.StringSliceFlag{
		Name:    config.FlagCfg,
		Aliases: []string{"c"},
		Usage:   "Configuration file(s) to render instead of printing the defaults",
	}
	yesFlag = cli.BoolFlag{
		Name:     config.FlagYes,
		Aliases:  []string{"y"},
		Usage:    "Automatically accepts any confirmation to execute the command",
		Required: false,
	}
	componentsFlag = cli.StringSliceFlag{
		Name:     config.FlagComponents,
		Aliases:  []string{"co"},
		Usage:    "List of components to run besides the sequencer",
		Required: false,
		Value:    cli.NewStringSlice(common.DA_SUBMITTER, common.RPC, common.METRICS),
	}
	saveConfigFlag = cli.StringFlag{
		Name:     config.FlagSaveConfigPath,
		Aliases:  []string{"s"},
		Usage:    "Save final configuration into to the indicated path (name: cdk_sequencer_config.toml)",
		Required: false,
	}
	minConfigFlag = cli.BoolFlag{
		Name:     config.FlagMinConfig,
		Usage:    "Print only the mandatory vars",
		Required: false,
	}
	outputFileFlag = cli.StringFlag{
		Name:     config.FlagOutputFile,
		Aliases:  []string{"o"},
		Usage:    "Write the output to this file instead of stdout",
		Required: false,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Version = cdksequencer.Version
	app.Commands = []*cli.Command{
		{
			Name:    "version",
			Aliases: []string{},
			Usage:   "Application version and build",
			Action:  versionCmd,
		},
		{
			Name:    "run",
			Aliases: []string{},
			Usage:   "Run the sequencer node",
			Action:  start,
			Flags:   []cli.Flag{&configFileFlag, &componentsFlag, &saveConfigFlag},
		},
		{
			Name:   "config",
			Usage:  "Print the default or the rendered configuration",
			Action: configCmd,
			Flags:  []cli.Flag{&optionalConfigFileFlag, &minConfigFlag, &outputFileFlag},
		},
		{
			Name:   "config-schema",
			Usage:  "Print the JSON schema of the configuration",
			Action: configSchemaCmd,
			Flags:  []cli.Flag{&outputFileFlag},
		},
		{
			Name:        "db",
			Usage:       "Offline tools on the sequencer DB, the node must be stopped",
			Subcommands: dbCommands(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
		os.Exit(1)
	}
}

func versionCmd(*cli.Context) error {
	cdksequencer.PrintVersion(os.Stdout)
	return nil
}
