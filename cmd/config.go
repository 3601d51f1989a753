package main

import (
	"os"

	"github.com/0xPolygon/cdk-sequencer/config"
	"github.com/urfave/cli/v2"
)

// configCmd prints the defaults, or the rendered config of the node when --cfg is given
func configCmd(cliCtx *cli.Context) error {
	if files := cliCtx.StringSlice(config.FlagCfg); len(files) > 0 {
		rendered, err := config.RenderFiles(files)
		if err != nil {
			return err
		}
		return writeOutput(cliCtx, []byte(rendered))
	}
	out := config.DefaultMandatoryVars
	if !cliCtx.Bool(config.FlagMinConfig) {
		out += config.DefaultVars + config.DefaultValues
	}
	return writeOutput(cliCtx, []byte(out))
}

func configSchemaCmd(cliCtx *cli.Context) error {
	schema, err := config.GenerateJSONSchema()
	if err != nil {
		return err
	}
	return writeOutput(cliCtx, append(schema, '\n'))
}

// writeOutput writes to the --output file, stdout when unset
func writeOutput(cliCtx *cli.Context, data []byte) error {
	if output := cliCtx.String(config.FlagOutputFile); output != "" {
		return os.WriteFile(output, data, config.DefaultCreationFilePermissions)
	}
	_, err := os.Stdout.Write(data)
	return err
}
