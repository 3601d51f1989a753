package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	jRPC "github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/0xPolygon/cdk-sequencer/batchmaker"
	"github.com/0xPolygon/cdk-sequencer/dataavailability"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/pipeline"
	"github.com/0xPolygon/cdk-sequencer/relayer"
	"github.com/0xPolygon/cdk-sequencer/sequencer"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	// FlagYes is the flag for yes.
	FlagYes = "yes"
	// FlagCfg is the flag for cfg.
	FlagCfg = "cfg"
	// FlagComponents is the flag for components.
	FlagComponents = "components"
	// FlagSaveConfigPath is the flag to save the final configuration file
	FlagSaveConfigPath = "save-config-path"
	// FlagMinConfig is the flag to print only the mandatory vars
	FlagMinConfig = "min"
	// FlagOutputFile is the flag for the output file
	FlagOutputFile = "output"
	// FlagTxOrder is the tx order the db commands work on
	FlagTxOrder = "tx-order"
	// FlagLeafIndex is the index of an accumulator leaf
	FlagLeafIndex = "leaf-index"
	// FlagThorough enables the slow repair checks
	FlagThorough = "thorough"
	// FlagExec applies the repairs instead of only reporting them
	FlagExec = "exec"
	// FlagFastFail stops the repair at the first broken step
	FlagFastFail = "fast-fail"
	// FlagSyncMode skips the DA tail check of the repair
	FlagSyncMode = "sync-mode"
	// FlagMinBlockToSubmit restarts the DA submitter from the given block
	FlagMinBlockToSubmit = "min-block-to-submit"

	deprecatedFieldNodeCacheSize = "Sequencer.NodeCacheSize is deprecated. Use DB.NodeCacheSize instead."

	EnvVarPrefix       = "CDK_SEQ"
	ConfigType         = "toml"
	SaveConfigFileName = "cdk_sequencer_config.toml"

	DefaultCreationFilePermissions = os.FileMode(0600)
)

type ForbiddenField struct {
	FieldName string
	Reason    string
}

var (
	forbiddenFieldsOnConfig = []ForbiddenField{
		{
			FieldName: "sequencer.nodecachesize",
			Reason:    deprecatedFieldNodeCacheSize,
		},
	}
)

// MetricsConfig is the prometheus endpoint
type MetricsConfig struct {
	// Enabled starts the endpoint
	Enabled bool `mapstructure:"Enabled"`
	// Host to listen on
	Host string `mapstructure:"Host"`
	// Port to listen on
	Port int `mapstructure:"Port"`
}

/*
Config represents the configuration of the sequencer node.
The file is [TOML format], JSON files are converted to TOML before being merged.

[TOML format]: https://en.wikipedia.org/wiki/TOML
*/
type Config struct {
	// Configure Log level for all the services, allow also to store the logs in a file
	Log log.Config
	// Sequencer orders, signs and accumulates the txs
	Sequencer sequencer.Config
	// BatchMaker groups the sequenced txs into DA blocks
	BatchMaker batchmaker.Config
	// Pipeline drives validation, sequencing and execution of every tx
	Pipeline pipeline.Config
	// DB is the single SQLite file of the node
	DB sequencerdb.Config
	// DA is the background submitter of the DA blocks
	DA dataavailability.Config
	// RPC is the config for the RPC server
	RPC jRPC.Config
	// Metrics is the prometheus endpoint
	Metrics MetricsConfig
	// Relayer imports the blocks of an L1 chain into the ledger
	Relayer relayer.Config
}

// Load loads the configuration
func Load(ctx *cli.Context) (*Config, error) {
	configFilePath := ctx.StringSlice(FlagCfg)
	filesData, err := readFiles(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading files:  Err:%w", err)
	}
	saveConfigPath := ctx.String(FlagSaveConfigPath)
	return LoadFile(filesData, saveConfigPath)
}

func readFiles(files []string) ([]FileData, error) {
	result := make([]FileData, 0)
	for _, file := range files {
		fileContent, err := readFileToString(file)
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %s. Err:%w", file, err)
		}
		fileExtension := getFileExtension(file)
		if fileExtension != ConfigType {
			fileContent, err = convertFileToToml(fileContent, fileExtension)
			if err != nil {
				return nil, fmt.Errorf("error converting file: %s from %s to TOML. Err:%w", file, fileExtension, err)
			}
		}
		result = append(result, FileData{Name: file, Content: fileContent})
	}
	return result, nil
}

func getFileExtension(fileName string) string {
	return fileName[strings.LastIndex(fileName, ".")+1:]
}

// LoadFileFromString decodes an already rendered config
func LoadFileFromString(configFileData string, configType string) (*Config, error) {
	cfg := &Config{}
	v := viper.New()
	expectedKeys, err := defaultKeys()
	if err != nil {
		return nil, err
	}
	err = loadString(v, cfg, configFileData, configType, true, EnvVarPrefix, &expectedKeys)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveConfigToString(cfg Config) (string, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// withDefaults puts the default documents before files, so files override them
func withDefaults(files []FileData) []FileData {
	all := []FileData{
		{Name: "default_mandatory_vars", Content: DefaultMandatoryVars},
		{Name: "default_vars", Content: DefaultVars},
		{Name: "default_values", Content: DefaultValues},
	}
	return append(all, files...)
}

// RenderFiles returns the TOML the node would run with for the given config files
func RenderFiles(paths []string) (string, error) {
	files, err := readFiles(paths)
	if err != nil {
		return "", err
	}
	return NewRenderer(withDefaults(files), EnvVarPrefix).Render()
}

// LoadFile merges the defaults with the given files, resolves the vars and decodes the result
func LoadFile(files []FileData, saveConfigPath string) (*Config, error) {
	merger := NewRenderer(withDefaults(files), EnvVarPrefix)
	renderedCfg, err := merger.Render()
	if err != nil {
		return nil, err
	}
	if saveConfigPath != "" {
		fullPath := saveConfigPath + "/" + SaveConfigFileName
		err = os.WriteFile(fullPath, []byte(renderedCfg), DefaultCreationFilePermissions)
		if err != nil {
			err = fmt.Errorf("error writing config file: %s. Err: %w", fullPath, err)
			log.Error(err)
			return nil, err
		}
	}
	cfg, err := LoadFileFromString(renderedCfg, ConfigType)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// GenerateJSONSchema returns the JSON schema of the config file
func GenerateJSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct:             true,
		DoNotReference:             true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
		FieldNameTag:               "mapstructure",
	}
	schema := r.Reflect(&Config{})
	schema.Title = "Config of the cdk sequencer node"
	return json.MarshalIndent(schema, "", "  ")
}

// defaultKeys are the keys defined by the default config, any other key is unexpected
func defaultKeys() ([]string, error) {
	rendered, err := NewRenderer(withDefaults(nil), EnvVarPrefix).Render()
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigType(ConfigType)
	if err := v.ReadConfig(bytes.NewBufferString(rendered)); err != nil {
		return nil, fmt.Errorf("error reading default config: %w", err)
	}
	return v.AllKeys(), nil
}

func loadString(v *viper.Viper, cfg *Config, configData string, configType string,
	allowEnvVars bool, envPrefix string, expectedKeys *[]string) error {
	v.SetConfigType(configType)
	if allowEnvVars {
		replacer := strings.NewReplacer(".", "_")
		v.SetEnvKeyReplacer(replacer)
		v.SetEnvPrefix(envPrefix)
		v.AutomaticEnv()
	}
	err := v.ReadConfig(bytes.NewBuffer([]byte(configData)))
	if err != nil {
		return err
	}
	decodeHooks := []viper.DecoderConfigOption{
		// this allows arrays to be decoded from env var separated by ",", example: MY_VAR="value1,value2,value3"
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(), mapstructure.StringToSliceHookFunc(","))),
	}

	err = v.Unmarshal(&cfg, decodeHooks...)
	if err != nil {
		return err
	}

	if expectedKeys != nil {
		configKeys := v.AllKeys()
		unexpectedFields := getUnexpectedFields(configKeys, *expectedKeys)
		for _, field := range unexpectedFields {
			forbbidenInfo := getForbiddenField(field)
			if forbbidenInfo != nil {
				log.Warnf("forbidden field %s in config file: %s", field, forbbidenInfo.Reason)
			} else {
				log.Debugf("field %s in config file doesnt have a default value", field)
			}
		}
	}
	return nil
}

func getForbiddenField(fieldName string) *ForbiddenField {
	for _, forbiddenField := range forbiddenFieldsOnConfig {
		if forbiddenField.FieldName == fieldName || strings.HasPrefix(fieldName, forbiddenField.FieldName) {
			return &forbiddenField
		}
	}
	return nil
}

func getUnexpectedFields(keysOnFile, expectedConfigKeys []string) []string {
	wrongFields := make([]string, 0)
	for _, key := range keysOnFile {
		if !contains(expectedConfigKeys, key) {
			wrongFields = append(wrongFields, key)
		}
	}
	return wrongFields
}
