package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/log"
	"github.com/jqphu/zksync-era/multivm"
	"github.com/jqphu/zksync-era/settlement"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	// FlagCfg is the flag for cfg.
	FlagCfg = "cfg"
	// FlagSaveConfigPath is the flag to save the final configuration file
	FlagSaveConfigPath = "save-config-path"
	// FlagMinConfig prints only the vars that have no default
	FlagMinConfig = "minimal"

	EnvVarPrefix       = "ZKSYNC"
	ConfigType         = "toml"
	SaveConfigFileName = "zksync_config.toml"

	DefaultCreationFilePermissions = os.FileMode(0600)
)

// OperatorConfig identifies the operator of this node
type OperatorConfig struct {
	// Address is reported as the operator of miniblocks whose batch is still open
	Address common.Address `mapstructure:"Address"`
}

/*
Config represents the configuration of the node.
The file is [TOML format]; the defaults are in DefaultValues.

[TOML format]: https://en.wikipedia.org/wiki/TOML
*/
type Config struct {
	// Configure Log level for all the services, allow also to store the logs in a file
	Log log.Config
	// DB is the storage of miniblocks, batches and their L1 transactions
	DB db.Config
	// Multivm selects the VM versions blocks are executed with
	Multivm multivm.Config
	// Settlement configures the tracker of execute txs on L1
	Settlement settlement.Config
	// Operator of this node
	Operator OperatorConfig
}

// Validate checks the settings that can't be checked while decoding
func (c *Config) Validate() error {
	if err := c.Multivm.Validate(); err != nil {
		return fmt.Errorf("invalid Multivm config: %w", err)
	}
	if c.DB.Driver != db.DriverSQLite && c.DB.Driver != db.DriverPostgres {
		return fmt.Errorf("invalid DB config: unsupported driver %q", c.DB.Driver)
	}
	return nil
}

// Load loads the configuration files given on the command line
func Load(ctx *cli.Context) (*Config, error) {
	files, err := readFiles(ctx.StringSlice(FlagCfg))
	if err != nil {
		return nil, fmt.Errorf("error reading config files: %w", err)
	}
	return LoadFile(files, ctx.String(FlagSaveConfigPath))
}

func readFiles(paths []string) ([]FileData, error) {
	result := make([]FileData, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading file %s: %w", path, err)
		}
		data := string(content)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != ConfigType {
			data, err = convertFileToToml(data, ext)
			if err != nil {
				return nil, fmt.Errorf("error converting file %s to toml: %w", path, err)
			}
		}
		result = append(result, FileData{Name: path, Content: data})
	}
	return result, nil
}

// LoadFile renders files over the defaults and decodes the result. When saveConfigPath is
// set the rendered configuration is written there.
func LoadFile(files []FileData, saveConfigPath string) (*Config, error) {
	all := make([]FileData, 0, len(files)+2) //nolint:mnd
	all = append(all,
		FileData{Name: "default_vars", Content: DefaultVars},
		FileData{Name: "default_values", Content: DefaultValues},
	)
	all = append(all, files...)

	rendered, err := NewRenderer(all, EnvVarPrefix).Render()
	if err != nil {
		return nil, err
	}
	if saveConfigPath != "" {
		fullPath := filepath.Join(saveConfigPath, SaveConfigFileName)
		if err := os.WriteFile(fullPath, []byte(rendered), DefaultCreationFilePermissions); err != nil {
			err = fmt.Errorf("error writing config file %s: %w", fullPath, err)
			log.Error(err)
			return nil, err
		}
	}
	return LoadFileFromString(rendered, ConfigType)
}

// LoadFileFromString decodes an already rendered configuration
func LoadFileFromString(data string, configType string) (*Config, error) {
	cfg := &Config{}
	if err := loadString(cfg, data, configType, EnvVarPrefix); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadString(cfg *Config, data string, configType string, envPrefix string) error {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.ReadConfig(bytes.NewBufferString(data)); err != nil {
		return err
	}

	var metadata mapstructure.Metadata
	decodeHooks := []viper.DecoderConfigOption{
		// this allows arrays to be decoded from env var separated by ",", example: MY_VAR="value1,value2,value3"
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","))),
		func(c *mapstructure.DecoderConfig) {
			c.Metadata = &metadata
		},
	}
	if err := v.Unmarshal(cfg, decodeHooks...); err != nil {
		return err
	}
	for _, key := range metadata.Unused {
		log.Debugf("config key %s is not used by any component", key)
	}
	return nil
}
