package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jqphu/zksync-era/db"
	"github.com/jqphu/zksync-era/multivm"
	"github.com/stretchr/testify/require"
)

func mandatoryVars() FileData {
	return FileData{Name: "mandatory", Content: DefaultMandatoryVars}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile([]FileData{mandatoryVars()}, "")
	require.NoError(t, err)

	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, []string{"stderr"}, cfg.Log.Outputs)
	require.Equal(t, db.DriverSQLite, cfg.DB.Driver)
	require.Equal(t, "/tmp/zksync/zksync.sqlite", cfg.DB.Path)
	require.Equal(t, "5432", cfg.DB.Port)
	require.Equal(t, 200, cfg.DB.MaxConns)
	require.Equal(t, multivm.AllVmVersions(), cfg.Multivm.EnabledVersions)
	require.Equal(t, multivm.LatestProtocolVersion, cfg.Multivm.DefaultProtocolVersion)
	require.Equal(t, "http://localhost:8545", cfg.Settlement.L1URL)
	require.Equal(t, 10*time.Second, cfg.Settlement.CheckInterval.Duration)
	require.Equal(t, uint64(1), cfg.Settlement.ConfirmationsRequired)
	require.Equal(t, common.Address{}, cfg.Operator.Address)
}

func TestLoadOverrides(t *testing.T) {
	custom := FileData{Name: "custom", Content: `
L1URL = "http://l1:8545"
OperatorAddress = "0x00000000000000000000000000000000000000aa"
PathRWData = "/data"

[Multivm]
EnabledVersions = ["Vm1_3_2"]

[Settlement]
CheckInterval = "1m"
ConfirmationsRequired = 12
`}
	cfg, err := LoadFile([]FileData{mandatoryVars(), custom}, "")
	require.NoError(t, err)

	require.Equal(t, "/data/zksync.sqlite", cfg.DB.Path)
	require.Equal(t, []multivm.VmVersion{multivm.Vm1_3_2}, cfg.Multivm.EnabledVersions)
	require.Equal(t, "http://l1:8545", cfg.Settlement.L1URL)
	require.Equal(t, time.Minute, cfg.Settlement.CheckInterval.Duration)
	require.Equal(t, uint64(12), cfg.Settlement.ConfirmationsRequired)
	require.Equal(t, common.HexToAddress("0xaa"), cfg.Operator.Address)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ZKSYNC_L1URL", "http://env-l1:8545")
	t.Setenv("ZKSYNC_SETTLEMENT_CONFIRMATIONSREQUIRED", "5")
	t.Setenv("ZKSYNC_MULTIVM_ENABLEDVERSIONS", "M6Initial,Vm1_3_2")

	cfg, err := LoadFile([]FileData{mandatoryVars()}, "")
	require.NoError(t, err)
	require.Equal(t, "http://env-l1:8545", cfg.Settlement.L1URL)
	require.Equal(t, uint64(5), cfg.Settlement.ConfirmationsRequired)
	require.Equal(t, []multivm.VmVersion{multivm.VmM6Initial, multivm.Vm1_3_2}, cfg.Multivm.EnabledVersions)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadFile(nil, "")
	require.ErrorIs(t, err, ErrMissingVars)

	_, err = LoadFile([]FileData{mandatoryVars(), {Name: "bad", Content: "[Multivm]\nEnabledVersions = [\"M7\"]\n"}}, "")
	require.ErrorContains(t, err, multivm.ErrUnsupportedVersion.Error())

	// the default protocol runs on Vm1_3_2
	_, err = LoadFile([]FileData{mandatoryVars(), {Name: "bad", Content: "[Multivm]\nEnabledVersions = [\"M6Initial\"]\n"}}, "")
	require.ErrorIs(t, err, multivm.ErrUnsupportedVersion)

	_, err = LoadFile([]FileData{mandatoryVars(), {Name: "bad", Content: "[DB]\nDriver = \"mysql\"\n"}}, "")
	require.Error(t, err)
}

func TestLoadSavesRenderedConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFile([]FileData{mandatoryVars()}, dir)
	require.NoError(t, err)

	saved, err := os.ReadFile(filepath.Join(dir, SaveConfigFileName))
	require.NoError(t, err)
	require.Contains(t, string(saved), `L1URL = "http://localhost:8545"`)
	require.NotContains(t, string(saved), "{{")

	cfg, err := LoadFileFromString(string(saved), ConfigType)
	require.NoError(t, err)
	require.Equal(t, "/tmp/zksync/zksync.sqlite", cfg.DB.Path)
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "node.toml")
	jsonPath := filepath.Join(dir, "node.json")
	yamlPath := filepath.Join(dir, "node.yaml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("L1URL = \"http://l1\"\n"), DefaultCreationFilePermissions))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"Settlement": {"ConfirmationsRequired": 3}}`), DefaultCreationFilePermissions))
	require.NoError(t, os.WriteFile(yamlPath, []byte("L1URL: x\n"), DefaultCreationFilePermissions))

	files, err := readFiles([]string{tomlPath, jsonPath})
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "L1URL = \"http://l1\"\n", files[0].Content)
	require.Contains(t, files[1].Content, "ConfirmationsRequired = 3.0")

	cfg, err := LoadFile(append([]FileData{mandatoryVars()}, files...), "")
	require.NoError(t, err)
	require.Equal(t, "http://l1", cfg.Settlement.L1URL)
	require.Equal(t, uint64(3), cfg.Settlement.ConfirmationsRequired)

	_, err = readFiles([]string{yamlPath})
	require.ErrorIs(t, err, ErrUnsupportedConfigFileType)
	_, err = readFiles([]string{filepath.Join(dir, "missing.toml")})
	require.Error(t, err)
}
