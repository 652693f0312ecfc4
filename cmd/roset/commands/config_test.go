package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ROSET_API_URL", "")
	t.Setenv("ROSET_API_KEY", "")
	flagAPIURL = ""
	flagAPIKey = ""
	flagDebug = false
	t.Cleanup(func() {
		flagAPIURL = ""
		flagAPIKey = ""
		flagDebug = false
	})
}

func TestResolveConfigEmpty(t *testing.T) {
	isolateConfig(t)

	cfg, err := resolveConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)
	assert.Empty(t, cfg.APIURL)
}

func TestResolveConfigReadsFile(t *testing.T) {
	isolateConfig(t)

	require.NoError(t, saveFileConfig(fileConfig{
		APIURL: "https://file.roset.dev",
		APIKey: "rsk_from_file",
	}))

	cfg, err := resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://file.roset.dev", cfg.APIURL)
	assert.Equal(t, "rsk_from_file", cfg.APIKey)
}

func TestResolveConfigEnvOverridesFile(t *testing.T) {
	isolateConfig(t)

	require.NoError(t, saveFileConfig(fileConfig{APIKey: "rsk_from_file"}))
	t.Setenv("ROSET_API_KEY", "rsk_from_env")

	cfg, err := resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, "rsk_from_env", cfg.APIKey)
}

func TestResolveConfigFlagsOverrideEverything(t *testing.T) {
	isolateConfig(t)

	require.NoError(t, saveFileConfig(fileConfig{APIKey: "rsk_from_file"}))
	t.Setenv("ROSET_API_KEY", "rsk_from_env")
	flagAPIKey = "rsk_from_flag"

	cfg, err := resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, "rsk_from_flag", cfg.APIKey)
}

func TestSaveFileConfigPermissions(t *testing.T) {
	isolateConfig(t)

	require.NoError(t, saveFileConfig(fileConfig{APIKey: "rsk_secret"}))

	path, err := configPath()
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "config holds the API key")
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".roset", "config.yaml"), path)
}

func TestLoadFileConfigRejectsMalformedYAML(t *testing.T) {
	isolateConfig(t)

	path, err := configPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("api_key: [unclosed"), 0o600))

	_, err = loadFileConfig()
	assert.Error(t, err)
}
