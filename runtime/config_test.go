package runtime

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	content := "timeout: 5s\ninsecure: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "httper.yaml"), []byte(content), 0644))
	chdir(t, dir)

	v := viper.New()
	require.NoError(t, ReadConfig(v))
	assert.Equal(t, 5*time.Second, v.GetDuration("timeout"))
	assert.True(t, v.GetBool("insecure"))
}

func TestReadConfigMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	v := viper.New()
	// No config file anywhere is fine; flags and defaults apply.
	require.NoError(t, ReadConfig(v))
	assert.False(t, v.IsSet("timeout"))
}
