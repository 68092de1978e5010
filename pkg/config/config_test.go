package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets keys for the duration of the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

var allKeys = []string{
	"DARKROOM_GPU", "DARKROOM_PREVIEW_MAX", "DARKROOM_JPEG_QUALITY",
	"DARKROOM_EXPORT_WORKERS", "DARKROOM_CULL_PADDING", "DARKROOM_LOG_LEVEL", "PREVIEW_DEBUG",
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, allKeys...)

	cfg, err := Load(Options{EnvFile: noEnvFile(t)})
	require.NoError(t, err)
	require.True(t, cfg.GPU)
	require.Equal(t, 1024, cfg.PreviewMax)
	require.Equal(t, 92, cfg.JPEGQuality)
	require.Equal(t, 2, cfg.ExportWorkers)
	require.Equal(t, 200.0, cfg.CullPadding)
	require.Equal(t, "warn", cfg.LogLevel)
	require.False(t, cfg.PreviewDebug)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t, allKeys...)
	t.Setenv("DARKROOM_GPU", "false")
	t.Setenv("DARKROOM_PREVIEW_MAX", "512")
	t.Setenv("PREVIEW_DEBUG", "1")

	cfg, err := Load(Options{EnvFile: noEnvFile(t)})
	require.NoError(t, err)
	require.False(t, cfg.GPU)
	require.Equal(t, 512, cfg.PreviewMax)
	require.True(t, cfg.PreviewDebug)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t, allKeys...)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DARKROOM_JPEG_QUALITY=70\nDARKROOM_LOG_LEVEL=debug\n"), 0o600))

	cfg, err := Load(Options{EnvFile: path})
	require.NoError(t, err)
	require.Equal(t, 70, cfg.JPEGQuality)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t, allKeys...)
	t.Setenv("DARKROOM_EXPORT_WORKERS", "4")
	t.Setenv("DARKROOM_JPEG_QUALITY", "80")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--workers=8"}))

	cfg, err := Load(Options{EnvFile: noEnvFile(t), Flags: fs})
	require.NoError(t, err)
	require.Equal(t, 8, cfg.ExportWorkers)
	require.Equal(t, 80, cfg.JPEGQuality)
}

func TestLoad_ValidationError(t *testing.T) {
	clearEnv(t, allKeys...)
	t.Setenv("DARKROOM_JPEG_QUALITY", "150")

	cfg, err := Load(Options{EnvFile: noEnvFile(t)})
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoad_BadLogLevel(t *testing.T) {
	clearEnv(t, allKeys...)
	t.Setenv("DARKROOM_LOG_LEVEL", "loud")

	_, err := Load(Options{EnvFile: noEnvFile(t)})
	require.Error(t, err)
}
