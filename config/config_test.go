package config

import (
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"LASTREP_SEED", "LASTREP_LOG_LEVEL", "LASTREP_LOG_ENCODING",
		"LASTREP_LOG_FILE", "LASTREP_LEDGER", "LASTREP_SIM_WORKERS",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(0), cfg.Seed)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogEncoding)
	assert.Equal(t, DefaultLogFile(), cfg.LogFile)
	assert.Equal(t, "lastrep-sim.sqlite", cfg.Ledger)
	assert.Equal(t, 4, cfg.SimWorkers)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LASTREP_SEED", "42")
	t.Setenv("LASTREP_LOG_LEVEL", "debug")
	t.Setenv("LASTREP_LOG_FILE", "/tmp/x.log")
	t.Setenv("LASTREP_SIM_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/x.log", cfg.LogFile)
	assert.Equal(t, 8, cfg.SimWorkers)
}

func TestLoad_BadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LASTREP_SEED", "not-a-number")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")

	clearEnv(t)
	t.Setenv("LASTREP_SIM_WORKERS", "0")
	_, err = Load()
	assert.ErrorIs(t, err, ErrBadWorkers)
}

func TestResolveSeed(t *testing.T) {
	seed, err := Config{Seed: 7}.ResolveSeed()
	require.NoError(t, err)
	assert.Equal(t, int64(7), seed)

	seed, err = Config{}.ResolveSeed()
	require.NoError(t, err)
	assert.NotZero(t, seed)
}

// Exitf calls os.Exit, so it runs in a subprocess.
func TestExitf_ExitsWithCode1(t *testing.T) {
	if os.Getenv("TEST_EXITF_SUBPROCESS") == "1" {
		Exitf("fatal: %s", "something broke")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExitf_ExitsWithCode1$")
	cmd.Env = append(os.Environ(), "TEST_EXITF_SUBPROCESS=1")
	out, err := cmd.CombinedOutput()

	exitErr, ok := err.(*exec.ExitError)
	require.True(t, ok, "expected *exec.ExitError, got %T: %v", err, err)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, string(out), "fatal: something broke")
}
