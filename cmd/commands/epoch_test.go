package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"

	cfg "epochbft/config"
	"epochbft/types"
)

func setTestConfig(t *testing.T, zero int64, period uint16) {
	oldConfig, oldLogger := config, logger
	config = cfg.TestConfig()
	config.Epoch.CheckpointZeroTimestamp = zero
	config.Epoch.CheckpointsPeriod = period
	logger = log.TestingLogger()
	t.Cleanup(func() {
		config, logger = oldConfig, oldLogger
	})
}

func runEpochCmd(t *testing.T, args ...string) (string, error) {
	cmd := EpochCmd
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetArgs(nil)
	})
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestEpochAtCmd(t *testing.T) {
	setTestConfig(t, 1000, 10)

	out, err := runEpochCmd(t, "at", "1099")
	require.NoError(t, err)
	assert.Equal(t, "9", out)

	_, err = runEpochCmd(t, "at", "999")
	assert.Error(t, err)

	_, err = runEpochCmd(t, "at", "abc")
	assert.Error(t, err)
}

func TestEpochTimestampCmd(t *testing.T) {
	setTestConfig(t, 1000, 10)

	out, err := runEpochCmd(t, "timestamp", "3")
	require.NoError(t, err)
	assert.Equal(t, "1030", out)

	_, err = runEpochCmd(t, "timestamp", "4294967295")
	assert.Error(t, err, "overflow")
}

func TestNewEpochClock(t *testing.T) {
	setTestConfig(t, 1000, 0)

	mock := clock.NewMock()
	mock.Set(time.Unix(1025, 0))
	ec, err := newEpochClock(config, mock)
	require.NoError(t, err)

	current, err := ec.CurrentEpoch()
	require.NoError(t, err)
	assert.Equal(t, types.Epoch(25), current, "period 0 is clamped to 1")
}
