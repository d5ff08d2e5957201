package rpc

import (
	"epochbft/types"

	rpctypes "github.com/tendermint/tendermint/rpc/jsonrpc/types"
)

type ResultEpoch struct {
	Epoch     types.Epoch `json:"epoch"`
	Timestamp int64       `json:"timestamp"` // epoch开始的时间戳
}

type ResultEpochTimestamp struct {
	Epoch     types.Epoch `json:"epoch"`
	Timestamp int64       `json:"timestamp"`
}

// Epoch returns the current epoch and the timestamp it started at.
func Epoch(ctx *rpctypes.Context) (*ResultEpoch, error) {
	c := ctx.Context()
	epoch, err := env.Scheduler.GetEpoch(c)
	if err != nil {
		return nil, err
	}
	ts, err := env.Scheduler.EpochTimestamp(c, epoch)
	if err != nil {
		return nil, err
	}
	return &ResultEpoch{Epoch: epoch, Timestamp: ts}, nil
}

// EpochAt returns the epoch the unix timestamp ts falls into and the timestamp that epoch started at.
func EpochAt(ctx *rpctypes.Context, ts int64) (*ResultEpoch, error) {
	c := ctx.Context()
	epoch, err := env.Scheduler.EpochAt(c, ts)
	if err != nil {
		return nil, err
	}
	start, err := env.Scheduler.EpochTimestamp(c, epoch)
	if err != nil {
		return nil, err
	}
	return &ResultEpoch{Epoch: epoch, Timestamp: start}, nil
}

// EpochTimestamp returns the unix timestamp at which epoch starts.
func EpochTimestamp(ctx *rpctypes.Context, epoch uint32) (*ResultEpochTimestamp, error) {
	ts, err := env.Scheduler.EpochTimestamp(ctx.Context(), types.Epoch(epoch))
	if err != nil {
		return nil, err
	}
	return &ResultEpochTimestamp{Epoch: types.Epoch(epoch), Timestamp: ts}, nil
}
