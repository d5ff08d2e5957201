package rpc

import (
	"context"

	"epochbft/libs/metric"
	"epochbft/types"
)

var env *Environment

func SetEnvironment(e *Environment) {
	env = e
}

// EpochSource is the part of the checkpoint scheduler the RPC handlers need.
type EpochSource interface {
	GetEpoch(ctx context.Context) (types.Epoch, error)
	EpochAt(ctx context.Context, timestamp int64) (types.Epoch, error)
	EpochTimestamp(ctx context.Context, epoch types.Epoch) (int64, error)
}

type Environment struct {
	Scheduler EpochSource

	MetricSet *metric.MetricSet
}
