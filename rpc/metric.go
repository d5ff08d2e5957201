package rpc

import (
	"github.com/pkg/errors"
	rpctypes "github.com/tendermint/tendermint/rpc/jsonrpc/types"
)

type ResultMetrics struct {
	Metrics map[string]string `json:"metrics"`
}

// JSONMetrics 返回label对应的metric，label为空时返回所有metric
func JSONMetrics(ctx *rpctypes.Context, label string) (*ResultMetrics, error) {
	var labels []string
	if label != "" {
		labels = []string{label}
	}

	metrics, err := env.MetricSet.JSONMetrics(labels...)
	if err != nil {
		return nil, errors.Wrapf(err, "label %q", label)
	}
	return &ResultMetrics{Metrics: metrics}, nil
}
