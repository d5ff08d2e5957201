package rpc

import rpc "github.com/tendermint/tendermint/rpc/jsonrpc/server"

var Routes = map[string]*rpc.RPCFunc{
	"epoch":           rpc.NewRPCFunc(Epoch, ""),
	"epoch_at":        rpc.NewRPCFunc(EpochAt, "ts"),
	"epoch_timestamp": rpc.NewRPCFunc(EpochTimestamp, "epoch"),
	"metrics":         rpc.NewRPCFunc(JSONMetrics, "label"),
}
