package node

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	cfg "epochbft/config"
	"epochbft/epoch"
	"epochbft/libs/metric"
	"epochbft/rpc"
	"epochbft/types"

	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/libs/events"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/service"
	rpcserver "github.com/tendermint/tendermint/rpc/jsonrpc/server"
)

const (
	epochListenerID = "node"

	configureTimeout = 10 * time.Second
)

type Provider func(*cfg.Config, log.Logger) (*Node, error)

// Node 运行checkpoint scheduler，并通过RPC对外提供epoch查询
type Node struct {
	service.BaseService

	// config
	config *cfg.Config

	// service
	scheduler   *epoch.CheckpointScheduler
	eventSwitch events.EventSwitch
	metricSet   *metric.MetricSet

	rpcListeners []net.Listener

	// 最近一次通知的epoch，未收到通知时为-1
	lastNotified int64
}

type Option func(*Node)

// SchedulerOptions passes options to the checkpoint scheduler, mainly a mock time source in tests.
func SchedulerOptions(options ...epoch.SchedulerOption) Option {
	return func(n *Node) {
		n.scheduler = epoch.NewCheckpointScheduler(options...)
	}
}

func DefaultNewNode(config *cfg.Config, logger log.Logger) (*Node, error) {
	return NewNode(config, logger)
}

func NewNode(config *cfg.Config, logger log.Logger, options ...Option) (*Node, error) {
	if err := config.ValidateBasic(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	node := &Node{
		config:       config,
		scheduler:    epoch.NewCheckpointScheduler(),
		eventSwitch:  events.NewEventSwitch(),
		metricSet:    metric.NewMetricSet(),
		lastNotified: -1,
	}
	node.BaseService = *service.NewBaseService(logger, "Node", node)
	for _, option := range options {
		option(node)
	}

	node.scheduler.SetLogger(logger.With("module", "epoch"))
	node.eventSwitch.SetLogger(logger.With("module", "events"))
	if err := node.metricSet.SetMetrics(epoch.MetricLabel, node.scheduler.Metric()); err != nil {
		return nil, err
	}

	return node, nil
}

func (n *Node) Scheduler() *epoch.CheckpointScheduler {
	return n.scheduler
}

func (n *Node) EventSwitch() events.EventSwitch {
	return n.eventSwitch
}

func (n *Node) MetricSet() *metric.MetricSet {
	return n.metricSet
}

// LastNotifiedEpoch returns the epoch of the last notification received by the node, or -1.
func (n *Node) LastNotifiedEpoch() int64 {
	return atomic.LoadInt64(&n.lastNotified)
}

// OnStart 启动失败时停止已经启动的服务，BaseService不会调用OnStop
func (n *Node) OnStart() (err error) {
	if err = n.eventSwitch.Start(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			n.stopServices()
		}
	}()

	if err = n.eventSwitch.AddListenerForEvent(epochListenerID, epoch.EventNewEpoch, n.onNewEpoch); err != nil {
		return err
	}

	if err = n.scheduler.Start(); err != nil {
		return err
	}

	// 订阅需要在配置之前进入队列，保证第一次触发时已经注册
	n.scheduler.SubscribeToAllEpochs(
		epoch.NewEventRecipient(n.eventSwitch, epoch.EventNewEpoch), epoch.StringPayload(n.config.Moniker))

	ctx, cancel := context.WithTimeout(context.Background(), configureTimeout)
	defer cancel()
	if err = n.scheduler.Configure(ctx,
		n.config.Epoch.CheckpointZeroTimestamp, n.config.Epoch.CheckpointsPeriod); err != nil {
		return errors.Wrap(err, "configure epoch clock")
	}

	if n.config.RPC.IsRPCEnabled() {
		listeners, err := n.startRPC()
		if err != nil {
			return errors.Wrap(err, "start rpc server")
		}
		n.rpcListeners = listeners
	}

	return nil
}

func (n *Node) OnStop() {
	n.Logger.Info("Stopping Node")

	for _, l := range n.rpcListeners {
		n.Logger.Info("Closing rpc listener", "listener", l)
		if err := l.Close(); err != nil {
			n.Logger.Error("Error closing listener", "listener", l, "err", err)
		}
	}
	n.rpcListeners = nil

	n.stopServices()
}

func (n *Node) stopServices() {
	if n.scheduler.IsRunning() {
		if err := n.scheduler.Stop(); err != nil {
			n.Logger.Error("Error stopping scheduler", "err", err)
		}
	}

	n.eventSwitch.RemoveListener(epochListenerID)
	if n.eventSwitch.IsRunning() {
		if err := n.eventSwitch.Stop(); err != nil {
			n.Logger.Error("Error stopping event switch", "err", err)
		}
	}
}

// onNewEpoch 在scheduler的routine中同步调用，不能阻塞
func (n *Node) onNewEpoch(data events.EventData) {
	notification, ok := data.(types.EpochNotification)
	if !ok {
		n.Logger.Error("unexpected epoch event data", "data", data)
		return
	}
	atomic.StoreInt64(&n.lastNotified, notification.Checkpoint.Int64())
	n.Logger.Info("new epoch", "epoch", notification.Checkpoint, "moniker", notification.Payload)
}

// RPCListenAddrs returns the addresses the RPC server listens on.
func (n *Node) RPCListenAddrs() []string {
	addrs := make([]string, 0, len(n.rpcListeners))
	for _, l := range n.rpcListeners {
		addrs = append(addrs, l.Addr().String())
	}
	return addrs
}

func (n *Node) startRPC() ([]net.Listener, error) {
	rpc.SetEnvironment(&rpc.Environment{
		Scheduler: n.scheduler,
		MetricSet: n.metricSet,
	})

	listenAddrs := splitAndTrimEmpty(n.config.RPC.ListenAddress, ",", " ")
	config := rpcserver.DefaultConfig()
	config.MaxOpenConnections = n.config.RPC.MaxOpenConnections

	listeners := make([]net.Listener, 0, len(listenAddrs))
	for _, listenAddr := range listenAddrs {
		mux := http.NewServeMux()
		rpcLogger := n.Logger.With("module", "rpc-server")
		wmLogger := rpcLogger.With("protocol", "websocket")
		wm := rpcserver.NewWebsocketManager(rpc.Routes)
		wm.SetLogger(wmLogger)
		mux.HandleFunc("/websocket", wm.WebsocketHandler)
		rpcserver.RegisterRPCFuncs(mux, rpc.Routes, rpcLogger)

		listener, err := rpcserver.Listen(listenAddr, config)
		if err != nil {
			for _, l := range listeners {
				l.Close()
			}
			return nil, err
		}

		go func() {
			if err := rpcserver.Serve(listener, mux, rpcLogger, config); err != nil {
				rpcLogger.Info("RPC HTTP server stopped", "err", err)
			}
		}()
		listeners = append(listeners, listener)
	}

	return listeners, nil
}

// splitAndTrimEmpty slices s into all subslices separated by sep and returns a
// slice of the string s with all leading and trailing Unicode code points
// contained in cutset removed. Empty strings are filtered out.
func splitAndTrimEmpty(s, sep, cutset string) []string {
	if s == "" {
		return []string{}
	}

	spl := strings.Split(s, sep)
	nonEmptyStrings := make([]string, 0, len(spl))
	for i := 0; i < len(spl); i++ {
		element := strings.Trim(spl[i], cutset)
		if element != "" {
			nonEmptyStrings = append(nonEmptyStrings, element)
		}
	}
	return nonEmptyStrings
}
