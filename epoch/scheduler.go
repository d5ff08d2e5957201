package epoch

import (
	"context"
	"epochbft/libs/metric"
	"epochbft/types"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/service"
)

const (
	msgQueueSize = 1000
)

// CheckpointScheduler 在每个epoch边界触发，向订阅方发送通知
//
// 状态: Unconfigured -> Armed -> Firing -> Armed ...
// 配置、订阅和查询都以消息的形式进入receiveRoutine，所有状态只在该routine中修改
type CheckpointScheduler struct {
	service.BaseService

	clock      *EpochClock
	timeSource clock.Clock
	registry   *SubscriptionRegistry

	// checkpoint monitor上一次检查的epoch
	lastCheckedEpoch *types.Epoch

	// 未配置时为nil
	timer *clock.Timer

	msgQueue chan interface{}

	metric *schedulerMetric
}

type SchedulerOption func(*CheckpointScheduler)

// SetTimeSource replaces the system clock, mainly for tests.
func SetTimeSource(timeSource clock.Clock) SchedulerOption {
	return func(s *CheckpointScheduler) {
		s.timeSource = timeSource
		s.clock = NewEpochClock(timeSource)
	}
}

func NewCheckpointScheduler(options ...SchedulerOption) *CheckpointScheduler {
	timeSource := clock.New()
	s := &CheckpointScheduler{
		clock:      NewEpochClock(timeSource),
		timeSource: timeSource,
		registry:   NewSubscriptionRegistry(),
		msgQueue:   make(chan interface{}, msgQueueSize),
		metric:     newSchedulerMetric(),
	}
	s.BaseService = *service.NewBaseService(nil, "EPOCH", s)

	for _, opt := range options {
		opt(s)
	}

	return s
}

func (s *CheckpointScheduler) SetLogger(logger log.Logger) {
	s.Logger = logger
	s.clock.SetLogger(logger)
}

func (s *CheckpointScheduler) OnStart() error {
	go s.receiveRoutine()
	s.Logger.Info("checkpoint scheduler started.")
	return nil
}

func (s *CheckpointScheduler) OnStop() {
	s.Logger.Info("checkpoint scheduler stopped.")
}

// Metric returns the scheduler metric, safe for concurrent reads.
func (s *CheckpointScheduler) Metric() metric.MetricItem {
	return s.metric
}

// ----- public api -----

// Configure sets the checkpoint zero timestamp and period and arms the
// checkpoint monitor. Only the first configuration is accepted.
func (s *CheckpointScheduler) Configure(ctx context.Context, checkpointZero int64, period uint16) error {
	msg := &configMsg{
		checkpointZero: checkpointZero,
		period:         period,
		result:         make(chan error, 1),
	}
	if err := s.sendBlocking(ctx, msg); err != nil {
		return err
	}

	select {
	case err := <-msg.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.Quit():
		return ErrSchedulerStopped
	}
}

// SubscribeToEpoch 订阅某个epoch，到达该epoch（或者已经过了该epoch）后的第一次触发时发送一次通知
func (s *CheckpointScheduler) SubscribeToEpoch(epoch types.Epoch, recipient Recipient, payload interface{}) {
	s.sendMessage(&subscribeEpochMsg{sub: NewSingleEpochSubscription(epoch, recipient, payload)})
}

// SubscribeToAllEpochs 订阅之后的每一次触发，每次发送payload.Copy()的结果
func (s *CheckpointScheduler) SubscribeToAllEpochs(recipient Recipient, payload Copier) {
	s.sendMessage(&subscribeAllMsg{sub: NewAllEpochSubscription(recipient, payload)})
}

// GetEpoch returns the current epoch.
func (s *CheckpointScheduler) GetEpoch(ctx context.Context) (types.Epoch, error) {
	var (
		epoch types.Epoch
		err   error
	)
	if qerr := s.query(ctx, func(ec *EpochClock) {
		epoch, err = ec.CurrentEpoch()
	}); qerr != nil {
		return types.EpochZero, qerr
	}
	return epoch, err
}

func (s *CheckpointScheduler) EpochAt(ctx context.Context, timestamp int64) (types.Epoch, error) {
	var (
		epoch types.Epoch
		err   error
	)
	if qerr := s.query(ctx, func(ec *EpochClock) {
		epoch, err = ec.EpochAt(timestamp)
	}); qerr != nil {
		return types.EpochZero, qerr
	}
	return epoch, err
}

func (s *CheckpointScheduler) EpochTimestamp(ctx context.Context, epoch types.Epoch) (int64, error) {
	var (
		timestamp int64
		err       error
	)
	if qerr := s.query(ctx, func(ec *EpochClock) {
		timestamp, err = ec.EpochTimestamp(epoch)
	}); qerr != nil {
		return 0, qerr
	}
	return timestamp, err
}

// ----- routine -----

// receiveRoutine 处理所有的消息和定时器事件
func (s *CheckpointScheduler) receiveRoutine() {
	s.Logger.Debug("checkpoint scheduler routine starts.")
	defer func() {
		if s.timer != nil {
			s.timer.Stop()
		}
	}()

	for {
		select {
		case <-s.Quit():
			s.Logger.Info("checkpoint scheduler routine quit.")
			return

		case msg := <-s.msgQueue:
			s.handleMsg(msg)

		case <-s.timerChan():
			s.handleTimeout()
		}
	}
}

func (s *CheckpointScheduler) timerChan() <-chan time.Time {
	if s.timer == nil {
		return nil
	}
	return s.timer.C
}

func (s *CheckpointScheduler) handleMsg(msg interface{}) {
	defer s.metric.MarkRegistry(s.registry)

	switch msg := msg.(type) {
	case *configMsg:
		msg.result <- s.processConfig(msg.checkpointZero, msg.period)
	case *subscribeEpochMsg:
		s.Logger.Debug("subscribe to epoch", "epoch", msg.sub.Epoch)
		if s.lastCheckedEpoch != nil && msg.sub.Epoch < *s.lastCheckedEpoch {
			// 只会补发[lastCheckedEpoch, current]之间的订阅
			s.Logger.Error("subscribed to an epoch older than the last checked epoch",
				"epoch", msg.sub.Epoch, "lastChecked", *s.lastCheckedEpoch)
		}
		s.registry.RegisterSingle(msg.sub)
	case *subscribeAllMsg:
		s.Logger.Debug("subscribe to all epochs")
		s.registry.RegisterAll(msg.sub)
	case *queryMsg:
		msg.fn(s.clock)
		close(msg.done)
	default:
		s.Logger.Error("unknown scheduler message", "msg", msg)
	}
}

// processConfig 设置epoch配置，启动checkpoint monitor
func (s *CheckpointScheduler) processConfig(checkpointZero int64, period uint16) error {
	if err := s.clock.Configure(checkpointZero, period); err != nil {
		s.Logger.Error("ignore epoch configuration", "err", err)
		return err
	}

	// period可能被修正过
	period, _ = s.clock.Period()
	s.Logger.Info("epoch clock configured", "checkpointZero", checkpointZero, "checkpointsPeriod", period)
	s.metric.MarkConfig(checkpointZero, period)

	s.scheduleNextCheckpoint()
	return nil
}

// scheduleNextCheckpoint 设置定时器到下一个checkpoint，计算失败时等待一个完整的周期
func (s *CheckpointScheduler) scheduleNextCheckpoint() {
	after, err := s.clock.TimeToNextCheckpoint()
	if err != nil {
		period, perr := s.clock.Period()
		if perr != nil {
			s.Logger.Error("can not schedule checkpoint monitor", "err", perr)
			return
		}
		after = time.Duration(period) * time.Second
		s.Logger.Error("failed to compute time to next checkpoint, wait a full period", "err", err, "after", after)
	}

	// 旧的timer已经触发过，直接替换
	s.timer = s.timeSource.Timer(after)
	s.Logger.Debug("checkpoint monitor scheduled", "after", after)
}

// handleTimeout 执行checkpoint monitor后重新设置定时器
// 即使这一次检查失败也会重新设置，scheduler不会停止
func (s *CheckpointScheduler) handleTimeout() {
	err := s.checkpointMonitor()
	s.scheduleNextCheckpoint()
	s.metric.MarkFiring(err)
}

// checkpointMonitor 每个checkpoint执行一次
// 对于因为进程被挂起等原因跳过的checkpoint，单次订阅的通知会补发
func (s *CheckpointScheduler) checkpointMonitor() error {
	current, err := s.clock.CurrentEpoch()
	if err != nil {
		s.Logger.Error("failed to get current epoch", "err", err)
		return err
	}
	s.metric.MarkCurrentEpoch(current)

	// 订阅了所有epoch的只通知当前epoch，不补发
	for _, sub := range s.registry.AllEpochSubscribers() {
		s.metric.MarkDelivery(sub.SendNotification(current))
	}

	// [lastCheckedEpoch, current]之间的订阅按epoch升序发送
	from := types.EpochZero
	if s.lastCheckedEpoch != nil {
		from = *s.lastCheckedEpoch
	}
	for _, due := range s.registry.DrainDue(from, current) {
		for _, sub := range due.Subscriptions {
			err := sub.SendNotification(due.Epoch)
			if errors.Is(err, ErrPayloadConsumed) {
				s.Logger.Error("subscription already notified", "epoch", due.Epoch)
			}
			s.metric.MarkDelivery(err)
		}
	}

	s.lastCheckedEpoch = &current
	s.metric.MarkLastCheckedEpoch(current)
	s.metric.MarkRegistry(s.registry)

	s.Logger.Info("We are now in epoch", "epoch", current)
	return nil
}

// ----- messages -----

// sendMessage 不阻塞调用方，队列满时使用goroutine发送
// NOTE: 使用goroutine时订阅的处理顺序可能被打乱
func (s *CheckpointScheduler) sendMessage(msg interface{}) {
	select {
	case s.msgQueue <- msg:
	default:
		s.Logger.Debug("scheduler msg queue is full; using a go-routine")
		go func() {
			select {
			case s.msgQueue <- msg:
			case <-s.Quit():
			}
		}()
	}
}

func (s *CheckpointScheduler) sendBlocking(ctx context.Context, msg interface{}) error {
	select {
	case s.msgQueue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.Quit():
		return ErrSchedulerStopped
	}
}

// query 在receiveRoutine中执行fn
func (s *CheckpointScheduler) query(ctx context.Context, fn func(ec *EpochClock)) error {
	msg := &queryMsg{fn: fn, done: make(chan struct{})}
	if err := s.sendBlocking(ctx, msg); err != nil {
		return err
	}

	select {
	case <-msg.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.Quit():
		return ErrSchedulerStopped
	}
}

type configMsg struct {
	checkpointZero int64
	period         uint16
	result         chan error
}

type subscribeEpochMsg struct {
	sub *SingleEpochSubscription
}

type subscribeAllMsg struct {
	sub *AllEpochSubscription
}

type queryMsg struct {
	fn   func(ec *EpochClock)
	done chan struct{}
}
