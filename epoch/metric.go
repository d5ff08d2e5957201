package epoch

import (
	"epochbft/types"

	jsoniter "github.com/json-iterator/go"
	metrics "github.com/rcrowley/go-metrics"
)

// MetricLabel is the label the scheduler metric is registered under in a MetricSet.
const MetricLabel = "epoch"

func newSchedulerMetric() *schedulerMetric {
	r := metrics.NewRegistry()
	sm := &schedulerMetric{
		registry:             r,
		checkpointZero:       metrics.NewRegisteredGauge("checkpoint_zero", r),
		period:               metrics.NewRegisteredGauge("checkpoints_period", r),
		currentEpoch:         metrics.NewRegisteredGauge("current_epoch", r),
		lastCheckedEpoch:     metrics.NewRegisteredGauge("last_checked_epoch", r),
		pendingEpochs:        metrics.NewRegisteredGauge("pending_epochs", r),
		pendingSubscriptions: metrics.NewRegisteredGauge("pending_subscriptions", r),
		allEpochSubscribers:  metrics.NewRegisteredGauge("all_epoch_subscribers", r),
		firings:              metrics.NewRegisteredCounter("firings", r),
		aborted:              metrics.NewRegisteredCounter("aborted", r),
		delivered:            metrics.NewRegisteredCounter("delivered", r),
		dropped:              metrics.NewRegisteredCounter("dropped", r),
	}
	sm.lastCheckedEpoch.Update(-1)
	sm.currentEpoch.Update(-1)
	return sm
}

// schedulerMetric 由scheduler的routine更新，rpc并发读取
// go-metrics的counter和gauge本身是并发安全的
type schedulerMetric struct {
	registry metrics.Registry

	checkpointZero       metrics.Gauge
	period               metrics.Gauge
	currentEpoch         metrics.Gauge
	lastCheckedEpoch     metrics.Gauge
	pendingEpochs        metrics.Gauge
	pendingSubscriptions metrics.Gauge
	allEpochSubscribers  metrics.Gauge

	firings   metrics.Counter
	aborted   metrics.Counter
	delivered metrics.Counter
	dropped   metrics.Counter
}

type schedulerMetricSnapshot struct {
	CheckpointZero       int64 `json:"checkpoint_zero"`
	CheckpointsPeriod    int64 `json:"checkpoints_period"`
	CurrentEpoch         int64 `json:"current_epoch"`
	LastCheckedEpoch     int64 `json:"last_checked_epoch"`
	PendingEpochs        int64 `json:"pending_epochs"`
	PendingSubscriptions int64 `json:"pending_subscriptions"`
	AllEpochSubscribers  int64 `json:"all_epoch_subscribers"`
	Firings              int64 `json:"firings"`
	Aborted              int64 `json:"aborted"`
	Delivered            int64 `json:"delivered"`
	Dropped              int64 `json:"dropped"`
}

func (sm *schedulerMetric) snapshot() schedulerMetricSnapshot {
	return schedulerMetricSnapshot{
		CheckpointZero:       sm.checkpointZero.Value(),
		CheckpointsPeriod:    sm.period.Value(),
		CurrentEpoch:         sm.currentEpoch.Value(),
		LastCheckedEpoch:     sm.lastCheckedEpoch.Value(),
		PendingEpochs:        sm.pendingEpochs.Value(),
		PendingSubscriptions: sm.pendingSubscriptions.Value(),
		AllEpochSubscribers:  sm.allEpochSubscribers.Value(),
		Firings:              sm.firings.Count(),
		Aborted:              sm.aborted.Count(),
		Delivered:            sm.delivered.Count(),
		Dropped:              sm.dropped.Count(),
	}
}

func (sm *schedulerMetric) JSONString() string {
	s, _ := jsoniter.MarshalToString(sm.snapshot())
	return s
}

func (sm *schedulerMetric) MarkConfig(zero int64, period uint16) {
	sm.checkpointZero.Update(zero)
	sm.period.Update(int64(period))
}

func (sm *schedulerMetric) MarkCurrentEpoch(epoch types.Epoch) {
	sm.currentEpoch.Update(epoch.Int64())
}

func (sm *schedulerMetric) MarkLastCheckedEpoch(epoch types.Epoch) {
	sm.lastCheckedEpoch.Update(epoch.Int64())
}

func (sm *schedulerMetric) MarkRegistry(r *SubscriptionRegistry) {
	sm.pendingEpochs.Update(int64(r.PendingEpochs()))
	sm.pendingSubscriptions.Update(int64(r.PendingSubscriptions()))
	sm.allEpochSubscribers.Update(int64(r.AllEpochCount()))
}

// MarkFiring 记录一次定时器触发，err不为空表示这次检查被放弃
func (sm *schedulerMetric) MarkFiring(err error) {
	sm.firings.Inc(1)
	if err != nil {
		sm.aborted.Inc(1)
	}
}

// MarkDelivery 记录一次通知的发送结果，失败的通知只计数
func (sm *schedulerMetric) MarkDelivery(err error) {
	if err != nil {
		sm.dropped.Inc(1)
		return
	}
	sm.delivered.Inc(1)
}
