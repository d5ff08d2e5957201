package epoch

import (
	"epochbft/types"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	// MinCheckpointsPeriod checkpoint周期的最小值（秒）
	MinCheckpointsPeriod = uint16(1)

	nanosPerSecond = int64(time.Second)
)

// EpochClock 负责物理时间和epoch之间的换算
// 配置只能设置一次，设置之后不可更改
type EpochClock struct {
	// checkpoint #0 的时间戳（epoch #0开始的那一秒）
	checkpointZero *int64

	// checkpoint之间的间隔，单位秒
	period *uint16

	timeSource clock.Clock
	logger     log.Logger
}

// NewEpochClock returns an unconfigured clock reading the time from timeSource.
// A nil timeSource uses the system clock.
func NewEpochClock(timeSource clock.Clock) *EpochClock {
	if timeSource == nil {
		timeSource = clock.New()
	}
	return &EpochClock{
		timeSource: timeSource,
		logger:     log.NewNopLogger(),
	}
}

func (ec *EpochClock) SetLogger(logger log.Logger) {
	ec.logger = logger
}

// Configure sets the checkpoint zero timestamp and the checkpoints period.
// A period of 0 is raised to MinCheckpointsPeriod.
func (ec *EpochClock) Configure(checkpointZero int64, period uint16) error {
	if ec.IsConfigured() {
		return ErrAlreadyConfigured
	}
	ec.setCheckpointZero(checkpointZero)
	ec.setPeriod(period)
	return nil
}

func (ec *EpochClock) setCheckpointZero(timestamp int64) {
	ec.checkpointZero = &timestamp
}

func (ec *EpochClock) setPeriod(period uint16) {
	if period < MinCheckpointsPeriod {
		ec.logger.Info("Setting the checkpoint period to the minimum value", "period", MinCheckpointsPeriod)
		period = MinCheckpointsPeriod
	}
	ec.period = &period
}

func (ec *EpochClock) IsConfigured() bool {
	return ec.checkpointZero != nil && ec.period != nil
}

func (ec *EpochClock) CheckpointZero() (int64, error) {
	if ec.checkpointZero == nil {
		return 0, ErrUnknownEpochZero
	}
	return *ec.checkpointZero, nil
}

func (ec *EpochClock) Period() (uint16, error) {
	if ec.period == nil {
		return 0, ErrUnknownCheckpointPeriod
	}
	return *ec.period, nil
}

func (ec *EpochClock) config() (int64, uint16, error) {
	zero, err := ec.CheckpointZero()
	if err != nil {
		return 0, 0, err
	}
	period, err := ec.Period()
	if err != nil {
		return 0, 0, err
	}
	return zero, period, nil
}

// EpochAt 计算timestamp所在的epoch
func (ec *EpochClock) EpochAt(timestamp int64) (types.Epoch, error) {
	zero, period, err := ec.config()
	if err != nil {
		return types.EpochZero, err
	}
	if timestamp < zero {
		return types.EpochZero, ErrCheckpointZeroInTheFuture{Zero: zero}
	}

	// timestamp >= zero，差值为负说明int64溢出
	elapsed := timestamp - zero
	if elapsed < 0 {
		return types.EpochZero, ErrOverflow
	}

	epoch := elapsed / int64(period)
	if epoch > int64(types.MaxEpoch) {
		return types.EpochZero, ErrOverflow
	}
	return types.Epoch(epoch), nil
}

// CurrentEpoch 计算当前所在的epoch
func (ec *EpochClock) CurrentEpoch() (types.Epoch, error) {
	return ec.EpochAt(ec.timeSource.Now().Unix())
}

// EpochTimestamp 计算epoch开始的时间戳: period * epoch + zero
func (ec *EpochClock) EpochTimestamp(epoch types.Epoch) (int64, error) {
	zero, period, err := ec.config()
	if err != nil {
		return 0, err
	}

	// 乘法在epoch的位宽内检查溢出
	product := uint64(period) * uint64(epoch)
	if product > uint64(types.MaxEpoch) {
		return 0, ErrOverflow
	}

	offset := int64(product)
	if zero > 0 && offset > math.MaxInt64-zero {
		return 0, ErrOverflow
	}
	return offset + zero, nil
}

// TimeToNextCheckpoint returns the time remaining until the next checkpoint.
// The sub-second part is rounded up into the following second so the timer
// never fires before the boundary.
func (ec *EpochClock) TimeToNextCheckpoint() (time.Duration, error) {
	now := ec.timeSource.Now()
	nowSecs, nowNanos := now.Unix(), int64(now.Nanosecond())

	current, err := ec.EpochAt(nowSecs)
	if err != nil {
		return 0, err
	}
	next, ok := current.CheckedAdd(1)
	if !ok {
		return 0, ErrOverflow
	}
	nextCheckpoint, err := ec.EpochTimestamp(next)
	if err != nil {
		return 0, err
	}

	// 正常情况下不会为负
	secs := nextCheckpoint - nowSecs
	if secs < 0 {
		return 0, ErrOverflow
	}

	return time.Duration(secs)*time.Second + time.Duration(nanosPerSecond-nowNanos), nil
}
