package epoch

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownEpochZero is returned before the checkpoint zero timestamp is configured
	ErrUnknownEpochZero = errors.New("epoch zero time is unknown")
	// ErrUnknownCheckpointPeriod is returned before the checkpoint period is configured
	ErrUnknownCheckpointPeriod = errors.New("checkpoint period is unknown")
	// ErrOverflow 计算epoch或timestamp时溢出
	ErrOverflow = errors.New("overflow when calculating the epoch timestamp")

	// ErrPayloadConsumed 单次订阅的payload已经发送过
	ErrPayloadConsumed = errors.New("no payload to be sent back to the subscriber")
	// ErrRecipientBusy 订阅方的channel已满，通知被丢弃
	ErrRecipientBusy = errors.New("recipient channel is full")
	// ErrAlreadyConfigured 配置只能设置一次
	ErrAlreadyConfigured = errors.New("epoch clock is already configured")
)

// ErrCheckpointZeroInTheFuture 查询的时间早于checkpoint zero
type ErrCheckpointZeroInTheFuture struct {
	Zero int64
}

func (e ErrCheckpointZeroInTheFuture) Error() string {
	return fmt.Sprintf("checkpoint zero is in the future (zero timestamp: %d)", e.Zero)
}

// ErrSchedulerStopped is returned by requests sent to a stopped scheduler.
var ErrSchedulerStopped = errors.New("checkpoint scheduler is stopped")
