package types

import (
	"fmt"
	"math"
)

// Epoch 离散的epoch序号，由物理时间和checkpoint周期计算得到
type Epoch uint32

const (
	EpochZero = Epoch(0)
	MaxEpoch  = Epoch(math.MaxUint32)
)

// CheckedAdd 返回 e+delta，溢出时ok为false
func (e Epoch) CheckedAdd(delta uint32) (Epoch, bool) {
	if uint64(e)+uint64(delta) > uint64(MaxEpoch) {
		return e, false
	}
	return e + Epoch(delta), true
}

func (e Epoch) Int64() int64 {
	return int64(e)
}

func (e Epoch) String() string {
	return fmt.Sprintf("#%d", uint32(e))
}

// EpochNotification 发送给订阅方的通知
// Checkpoint为触发通知的epoch，Payload由订阅方在订阅时给出
type EpochNotification struct {
	Checkpoint Epoch       `json:"checkpoint"`
	Payload    interface{} `json:"payload"`
}

func (en EpochNotification) String() string {
	return fmt.Sprintf("EpochNotification{%v %v}", en.Checkpoint, en.Payload)
}
