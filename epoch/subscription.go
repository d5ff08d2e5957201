package epoch

import (
	"epochbft/types"

	"github.com/tendermint/tendermint/libs/events"
)

// EventNewEpoch is the event fired by EventRecipient for every notification.
const EventNewEpoch = "NewEpoch"

// Recipient 通知的接收方
// Receive不能阻塞，失败的通知不会重发
type Recipient interface {
	Receive(notification types.EpochNotification) error
}

// RecipientFunc adapts a function to the Recipient interface.
type RecipientFunc func(types.EpochNotification) error

func (f RecipientFunc) Receive(n types.EpochNotification) error {
	return f(n)
}

// ChanRecipient 以非阻塞的方式将通知写入channel，channel已满时通知被丢弃
type ChanRecipient struct {
	ch chan<- types.EpochNotification
}

func NewChanRecipient(ch chan<- types.EpochNotification) *ChanRecipient {
	return &ChanRecipient{ch: ch}
}

func (cr *ChanRecipient) Receive(n types.EpochNotification) error {
	select {
	case cr.ch <- n:
		return nil
	default:
		return ErrRecipientBusy
	}
}

// EventRecipient fires every notification on an event switch.
type EventRecipient struct {
	fireable events.Fireable
	event    string
}

func NewEventRecipient(fireable events.Fireable, event string) *EventRecipient {
	return &EventRecipient{fireable: fireable, event: event}
}

func (er *EventRecipient) Receive(n types.EpochNotification) error {
	er.fireable.FireEvent(er.event, n)
	return nil
}

// Copier is the payload of an all-epoch subscription. Copy is called once per
// delivery and must return a value that shares no mutable state with the original.
type Copier interface {
	Copy() interface{}
}

// StringPayload is an immutable Copier payload.
type StringPayload string

func (p StringPayload) Copy() interface{} {
	return p
}

// SendableNotification 调度器只通过该接口发送通知，不关心payload的具体类型
type SendableNotification interface {
	SendNotification(epoch types.Epoch) error
}

// SingleEpochSubscription 订阅某一个epoch，只会发送一次
type SingleEpochSubscription struct {
	Epoch     types.Epoch
	Recipient Recipient

	payload  interface{}
	consumed bool
}

func NewSingleEpochSubscription(epoch types.Epoch, recipient Recipient, payload interface{}) *SingleEpochSubscription {
	return &SingleEpochSubscription{
		Epoch:     epoch,
		Recipient: recipient,
		payload:   payload,
	}
}

// SendNotification moves the payload out of the subscription and sends it.
// A consumed subscription returns ErrPayloadConsumed.
func (sub *SingleEpochSubscription) SendNotification(epoch types.Epoch) error {
	if sub.consumed {
		return ErrPayloadConsumed
	}
	payload := sub.payload
	sub.payload = nil
	sub.consumed = true

	return sub.Recipient.Receive(types.EpochNotification{
		Checkpoint: epoch,
		Payload:    payload,
	})
}

func (sub *SingleEpochSubscription) Consumed() bool {
	return sub.consumed
}

// AllEpochSubscription 订阅所有的epoch，每次触发都会复制一份payload发送
// payload为nil时发送的通知不带payload
type AllEpochSubscription struct {
	Recipient Recipient

	payload Copier
}

func NewAllEpochSubscription(recipient Recipient, payload Copier) *AllEpochSubscription {
	return &AllEpochSubscription{
		Recipient: recipient,
		payload:   payload,
	}
}

func (sub *AllEpochSubscription) SendNotification(epoch types.Epoch) error {
	var payload interface{}
	if sub.payload != nil {
		payload = sub.payload.Copy()
	}

	return sub.Recipient.Receive(types.EpochNotification{
		Checkpoint: epoch,
		Payload:    payload,
	})
}

var (
	_ SendableNotification = (*SingleEpochSubscription)(nil)
	_ SendableNotification = (*AllEpochSubscription)(nil)
)
