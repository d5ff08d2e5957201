package mock

import (
	"epochbft/epoch"
	"epochbft/types"
	"sync"
)

// Recipient records every notification it receives, useful for testing.
type Recipient struct {
	mtx           sync.Mutex
	notifications []types.EpochNotification
	received      chan types.EpochNotification
	err           error
}

var _ epoch.Recipient = (*Recipient)(nil)

// NewRecipient returns a Recipient whose Received channel buffers up to size notifications.
func NewRecipient(size int) *Recipient {
	return &Recipient{received: make(chan types.EpochNotification, size)}
}

// FailWith makes every following Receive return err without recording.
func (r *Recipient) FailWith(err error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.err = err
}

func (r *Recipient) Receive(n types.EpochNotification) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.err != nil {
		return r.err
	}
	r.notifications = append(r.notifications, n)
	select {
	case r.received <- n:
	default:
	}
	return nil
}

func (r *Recipient) Received() <-chan types.EpochNotification {
	return r.received
}

func (r *Recipient) Notifications() []types.EpochNotification {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]types.EpochNotification(nil), r.notifications...)
}
