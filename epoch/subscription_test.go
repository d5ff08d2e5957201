package epoch

import (
	"epochbft/types"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/events"
)

type copyPayload struct {
	copies int
	seq    int
}

func (p *copyPayload) Copy() interface{} {
	p.copies++
	return &copyPayload{seq: p.copies}
}

func TestSingleEpochSubscriptionDeliversOnce(t *testing.T) {
	ch := make(chan types.EpochNotification, 2)
	sub := NewSingleEpochSubscription(3, NewChanRecipient(ch), "payload")

	require.NoError(t, sub.SendNotification(3))
	assert.True(t, sub.Consumed())
	assert.Equal(t, types.EpochNotification{Checkpoint: 3, Payload: "payload"}, <-ch)

	assert.Equal(t, ErrPayloadConsumed, sub.SendNotification(3))
	assert.Len(t, ch, 0)
}

func TestSingleEpochSubscriptionConsumedOnFailure(t *testing.T) {
	failure := errors.New("recipient gone")
	sub := NewSingleEpochSubscription(3, RecipientFunc(func(types.EpochNotification) error {
		return failure
	}), "payload")

	assert.Equal(t, failure, sub.SendNotification(3))
	// 发送失败也不会重发
	assert.Equal(t, ErrPayloadConsumed, sub.SendNotification(3))
}

func TestAllEpochSubscriptionCopiesPayload(t *testing.T) {
	ch := make(chan types.EpochNotification, 3)
	payload := &copyPayload{}
	sub := NewAllEpochSubscription(NewChanRecipient(ch), payload)

	for e := types.Epoch(6); e < 9; e++ {
		require.NoError(t, sub.SendNotification(e))
	}

	assert.Equal(t, 3, payload.copies)
	for i := 1; i <= 3; i++ {
		n := <-ch
		assert.Equal(t, types.Epoch(5+i), n.Checkpoint)
		got := n.Payload.(*copyPayload)
		assert.NotSame(t, payload, got)
		assert.Equal(t, i, got.seq)
	}
}

// counterPayload 复制时生成新的map
type counterPayload map[string]int

func (p counterPayload) Copy() interface{} {
	cp := make(counterPayload, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// 接收方修改payload不会影响之后的通知
func TestAllEpochSubscriptionMutatedPayloadIsolated(t *testing.T) {
	registered := counterPayload{"n": 0}
	var seen []int
	sub := NewAllEpochSubscription(RecipientFunc(func(n types.EpochNotification) error {
		m := n.Payload.(counterPayload)
		seen = append(seen, m["n"])
		m["n"]++
		return nil
	}), registered)

	require.NoError(t, sub.SendNotification(1))
	require.NoError(t, sub.SendNotification(2))

	assert.Equal(t, []int{0, 0}, seen)
	assert.Equal(t, counterPayload{"n": 0}, registered)
}

func TestAllEpochSubscriptionStringPayload(t *testing.T) {
	ch := make(chan types.EpochNotification, 2)
	sub := NewAllEpochSubscription(NewChanRecipient(ch), StringPayload("all"))

	require.NoError(t, sub.SendNotification(1))
	require.NoError(t, sub.SendNotification(2))
	assert.Equal(t, StringPayload("all"), (<-ch).Payload)
	assert.Equal(t, StringPayload("all"), (<-ch).Payload)
}

func TestAllEpochSubscriptionNilPayload(t *testing.T) {
	ch := make(chan types.EpochNotification, 1)
	sub := NewAllEpochSubscription(NewChanRecipient(ch), nil)

	require.NoError(t, sub.SendNotification(4))
	assert.Equal(t, types.EpochNotification{Checkpoint: 4}, <-ch)
}

func TestChanRecipientBusy(t *testing.T) {
	ch := make(chan types.EpochNotification, 1)
	r := NewChanRecipient(ch)

	require.NoError(t, r.Receive(types.EpochNotification{Checkpoint: 1}))
	assert.Equal(t, ErrRecipientBusy, r.Receive(types.EpochNotification{Checkpoint: 2}))
	assert.Equal(t, types.Epoch(1), (<-ch).Checkpoint)
}

func TestEventRecipient(t *testing.T) {
	evsw := events.NewEventSwitch()
	require.NoError(t, evsw.Start())
	defer evsw.Stop() //nolint:errcheck

	received := make(chan types.EpochNotification, 1)
	err := evsw.AddListenerForEvent("test", EventNewEpoch, func(data events.EventData) {
		received <- data.(types.EpochNotification)
	})
	require.NoError(t, err)

	r := NewEventRecipient(evsw, EventNewEpoch)
	require.NoError(t, r.Receive(types.EpochNotification{Checkpoint: 9, Payload: "node"}))
	assert.Equal(t, types.EpochNotification{Checkpoint: 9, Payload: "node"}, <-received)
}
