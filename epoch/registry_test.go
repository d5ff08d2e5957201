package epoch

import (
	"epochbft/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopRecipient() Recipient {
	return RecipientFunc(func(types.EpochNotification) error { return nil })
}

func registerSingles(r *SubscriptionRegistry, epochs ...types.Epoch) {
	for _, e := range epochs {
		r.RegisterSingle(NewSingleEpochSubscription(e, nopRecipient(), e))
	}
}

func dueEpochs(due []DueSubscriptions) []types.Epoch {
	epochs := make([]types.Epoch, 0, len(due))
	for _, d := range due {
		epochs = append(epochs, d.Epoch)
	}
	return epochs
}

func TestRegistryDrainDueInOrder(t *testing.T) {
	r := NewSubscriptionRegistry()
	registerSingles(r, 5, 3, 9, 4, 1)
	assert.Equal(t, 5, r.PendingEpochs())
	assert.Equal(t, 5, r.PendingSubscriptions())

	due := r.DrainDue(3, 5)
	assert.Equal(t, []types.Epoch{3, 4, 5}, dueEpochs(due))
	assert.Equal(t, 2, r.PendingEpochs())

	// 已经取出的不会再次返回
	assert.Empty(t, r.DrainDue(3, 5))

	due = r.DrainDue(0, types.MaxEpoch)
	assert.Equal(t, []types.Epoch{1, 9}, dueEpochs(due))
	assert.Equal(t, 0, r.PendingEpochs())
	assert.Equal(t, 0, r.PendingSubscriptions())
}

func TestRegistrySameEpochAccumulates(t *testing.T) {
	r := NewSubscriptionRegistry()
	first := NewSingleEpochSubscription(7, nopRecipient(), "first")
	second := NewSingleEpochSubscription(7, nopRecipient(), "second")
	r.RegisterSingle(first)
	r.RegisterSingle(second)
	r.RegisterSingle(first)

	assert.Equal(t, 1, r.PendingEpochs())
	assert.Equal(t, 3, r.PendingSubscriptions())

	due := r.DrainDue(7, 7)
	require.Len(t, due, 1)
	assert.Equal(t, []*SingleEpochSubscription{first, second, first}, due[0].Subscriptions)
}

func TestRegistryDrainDueBounds(t *testing.T) {
	r := NewSubscriptionRegistry()
	registerSingles(r, 0, types.MaxEpoch)

	assert.Nil(t, r.DrainDue(5, 4), "from > to")
	assert.Equal(t, []types.Epoch{types.MaxEpoch}, dueEpochs(r.DrainDue(types.MaxEpoch, types.MaxEpoch)))
	assert.Equal(t, []types.Epoch{0}, dueEpochs(r.DrainDue(0, 0)))
}

func TestRegistryAllEpochSubscribers(t *testing.T) {
	r := NewSubscriptionRegistry()
	assert.Empty(t, r.AllEpochSubscribers())

	a := NewAllEpochSubscription(nopRecipient(), StringPayload("a"))
	b := NewAllEpochSubscription(nopRecipient(), StringPayload("b"))
	r.RegisterAll(a)
	r.RegisterAll(b)

	// 读取不会删除
	assert.Len(t, r.AllEpochSubscribers(), 2)
	assert.Len(t, r.AllEpochSubscribers(), 2)
	assert.Equal(t, 2, r.AllEpochCount())
	assert.Empty(t, r.DrainDue(0, types.MaxEpoch))
}
