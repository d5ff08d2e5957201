package epoch

import (
	"epochbft/types"

	"github.com/google/btree"
)

const registryBTreeDegree = 16

// epochBucket 同一个epoch的所有单次订阅，按订阅顺序保存
type epochBucket struct {
	epoch types.Epoch
	subs  []*SingleEpochSubscription
}

func (b *epochBucket) Less(than btree.Item) bool {
	return b.epoch < than.(*epochBucket).epoch
}

// DueSubscriptions 某个epoch到期的单次订阅
type DueSubscriptions struct {
	Epoch         types.Epoch
	Subscriptions []*SingleEpochSubscription
}

// SubscriptionRegistry 保存所有等待发送的订阅
// 只能在scheduler的routine中访问，不加锁
type SubscriptionRegistry struct {
	byEpoch   *btree.BTree
	allEpochs []*AllEpochSubscription

	pending int
}

func NewSubscriptionRegistry() *SubscriptionRegistry {
	return &SubscriptionRegistry{
		byEpoch: btree.New(registryBTreeDegree),
	}
}

// RegisterSingle adds a one-shot subscription for sub.Epoch. Subscriptions
// to the same epoch accumulate in insertion order.
func (r *SubscriptionRegistry) RegisterSingle(sub *SingleEpochSubscription) {
	if item := r.byEpoch.Get(&epochBucket{epoch: sub.Epoch}); item != nil {
		bucket := item.(*epochBucket)
		bucket.subs = append(bucket.subs, sub)
	} else {
		r.byEpoch.ReplaceOrInsert(&epochBucket{
			epoch: sub.Epoch,
			subs:  []*SingleEpochSubscription{sub},
		})
	}
	r.pending++
}

func (r *SubscriptionRegistry) RegisterAll(sub *AllEpochSubscription) {
	r.allEpochs = append(r.allEpochs, sub)
}

// DrainDue removes and returns, in ascending epoch order, all one-shot
// subscriptions whose epoch lies in [from, to].
func (r *SubscriptionRegistry) DrainDue(from, to types.Epoch) []DueSubscriptions {
	if from > to {
		return nil
	}

	var due []DueSubscriptions
	r.byEpoch.AscendGreaterOrEqual(&epochBucket{epoch: from}, func(item btree.Item) bool {
		bucket := item.(*epochBucket)
		if bucket.epoch > to {
			return false
		}
		due = append(due, DueSubscriptions{Epoch: bucket.epoch, Subscriptions: bucket.subs})
		return true
	})

	// 遍历过程中不能修改btree
	for _, d := range due {
		r.byEpoch.Delete(&epochBucket{epoch: d.Epoch})
		r.pending -= len(d.Subscriptions)
	}
	return due
}

// AllEpochSubscribers 返回所有订阅全部epoch的订阅，不会删除
func (r *SubscriptionRegistry) AllEpochSubscribers() []*AllEpochSubscription {
	return r.allEpochs
}

func (r *SubscriptionRegistry) PendingEpochs() int {
	return r.byEpoch.Len()
}

func (r *SubscriptionRegistry) PendingSubscriptions() int {
	return r.pending
}

func (r *SubscriptionRegistry) AllEpochCount() int {
	return len(r.allEpochs)
}
