package metric

import (
	"github.com/pkg/errors"
	"sort"
	"sync"
)

var (
	ErrMetricLabelExist = errors.New("metric label already exist")
	ErrMetricNotFound   = errors.New("metric label not found")
)

func NewMetricSet() *MetricSet {
	return &MetricSet{
		metrics: make(map[string]MetricItem),
	}
}

// MetricSet 按label保存各个模块的metric
type MetricSet struct {
	mtx     sync.RWMutex
	metrics map[string]MetricItem
}

// SetMetrics 注册label对应的metric，label已经存在时返回ErrMetricLabelExist
func (ms *MetricSet) SetMetrics(label string, item MetricItem) error {
	ms.mtx.Lock()
	defer ms.mtx.Unlock()

	if _, existed := ms.metrics[label]; existed {
		return ErrMetricLabelExist
	}
	ms.metrics[label] = item
	return nil
}

func (ms *MetricSet) HasMetrics(label string) bool {
	ms.mtx.RLock()
	defer ms.mtx.RUnlock()

	_, existed := ms.metrics[label]
	return existed
}

func (ms *MetricSet) GetMetrics(label string) MetricItem {
	ms.mtx.RLock()
	defer ms.mtx.RUnlock()

	return ms.metrics[label]
}

// GetAllLabels returns the registered labels in sorted order.
func (ms *MetricSet) GetAllLabels() []string {
	ms.mtx.RLock()
	labels := make([]string, 0, len(ms.metrics))
	for label := range ms.metrics {
		labels = append(labels, label)
	}
	ms.mtx.RUnlock()

	sort.Strings(labels)
	return labels
}

// JSONMetrics 返回labels对应metric的JSON字符串，labels为空时返回所有metric
func (ms *MetricSet) JSONMetrics(labels ...string) (map[string]string, error) {
	if len(labels) == 0 {
		labels = ms.GetAllLabels()
	}

	result := make(map[string]string, len(labels))
	for _, label := range labels {
		item := ms.GetMetrics(label)
		if item == nil {
			return nil, ErrMetricNotFound
		}
		result[label] = item.JSONString()
	}
	return result, nil
}
