package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockMetricItem(name string) MetricItem {
	return MetricItemFunc(func() string { return `{"name":"` + name + `"}` })
}

func newTestMetric() *MetricSet {
	m := NewMetricSet()
	m.metrics["TEST"] = mockMetricItem("TEST")
	return m
}

func TestMetricSet_HasMetrics(t *testing.T) {
	metric := newTestMetric()

	assert.True(t, metric.HasMetrics("TEST"), "should contain label(TEST)")
	assert.False(t, metric.HasMetrics("FTEST"), "shouldn't contain label(FTEST)")
}

func TestMetricSet_SetMetrics(t *testing.T) {
	metric := newTestMetric()

	item := mockMetricItem("TEST")
	assert.Equal(t, ErrMetricLabelExist, metric.SetMetrics("TEST", item), "label(TEST)不应该设置成功")
	assert.NoError(t, metric.SetMetrics("TEST1", item), "label(TEST1)应该设置成功")

	assert.True(t, metric.HasMetrics("TEST"))
	assert.True(t, metric.HasMetrics("TEST1"))
	assert.Nil(t, metric.GetMetrics("NONE"))
}

func TestMetricSet_GetAllLabels(t *testing.T) {
	metric := newTestMetric()
	require.NoError(t, metric.SetMetrics("A", mockMetricItem("A")))

	assert.Equal(t, []string{"A", "TEST"}, metric.GetAllLabels())
}

func TestMetricSet_JSONMetrics(t *testing.T) {
	metric := newTestMetric()
	require.NoError(t, metric.SetMetrics("epoch", mockMetricItem("epoch")))

	all, err := metric.JSONMetrics()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, `{"name":"epoch"}`, all["epoch"])

	one, err := metric.JSONMetrics("TEST")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"TEST": `{"name":"TEST"}`}, one)

	_, err = metric.JSONMetrics("missing")
	assert.Equal(t, ErrMetricNotFound, err)
}
