package metric

// MetricItem 每个模块对外暴露的metric，以JSON字符串的形式读取
// JSONString需要支持并发调用
type MetricItem interface {
	JSONString() string
}

// MetricItemFunc adapts a function to the MetricItem interface.
type MetricItemFunc func() string

func (f MetricItemFunc) JSONString() string {
	return f()
}
