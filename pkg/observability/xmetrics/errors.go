package xmetrics

import "errors"

// NewOTelObserver 的错误
var (
	// ErrCreateCounter 组件计数器（telelog.component.total / active）创建失败
	ErrCreateCounter = errors.New("xmetrics: create component counter failed")
	// ErrCreateHistogram 耗时直方图创建失败
	ErrCreateHistogram = errors.New("xmetrics: create duration histogram failed")
	// ErrInvalidBuckets 直方图桶边界不是严格递增
	ErrInvalidBuckets = errors.New("xmetrics: invalid duration buckets")
	// ErrNilOption 传入了 nil Option
	ErrNilOption = errors.New("xmetrics: nil option")
)
