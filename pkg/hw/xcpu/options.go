package xcpu

import (
	"fmt"
	"log/slog"
	"runtime"
	"slices"

	"github.com/omeyang/xaffinity/pkg/hw/xtopo"
)

// Option 定义 Discover/New 的可选配置。
type Option func(*options)

type options struct {
	logger     *slog.Logger
	pinner     Pinner
	leafSource func(cpu int) xtopo.LeafReader
	// cpus 为 nil 时探测进程亲和性掩码允许的 CPU。
	cpus []int
}

func defaultOptions() options {
	return options{
		logger:     slog.Default(),
		pinner:     DefaultPinner(),
		leafSource: func(int) xtopo.LeafReader { return xtopo.CPUID },
	}
}

// WithLogger 设置日志记录器。默认 slog.Default()，nil 被忽略。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPinner 替换线程绑定实现。nil 被忽略。
func WithPinner(p Pinner) Option {
	return func(o *options) {
		if p != nil {
			o.pinner = p
		}
	}
}

// WithLeafSource 设置每个逻辑 CPU 上使用的 LeafReader。
// 默认所有 CPU 都使用 xtopo.CPUID，由线程绑定保证指令在对应 CPU 上执行。
// nil 被忽略。
func WithLeafSource(fn func(cpu int) xtopo.LeafReader) Option {
	return func(o *options) {
		if fn != nil {
			o.leafSource = fn
		}
	}
}

// WithLogicalCPUs 只探测逻辑 CPU 0..n-1。n <= 0 时 Discover 返回 [ErrInvalidCPUCount]。
func WithLogicalCPUs(n int) Option {
	return func(o *options) {
		o.cpus = denseCPUs(max(n, 0))
	}
}

// WithCPUs 只探测给定编号的逻辑 CPU。重复编号被合并；为空时 Discover
// 返回 [ErrInvalidCPUCount]。
func WithCPUs(cpus ...int) Option {
	return func(o *options) {
		o.cpus = slices.Clone(cpus)
		if o.cpus == nil {
			o.cpus = []int{}
		}
	}
}

// probeCPUs 返回升序去重后的待探测 CPU 编号。
func (o options) probeCPUs() ([]int, error) {
	cpus := o.cpus
	if cpus == nil {
		allowed, err := allowedCPUs()
		if err != nil {
			o.logger.Warn("xcpu: affinity mask unavailable, assuming dense cpu ids",
				slog.Any("error", err),
			)
			allowed = denseCPUs(runtime.NumCPU())
		}
		cpus = allowed
	}
	cpus = slices.Clone(cpus)
	slices.Sort(cpus)
	cpus = slices.Compact(cpus)
	if len(cpus) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCPUCount, 0)
	}
	if cpus[0] < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCPU, cpus[0])
	}
	return cpus, nil
}

// denseCPUs 返回 0..n-1。
func denseCPUs(n int) []int {
	cpus := make([]int, n)
	for i := range cpus {
		cpus[i] = i
	}
	return cpus
}
