package xpool

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option 定义 Pool 可选配置函数类型。
type Option func(*options)

type options struct {
	logger         *slog.Logger
	name           string
	mode           Mode
	workers        int
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

func defaultOptions() options {
	return options{
		logger:         slog.Default(),
		mode:           ModePerCore,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
}

// WithLogger 设置自定义日志记录器。
// 默认使用 slog.Default()。传入 nil 将被忽略，保持使用默认值。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 pool 名称，用于在多实例场景下区分日志来源。
// 默认为空字符串（日志中不包含名称）。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithMode 设置 worker 的分配方式，默认 ModePerCore。
func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithWorkers 显式指定 worker 数量，0 表示按模式自动确定。
// 按物理核模式下仍按核掩码表轮转绑定。
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithTracerProvider 设置 TracerProvider，默认全局 provider。nil 被忽略。
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *options) {
		if provider != nil {
			o.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider，默认全局 provider。nil 被忽略。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) {
		if provider != nil {
			o.meterProvider = provider
		}
	}
}
