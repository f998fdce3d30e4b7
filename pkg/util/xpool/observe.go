package xpool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/omeyang/xaffinity/pkg/util/xpool"

	spanTask           = "xaffinity.task"
	metricTaskTotal    = "xaffinity.task.total"
	metricTaskDuration = "xaffinity.task.duration"
	statusOK           = "ok"
	statusPanic        = "panic"
	statusError        = "error"
	attrPoolID         = "pool.id"
	attrPoolName       = "pool.name"
	attrWorker         = "worker"
	attrStatus         = "status"
)

// observer 为每次任务执行创建 span 并记录次数与耗时。
type observer struct {
	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
	base     []attribute.KeyValue
}

func newObserver(o options, poolID string) (*observer, error) {
	meter := o.meterProvider.Meter(instrumentationName)

	total, err := meter.Int64Counter(
		metricTaskTotal,
		metric.WithDescription("tasks executed by pool workers"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xpool: create counter failed: %w", err)
	}

	duration, err := meter.Float64Histogram(
		metricTaskDuration,
		metric.WithDescription("task execution time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("xpool: create histogram failed: %w", err)
	}

	return &observer{
		tracer:   o.tracerProvider.Tracer(instrumentationName),
		total:    total,
		duration: duration,
		base: []attribute.KeyValue{
			attribute.String(attrPoolID, poolID),
			attribute.String(attrPoolName, o.name),
		},
	}, nil
}

// taskSpan 是一次任务执行的观测。
type taskSpan struct {
	obs    *observer
	ctx    context.Context
	span   trace.Span
	worker int
	start  time.Time
}

func (o *observer) start(worker int) taskSpan {
	ctx, span := o.tracer.Start(context.Background(), spanTask,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(o.base...),
		trace.WithAttributes(attribute.Int(attrWorker, worker)),
	)
	return taskSpan{obs: o, ctx: ctx, span: span, worker: worker, start: time.Now()}
}

// end 结束 span 并记录指标。err 为任务结果。
func (s taskSpan) end(err error) {
	status := statusOK
	if err != nil {
		status = statusPanic
		if !errors.Is(err, ErrTaskPanic) {
			status = statusError
		}
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()

	attrs := make([]attribute.KeyValue, 0, len(s.obs.base)+1)
	attrs = append(attrs, s.obs.base...)
	attrs = append(attrs, attribute.String(attrStatus, status))
	opt := metric.WithAttributes(attrs...)
	s.obs.total.Add(s.ctx, 1, opt)
	s.obs.duration.Record(s.ctx, time.Since(s.start).Seconds(), opt)
}
