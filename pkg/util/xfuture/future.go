package xfuture

import (
	"context"
	"sync"
)

// closedCh 供无效 Future 的 Done 使用。
var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Future 是一次性结果的读端。
type Future struct {
	done  chan struct{}
	err   error
	valid bool
}

// Promise 是 Future 的写端。
type Promise struct {
	f    *Future
	once sync.Once
}

// NewPromise 创建一对关联的 Promise 与 Future。
func NewPromise() (*Promise, *Future) {
	f := &Future{done: make(chan struct{}), valid: true}
	return &Promise{f: f}, f
}

// Invalid 返回无效 Future。
func Invalid() *Future {
	return &Future{done: closedCh}
}

// Rejected 返回已经以 err 完成的有效 Future。
func Rejected(err error) *Future {
	return &Future{done: closedCh, err: err, valid: true}
}

// Resolve 以 err 完成 Future，err 为 nil 表示成功。
// 只有第一次调用生效，返回值报告本次调用是否生效。
func (p *Promise) Resolve(err error) bool {
	resolved := false
	p.once.Do(func() {
		p.f.err = err
		close(p.f.done)
		resolved = true
	})
	return resolved
}

// Future 返回关联的读端。
func (p *Promise) Future() *Future {
	return p.f
}

// Valid 报告 f 是否关联了任务。
func (f *Future) Valid() bool {
	return f != nil && f.valid
}

// Done 返回完成时关闭的 channel。无效 Future 返回已关闭的 channel。
func (f *Future) Done() <-chan struct{} {
	if f == nil || f.done == nil {
		return closedCh
	}
	return f.done
}

// Wait 阻塞直到完成并返回任务结果。无效 Future 立即返回 nil。
func (f *Future) Wait() error {
	if !f.Valid() {
		return nil
	}
	<-f.done
	return f.err
}

// WaitContext 与 Wait 相同，但 ctx 结束时返回 ctx.Err()。
func (f *Future) WaitContext(ctx context.Context) error {
	if !f.Valid() {
		return nil
	}
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err 非阻塞地返回结果：未完成时返回 [ErrPending]，无效 Future 返回 nil。
func (f *Future) Err() error {
	if !f.Valid() {
		return nil
	}
	select {
	case <-f.done:
		return f.err
	default:
		return ErrPending
	}
}
