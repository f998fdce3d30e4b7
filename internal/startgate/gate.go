// Package startgate 提供一次性的启动屏障。
//
// 典型用法：控制方创建 N 个 goroutine，每个 goroutine 完成准备工作后调用
// ArriveAndWait；控制方通过 AwaitArrivals 确认全部到达，做完需要所有参与方
// 就位才能执行的操作（如按线程 ID 设置亲和性），再调用 Open 一次性放行。
// 放行通过关闭 channel 实现，所有等待方同时被唤醒。
package startgate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrOverArrival 表示到达次数超过了创建时声明的参与方数量。
var ErrOverArrival = errors.New("startgate: more arrivals than parties")

// Gate 是一次性的启动屏障，不可复用。
type Gate struct {
	parties  int
	arrived  atomic.Int64
	allIn    chan struct{}
	open     chan struct{}
	openOnce sync.Once
}

// New 创建等待 parties 个参与方的 Gate。parties <= 0 时视为已全部到达。
func New(parties int) *Gate {
	g := &Gate{
		parties: parties,
		allIn:   make(chan struct{}),
		open:    make(chan struct{}),
	}
	if parties <= 0 {
		close(g.allIn)
	}
	return g
}

// Arrive 登记一个参与方到达，不等待放行。
func (g *Gate) Arrive() error {
	n := g.arrived.Add(1)
	switch {
	case n == int64(g.parties):
		close(g.allIn)
	case n > int64(g.parties):
		return ErrOverArrival
	}
	return nil
}

// ArriveAndWait 登记到达并阻塞直到 Open 或 ctx 结束。
func (g *Gate) ArriveAndWait(ctx context.Context) error {
	if err := g.Arrive(); err != nil {
		return err
	}
	return g.Wait(ctx)
}

// Wait 阻塞直到 Open 或 ctx 结束。
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitArrivals 阻塞直到全部参与方到达或 ctx 结束。
func (g *Gate) AwaitArrivals(ctx context.Context) error {
	select {
	case <-g.allIn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Open 放行所有等待方。幂等。
func (g *Gate) Open() {
	g.openOnce.Do(func() { close(g.open) })
}

// Arrived 返回已到达的参与方数量。
func (g *Gate) Arrived() int {
	return int(g.arrived.Load())
}
