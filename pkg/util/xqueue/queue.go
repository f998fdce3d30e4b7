package xqueue

import (
	"context"
	"sync"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"
)

// Queue 是泛型阻塞 FIFO 队列，零值不可用，使用 [New] 创建。
type Queue[T any] struct {
	_ cpu.CacheLinePad

	mu       sync.Mutex
	notEmpty *sync.Cond
	items    *queue.Queue
	closed   bool

	_ cpu.CacheLinePad
}

// New 创建空队列。
func New[T any]() *Queue[T] {
	q := &Queue[T]{items: queue.New()}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push 在队尾追加一个元素并唤醒一个等待方。
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items.Add(v)
	q.mu.Unlock()
	q.notEmpty.Signal()
	return nil
}

// PushBatch 在一次加锁内追加 vs 的全部元素并唤醒所有等待方。
// 批内元素在队列中保持连续且顺序不变。空批次是空操作。
func (q *Queue[T]) PushBatch(vs []T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if len(vs) == 0 {
		q.mu.Unlock()
		return nil
	}
	for _, v := range vs {
		q.items.Add(v)
	}
	q.mu.Unlock()
	q.notEmpty.Broadcast()
	return nil
}

// Pop 非阻塞地取出队首元素。队列为空时 ok 为 false。
func (q *Queue[T]) Pop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// WaitAndPop 阻塞直到取出队首元素。
// 仅当队列已关闭且已取空时返回 false。
func (q *Queue[T]) WaitAndPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Length() == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	return q.popLocked()
}

// WaitAndPopContext 与 WaitAndPop 相同，但 ctx 结束时返回 ctx.Err()。
// 队列关闭且取空时返回 [ErrClosed]。
func (q *Queue[T]) WaitAndPopContext(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	// sync.Cond 不能与 channel 一起 select，ctx 结束时广播唤醒，
	// 由被唤醒的等待方自行检查 ctx。
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.notEmpty.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Length() == 0 && !q.closed {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		q.notEmpty.Wait()
	}
	if v, ok := q.popLocked(); ok {
		return v, nil
	}
	return zero, ErrClosed
}

func (q *Queue[T]) popLocked() (v T, ok bool) {
	if q.items.Length() == 0 {
		return v, false
	}
	// 接口类型 T 可能入队 nil，逗号 ok 形式得到零值而不是 panic。
	v, _ = q.items.Remove().(T)
	return v, true
}

// Empty 报告队列当前是否为空（瞬时快照）。
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Len 返回当前元素数量（瞬时快照）。
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Close 关闭队列并唤醒所有等待方。幂等。
// 已入队的元素仍可被取出。
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}

// Closed 报告队列是否已关闭。
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
