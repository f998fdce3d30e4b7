package xfuture

import (
	"context"
	"errors"
	"sync"
)

// Set 是 Future 的集合，零值可用。
type Set struct {
	mu      sync.Mutex
	futures []*Future
}

// NewSet 由已有的 Future 创建 Set。
func NewSet(fs ...*Future) *Set {
	s := &Set{}
	for _, f := range fs {
		s.Add(f)
	}
	return s
}

// Add 加入一个 Future。nil 被忽略。
func (s *Set) Add(f *Future) {
	if f == nil {
		return
	}
	s.mu.Lock()
	s.futures = append(s.futures, f)
	s.mu.Unlock()
}

// Merge 把 other 的全部 Future 移入 s，other 随后为空。
func (s *Set) Merge(other *Set) {
	if other == nil || other == s {
		return
	}
	other.mu.Lock()
	moved := other.futures
	other.futures = nil
	other.mu.Unlock()

	s.mu.Lock()
	s.futures = append(s.futures, moved...)
	s.mu.Unlock()
}

// Len 返回尚未被等待的 Future 数量（含无效 Future）。
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.futures)
}

// Wait 等待全部 Future 完成后清空集合。
// 无效 Future 被跳过；任务错误按加入顺序通过 errors.Join 汇总。
func (s *Set) Wait() error {
	var errs []error
	for _, f := range s.take() {
		if err := f.Wait(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WaitContext 与 Wait 相同，但 ctx 结束时停止等待：
// 尚未完成的 Future 放回集合，返回值包含 ctx.Err()。
func (s *Set) WaitContext(ctx context.Context) error {
	pending := s.take()
	var errs []error
	for i, f := range pending {
		if err := f.WaitContext(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				s.requeue(pending[i:])
				return errors.Join(append(errs, ctxErr)...)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Set) take() []*Future {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs := s.futures
	s.futures = nil
	return fs
}

func (s *Set) requeue(fs []*Future) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.futures = append(fs, s.futures...)
}
