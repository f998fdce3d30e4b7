package xpool

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolStopped 表示线程池已关闭，无法提交任务。
	ErrPoolStopped = errors.New("xpool: pool is stopped")

	// ErrTaskPanic 表示任务执行时发生 panic，可通过 errors.Is 匹配 *PanicError。
	ErrTaskPanic = errors.New("xpool: task panicked")

	// ErrTaskExited 表示任务调用了 runtime.Goexit（例如在任务内调用 t.FailNow），
	// 未正常返回。原 worker 的 goroutine 随之终止，由新的 goroutine 接替。
	ErrTaskExited = errors.New("xpool: task exited its goroutine")

	// ErrInvalidWorkers 表示 worker 数量无效。
	ErrInvalidWorkers = errors.New("xpool: invalid worker count")

	// ErrInvalidMode 表示未知的线程池模式。
	ErrInvalidMode = errors.New("xpool: invalid mode")

	// ErrNilContext 表示 context 参数为 nil。
	ErrNilContext = errors.New("xpool: nil context")
)

// PanicError 是任务 panic 被恢复后写入 Future 的错误。
type PanicError struct {
	// Value 是 recover() 得到的值。
	Value any
	// Stack 是 panic 发生时的调用栈。
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("xpool: task panicked: %v", e.Value)
}

// Is 使 errors.Is(err, ErrTaskPanic) 成立。
func (e *PanicError) Is(target error) bool {
	return target == ErrTaskPanic
}

// Unwrap 在 panic 值本身是 error 时返回它。
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
