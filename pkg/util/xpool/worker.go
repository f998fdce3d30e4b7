package xpool

import "sync/atomic"

// WorkerState 是 worker 的生命周期状态。
type WorkerState int32

const (
	// StateStarting 已创建线程，等待启动屏障放行。
	StateStarting WorkerState = iota
	// StateRunning 正在处理任务。
	StateRunning
	// StateDraining 已收到关闭请求，处理剩余任务直到遇到哨兵。
	StateDraining
	// StateTerminated 已退出。
	StateTerminated
)

func (s WorkerState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// WorkerInfo 是单个 worker 的快照。
type WorkerInfo struct {
	Index int
	TID   int
	State WorkerState
}

type worker struct {
	index int
	// tid 在到达启动屏障前写入；worker 被接替时更新。
	tid   atomic.Int64
	state atomic.Int32
}

// setState 推进状态，状态只前进不后退。
func (w *worker) setState(s WorkerState) {
	for {
		cur := w.state.Load()
		if WorkerState(cur) >= s {
			return
		}
		if w.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}

func (w *worker) info() WorkerInfo {
	return WorkerInfo{Index: w.index, TID: int(w.tid.Load()), State: WorkerState(w.state.Load())}
}
