package xpool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/google/uuid"

	"github.com/omeyang/xaffinity/internal/startgate"
	"github.com/omeyang/xaffinity/pkg/hw/xcpu"
	"github.com/omeyang/xaffinity/pkg/util/xfilter"
	"github.com/omeyang/xaffinity/pkg/util/xfuture"
	"github.com/omeyang/xaffinity/pkg/util/xqueue"
)

// maxWorkers 是 worker 数量上限。
const maxWorkers = 1 << 16

// Wait 轮询队列的退避区间。
const (
	waitBackoffMin = 50 * time.Microsecond
	waitBackoffMax = 10 * time.Millisecond
)

// 编译期断言：Pool 实现 io.Closer。
var _ io.Closer = (*Pool)(nil)

// errQueueBusy 驱动 Wait 的轮询重试，不会返回给调用方。
var errQueueBusy = errors.New("xpool: queue not empty")

// liveInstances 统计当前存活的 Pool 数量，仅用于告警。
var liveInstances atomic.Int64

// itemKind 区分任务与关闭哨兵。
type itemKind uint8

const (
	itemTask itemKind = iota
	itemShutdown
)

// workItem 是队列中的元素。哨兵永远不会被执行；任务项的 fn 恒不为 nil。
type workItem struct {
	kind    itemKind
	fn      func()
	promise *xfuture.Promise
}

// Pool 是按硬件拓扑绑定线程的 worker 池。
//
// 每个 worker 独占一个 OS 线程。按物理核模式下，worker 按核掩码表轮转绑定到
// 各物理核。所有 worker 共享一个 FIFO 队列。
type Pool struct {
	id     string
	name   string
	mode   Mode
	logger *slog.Logger
	obs    *observer

	topo    *xcpu.Topology
	queue   *xqueue.Queue[workItem]
	workers []*worker
	wg      sync.WaitGroup
	pinned  bool
	// pinning 表示启动时尝试过绑定；此时 worker 退出时不解锁线程。
	pinning bool

	// closeMu 保证关闭前提交的任务全部排在哨兵之前。
	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}

	// aborted 在启动失败时置位，让已到达屏障的 worker 直接退出。
	aborted atomic.Bool

	scheduled atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
	exited    atomic.Uint64
}

// Stats 是 Pool 的计数快照。
type Stats struct {
	Scheduled uint64 // 已入队的任务数
	Completed uint64 // 已执行完的任务数（含 panic 与 Goexit）
	Panicked  uint64 // panic 的任务数
	Exited    uint64 // 调用 runtime.Goexit 的任务数，即 worker 被接替的次数
	Pending   int    // 队列中尚未取出的元素数
}

// New 创建并启动 Pool。
//
// topo 为 nil 或没有物理核时 worker 不绑定，数量默认 runtime.NumCPU()。
// ctx 只约束启动阶段（等待全部 worker 就位），不影响 Pool 的生命周期。
// 同一进程内应只创建一个 Pool；存在多个时记录告警但不拒绝。
func New(ctx context.Context, topo *xcpu.Topology, opts ...Option) (*Pool, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if !o.mode.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(o.mode))
	}
	if o.workers < 0 || o.workers > maxWorkers {
		return nil, fmt.Errorf("%w: %d (valid range [0, %d])", ErrInvalidWorkers, o.workers, maxWorkers)
	}

	id := uuid.NewString()
	logger := o.logger.With(slog.String("pool", id))
	if o.name != "" {
		logger = logger.With(slog.String("name", o.name))
	}
	obs, err := newObserver(o, id)
	if err != nil {
		return nil, err
	}

	n := workerCount(o, topo)
	p := &Pool{
		id:      id,
		name:    o.name,
		mode:    o.mode,
		logger:  logger,
		obs:     obs,
		topo:    topo,
		queue:   xqueue.New[workItem](),
		workers: make([]*worker, n),
		done:    make(chan struct{}),
	}

	pinner := topo.Pinner()
	gate := startgate.New(n)
	for i := range n {
		w := &worker{index: i}
		p.workers[i] = w
		p.wg.Add(1)
		go p.run(w, pinner, gate)
	}

	if err := gate.AwaitArrivals(ctx); err != nil {
		p.aborted.Store(true)
		gate.Open()
		p.wg.Wait()
		return nil, err
	}

	if o.mode == ModePerCore && topo.NumCores() > 0 {
		p.pinning = true
		tids := make([]int, n)
		for i, w := range p.workers {
			tids[i] = int(w.tid.Load())
		}
		if err := topo.SetAffinity(tids); err != nil {
			logger.Warn("xpool: thread pinning incomplete", slog.Any("error", err))
		} else {
			p.pinned = true
		}
	}
	for _, w := range p.workers {
		w.setState(StateRunning)
	}
	gate.Open()

	if live := liveInstances.Add(1); live > 1 {
		logger.Warn("xpool: multiple pools alive, threads may compete for cores",
			slog.Int64("live", live),
		)
	}
	logger.Info("xpool: started",
		slog.Int("workers", n),
		slog.String("mode", o.mode.String()),
		slog.Bool("pinned", p.pinned),
	)
	return p, nil
}

func workerCount(o options, topo *xcpu.Topology) int {
	switch {
	case o.workers > 0:
		return o.workers
	case o.mode == ModePerCore && topo.NumCores() > 0:
		return topo.NumCores()
	case o.mode == ModePerLogicalCPU && topo.LogicalCPUs() > 0:
		return topo.LogicalCPUs()
	default:
		return runtime.NumCPU()
	}
}

// run 是 worker 主循环。
func (p *Pool) run(w *worker, pinner xcpu.Pinner, gate *startgate.Gate) {
	defer p.wg.Done()

	runtime.LockOSThread()
	w.tid.Store(int64(pinner.ThreadID()))
	// 到达次数与 worker 数量一致，不会返回 ErrOverArrival。
	_ = gate.Arrive()
	_ = gate.Wait(context.Background())
	if p.aborted.Load() {
		w.setState(StateTerminated)
		runtime.UnlockOSThread()
		return
	}
	p.serve(w, pinner)
}

// serve 处理任务直到取到哨兵。
//
// 任务调用 runtime.Goexit 时当前 goroutine 无法继续，锁定的线程随之销毁；
// 此时在新的 OS 线程上接替同一个 worker，队列消费者数量保持不变。
func (p *Pool) serve(w *worker, pinner xcpu.Pinner) {
	replaced := true
	defer func() {
		if replaced {
			// 先于本 goroutine 的 wg.Done 执行，计数不会中途归零。
			p.wg.Add(1)
			go p.respawn(w, pinner)
		}
	}()

	for {
		item, ok := p.queue.WaitAndPop()
		if !ok || item.kind == itemShutdown {
			break
		}
		p.execute(w, item)
	}
	replaced = false
	w.setState(StateTerminated)
	// 绑定过的线程不解锁，goroutine 退出时由 runtime 销毁。
	if !p.pinning {
		runtime.UnlockOSThread()
	}
}

// respawn 在新的 OS 线程上接替 w；启动时绑定过的 worker 重新绑定到原来的 CPU。
func (p *Pool) respawn(w *worker, pinner xcpu.Pinner) {
	defer p.wg.Done()

	runtime.LockOSThread()
	tid := pinner.ThreadID()
	w.tid.Store(int64(tid))
	attrs := []any{slog.Int("worker", w.index), slog.Int("tid", tid)}
	if p.pinning {
		if cpu, ok := p.topo.CoreFor(w.index); ok {
			attrs = append(attrs, slog.Int("cpu", cpu))
			if err := pinner.Pin(tid, cpu); err != nil {
				p.logger.Warn("xpool: replacement worker not pinned",
					slog.Int("worker", w.index),
					slog.Any("error", err),
				)
			}
		}
	}
	p.logger.Warn("xpool: worker replaced", attrs...)
	p.serve(w, pinner)
}

// execute 执行单个任务并完成其 Future。
// panic 被恢复并以 *PanicError 写入 Future；runtime.Goexit 以 ErrTaskExited 写入。
func (p *Pool) execute(w *worker, item workItem) {
	span := p.obs.start(w.index)
	var err error
	finished := false
	defer func() {
		r := recover()
		switch {
		case r != nil:
			perr := &PanicError{Value: r, Stack: debug.Stack()}
			p.panicked.Add(1)
			p.logger.Error("xpool: task panic recovered",
				slog.Int("worker", w.index),
				slog.Any("panic", r),
				slog.String("stack", string(perr.Stack)),
			)
			err = perr
		case !finished:
			// Goexit 展开时 recover 返回 nil。
			p.exited.Add(1)
			p.logger.Error("xpool: task called runtime.Goexit, worker will be replaced",
				slog.Int("worker", w.index),
				slog.String("stack", string(debug.Stack())),
			)
			err = ErrTaskExited
		}
		span.end(err)
		p.completed.Add(1)
		item.promise.Resolve(err)
	}()
	item.fn()
	finished = true
}

// Schedule 提交一个任务并返回其 Future。
//
// fn 为 nil 时不入队，返回无效 Future。Pool 关闭后返回以 [ErrPoolStopped]
// 完成的 Future。任务 panic 时 Future 以 *PanicError 完成。
func (p *Pool) Schedule(fn func()) *xfuture.Future {
	if fn == nil {
		return xfuture.Invalid()
	}
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return xfuture.Rejected(ErrPoolStopped)
	}
	promise, f := xfuture.NewPromise()
	if err := p.queue.Push(workItem{kind: itemTask, fn: fn, promise: promise}); err != nil {
		return xfuture.Rejected(ErrPoolStopped)
	}
	p.scheduled.Add(1)
	return f
}

// ScheduleBatch 一次性提交多个任务，nil 项被过滤，其余保持顺序且在队列中连续。
// 返回的 Set 只包含实际入队任务的 Future。
func (p *Pool) ScheduleBatch(fns []func()) *xfuture.Set {
	tasks := xfilter.Filter(fns, func(fn func()) bool { return fn != nil })
	set := &xfuture.Set{}
	if len(tasks) == 0 {
		return set
	}

	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		for range tasks {
			set.Add(xfuture.Rejected(ErrPoolStopped))
		}
		return set
	}

	items := make([]workItem, len(tasks))
	futures := make([]*xfuture.Future, len(tasks))
	for i, fn := range tasks {
		promise, f := xfuture.NewPromise()
		items[i] = workItem{kind: itemTask, fn: fn, promise: promise}
		futures[i] = f
	}
	if err := p.queue.PushBatch(items); err != nil {
		for range tasks {
			set.Add(xfuture.Rejected(ErrPoolStopped))
		}
		return set
	}
	p.scheduled.Add(uint64(len(tasks)))
	for _, f := range futures {
		set.Add(f)
	}
	return set
}

// Wait 以指数退避轮询，直到队列为空或 ctx 结束。
//
// 队列为空只说明任务都已被取走，不保证执行完毕；需要确认完成时等待 Future。
func (p *Pool) Wait(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := retry.New(
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(waitBackoffMin),
		retry.MaxDelay(waitBackoffMax),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	).Do(func() error {
		if p.queue.Empty() {
			return nil
		}
		return errQueueBusy
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// Close 关闭 Pool 并等待全部 worker 退出。
// 关闭前已提交的任务仍会执行。幂等。不可在任务内调用，否则会死锁。
func (p *Pool) Close() error {
	return p.Shutdown(context.Background())
}

// Shutdown 与 Close 相同，但 ctx 结束时不再等待，返回 ctx.Err()。
// 此时 worker 仍在后台处理剩余任务，可通过 Done 等待其最终退出。
func (p *Pool) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	p.beginClose()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginClose 拒绝新任务，为每个 worker 投递一个关闭哨兵，并在后台等待退出。
func (p *Pool) beginClose() {
	p.closeOnce.Do(func() {
		p.closeMu.Lock()
		p.closed = true
		p.closeMu.Unlock()

		for _, w := range p.workers {
			w.setState(StateDraining)
		}
		sentinels := make([]workItem, len(p.workers))
		for i := range sentinels {
			sentinels[i] = workItem{kind: itemShutdown}
		}
		// 队列只在全部 worker 退出后关闭，这里不会失败。
		_ = p.queue.PushBatch(sentinels)

		go func() {
			p.wg.Wait()
			p.queue.Close()
			liveInstances.Add(-1)
			st := p.Stats()
			p.logger.Info("xpool: stopped",
				slog.Uint64("completed", st.Completed),
				slog.Uint64("panicked", st.Panicked),
				slog.Uint64("exited", st.Exited),
			)
			close(p.done)
		}()
	})
}

// Done 返回全部 worker 退出后关闭的 channel。
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// NumThreads 返回 worker 数量。
func (p *Pool) NumThreads() int {
	return len(p.workers)
}

// Pinned 报告 worker 是否已全部绑定到物理核。
func (p *Pool) Pinned() bool {
	return p.pinned
}

// Mode 返回 worker 分配方式。
func (p *Pool) Mode() Mode {
	return p.mode
}

// ID 返回实例 ID。
func (p *Pool) ID() string {
	return p.id
}

// Name 返回 WithName 设置的名称。
func (p *Pool) Name() string {
	return p.name
}

// Stats 返回计数快照。
func (p *Pool) Stats() Stats {
	return Stats{
		Scheduled: p.scheduled.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
		Exited:    p.exited.Load(),
		Pending:   p.queue.Len(),
	}
}

// Workers 返回各 worker 的状态快照。
func (p *Pool) Workers() []WorkerInfo {
	out := make([]WorkerInfo, len(p.workers))
	for i, w := range p.workers {
		out[i] = w.info()
	}
	return out
}
