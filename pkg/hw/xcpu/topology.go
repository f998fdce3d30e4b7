package xcpu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xaffinity/internal/startgate"
	"github.com/omeyang/xaffinity/pkg/hw/xtopo"
)

// Topology 是一次发现的结果：每个逻辑 CPU 的硬件线程标识和核掩码表。
//
// 逻辑 CPU 以内核编号标识，不一定连续（受 cpuset 或 taskset 限制时）。
// 构造后不再修改，可并发读取。nil *Topology 表示没有可用拓扑，
// 所有查询返回零值，SetAffinity 为空操作。
type Topology struct {
	// cpus 升序排列，cpus[i] 是 threads[i] 所在的逻辑 CPU 编号。
	cpus      []int
	threads   []xtopo.HardwareThreadID
	coreMasks []int
	pinner    Pinner
	logger    *slog.Logger
}

// probe 是单个探测 goroutine 的结果槽位。
// tid 在到达屏障前写入；err 由调用方在放行前写入；id 在放行后写入。
type probe struct {
	tid int
	err error
	id  xtopo.HardwareThreadID
}

// Discover 探测本机每个逻辑 CPU 的拓扑并构建核掩码表。
//
// 默认探测进程亲和性掩码允许的全部逻辑 CPU（Linux 上取自 sched_getaffinity）。
// 只有 ctx 结束或参数无效时返回错误；单个探测失败只记录日志。
// 开销较大（启动并回收 LogicalCPUs 个 OS 线程），应在进程内只调用一次，
// 并把结果传给使用方。
func Discover(ctx context.Context, opts ...Option) (*Topology, error) {
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
	cpus, err := o.probeCPUs()
	if err != nil {
		return nil, err
	}
	n := len(cpus)

	start := time.Now()
	probes := make([]probe, n)
	gate := startgate.New(n)

	var eg errgroup.Group
	for i, cpu := range cpus {
		eg.Go(func() error {
			// 不调用 UnlockOSThread：线程亲和性已被修改，
			// goroutine 退出时 runtime 会直接销毁该线程。
			runtime.LockOSThread()
			p := &probes[i]
			p.tid = o.pinner.ThreadID()
			if err := gate.ArriveAndWait(ctx); err != nil {
				return err
			}
			acquireProbe(o, cpu, p)
			return nil
		})
	}

	if err := gate.AwaitArrivals(ctx); err != nil {
		_ = eg.Wait()
		return nil, err
	}
	for i, cpu := range cpus {
		if err := o.pinner.Pin(probes[i].tid, cpu); err != nil {
			probes[i].err = err
		}
	}
	gate.Open()
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	threads := make([]xtopo.HardwareThreadID, n)
	for i := range probes {
		threads[i] = probes[i].id
	}
	t := newTopology(cpus, threads, o)
	o.logger.Debug("xcpu: topology discovered",
		slog.Int("logical_cpus", n),
		slog.Int("cores", t.NumCores()),
		slog.Duration("elapsed", time.Since(start)),
	)
	if t.NumCores() == 0 {
		o.logger.Warn("xcpu: no usable topology, thread pinning disabled",
			slog.Int("logical_cpus", n),
		)
	}
	return t, nil
}

// acquireProbe 在已绑定到 cpu 的线程上读取拓扑。失败只记录日志。
func acquireProbe(o options, cpu int, p *probe) {
	if p.err != nil {
		o.logger.Warn("xcpu: probe not pinned, skipped",
			slog.Int("cpu", cpu),
			slog.Any("error", p.err),
		)
		return
	}
	id, err := xtopo.Acquire(o.leafSource(cpu))
	switch {
	case err == nil:
		p.id = id
	case errors.Is(err, xtopo.ErrLogicFault):
		o.logger.Error("xcpu: topology leaf inconsistent",
			slog.Int("cpu", cpu),
			slog.Any("error", err),
		)
	default:
		o.logger.Warn("xcpu: topology unavailable",
			slog.Int("cpu", cpu),
			slog.Any("error", err),
		)
	}
	p.err = err
}

// New 由已知的逐逻辑 CPU 拓扑构造 Topology，threads[i] 对应逻辑 CPU i。
// 仅 WithLogger 与 WithPinner 生效。
func New(threads []xtopo.HardwareThreadID, opts ...Option) *Topology {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return newTopology(denseCPUs(len(threads)), slices.Clone(threads), o)
}

func newTopology(cpus []int, threads []xtopo.HardwareThreadID, o options) *Topology {
	slots := BuildCoreMasks(threads)
	masks := make([]int, len(slots))
	for i, slot := range slots {
		masks[i] = cpus[slot]
	}
	return &Topology{
		cpus:      cpus,
		threads:   threads,
		coreMasks: masks,
		pinner:    o.pinner,
		logger:    o.logger,
	}
}

// BuildCoreMasks 返回每个物理核的代表在 threads 中的下标：拓扑有效且
// 最内层 ID 为 0，按下标顺序排列。threads[i] 对应逻辑 CPU i 时下标即 CPU 编号。
func BuildCoreMasks(threads []xtopo.HardwareThreadID) []int {
	masks := make([]int, 0, len(threads))
	for cpu, id := range threads {
		if sib, ok := id.Sibling(); ok && sib == 0 {
			masks = append(masks, cpu)
		}
	}
	return masks
}

// NumCores 返回发现的物理核数量。
func (t *Topology) NumCores() int {
	if t == nil {
		return 0
	}
	return len(t.coreMasks)
}

// LogicalCPUs 返回探测的逻辑 CPU 数量。
func (t *Topology) LogicalCPUs() int {
	if t == nil {
		return 0
	}
	return len(t.threads)
}

// CPUs 返回探测过的逻辑 CPU 编号（升序）的副本。
func (t *Topology) CPUs() []int {
	if t == nil {
		return nil
	}
	return slices.Clone(t.cpus)
}

// CoreMasks 返回核掩码表的副本，元素是逻辑 CPU 编号。
func (t *Topology) CoreMasks() []int {
	if t == nil {
		return nil
	}
	return slices.Clone(t.coreMasks)
}

// Thread 返回逻辑 CPU cpu 的拓扑。cpu 未被探测时 ok 为 false。
func (t *Topology) Thread(cpu int) (id xtopo.HardwareThreadID, ok bool) {
	if t == nil {
		return xtopo.HardwareThreadID{}, false
	}
	i, found := slices.BinarySearch(t.cpus, cpu)
	if !found {
		return xtopo.HardwareThreadID{}, false
	}
	return t.threads[i], true
}

// CoreFor 返回第 i 个工作线程应绑定的逻辑 CPU（按核掩码表轮转）。
// 没有物理核时 ok 为 false。
func (t *Topology) CoreFor(i int) (cpu int, ok bool) {
	n := t.NumCores()
	if n == 0 || i < 0 {
		return 0, false
	}
	return t.coreMasks[i%n], true
}

// SetAffinity 按轮转方式把 tids[i] 绑定到 CoreMasks()[i % NumCores()]。
// 没有物理核时为空操作。单个线程失败不影响其他线程，错误通过 errors.Join 汇总。
func (t *Topology) SetAffinity(tids []int) error {
	if t.NumCores() == 0 {
		return nil
	}
	var errs []error
	for i, tid := range tids {
		cpu, _ := t.CoreFor(i)
		if err := t.pinner.Pin(tid, cpu); err != nil {
			errs = append(errs, fmt.Errorf("thread %d (tid %d) -> cpu %d: %w", i, tid, cpu, err))
			continue
		}
		t.logger.Debug("xcpu: thread pinned",
			slog.Int("thread", i),
			slog.Int("tid", tid),
			slog.Int("cpu", cpu),
		)
	}
	return errors.Join(errs...)
}

// Pinner 返回该拓扑使用的线程绑定实现。nil *Topology 返回 DefaultPinner()。
// 线程池通过它记录工作线程 ID，保证与 SetAffinity 使用同一套线程 ID。
func (t *Topology) Pinner() Pinner {
	if t == nil || t.pinner == nil {
		return DefaultPinner()
	}
	return t.pinner
}
