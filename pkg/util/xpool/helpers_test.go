package xpool

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xaffinity/pkg/hw/xcpu"
	"github.com/omeyang/xaffinity/pkg/hw/xtopo"
)

// fakePinner 分配递增的线程 ID 并记录绑定结果，不修改真实线程。
type fakePinner struct {
	next    atomic.Int64
	failCPU int // >= 0 时绑定到该 CPU 失败

	mu   sync.Mutex
	pins map[int]int
}

func newFakePinner() *fakePinner {
	return &fakePinner{failCPU: -1, pins: make(map[int]int)}
}

func (f *fakePinner) ThreadID() int {
	return int(f.next.Add(1)) + 100
}

func (f *fakePinner) Pin(tid, cpu int) error {
	if cpu == f.failCPU {
		return errors.New("pin refused")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pins[tid] = cpu
	return nil
}

func (f *fakePinner) pinned() map[int]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]int, len(f.pins))
	for k, v := range f.pins {
		out[k] = v
	}
	return out
}

// thread 构造 (smt, core) 的硬件线程标识。
func thread(smt, core uint32) xtopo.HardwareThreadID {
	return xtopo.FromLevels(core<<1|smt,
		xtopo.Level{Type: xtopo.LevelSMT, ID: smt},
		xtopo.Level{Type: xtopo.LevelCore, ID: core},
		xtopo.Level{Type: xtopo.LevelPackage, ID: 0},
	)
}

// htTopology 返回 cores 个物理核、每核 2 线程的拓扑，逻辑 CPU 2i/2i+1 共享核 i。
func htTopology(cores int, p xcpu.Pinner) *xcpu.Topology {
	threads := make([]xtopo.HardwareThreadID, 0, cores*2)
	for c := range cores {
		threads = append(threads, thread(0, uint32(c)), thread(1, uint32(c)))
	}
	return xcpu.New(threads, xcpu.WithPinner(p))
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*slog.Logger, *lockedBuffer) {
	buf := &lockedBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}
