package xcpu

import (
	"bytes"
	"log/slog"
	"sync"

	"github.com/omeyang/xaffinity/pkg/hw/xtopo"
)

// lockedBuffer 是并发安全的日志缓冲区。
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

// topoLeaf 模拟 2 路超线程、位移 1/4 的 GenuineIntel CPU。
func topoLeaf(pkg, core, smt uint32) xtopo.LeafReader {
	x2apic := pkg<<4 | core<<1 | smt
	return xtopo.LeafReaderFunc(func(leaf, subleaf uint32) xtopo.Leaf {
		switch {
		case leaf == 0:
			return xtopo.VendorLeaf("GenuineIntel", 0x16)
		case leaf == 0x0B && subleaf == 0:
			return xtopo.Leaf{EAX: 1, ECX: uint32(xtopo.LevelSMT) << 8, EDX: x2apic}
		case leaf == 0x0B && subleaf == 1:
			return xtopo.Leaf{EAX: 4, ECX: 1 | uint32(xtopo.LevelCore)<<8, EDX: x2apic}
		default:
			return xtopo.Leaf{ECX: subleaf & 0xFF, EDX: x2apic}
		}
	})
}

// amdLeaf 模拟不受支持的厂商。
var amdLeaf = xtopo.LeafReaderFunc(func(_, _ uint32) xtopo.Leaf {
	return xtopo.VendorLeaf("AuthenticAMD", 0x10)
})

// faultLeaf 模拟子叶编号不一致的硬件。
var faultLeaf = xtopo.LeafReaderFunc(func(leaf, subleaf uint32) xtopo.Leaf {
	if leaf == 0 {
		return xtopo.VendorLeaf("GenuineIntel", 0x16)
	}
	return xtopo.Leaf{ECX: (subleaf + 7) & 0xFF}
})

// htThread 构造 (smt, core, pkg) 的有效线程标识。
func htThread(smt, core, pkg uint32) xtopo.HardwareThreadID {
	return xtopo.FromLevels(pkg<<4|core<<1|smt,
		xtopo.Level{Type: xtopo.LevelSMT, ID: smt},
		xtopo.Level{Type: xtopo.LevelCore, ID: core},
		xtopo.Level{Type: xtopo.LevelPackage, ID: pkg},
	)
}
