package xcpu

import (
	"testing"

	"github.com/omeyang/xaffinity/pkg/hw/xtopo"
)

func BenchmarkBuildCoreMasks(b *testing.B) {
	threads := make([]xtopo.HardwareThreadID, 256)
	for i := range threads {
		threads[i] = htThread(uint32(i&1), uint32(i>>1)&7, uint32(i>>4))
	}
	b.ReportAllocs()
	for b.Loop() {
		_ = BuildCoreMasks(threads)
	}
}
