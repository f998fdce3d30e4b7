package xtopo

import (
	"errors"
	"testing"
)

// FuzzAcquire 验证任意寄存器内容都不会导致 panic 或死循环，
// 且成功时各层 ID 能重新拼回 x2APIC ID。
func FuzzAcquire(f *testing.F) {
	f.Add(uint32(0b10011), uint32(1), uint32(4), uint8(2))
	f.Add(uint32(0), uint32(0), uint32(0), uint8(0))
	f.Add(^uint32(0), uint32(31), uint32(31), uint8(5))

	f.Fuzz(func(t *testing.T, x2apic, s1, s2 uint32, depth uint8) {
		s1 &= 0x1F
		s2 &= 0x1F
		if s2 < s1 {
			s1, s2 = s2, s1
		}
		all := []fakeLevel{{shift: s1, kind: LevelSMT}, {shift: s2, kind: LevelCore}}
		cpu := newFakeCPU(x2apic, all[:int(depth)%3]...)

		id, err := Acquire(cpu)
		if err != nil {
			if !errors.Is(err, ErrLogicFault) && !errors.Is(err, ErrUnsupportedHardware) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}

		shifts := []uint32{0}
		for _, l := range cpu.levels {
			shifts = append(shifts, l.shift)
		}
		var rebuilt uint32
		for i, v := range id.LevelIDs() {
			if shifts[i] < 32 {
				rebuilt |= v << shifts[i]
			}
		}
		if rebuilt != x2apic {
			t.Fatalf("levels %v do not rebuild x2apic %#x (got %#x)", id.LevelIDs(), x2apic, rebuilt)
		}
	})
}
