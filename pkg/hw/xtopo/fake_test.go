package xtopo

// fakeLevel 描述假 CPU 的一层：累计位移和层类型。
type fakeLevel struct {
	shift uint32
	kind  LevelType
}

// fakeCPU 按 Intel 手册的约定模拟 0x00 / 0x0B 叶。
type fakeCPU struct {
	vendor  string
	maxLeaf uint32
	x2apic  uint32
	levels  []fakeLevel
	// badSubleaf >= 0 时该子叶的 ECX[7:0] 被篡改。
	badSubleaf int
	// endless 为 true 时永不返回 LevelInvalid。
	endless bool
}

func newFakeCPU(x2apic uint32, levels ...fakeLevel) *fakeCPU {
	return &fakeCPU{
		vendor:     supportedVendor,
		maxLeaf:    0x16,
		x2apic:     x2apic,
		levels:     levels,
		badSubleaf: -1,
	}
}

func (f *fakeCPU) ReadLeaf(leaf, subleaf uint32) Leaf {
	switch leaf {
	case leafVendor:
		return VendorLeaf(f.vendor, f.maxLeaf)
	case leafTopology:
		ecx := subleaf & 0xFF
		if int(subleaf) == f.badSubleaf {
			ecx = (subleaf + 1) & 0xFF
		}
		switch {
		case f.endless:
			return Leaf{EAX: 1, ECX: ecx | uint32(LevelSMT)<<8, EDX: f.x2apic}
		case int(subleaf) < len(f.levels):
			l := f.levels[subleaf]
			return Leaf{EAX: l.shift, EBX: 1, ECX: ecx | uint32(l.kind)<<8, EDX: f.x2apic}
		default:
			return Leaf{ECX: ecx, EDX: f.x2apic}
		}
	default:
		return Leaf{}
	}
}

// htCPU 返回一个 2 路超线程、每封装 8 核的假 CPU。
func htCPU(pkg, core, smt uint32) *fakeCPU {
	return newFakeCPU(pkg<<4|core<<1|smt,
		fakeLevel{shift: 1, kind: LevelSMT},
		fakeLevel{shift: 4, kind: LevelCore},
	)
}
