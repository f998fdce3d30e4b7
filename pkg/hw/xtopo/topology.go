package xtopo

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// LevelType 是 0x0B 叶 ECX[15:8] 报告的层类型。
type LevelType uint32

const (
	// LevelInvalid 终止子叶遍历。
	LevelInvalid LevelType = 0
	// LevelSMT 超线程兄弟层。
	LevelSMT LevelType = 1
	// LevelCore 物理核层。
	LevelCore LevelType = 2
	// LevelModule 模块层（0x1F 叶定义，0x0B 叶上少见）。
	LevelModule LevelType = 3
	// LevelTile Tile 层。
	LevelTile LevelType = 4
	// LevelDie Die 层。
	LevelDie LevelType = 5
	// LevelPackage 表示最外层（封装/插槽），不由硬件直接报告，
	// 取值超出 ECX[15:8] 的编码范围。
	LevelPackage LevelType = 0x100
)

// String 返回层类型的可读名称。
func (t LevelType) String() string {
	switch t {
	case LevelInvalid:
		return "invalid"
	case LevelSMT:
		return "smt"
	case LevelCore:
		return "core"
	case LevelModule:
		return "module"
	case LevelTile:
		return "tile"
	case LevelDie:
		return "die"
	case LevelPackage:
		return "package"
	default:
		return "level(" + strconv.FormatUint(uint64(t), 10) + ")"
	}
}

// Level 是层级中的一层：类型和当前线程在该层的 ID。
type Level struct {
	Type LevelType
	ID   uint32
}

// HardwareThreadID 是一次采样得到的硬件线程标识。
//
// 零值无效。Acquire 成功后不再修改；LevelIDs/Levels 返回副本。
type HardwareThreadID struct {
	ids    []uint32    // 由内到外：SMT、core、...、package
	types  []LevelType // 与 ids 对应，最后一项恒为 LevelPackage
	x2apic uint32
	valid  bool
}

// Acquire 读取执行该调用的逻辑 CPU 的拓扑。
func Acquire(r LeafReader) (HardwareThreadID, error) {
	var id HardwareThreadID
	err := id.Acquire(r)
	return id, err
}

// Acquire 读取执行该调用的逻辑 CPU 的拓扑并写入 h。
//
// 强保证：失败时 h 保持原状。
func (h *HardwareThreadID) Acquire(r LeafReader) error {
	if r == nil {
		return ErrNilReader
	}

	vendor := r.ReadLeaf(leafVendor, 0)
	if vendor.EAX < leafTopology {
		return fmt.Errorf("%w: max basic leaf %#x, need %#x", ErrUnsupportedHardware, vendor.EAX, leafTopology)
	}
	if v := vendor.Vendor(); v != supportedVendor {
		return fmt.Errorf("%w: vendor %q", ErrUnsupportedHardware, v)
	}

	// shifts[0] = 0，shifts[i+1] 为第 i 层的累计位移。
	shifts := make([]uint32, 1, 4)
	types := make([]LevelType, 0, 4)
	var x2apic uint32
	for sub := uint32(0); ; sub++ {
		if sub >= maxLevels {
			return fmt.Errorf("%w: more than %d levels", ErrLogicFault, maxLevels)
		}
		l := r.ReadLeaf(leafTopology, sub)
		if got := l.ECX & 0xFF; got != sub {
			return fmt.Errorf("%w: subleaf %d reports level number %d", ErrLogicFault, sub, got)
		}
		x2apic = l.EDX
		lt := LevelType(l.ECX >> 8 & 0xFF)
		if lt == LevelInvalid {
			break
		}
		types = append(types, lt)
		shifts = append(shifts, l.EAX&0x1F)
	}

	ids := make([]uint32, 0, len(shifts))
	for i := 0; i+1 < len(shifts); i++ {
		ids = append(ids, (x2apic & ^(^uint32(0)<<shifts[i+1]))>>shifts[i])
	}
	ids = append(ids, x2apic>>shifts[len(shifts)-1])
	types = append(types, LevelPackage)

	h.ids = ids
	h.types = types
	h.x2apic = x2apic
	h.valid = true
	return nil
}

// Valid 报告 h 是否保存了一次成功的采样。
func (h HardwareThreadID) Valid() bool {
	return h.valid
}

// X2APIC 返回原始 x2APIC ID。无效时为 0xFFFFFFFF。
func (h HardwareThreadID) X2APIC() uint32 {
	if !h.valid {
		return ^uint32(0)
	}
	return h.x2apic
}

// LevelIDs 返回由内到外的各层 ID，通常为 SMT、core、package。
func (h HardwareThreadID) LevelIDs() []uint32 {
	return slices.Clone(h.ids)
}

// Levels 返回带类型的各层，由内到外。
func (h HardwareThreadID) Levels() []Level {
	out := make([]Level, len(h.ids))
	for i := range h.ids {
		out[i] = Level{Type: h.types[i], ID: h.ids[i]}
	}
	return out
}

// Sibling 返回最内层 ID（超线程兄弟序号）。无效或无层级时 ok 为 false。
func (h HardwareThreadID) Sibling() (id uint32, ok bool) {
	if !h.valid || len(h.ids) == 0 {
		return 0, false
	}
	return h.ids[0], true
}

// Description 描述层级结构，例如 "smt/core/package"。
func (h HardwareThreadID) Description() string {
	if !h.valid {
		return "invalid"
	}
	names := make([]string, len(h.types))
	for i, t := range h.types {
		names[i] = t.String()
	}
	return strings.Join(names, "/")
}

// String 形如 "x2apic=5 smt=1 core=2 package=0"。
func (h HardwareThreadID) String() string {
	if !h.valid {
		return "invalid"
	}
	var b strings.Builder
	b.WriteString("x2apic=")
	b.WriteString(strconv.FormatUint(uint64(h.x2apic), 10))
	for i, id := range h.ids {
		b.WriteByte(' ')
		b.WriteString(h.types[i].String())
		b.WriteByte('=')
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return b.String()
}

// FromLevels 由已知的各层构造有效的 HardwareThreadID，用于注入和测试。
// levels 由内到外排列；最外层类型会被规范为 LevelPackage。
func FromLevels(x2apic uint32, levels ...Level) HardwareThreadID {
	ids := make([]uint32, len(levels))
	types := make([]LevelType, len(levels))
	for i, l := range levels {
		ids[i] = l.ID
		types[i] = l.Type
	}
	if n := len(types); n > 0 {
		types[n-1] = LevelPackage
	}
	return HardwareThreadID{ids: ids, types: types, x2apic: x2apic, valid: true}
}
