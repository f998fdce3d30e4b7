package xtopo

import "encoding/binary"

const (
	// leafVendor 是返回最大基础叶和厂商字符串的叶。
	leafVendor uint32 = 0x00
	// leafTopology 是 Extended Topology Enumeration 叶。
	leafTopology uint32 = 0x0B

	// supportedVendor 是唯一支持的厂商字符串。
	supportedVendor = "GenuineIntel"

	// maxLevels 限制子叶遍历深度，防止异常的 LeafReader 导致死循环。
	maxLevels = 32
)

// Leaf 是一次 CPUID 调用返回的四个寄存器。
type Leaf struct {
	EAX, EBX, ECX, EDX uint32
}

// LeafReader 读取指定叶/子叶的 CPUID 结果。
//
// 这是整个库中唯一接触硬件指令的边界，其余代码都通过该接口工作。
type LeafReader interface {
	ReadLeaf(leaf, subleaf uint32) Leaf
}

// LeafReaderFunc 将普通函数适配为 LeafReader。
type LeafReaderFunc func(leaf, subleaf uint32) Leaf

// ReadLeaf 实现 LeafReader。
func (f LeafReaderFunc) ReadLeaf(leaf, subleaf uint32) Leaf {
	return f(leaf, subleaf)
}

// CPUID 是基于硬件指令的 LeafReader。
var CPUID LeafReader = LeafReaderFunc(func(leaf, subleaf uint32) Leaf {
	a, b, c, d := cpuid(leaf, subleaf)
	return Leaf{EAX: a, EBX: b, ECX: c, EDX: d}
})

// Vendor 从叶 0 的寄存器中拼出厂商字符串（顺序为 EBX、EDX、ECX）。
func (l Leaf) Vendor() string {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], l.EBX)
	binary.LittleEndian.PutUint32(buf[4:8], l.EDX)
	binary.LittleEndian.PutUint32(buf[8:12], l.ECX)
	return string(buf[:])
}

// VendorLeaf 根据厂商字符串和最大基础叶构造叶 0，主要用于测试和假实现。
// vendor 不足 12 字节时以 0 填充，超出部分被截断。
func VendorLeaf(vendor string, maxLeaf uint32) Leaf {
	var buf [12]byte
	copy(buf[:], vendor)
	return Leaf{
		EAX: maxLeaf,
		EBX: binary.LittleEndian.Uint32(buf[0:4]),
		EDX: binary.LittleEndian.Uint32(buf[4:8]),
		ECX: binary.LittleEndian.Uint32(buf[8:12]),
	}
}
