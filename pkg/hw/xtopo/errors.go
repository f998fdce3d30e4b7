package xtopo

import "errors"

var (
	// ErrUnsupportedHardware 表示处理器不提供 0x0B 叶或厂商不是 GenuineIntel。
	ErrUnsupportedHardware = errors.New("xtopo: unsupported hardware")

	// ErrLogicFault 表示解码出的层级不自洽（子叶编号与 ECX[7:0] 不一致等）。
	ErrLogicFault = errors.New("xtopo: inconsistent topology leaf")

	// ErrNilReader 表示 LeafReader 为 nil。
	ErrNilReader = errors.New("xtopo: nil leaf reader")
)
