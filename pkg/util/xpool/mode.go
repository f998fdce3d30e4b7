package xpool

import (
	"fmt"
	"strings"
)

// Mode 决定 worker 数量与绑定方式。
type Mode int

const (
	// ModePerCore 每个物理核一个 worker 并绑定到该核。
	ModePerCore Mode = iota
	// ModePerLogicalCPU 每个逻辑 CPU 一个 worker，不绑定。
	ModePerLogicalCPU
)

func (m Mode) String() string {
	switch m {
	case ModePerCore:
		return "per-core"
	case ModePerLogicalCPU:
		return "per-logical-cpu"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m == ModePerCore || m == ModePerLogicalCPU
}

// ParseMode 解析 "per-core" / "per-logical-cpu"，空串视为 ModePerCore。
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per-core", "core":
		return ModePerCore, nil
	case "per-logical-cpu", "logical":
		return ModePerLogicalCPU, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
