package xcpu

import "errors"

var (
	// ErrUnsupportedPlatform 表示当前平台不支持线程绑定。
	ErrUnsupportedPlatform = errors.New("xcpu: unsupported platform")

	// ErrInvalidCPU 表示逻辑 CPU 编号无效。
	ErrInvalidCPU = errors.New("xcpu: invalid cpu")

	// ErrInvalidCPUCount 表示逻辑 CPU 数量无效。
	ErrInvalidCPUCount = errors.New("xcpu: logical cpu count must be greater than 0")

	// ErrNilContext 表示 context 参数为 nil。
	ErrNilContext = errors.New("xcpu: nil context")
)
