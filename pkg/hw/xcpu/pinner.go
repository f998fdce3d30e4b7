package xcpu

//go:generate mockgen -source=pinner.go -destination=mock_pinner_test.go -package=xcpu

// Pinner 按 OS 线程 ID 设置亲和性。
type Pinner interface {
	// ThreadID 返回调用方所在 OS 线程的 ID。
	// 调用方应已通过 runtime.LockOSThread 锁定线程，否则结果没有意义。
	ThreadID() int

	// Pin 把线程 tid 绑定到逻辑 CPU cpu。
	Pin(tid, cpu int) error
}

// DefaultPinner 返回当前平台的 Pinner。
func DefaultPinner() Pinner {
	return osPinner{}
}
