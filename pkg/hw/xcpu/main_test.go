package xcpu

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain 在所有测试完成后检测 goroutine 泄漏（探测 goroutine 必须全部退出）。
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
