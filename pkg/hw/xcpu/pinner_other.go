//go:build !linux

package xcpu

import "runtime"

type osPinner struct{}

// ThreadID 在非 Linux 平台上恒为 0。
func (osPinner) ThreadID() int {
	return 0
}

// Pin 在非 Linux 平台上返回 [ErrUnsupportedPlatform]。
func (osPinner) Pin(_, _ int) error {
	return ErrUnsupportedPlatform
}

// allowedCPUs 在非 Linux 平台上假定编号为 0..runtime.NumCPU()-1。
func allowedCPUs() ([]int, error) {
	return denseCPUs(runtime.NumCPU()), nil
}
