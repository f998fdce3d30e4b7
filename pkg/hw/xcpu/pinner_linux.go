//go:build linux

package xcpu

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// 系统调用函数变量，测试中替换以覆盖错误路径。
// 注意：替换这些变量的测试不可使用 t.Parallel()。
var (
	gettid           = unix.Gettid
	schedSetaffinity = unix.SchedSetaffinity
	schedGetaffinity = unix.SchedGetaffinity
)

// maxCPUID 是扫描亲和性掩码的编号上限，不小于 unix.CPUSet 的容量。
const maxCPUID = 1 << 12

// allowedCPUs 返回当前进程亲和性掩码中的逻辑 CPU 编号，按升序排列。
// 容器 cpuset 或 taskset 限制下编号可能不从 0 开始，也不连续。
func allowedCPUs() ([]int, error) {
	var set unix.CPUSet
	if err := schedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("xcpu: sched_getaffinity: %w", err)
	}
	n := set.Count()
	cpus := make([]int, 0, n)
	for cpu := 0; len(cpus) < n && cpu < maxCPUID; cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}

type osPinner struct{}

func (osPinner) ThreadID() int {
	return gettid()
}

func (osPinner) Pin(tid, cpu int) error {
	if cpu < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCPU, cpu)
	}
	// 超出 CPUSet 容量的编号会被 Set 忽略，随后由内核以 EINVAL 拒绝空集合。
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := schedSetaffinity(tid, &set); err != nil {
		return fmt.Errorf("xcpu: sched_setaffinity tid %d cpu %d: %w", tid, cpu, err)
	}
	return nil
}
