// Package xcpu 发现本机的物理核，并按物理核设置线程亲和性。
//
// # 发现流程
//
// [Discover] 为每个逻辑 CPU 启动一个探测 goroutine：
//
//  1. 探测 goroutine 锁定 OS 线程，登记线程 ID 后在启动屏障处等待
//  2. 调用方确认全部到达后，把第 i 个探测线程绑定到逻辑 CPU i
//  3. 一次性放行全部探测线程，各自通过 CPUID 读取所在逻辑 CPU 的拓扑
//  4. 汇总后保留拓扑有效且最内层（超线程兄弟）ID 为 0 的逻辑 CPU，
//     即每个物理核的代表 CPU，构成核掩码表（[Topology.CoreMasks]）
//
// 单个探测失败（平台不支持绑定、非 Intel、层级不自洽）只会记录日志并把该
// 槽位标记为无效，不会中断整体发现。全部失败时 NumCores() 为 0，
// [Topology.SetAffinity] 退化为空操作，调用方应容忍未绑定的线程池。
//
// 探测 goroutine 退出时不解锁 OS 线程，被改过亲和性的线程由 runtime 销毁，
// 不会回到调度器的线程池中。
//
// # 依赖注入
//
// Topology 是显式创建、显式传递的值，不存在全局单例。测试或已知拓扑场景
// 可通过 [New] 直接构造；CPUID 来源（[WithLeafSource]）和绑定实现
// （[WithPinner]）均可替换。
//
// # 平台支持
//
// 线程绑定仅在 Linux 上实现（sched_setaffinity），其他平台的 [Pinner]
// 返回 [ErrUnsupportedPlatform]，发现结果为零个物理核。
package xcpu
