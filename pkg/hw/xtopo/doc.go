// Package xtopo 解码当前硬件线程在 socket/core/thread 层级中的位置。
//
// 数据来源是 CPUID 指令的 0x0B（Extended Topology Enumeration）叶：
// 逐个子叶读取每一层的位移量（EAX[4:0]）和层类型（ECX[15:8]），
// 再用 x2APIC ID（EDX）按位移切出每一层的 ID。
//
// # 功能概览
//
//   - [LeafReader]: 读取 CPUID 叶的唯一抽象，测试中可替换为假实现
//   - [CPUID]: 基于硬件指令的 LeafReader（仅 amd64，其他架构返回全零叶）
//   - [HardwareThreadID]: 一次采样的结果，包含各层 ID、x2APIC ID 和有效标记
//   - [Acquire]: 便捷函数，返回新的 HardwareThreadID
//
// # 平台支持
//
// 仅支持 GenuineIntel 且最大基础叶 >= 0x0B 的处理器，其他情况返回
// [ErrUnsupportedHardware]。子叶编号与 ECX[7:0] 不一致时返回 [ErrLogicFault]，
// 这表示硬件或虚拟化层违背了文档约定，调用方应当大声报告而非静默吸收。
//
// # 注意事项
//
// CPUID 读取的是执行该指令的逻辑 CPU。调用方若需要某个确定 CPU 的拓扑，
// 必须先锁定 OS 线程（runtime.LockOSThread）并把线程绑定到该 CPU，
// 参见 xcpu 包。
package xtopo
