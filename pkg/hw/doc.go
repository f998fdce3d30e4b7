// Package hw 提供硬件拓扑相关的子包。
//
// 子包列表：
//   - xtopo: 通过 CPUID 0x0B 叶解码当前逻辑 CPU 的层级（SMT/core/package）
//   - xcpu: 逐逻辑 CPU 探测拓扑、构建核掩码表、按物理核设置线程亲和性
//
// 设计原则：
//   - CPUID 指令只出现在 xtopo.LeafReader 之后，其余代码可用假实现测试
//   - 探测失败只降级（不绑定），不阻止线程池运行
//   - 仅支持 GenuineIntel x86-64 与 Linux 线程绑定
package hw
