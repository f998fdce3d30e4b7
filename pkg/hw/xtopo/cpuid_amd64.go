//go:build amd64

package xtopo

// cpuid 执行 CPUID 指令，实现在 cpuid_amd64.s。
//
//go:noescape
func cpuid(eaxArg, ecxArg uint32) (eax, ebx, ecx, edx uint32)
