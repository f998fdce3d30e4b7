//go:build !amd64

package xtopo

// cpuid 在非 amd64 平台上返回全零，解码时表现为 ErrUnsupportedHardware。
func cpuid(_, _ uint32) (eax, ebx, ecx, edx uint32) {
	return 0, 0, 0, 0
}
