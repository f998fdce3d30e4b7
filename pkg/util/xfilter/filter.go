// Package xfilter 提供按谓词过滤切片的纯函数。
package xfilter

import "iter"

// Filter 返回 in 中满足 keep 的元素组成的新切片，保持原有顺序，不修改 in。
func Filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Seq 惰性地产出 in 中满足 keep 的元素。
func Seq[T any](in []T, keep func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range in {
			if keep(v) && !yield(v) {
				return
			}
		}
	}
}

// Count 返回 in 中满足 keep 的元素个数。
func Count[T any](in []T, keep func(T) bool) int {
	n := 0
	for _, v := range in {
		if keep(v) {
			n++
		}
	}
	return n
}
