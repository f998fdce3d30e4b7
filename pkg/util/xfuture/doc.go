// Package xfuture 提供一次性完成的 Future/Promise 和用于统一等待的 Set。
//
// Promise 是写端，Future 是读端。Promise.Resolve 只有第一次调用生效，
// 完成后 Future.Done 关闭，所有等待方同时返回。
//
// 无效 Future（nil、[Invalid]）表示没有对应任务，例如提交了 nil 函数。
// 等待无效 Future 立即返回 nil，[Set.Wait] 会跳过它们。
//
// [Set] 收集多个 Future 并在 Wait 时统一等待，常见用法是
//
//	var set xfuture.Set
//	defer set.Wait()
//
// 使离开作用域前所有已提交任务都已结束。Set 内含互斥锁，不可复制。
package xfuture
