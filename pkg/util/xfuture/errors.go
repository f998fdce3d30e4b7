package xfuture

import "errors"

// ErrPending 表示 Future 尚未完成。
var ErrPending = errors.New("xfuture: future is pending")
