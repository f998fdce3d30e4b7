package xqueue

import "errors"

// ErrClosed 表示队列已关闭。
var ErrClosed = errors.New("xqueue: queue is closed")
