// Package xqueue 提供线程安全的阻塞 FIFO 队列。
//
// [Queue] 是多生产者多消费者队列：Push/PushBatch 不阻塞，WaitAndPop 在队列为空时
// 阻塞等待。底层存储使用 github.com/eapache/queue 的环形缓冲区，
// 互斥锁加条件变量实现等待与唤醒。
//
// # 唤醒策略
//
// 单个 Push 唤醒一个等待方，PushBatch 唤醒全部等待方。这只是启发式：
// 被唤醒的消费方在锁内重新检查队列，不会因虚假唤醒或竞争取到空值。
//
// # 关闭
//
// Close 之后 Push 返回 [ErrClosed]；消费方继续取出剩余元素，队列耗尽后
// WaitAndPop 返回 false。关闭是唯一能让阻塞中的 WaitAndPop 返回的途径，
// 需要放弃等待时使用 WaitAndPopContext。
//
// Empty 与 Len 是瞬时快照，返回后可能立即失效，只适合做监控或提示。
package xqueue
