// Package xpool 提供按硬件拓扑绑定线程的 worker pool。
//
// Pool 为每个 worker 独占一个 OS 线程，所有 worker 共享一个阻塞 FIFO 队列
// （xqueue），任务结果通过 xfuture.Future 返回。
// 支持以下特性：
//   - 按物理核（ModePerCore，默认）或按逻辑 CPU（ModePerLogicalCPU）分配 worker
//   - 按物理核模式下，worker 按 xcpu 核掩码表轮转绑定，绑定失败时退化为不绑定
//   - 启动屏障：全部 worker 就位并完成绑定后才开始处理任务
//   - Schedule / ScheduleBatch 返回 Future / Set，nil 任务被过滤
//   - 优雅关闭：每个 worker 一个关闭哨兵，关闭前已提交的任务仍会执行
//   - 超时关闭（Shutdown(ctx)）与 Done() channel
//   - panic 恢复：任务 panic 被捕获为 *PanicError 写入 Future，含堆栈日志，worker 继续运行
//   - 任务调用 runtime.Goexit 时 Future 以 ErrTaskExited 完成，worker 在新线程上被接替
//   - OpenTelemetry span 与指标（xaffinity.task.total / xaffinity.task.duration）
//   - koanf 文件配置（LoadConfig / ParseConfig）
//   - 可注入自定义日志记录器（WithLogger）与名称（WithName）
//
// # 注意事项
//
//   - Pool 不是单例：显式创建、显式传递。同时存在多个 Pool 时记录告警，
//     多个按物理核绑定的 Pool 会争用同一批核
//   - Close/Shutdown 不可在任务内调用，否则会死锁（worker 等待自己退出）
//   - Close 之后 Schedule 返回以 ErrPoolStopped 完成的 Future
//   - Wait(ctx) 只等待队列为空，不代表任务执行完毕；需要确认完成时等待 Future 或 Set
//   - 绑定过的 worker 退出时不解锁 OS 线程，线程随 goroutine 一起销毁
//
// # 关闭策略
//
// Close 等价于 Shutdown(context.Background())，无限等待所有 worker 退出。
// Shutdown(ctx) 支持超时控制：ctx 到期后立即返回 context 错误，
// worker 仍在后台处理剩余任务直到遇到哨兵后退出。
// 调用方可通过 Done() 返回的 channel 等待所有 worker 最终完成。
//
// # 设计选择说明
//
// New 返回 *Pool 而非接口：
//   - 线程池只有一种实现，返回具体类型更简洁
//   - 编译期通过 io.Closer 断言确保关闭契约
//
// 任务失败不影响其他任务：
//   - 任务没有返回值，panic 与 runtime.Goexit 是仅有的失败形式
//   - 失败写入对应 Future，Set.Wait 汇总同一批次的全部失败
package xpool
