// Package util 提供线程池相关的通用子包。
//
// 子包列表：
//   - xqueue: 泛型阻塞 FIFO 队列，WaitAndPop 阻塞等待、Close 唤醒全部等待方
//   - xfuture: 一次性完成的 Future/Promise，Set 统一等待并汇总错误
//   - xfilter: 按谓词过滤切片，保持原有顺序
//   - xpool: 按硬件拓扑绑定线程的 worker pool，优雅关闭、panic 捕获
//
// 设计原则：
//   - 无全局单例，实例显式创建、显式传递
//   - 阻塞操作提供 context 版本
//   - 可注入日志记录器与观测 provider
package util
